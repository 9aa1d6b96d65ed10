/*
Copyright © 2024 the SiteClim authors.
This file is part of SiteClim.

SiteClim is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SiteClim is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SiteClim.  If not, see <http://www.gnu.org/licenses/>.
*/

package siteclim

import (
	"math"
	"time"
)

// esat returns saturation vapor pressure [Pa] at temperature T [°C]
// (Magnus form, Allen et al., 1998).
func esat(T float64) float64 {
	return 611.0 * math.Exp(17.27*T/(T+237.3))
}

// DeriveVPD computes monthly vapor pressure deficit [Pa] from monthly
// vapor pressure [hPa] and air temperature [°C]. A month where either
// input is missing yields a missing output month; months where one
// input is present but the other is not are recorded as an
// AggregationMissingInputError so the run summary can report degraded
// coverage. Months neither input covers are missing without an error.
// The deficit is floored at zero.
func DeriveVPD(site string, vap, temp MonthlySeries) (MonthlySeries, []error) {
	out := make(MonthlySeries)
	var errs []error
	years := make(map[int]bool)
	for y := range vap {
		years[y] = true
	}
	for y := range temp {
		years[y] = true
	}
	for y := range years {
		for m := time.January; m <= time.December; m++ {
			v := vap.Get(y, m)
			t := temp.Get(y, m)
			if !v.OK && !t.OK {
				// Neither input covers this month; that is plain
				// archive coverage, not a degraded derivation.
				out.Set(y, m, Missing())
				continue
			}
			if !v.OK || !t.OK {
				missing := VAP
				if v.OK {
					missing = Temp
				}
				errs = append(errs, &AggregationMissingInputError{
					Variable: VPD, Input: missing, Site: site, Year: y, Month: m,
				})
				out.Set(y, m, Missing())
				continue
			}
			d := esat(t.V) - v.V*100 // hPa → Pa
			if d < 0 {
				d = 0
			}
			out.Set(y, m, Some(d))
		}
	}
	return out, errs
}
