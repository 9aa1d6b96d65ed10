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
	"strings"
	"time"
)

// An Archive adapts one upstream grid archive family to the extraction
// engine. Implementations are selected by configuration at
// construction; the engine never branches on archive identity at run
// time.
type Archive interface {
	// Daily reports whether the archive's native resolution is
	// already daily. Monthly archives go through the
	// monthly-to-daily expansion.
	Daily() bool

	// Requires lists auxiliary variables that must be extracted to
	// produce v (e.g. wet-day counts for precipitation expansion,
	// vapor pressure for a derived deficit).
	Requires(v Variable) []Variable

	// ListRequiredFiles returns the ordered file plan covering the
	// given years for one variable.
	ListRequiredFiles(v Variable, years YearRange) (FilePlan, error)

	// Extract performs batch extraction for v over plan, converting
	// raw archive units to the standardized unit.
	Extract(ex *Extractor, v Variable, plan FilePlan, sites []Site) (SeriesSet, error)

	// Postprocess derives dependent monthly quantities for one site
	// after extraction (e.g. vapor pressure deficit from vapor
	// pressure and temperature). Returned errors describe months
	// where derivation was impossible; they become missing values,
	// never batch failures.
	Postprocess(site string, monthly map[Variable]MonthlySeries) []error
}

// expandTemplate replaces the [VAR] and [DATE] wildcards in a path
// template.
func expandTemplate(template, token, dateFormat string, date time.Time) string {
	p := strings.Replace(template, "[VAR]", token, -1)
	if strings.Contains(p, "[DATE]") {
		p = strings.Replace(p, "[DATE]", date.Format(dateFormat), -1)
	}
	return p
}

// convertSeries applies a unit conversion to every valid sample.
func convertSeries(set SeriesSet, spec VarSpec) SeriesSet {
	if spec.Scale == 1 && spec.Offset == 0 {
		return set
	}
	for name, samples := range set {
		for i, s := range samples {
			if s.Value.OK {
				samples[i].Value = Some(s.Value.V*spec.Scale + spec.Offset)
			}
		}
		set[name] = samples
	}
	return set
}
