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
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
)

// windowLen is the number of months in the interpolation window: the
// previous December, the twelve target months, and the next January.
const windowLen = 14

// A MonthlyYear holds the twelve monthly values of one variable for
// one site and year. Months outside the archive's coverage are
// missing.
type MonthlyYear [12]Value

// A MonthlySeries holds per-year monthly values for one variable at
// one site.
type MonthlySeries map[int]*MonthlyYear

// Get returns the value for the given year and month, or missing if
// the year is absent.
func (s MonthlySeries) Get(year int, m time.Month) Value {
	if y, ok := s[year]; ok {
		return y[m-1]
	}
	return Missing()
}

// Set stores a value, allocating the year on first use.
func (s MonthlySeries) Set(year int, m time.Month, v Value) {
	y, ok := s[year]
	if !ok {
		y = new(MonthlyYear)
		s[year] = y
	}
	y[m-1] = v
}

// An Expander converts monthly values into daily sequences. Continuous
// variables are interpolated with a mean-preserving piecewise
// quadratic spline; precipitation is realized with a seeded wet-day
// generator. Neighboring-year boundary months keep the interpolation
// continuous across year boundaries.
type Expander struct {
	Calendar CalendarPolicy
}

// ExpandYear produces the daily sequence for one variable, site, and
// year. vals holds the variable's monthly values; wetd additionally
// holds monthly wet-day counts and is only consulted for
// precipitation. The output has Calendar.DaysInYear(year) entries in
// date order.
func (e *Expander) ExpandYear(v Variable, site string, year int, vals, wetd MonthlySeries) ([]Value, error) {
	switch v.Kind() {
	case Precipitation:
		return e.expandPrecipYear(site, year, vals, wetd), nil
	case Continuous, CloudCover:
		return e.expandSplineYear(v, year, vals), nil
	}
	return nil, fmt.Errorf("siteclim: variable %s cannot be expanded to daily values", v)
}

// expandSplineYear fits the mean-preserving spline over the 14-month
// window and samples it at day midpoints. A month whose own input is
// missing yields missing days: its window slot is bridged for fitting
// only, and the bridged samples are discarded.
func (e *Expander) expandSplineYear(v Variable, year int, vals MonthlySeries) []Value {
	var window [windowLen]Value
	// Boundary months fall back to the current year's own December
	// and January at the archive edges.
	window[0] = vals.Get(year-1, time.December).Or(vals.Get(year, time.December))
	window[windowLen-1] = vals.Get(year+1, time.January).Or(vals.Get(year, time.January))
	for m := 0; m < 12; m++ {
		window[m+1] = vals.Get(year, time.Month(m+1))
	}

	numeric, anyValid := bridgeWindow(window)
	out := make([]Value, 0, e.Calendar.DaysInYear(year))
	if !anyValid {
		for i := 0; i < e.Calendar.DaysInYear(year); i++ {
			out = append(out, Missing())
		}
		return out
	}

	coeffs := fitMeanPreserving(numeric)
	for m := 0; m < 12; m++ {
		month := time.Month(m + 1)
		nd := e.Calendar.DaysInMonth(year, month)
		if !window[m+1].OK {
			for d := 0; d < nd; d++ {
				out = append(out, Missing())
			}
			continue
		}
		seg := coeffs[m+1]
		days := make([]float64, nd)
		var sum float64
		for d := 0; d < nd; d++ {
			t := (float64(d) + 0.5) / float64(nd)
			days[d] = seg[0] + seg[1]*t + seg[2]*t*t
			sum += days[d]
		}
		// Pin the sample mean exactly to the monthly input; the
		// spline preserves the integral, which differs from the
		// midpoint-sample mean by O(1/nd²).
		delta := window[m+1].V - sum/float64(nd)
		for d := 0; d < nd; d++ {
			day := days[d] + delta
			if v.Kind() == CloudCover {
				day = math.Min(math.Max(day, 0), 100)
			}
			out = append(out, Some(day))
		}
	}
	return out
}

// bridgeWindow fills missing window slots with the mean of the nearest
// valid neighbors on each side so that the spline fit stays
// well-posed. Bridged slots are for fitting only; their days are
// emitted as missing.
func bridgeWindow(window [windowLen]Value) (numeric [windowLen]float64, anyValid bool) {
	for _, w := range window {
		if w.OK {
			anyValid = true
			break
		}
	}
	if !anyValid {
		return numeric, false
	}
	for i, w := range window {
		if w.OK {
			numeric[i] = w.V
			continue
		}
		var sum float64
		var n int
		for l := i - 1; l >= 0; l-- {
			if window[l].OK {
				sum += window[l].V
				n++
				break
			}
		}
		for r := i + 1; r < windowLen; r++ {
			if window[r].OK {
				sum += window[r].V
				n++
				break
			}
		}
		numeric[i] = sum / float64(n)
	}
	return numeric, true
}

// fitMeanPreserving fits one quadratic polynomial per window month,
// with value and slope continuity at month boundaries, per-month
// integrals equal to the monthly values, and zero slope at the outer
// ends. Each polynomial is a[0] + a[1]t + a[2]t² on t ∈ [0, 1]; the
// integral constraint makes the per-month mean of the continuous curve
// equal the monthly input by construction.
func fitMeanPreserving(vals [windowLen]float64) [windowLen][3]float64 {
	const n = 3 * windowLen
	A := mat.NewDense(n, n, nil)
	b := mat.NewVecDense(n, nil)
	row := 0
	// ∫₀¹ pₘ = vₘ
	for m := 0; m < windowLen; m++ {
		A.Set(row, 3*m, 1)
		A.Set(row, 3*m+1, 0.5)
		A.Set(row, 3*m+2, 1./3.)
		b.SetVec(row, vals[m])
		row++
	}
	// pₘ(1) = pₘ₊₁(0)
	for m := 0; m < windowLen-1; m++ {
		A.Set(row, 3*m, 1)
		A.Set(row, 3*m+1, 1)
		A.Set(row, 3*m+2, 1)
		A.Set(row, 3*(m+1), -1)
		row++
	}
	// pₘ'(1) = pₘ₊₁'(0)
	for m := 0; m < windowLen-1; m++ {
		A.Set(row, 3*m+1, 1)
		A.Set(row, 3*m+2, 2)
		A.Set(row, 3*(m+1)+1, -1)
		row++
	}
	// Natural ends: zero slope entering and leaving the window.
	A.Set(row, 1, 1)
	row++
	A.Set(row, 3*(windowLen-1)+1, 1)
	A.Set(row, 3*(windowLen-1)+2, 2)

	var x mat.VecDense
	if err := x.SolveVec(A, b); err != nil {
		// The system is square and nonsingular for any input values;
		// a failure here indicates a programming error.
		panic(fmt.Errorf("siteclim: mean-preserving fit: %v", err))
	}
	var out [windowLen][3]float64
	for m := 0; m < windowLen; m++ {
		out[m][0] = x.AtVec(3 * m)
		out[m][1] = x.AtVec(3*m + 1)
		out[m][2] = x.AtVec(3*m + 2)
	}
	return out
}

// expandPrecipYear realizes daily precipitation for one year from
// monthly totals and wet-day counts.
func (e *Expander) expandPrecipYear(site string, year int, totals, wetd MonthlySeries) []Value {
	out := make([]Value, 0, e.Calendar.DaysInYear(year))
	for m := time.January; m <= time.December; m++ {
		nd := e.Calendar.DaysInMonth(year, m)
		out = append(out, expandPrecipMonth(site, year, m, nd,
			totals.Get(year, m), wetd.Get(year, m))...)
	}
	return out
}

// expandPrecipMonth allocates a monthly precipitation total across nd
// days so that exactly wetd days carry positive values and the days
// sum exactly to the total. The realization is a seeded draw: wet-day
// positions and relative amounts are drawn from a generator seeded by
// (site, year, month), so output is reproducible across runs. If the
// total or the wet-day count is missing, the whole month stays
// missing.
func expandPrecipMonth(site string, year int, month time.Month, nd int, total, wetd Value) []Value {
	out := make([]Value, nd)
	if !total.OK || !wetd.OK {
		for d := range out {
			out[d] = Missing()
		}
		return out
	}
	for d := range out {
		out[d] = Some(0)
	}
	if total.V <= 0 {
		return out
	}
	w := int(wetd.V + 0.5)
	if w > nd {
		w = nd
	}
	if w < 1 {
		// A positive total with a zero wet-day count is contradictory
		// input; the total is preserved on a single day.
		w = 1
	}

	rng := rand.New(rand.NewSource(precipSeed(site, year, month)))
	days := rng.Perm(nd)[:w]
	sort.Ints(days)

	weights := make([]float64, w)
	var wsum float64
	for i := range weights {
		weights[i] = rng.ExpFloat64() + 1e-3
		wsum += weights[i]
	}
	var allocated float64
	for i, d := range days {
		var amt float64
		if i == w-1 {
			// The last wet day takes the remainder so the month sums
			// exactly to the total.
			amt = total.V - allocated
		} else {
			amt = total.V * weights[i] / wsum
			allocated += amt
		}
		out[d] = Some(amt)
	}
	return out
}

func precipSeed(site string, year int, month time.Month) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%d", site, year, int(month))
	return int64(h.Sum64())
}
