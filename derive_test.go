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
	"testing"
	"time"
)

func TestEsat(t *testing.T) {
	// Reference values for the Magnus form (Allen et al., 1998),
	// within 1%.
	tests := []struct{ T, want float64 }{
		{0, 611},
		{20, 2339},
		{30, 4243},
	}
	for _, test := range tests {
		got := esat(test.T)
		if math.Abs(got-test.want)/test.want > 0.01 {
			t.Errorf("esat(%g) = %g; want about %g", test.T, got, test.want)
		}
	}
}

func TestDeriveVPD(t *testing.T) {
	vap := make(MonthlySeries)
	temp := make(MonthlySeries)
	for m := time.January; m <= time.December; m++ {
		vap.Set(2010, m, Some(10)) // hPa
		temp.Set(2010, m, Some(20))
	}
	temp.Set(2010, time.March, Missing())

	vpd, errs := DeriveVPD("s1", vap, temp)
	want := esat(20) - 1000
	for m := time.January; m <= time.December; m++ {
		v := vpd.Get(2010, m)
		if m == time.March {
			if v.OK {
				t.Error("March deficit should be missing")
			}
			continue
		}
		if !v.OK {
			t.Fatalf("%v missing", m)
		}
		if diff := math.Abs(v.V - want); diff > 1e-9 {
			t.Errorf("%v: deficit %g; want %g", m, v.V, want)
		}
	}
	if len(errs) != 1 {
		t.Fatalf("got %d degradation errors; want 1", len(errs))
	}
	e, ok := errs[0].(*AggregationMissingInputError)
	if !ok {
		t.Fatalf("got error type %T; want *AggregationMissingInputError", errs[0])
	}
	if e.Variable != VPD || e.Input != Temp || e.Month != time.March {
		t.Errorf("unexpected error detail: %v", e)
	}
}

// Months that neither input covers are plain coverage gaps: the output
// is missing but no degradation error is recorded, so the run summary
// is not flooded for every month outside the archive span.
func TestDeriveVPDUncoveredMonths(t *testing.T) {
	vap := make(MonthlySeries)
	temp := make(MonthlySeries)
	vap.Set(2010, time.January, Some(10))
	temp.Set(2010, time.January, Some(20))
	// February is covered by one input only; the rest of the year by
	// neither.
	vap.Set(2010, time.February, Some(10))

	vpd, errs := DeriveVPD("s1", vap, temp)
	if !vpd.Get(2010, time.January).OK {
		t.Error("January deficit missing")
	}
	for m := time.February; m <= time.December; m++ {
		if vpd.Get(2010, m).OK {
			t.Errorf("%v deficit should be missing", m)
		}
	}
	if len(errs) != 1 {
		t.Fatalf("got %d degradation errors; want 1 (February only)", len(errs))
	}
	e, ok := errs[0].(*AggregationMissingInputError)
	if !ok {
		t.Fatalf("got error type %T; want *AggregationMissingInputError", errs[0])
	}
	if e.Month != time.February || e.Input != Temp {
		t.Errorf("unexpected error detail: %v", e)
	}
}

// Saturated or supersaturated air must not produce a negative deficit.
func TestDeriveVPDFloor(t *testing.T) {
	vap := make(MonthlySeries)
	temp := make(MonthlySeries)
	for m := time.January; m <= time.December; m++ {
		vap.Set(2010, m, Some(10))
		temp.Set(2010, m, Some(20))
	}
	vap.Set(2010, time.January, Some(50)) // 5000 Pa, above saturation at 20 °C
	vpd, errs := DeriveVPD("s1", vap, temp)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	v := vpd.Get(2010, time.January)
	if !v.OK || v.V != 0 {
		t.Errorf("got %v; want a zero deficit", v)
	}
}
