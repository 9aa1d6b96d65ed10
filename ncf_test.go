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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
)

const testFill = -9999

// writeTestNCF writes a 2-timestep 2x4 grid with a sentinel-filled cell
// at (lat 1, lon 1). When withFill is false no fill attribute is
// declared.
func writeTestNCF(t *testing.T, path string, withFill bool) {
	t.Helper()
	h := cdf.NewHeader([]string{"time", "lat", "lon"}, []int{2, 2, 4})
	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", "days since 2010-01-01")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddVariable("pre", []string{"time", "lat", "lon"}, []float32{0})
	if withFill {
		h.AddAttribute("pre", "_FillValue", []float32{testFill})
	}
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ff, err := cdf.Create(f, h)
	if err != nil {
		t.Fatal(err)
	}
	write := func(name string, data interface{}) {
		end := ff.Header.Lengths(name)
		start := make([]int, len(end))
		if _, err := ff.Writer(name, start, end).Write(data); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	write("time", []float64{0, 31})
	write("lon", []float64{0, 10, 20, 30})
	write("lat", []float64{40, 50})
	write("pre", []float32{
		1, 2, 3, 4,
		5, testFill, 7, 8,
		11, 12, 13, 14,
		15, testFill, 17, 18,
	})
	if err := cdf.UpdateNumRecs(f); err != nil {
		t.Fatal(err)
	}
}

func TestNCFReaderReadPoints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pre.nc")
	writeTestNCF(t, path, true)

	r := new(NCFReader)
	series, err := r.ReadPoints(path, "pre", []geom.Point{
		{X: 0, Y: 40},  // direct hit on a valid cell
		{X: 10, Y: 50}, // snaps to the sentinel cell; resolves eastward
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 2 {
		t.Fatalf("got %d series; want 2", len(series))
	}

	wantTimes := []time.Time{
		time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2010, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	for p, want := range [][]float64{{1, 11}, {7, 17}} {
		ps := series[p]
		if len(ps.Values) != 2 {
			t.Fatalf("point %d: got %d values; want 2", p, len(ps.Values))
		}
		for k := range want {
			if math.Abs(ps.Values[k]-want[k]) > 1e-6 {
				t.Errorf("point %d value %d: got %g; want %g", p, k, ps.Values[k], want[k])
			}
			if !ps.Times[k].Equal(wantTimes[k]) {
				t.Errorf("point %d time %d: got %v; want %v", p, k, ps.Times[k], wantTimes[k])
			}
		}
	}
}

// A variable that declares no fill value must still extract: only NaN
// cells count as invalid then.
func TestNCFReaderNoFillValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pre.nc")
	writeTestNCF(t, path, false)

	r := new(NCFReader)
	series, err := r.ReadPoints(path, "pre", []geom.Point{{X: 0, Y: 40}, {X: 20, Y: 50}})
	if err != nil {
		t.Fatal(err)
	}
	for p, want := range [][]float64{{1, 11}, {7, 17}} {
		for k := range want {
			got := series[p].Values[k]
			if math.IsNaN(got) {
				t.Fatalf("point %d value %d is NaN; want %g", p, k, want[k])
			}
			if math.Abs(got-want[k]) > 1e-6 {
				t.Errorf("point %d value %d: got %g; want %g", p, k, got, want[k])
			}
		}
	}
}

func TestNCFReaderMissingFile(t *testing.T) {
	r := new(NCFReader)
	_, err := r.ReadPoints(filepath.Join(t.TempDir(), "absent.nc"), "pre", []geom.Point{{X: 0, Y: 0}})
	if err == nil {
		t.Fatal("expected error for an absent file")
	}
	if !IsNotFound(err) {
		t.Errorf("error %v not classified as not-found", err)
	}
}

func TestParseTimeUnits(t *testing.T) {
	tests := []struct {
		units string
		base  string
		scale time.Duration
		ok    bool
	}{
		{"days since 1900-01-01", "1900-01-01", 24 * time.Hour, true},
		{"hours since 2010-06-15", "2010-06-15", time.Hour, true},
		{"seconds since 1970-1-1", "1970-01-01", time.Second, true},
		{"months since 1900-01-01", "", 0, false},
		{"gibberish", "", 0, false},
	}
	for _, test := range tests {
		base, scale, err := parseTimeUnits(test.units)
		if !test.ok {
			if err == nil {
				t.Errorf("%q: expected error", test.units)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", test.units, err)
			continue
		}
		want, _ := time.Parse("2006-01-02", test.base)
		if !base.Equal(want) || scale != test.scale {
			t.Errorf("%q: got (%v, %v); want (%v, %v)", test.units, base, scale, want, test.scale)
		}
	}
}
