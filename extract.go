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
	"time"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
)

// A PlannedFile is one grid file that must be decoded to cover part of
// the required date range for one variable. For monthly-chunked
// archives Year and Month identify the chunk and are used to assign
// timestamps when the file carries no native time axis; for archives
// bundling a full time axis in one file they are zero.
type PlannedFile struct {
	Path  string
	Year  int
	Month time.Month
}

// A FilePlan is the ordered list of distinct grid files that must be
// opened to cover the union of all sites' date ranges for one
// variable.
type FilePlan []PlannedFile

// A PointSeries is the decoded value sequence for one query point from
// one grid file. Times is nil when the file carries no native time
// axis; missing or invalid values are NaN.
type PointSeries struct {
	Times  []time.Time
	Values []float64
}

// A GridPointReader decodes one grid file and extracts value sequences
// at a set of query points in a single pass. Implementations resolve
// query points that land on invalid cells to the nearest valid cell on
// the longitude ring, or return NaN series where no valid-cell policy
// applies.
type GridPointReader interface {
	ReadPoints(path string, varName string, pts []geom.Point) ([]PointSeries, error)
}

// A Sample is one timestamped value for one site.
type Sample struct {
	Time  time.Time
	Value Value
}

// SeriesSet maps site names to extracted sample sequences.
type SeriesSet map[string][]Sample

// An Extractor performs batch point extraction for one variable over a
// file plan. Each planned file is decoded exactly once regardless of
// the number of sites; the file-open count equals the plan length.
type Extractor struct {
	Reader GridPointReader
	Log    *logrus.Logger

	// opens counts reader invocations, for enforcement of the
	// one-decode-per-file invariant in tests.
	opens int
}

// Opens returns the number of files the extractor has asked its reader
// to decode.
func (ex *Extractor) Opens() int { return ex.opens }

// Extract decodes every file in plan once and assembles per-site
// sample sequences for the archive variable varName. A file that does
// not exist contributes missing values for its span (spanDays values
// per site when the file carries no native time axis) and extraction
// continues; all other reader errors abort. The caller decides whether
// incomplete coverage is fatal.
func (ex *Extractor) Extract(varName string, plan FilePlan, sites []Site) (SeriesSet, error) {
	pts := make([]geom.Point, len(sites))
	for i, s := range sites {
		pts[i] = geom.Point{X: normLon(s.Lon), Y: s.Lat}
	}
	out := make(SeriesSet, len(sites))

	for _, pf := range plan {
		ex.opens++
		series, err := ex.Reader.ReadPoints(pf.Path, varName, pts)
		if err != nil {
			if IsNotFound(err) {
				if ex.Log != nil {
					ex.Log.WithFields(logrus.Fields{
						"file":     pf.Path,
						"variable": varName,
					}).Warn("planned grid file is absent; its span becomes missing")
				}
				for i := range sites {
					out[sites[i].Name] = append(out[sites[i].Name], missingSpan(pf)...)
				}
				continue
			}
			return nil, fmt.Errorf("siteclim: extracting %s from %s: %w", varName, pf.Path, err)
		}
		if len(series) != len(sites) {
			return nil, fmt.Errorf("siteclim: reader returned %d series for %d sites from %s",
				len(series), len(sites), pf.Path)
		}
		for i, ps := range series {
			name := sites[i].Name
			for k, v := range ps.Values {
				out[name] = append(out[name], Sample{
					Time:  sampleTime(pf, ps, k),
					Value: Some(v),
				})
			}
		}
	}
	return out, nil
}

// sampleTime pairs the k-th decoded value with its timestamp: the
// file's native time axis when present, otherwise the day-of-month
// index within the planned file's chunk.
func sampleTime(pf PlannedFile, ps PointSeries, k int) time.Time {
	if ps.Times != nil {
		return ps.Times[k]
	}
	return time.Date(pf.Year, pf.Month, k+1, 0, 0, 0, 0, time.UTC)
}

// missingSpan returns explicitly missing samples covering an absent
// monthly-chunk file. Files without chunk identity (full-axis
// archives) contribute nothing; their absence surfaces as missing
// calendar dates in the merge.
func missingSpan(pf PlannedFile) []Sample {
	if pf.Year == 0 {
		return nil
	}
	nd := Gregorian.DaysInMonth(pf.Year, pf.Month)
	out := make([]Sample, nd)
	for d := 0; d < nd; d++ {
		out[d] = Sample{Time: time.Date(pf.Year, pf.Month, d+1, 0, 0, 0, 0, time.UTC)}
	}
	return out
}
