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
	"math"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	"github.com/golang/groupcache/lru"
)

// axisCacheEntries bounds the number of per-file coordinate axes kept
// in memory across per-variable visits to the same archive.
const axisCacheEntries = 64

// An NCFReader is a GridPointReader for NetCDF grid files. Fields are
// expected on a [time][lat][lon] (or [lat][lon]) layout with 1-D
// coordinate axes; longitudes on a [0, 360) convention are normalized
// to [-180, 180) when the axes are read. Query points that snap to an
// invalid cell are resolved to the nearest valid cell on the longitude
// ring before values are extracted.
type NCFReader struct {
	// LonVar, LatVar, and TimeVar name the coordinate variables.
	// Empty values default to "lon", "lat" and "time".
	LonVar, LatVar, TimeVar string

	mx        sync.Mutex
	axisCache *lru.Cache
}

func (r *NCFReader) lonVar() string {
	if r.LonVar == "" {
		return "lon"
	}
	return r.LonVar
}

func (r *NCFReader) latVar() string {
	if r.LatVar == "" {
		return "lat"
	}
	return r.LatVar
}

func (r *NCFReader) timeVar() string {
	if r.TimeVar == "" {
		return "time"
	}
	return r.TimeVar
}

// ReadPoints fulfills the GridPointReader interface. The file at path
// is opened and decoded exactly once; all query points are extracted
// in the same pass.
func (r *NCFReader) ReadPoints(path, varName string, pts []geom.Point) ([]PointSeries, error) {
	f, ff, err := openNCF(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lons, err := r.axis(path, ff, r.lonVar(), true)
	if err != nil {
		return nil, err
	}
	lats, err := r.axis(path, ff, r.latVar(), false)
	if err != nil {
		return nil, err
	}

	dims := ff.Header.Lengths(varName)
	if len(dims) == 0 {
		return nil, fmt.Errorf("siteclim: read netcdf: variable %v not in file %s", varName, path)
	}
	nt := 1
	if len(dims) > 2 {
		nt = dims[0]
	}
	nlat, nlon := dims[len(dims)-2], dims[len(dims)-1]
	if nlat != len(lats) || nlon != len(lons) {
		return nil, fmt.Errorf("siteclim: read netcdf %s: variable %s has shape %dx%d but axes are %dx%d",
			path, varName, nlat, nlon, len(lats), len(lons))
	}

	buf, err := readAll(ff, varName)
	if err != nil {
		return nil, fmt.Errorf("siteclim: read netcdf variable %s from %s: %v", varName, path, err)
	}

	valid := sentinelValid(fillValue(ff, varName))
	times, err := r.timeAxis(ff, nt)
	if err != nil {
		return nil, fmt.Errorf("siteclim: read netcdf time axis from %s: %v", path, err)
	}

	out := make([]PointSeries, len(pts))
	for p, pt := range pts {
		ilon, ilat, err := r.resolve(lons, lats, buf, nlat, nlon, valid, pt)
		if err != nil {
			// No valid cell on the ring: the whole series for this
			// point is missing. The error is surfaced through the
			// NaN series plus the run summary, not by aborting the
			// batch.
			out[p] = nanSeries(times, nt)
			continue
		}
		vals := make([]float64, nt)
		for t := 0; t < nt; t++ {
			v := buf[t*nlat*nlon+ilat*nlon+ilon]
			if !valid(v) {
				v = math.NaN()
			}
			vals[t] = v
		}
		out[p] = PointSeries{Times: times, Values: vals}
	}
	return out, nil
}

// resolve snaps a query point to grid indices, using the first
// timestep as the validity field for the nearest-valid-cell search.
func (r *NCFReader) resolve(lons, lats, buf []float64, nlat, nlon int, valid func(float64) bool, pt geom.Point) (ilon, ilat int, err error) {
	field := fieldAt(buf, nlat, nlon, 0)
	return NearestValidCell(lons, lats, field, pt.X, pt.Y, valid)
}

func nanSeries(times []time.Time, nt int) PointSeries {
	vals := make([]float64, nt)
	for i := range vals {
		vals[i] = math.NaN()
	}
	return PointSeries{Times: times, Values: vals}
}

// axis reads a 1-D coordinate variable, caching the result per
// (path, variable) so repeated per-variable visits to one archive do
// not re-decode axes.
func (r *NCFReader) axis(path string, ff *cdf.File, varName string, isLon bool) ([]float64, error) {
	key := path + "|" + varName
	r.mx.Lock()
	if r.axisCache == nil {
		r.axisCache = lru.New(axisCacheEntries)
	}
	if v, ok := r.axisCache.Get(key); ok {
		r.mx.Unlock()
		return v.([]float64), nil
	}
	r.mx.Unlock()

	vals, err := readVar(ff, varName)
	if err != nil {
		return nil, fmt.Errorf("siteclim: read netcdf axis %s from %s: %v", varName, path, err)
	}
	if isLon {
		for i, v := range vals {
			vals[i] = normLon(v)
		}
	}
	r.mx.Lock()
	r.axisCache.Add(key, vals)
	r.mx.Unlock()
	return vals, nil
}

// timeAxis decodes the file's native time axis, or returns nil when
// the file has none (the caller then assigns timestamps from the file
// plan).
func (r *NCFReader) timeAxis(ff *cdf.File, nt int) ([]time.Time, error) {
	name := r.timeVar()
	if len(ff.Header.Lengths(name)) == 0 {
		return nil, nil
	}
	vals, err := readVar(ff, name)
	if err != nil {
		return nil, err
	}
	if len(vals) < nt {
		return nil, fmt.Errorf("time axis has %d entries for %d records", len(vals), nt)
	}
	units, _ := ff.Header.GetAttribute(name, "units").(string)
	base, scale, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, nt)
	for i := 0; i < nt; i++ {
		times[i] = base.Add(time.Duration(vals[i] * float64(scale)))
	}
	return times, nil
}

// parseTimeUnits parses a CF-style time unit string such as
// "days since 1900-01-01".
func parseTimeUnits(units string) (base time.Time, scale time.Duration, err error) {
	fields := strings.Fields(units)
	if len(fields) < 3 || fields[1] != "since" {
		return time.Time{}, 0, fmt.Errorf("cannot parse time units %q", units)
	}
	switch fields[0] {
	case "days", "day":
		scale = 24 * time.Hour
	case "hours", "hour":
		scale = time.Hour
	case "seconds", "second":
		scale = time.Second
	default:
		return time.Time{}, 0, fmt.Errorf("unsupported time unit %q", fields[0])
	}
	for _, layout := range []string{"2006-01-02", "2006-1-2"} {
		base, err = time.Parse(layout, fields[2])
		if err == nil {
			return base, scale, nil
		}
	}
	return time.Time{}, 0, fmt.Errorf("cannot parse time base %q", fields[2])
}

// openNCF opens a NetCDF file, retrying transient failures with a
// bounded constant backoff. A nonexistent file fails fast with a
// FileNotFoundError.
func openNCF(path string) (*os.File, *cdf.File, error) {
	var f *os.File
	var ff *cdf.File
	op := func() error {
		var err error
		f, err = os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return backoff.Permanent(&FileNotFoundError{Path: path, Err: err})
			}
			return err
		}
		ff, err = cdf.Open(f)
		if err != nil {
			f.Close()
			return backoff.Permanent(fmt.Errorf("siteclim: opening netcdf file %s: %v", path, err))
		}
		return nil
	}
	err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 2))
	if err != nil {
		return nil, nil, err
	}
	return f, ff, nil
}

// readAll decodes the entire variable into a float64 buffer.
func readAll(ff *cdf.File, varName string) ([]float64, error) {
	return readVar(ff, varName)
}

func readVar(ff *cdf.File, varName string) ([]float64, error) {
	dims := ff.Header.Lengths(varName)
	if len(dims) == 0 {
		return nil, fmt.Errorf("variable %v not in file", varName)
	}
	r := ff.Reader(varName, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, err
	}
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported netcdf data type %T", buf)
}

// fillValue returns the variable's declared fill value, or NaN when
// none is declared (NaN cells are always invalid).
func fillValue(ff *cdf.File, varName string) float64 {
	for _, attr := range []string{"_FillValue", "missing_value"} {
		if v, ok := attrFloat(ff.Header.GetAttribute(varName, attr)); ok {
			return v
		}
	}
	return math.NaN()
}

func attrFloat(attr interface{}) (float64, bool) {
	switch a := attr.(type) {
	case []float64:
		if len(a) > 0 {
			return a[0], true
		}
	case []float32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	case []int32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	}
	return 0, false
}

// fieldAt returns the 2-D field for one timestep as a sparse array
// with shape [nlat, nlon].
func fieldAt(buf []float64, nlat, nlon, t int) *sparse.DenseArray {
	field := sparse.ZerosDense(nlat, nlon)
	copy(field.Elements, buf[t*nlat*nlon:(t+1)*nlat*nlon])
	return field
}
