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

	"github.com/ctessum/sparse"
)

// snapIndex returns the index of the axis entry nearest to x by
// absolute difference. The axis need not be evenly spaced but must be
// monotonic.
func snapIndex(axis []float64, x float64) int {
	best := 0
	bestDist := math.Abs(axis[0] - x)
	for i := 1; i < len(axis); i++ {
		if d := math.Abs(axis[i] - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// NearestValidCell snaps (lon, lat) to the nearest grid indices and,
// if the snapped cell is invalid in field, searches for the nearest
// valid cell along the longitude ring at the snapped latitude. Offsets
// are visited in the order +1, -1, +2, -2, … with index arithmetic
// modulo the axis length, so the search wraps around both ends of the
// longitude axis; the latitude index never varies. field has shape
// [len(lats), len(lons)].
//
// The returned indices are (longitude index, latitude index). If the
// entire ring is invalid, a NoValidCellError is returned; the search
// is bounded to one full ring traversal.
func NearestValidCell(lons, lats []float64, field *sparse.DenseArray, lon, lat float64, valid func(float64) bool) (ilon, ilat int, err error) {
	lon = normLon(lon)
	i0 := snapIndex(lons, lon)
	j0 := snapIndex(lats, lat)
	if valid(field.Get(j0, i0)) {
		return i0, j0, nil
	}
	nlon := len(lons)
	for k := 1; k < nlon; k++ {
		// +k before -k: at equal offset magnitude the eastward
		// neighbor wins.
		i := (i0 + k) % nlon
		if valid(field.Get(j0, i)) {
			return i, j0, nil
		}
		i = ((i0-k)%nlon + nlon) % nlon
		if valid(field.Get(j0, i)) {
			return i, j0, nil
		}
	}
	return -1, -1, &NoValidCellError{Lon: lon, Lat: lat}
}

// sentinelValid returns a validity predicate for fields using the
// given fill value: a cell is valid unless it is NaN or within one
// part in 10⁶ of the sentinel. A NaN sentinel means the file declares
// no fill value; only NaN cells are invalid then.
func sentinelValid(fill float64) func(float64) bool {
	return func(v float64) bool {
		if math.IsNaN(v) {
			return false
		}
		if math.IsNaN(fill) {
			return true
		}
		if fill == 0 {
			return v != 0
		}
		return math.Abs(v-fill) > math.Abs(fill)*1e-6
	}
}
