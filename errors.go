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
	"errors"
	"fmt"
	"os"
	"time"
)

// InvalidSiteError indicates a malformed site definition (bad date
// range or coordinates). It is fatal for the affected site only.
type InvalidSiteError struct {
	Site   string
	Reason string
}

func (e *InvalidSiteError) Error() string {
	return fmt.Sprintf("siteclim: invalid site %q: %s", e.Site, e.Reason)
}

// FileNotFoundError indicates that a planned grid file is absent.
// It is recoverable: the file's contribution becomes missing and
// extraction continues for other files.
type FileNotFoundError struct {
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("siteclim: grid file not found: %s", e.Path)
}

func (e *FileNotFoundError) Unwrap() error { return e.Err }

// IsNotFound reports whether err indicates an absent grid file.
func IsNotFound(err error) bool {
	var fnf *FileNotFoundError
	return errors.As(err, &fnf) || errors.Is(err, os.ErrNotExist)
}

// NoValidCellError indicates that the entire longitude ring at a
// site's latitude holds only invalid cells. It is fatal for that
// site/variable combination and is surfaced, never silently defaulted.
type NoValidCellError struct {
	Lon, Lat float64
}

func (e *NoValidCellError) Error() string {
	return fmt.Sprintf("siteclim: no valid grid cell on longitude ring at (%g, %g)", e.Lon, e.Lat)
}

// AggregationMissingInputError records that a derived quantity could
// not be computed for a month because one of its inputs is missing.
// It propagates as a missing value, not as a batch failure; the run
// summary reports it so that degraded coverage is visible.
type AggregationMissingInputError struct {
	Variable Variable
	Input    Variable
	Site     string
	Year     int
	Month    time.Month
}

func (e *AggregationMissingInputError) Error() string {
	return fmt.Sprintf("siteclim: %s for site %q %d-%02d: missing input %s",
		e.Variable, e.Site, e.Year, e.Month, e.Input)
}
