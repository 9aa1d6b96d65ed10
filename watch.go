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
	"time"
)

// WATCHDaily adapts WATCH/WFDEI-style daily archives: one NetCDF file
// per variable per year-month, each holding one record per day of the
// month. No temporal expansion is needed; values merge directly onto
// the site calendar. Unit conversions (K → °C for temperature,
// kg m-2 s-1 → mm day-1 for rainfall, W m-2 → mol m-2 day-1 for
// photon flux) come from the variable mapping.
type WATCHDaily struct {
	cfg *ArchiveConfig
}

// Daily fulfills the Archive interface.
func (a *WATCHDaily) Daily() bool { return true }

// Requires fulfills the Archive interface: daily archives carry each
// variable independently.
func (a *WATCHDaily) Requires(v Variable) []Variable { return nil }

// ListRequiredFiles fulfills the Archive interface: one file per
// year-month in the range, in chronological order. An absent file for
// any one month must not abort the rest of the plan, so availability
// is not checked here; the extractor tolerates missing files.
func (a *WATCHDaily) ListRequiredFiles(v Variable, years YearRange) (FilePlan, error) {
	spec, err := a.cfg.spec(v)
	if err != nil {
		return nil, err
	}
	plan := make(FilePlan, 0, years.NYears()*12)
	for y := years.Start; y <= years.End; y++ {
		for m := time.January; m <= time.December; m++ {
			date := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
			plan = append(plan, PlannedFile{
				Path:  expandTemplate(a.cfg.PathTemplate, spec.Token, a.cfg.DateFormat, date),
				Year:  y,
				Month: m,
			})
		}
	}
	return plan, nil
}

// Extract fulfills the Archive interface. When a file carries no
// native time axis the extractor assigns each record the day-of-month
// index within the planned file's chunk.
func (a *WATCHDaily) Extract(ex *Extractor, v Variable, plan FilePlan, sites []Site) (SeriesSet, error) {
	spec, err := a.cfg.spec(v)
	if err != nil {
		return nil, err
	}
	set, err := ex.Extract(spec.Token, plan, sites)
	if err != nil {
		return nil, err
	}
	return convertSeries(set, spec), nil
}

// Postprocess fulfills the Archive interface; daily archives have no
// derived monthly quantities.
func (a *WATCHDaily) Postprocess(site string, monthly map[Variable]MonthlySeries) []error {
	return nil
}
