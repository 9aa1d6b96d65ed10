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

// CRUMonthly adapts CRU-style monthly archives: one NetCDF file per
// variable bundling the full monthly time axis for the whole archive
// span. Temperature and cloud cover come through as-is (°C, %);
// precipitation is the monthly total [mm] paired with the monthly
// wet-day count; vapor pressure deficit is derived from vapor pressure
// and temperature after extraction.
type CRUMonthly struct {
	cfg *ArchiveConfig
}

// Daily fulfills the Archive interface: CRU archives are monthly.
func (a *CRUMonthly) Daily() bool { return false }

// Requires fulfills the Archive interface. Precipitation expansion
// needs the wet-day count; a vapor pressure deficit that is not mapped
// directly in the archive is derived from vapor pressure and
// temperature.
func (a *CRUMonthly) Requires(v Variable) []Variable {
	switch v {
	case Prec:
		return []Variable{WetD}
	case VPD:
		if _, ok := a.cfg.Variables[string(VPD)]; !ok {
			return []Variable{VAP, Temp}
		}
	}
	return nil
}

// ListRequiredFiles fulfills the Archive interface: the whole span of
// one variable lives in a single file, so the plan has length one
// regardless of the year range.
func (a *CRUMonthly) ListRequiredFiles(v Variable, years YearRange) (FilePlan, error) {
	spec, err := a.cfg.spec(v)
	if err != nil {
		return nil, err
	}
	return FilePlan{{Path: expandTemplate(a.cfg.PathTemplate, spec.Token, "", time.Time{})}}, nil
}

// Extract fulfills the Archive interface. Timestamps come from the
// file's native monthly time axis.
func (a *CRUMonthly) Extract(ex *Extractor, v Variable, plan FilePlan, sites []Site) (SeriesSet, error) {
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

// Postprocess fulfills the Archive interface: it derives the monthly
// vapor pressure deficit when it was not extracted directly and its
// inputs are present.
func (a *CRUMonthly) Postprocess(site string, monthly map[Variable]MonthlySeries) []error {
	if _, ok := monthly[VPD]; ok {
		return nil
	}
	vap, okV := monthly[VAP]
	temp, okT := monthly[Temp]
	if !okV || !okT {
		return nil
	}
	vpd, errs := DeriveVPD(site, vap, temp)
	monthly[VPD] = vpd
	return errs
}
