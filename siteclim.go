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

// Package siteclim converts gridded climate archives into complete,
// gap-free daily time series for point locations ("sites"). Each grid
// file is decoded exactly once per variable regardless of how many
// sites need it; monthly archives are expanded to daily resolution
// with a mean-preserving interpolator for continuous fields and a
// wet-day-count generator for precipitation.
package siteclim

import (
	"fmt"
	"math"
	"time"
)

const (
	// inDateFormat specifies the format to use when inputting dates.
	inDateFormat = "2006-01-02"

	// SecPerDay is the number of seconds in a day, used to convert
	// flux rates [kg m-2 s-1] to daily totals [mm day-1].
	SecPerDay = 86400.

	// KelvinOffset converts temperatures in Kelvin to degrees Celsius.
	KelvinOffset = 273.15

	// KfFEC is the flux-to-photon conversion efficiency
	// [μmol J-1] used to derive photosynthetic photon flux density
	// from shortwave radiation (Meek et al., 1984).
	KfFEC = 2.04
)

// A Value is a number that may be missing. Missing values propagate
// through all derived quantities; they are never replaced by a numeric
// default.
type Value struct {
	V  float64
	OK bool
}

// Some returns a valid Value. NaN inputs are treated as missing.
func Some(v float64) Value {
	if math.IsNaN(v) {
		return Value{}
	}
	return Value{V: v, OK: true}
}

// Missing returns the missing-value marker.
func Missing() Value { return Value{} }

// Or returns v if it is valid and fallback otherwise.
func (v Value) Or(fallback Value) Value {
	if v.OK {
		return v
	}
	return fallback
}

// Variable is a standardized climate variable name. The mapping from
// standardized names to archive-specific tokens is part of the archive
// configuration.
type Variable string

// Standardized variable names.
const (
	Temp   Variable = "temp"   // air temperature [°C]
	Prec   Variable = "prec"   // precipitation [mm day-1]
	VPD    Variable = "vpd"    // vapor pressure deficit [Pa]
	VAP    Variable = "vap"    // vapor pressure [hPa]
	PAtm   Variable = "patm"   // atmospheric pressure [Pa]
	NetRad Variable = "netrad" // net radiation [W m-2]
	PPFD   Variable = "ppfd"   // photosynthetic photon flux density [mol m-2 day-1]
	CCov   Variable = "ccov"   // cloud cover [%]
	WetD   Variable = "wetd"   // wet days per month [count]
)

// Kind describes which expansion algorithm applies to a variable when
// converting monthly values to daily values.
type Kind int

const (
	// Continuous variables are expanded with the mean-preserving
	// interpolator.
	Continuous Kind = iota
	// CloudCover is expanded like Continuous but clamped to [0, 100].
	CloudCover
	// Precipitation is expanded with the wet-day-count generator.
	Precipitation
	// Auxiliary variables (wet-day counts, vapor pressure) feed other
	// expansions and are not emitted as daily output themselves.
	Auxiliary
)

// Kind returns the expansion algorithm for v.
func (v Variable) Kind() Kind {
	switch v {
	case Prec:
		return Precipitation
	case CCov:
		return CloudCover
	case WetD, VAP:
		return Auxiliary
	default:
		return Continuous
	}
}

// A Site is a named point location with a required date range for
// which a daily time series must be produced. Sites are read-only
// input; lon is normalized to [-180, 180).
type Site struct {
	Name     string
	Lon, Lat float64

	DateStart, DateEnd time.Time
}

// Check validates the site definition.
func (s *Site) Check() error {
	if s.Name == "" {
		return &InvalidSiteError{Site: s.Name, Reason: "empty site name"}
	}
	if s.Lat < -90 || s.Lat > 90 {
		return &InvalidSiteError{Site: s.Name,
			Reason: fmt.Sprintf("latitude %g out of range [-90, 90]", s.Lat)}
	}
	if s.Lon < -360 || s.Lon > 360 {
		return &InvalidSiteError{Site: s.Name,
			Reason: fmt.Sprintf("longitude %g out of range", s.Lon)}
	}
	if s.DateEnd.Before(s.DateStart) {
		return &InvalidSiteError{Site: s.Name,
			Reason: fmt.Sprintf("date_end %v is before date_start %v",
				s.DateEnd.Format(inDateFormat), s.DateStart.Format(inDateFormat))}
	}
	return nil
}

// Years returns the full-year range covering the site's date range.
func (s *Site) Years() YearRange {
	return YearRange{Start: s.DateStart.Year(), End: s.DateEnd.Year()}
}

// A YearRange is an inclusive range of calendar years.
type YearRange struct {
	Start, End int
}

// Union returns the smallest range covering both r and o.
func (r YearRange) Union(o YearRange) YearRange {
	if o.Start < r.Start {
		r.Start = o.Start
	}
	if o.End > r.End {
		r.End = o.End
	}
	return r
}

// NYears returns the number of years in the range.
func (r YearRange) NYears() int { return r.End - r.Start + 1 }

// normLon normalizes a longitude in degrees to [-180, 180).
func normLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
