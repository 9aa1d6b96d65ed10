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
	"strings"

	"github.com/BurntSushi/toml"
)

// A VarSpec maps one standardized variable name to its
// archive-specific identity and unit conversion. The standardized
// value is raw*Scale + Offset; a zero Scale means 1.
type VarSpec struct {
	// Token is the archive-specific variable identifier. It replaces
	// the [VAR] wildcard in the path template and names the NetCDF
	// variable inside the file.
	Token string
	// Scale and Offset convert raw archive units to the standardized
	// unit (e.g. Scale=86400 for kg m-2 s-1 → mm day-1, Offset=-273.15
	// for K → °C).
	Scale  float64
	Offset float64
}

// An ArchiveConfig describes one gridded archive: which adapter
// variant handles it, how file paths are built, and how standardized
// variable names map to archive tokens. It replaces ad-hoc global
// naming conventions with explicit configuration validated at startup.
type ArchiveConfig struct {
	// Kind selects the adapter variant: "cru" for monthly archives
	// bundling a full time axis per file, "watch" for daily archives
	// chunked into one file per month.
	Kind string

	// PathTemplate builds grid file paths. [VAR] is replaced by the
	// variable token; for monthly-chunked archives [DATE] is replaced
	// by the chunk date formatted with DateFormat.
	PathTemplate string
	// DateFormat is the Go reference-time layout for the [DATE]
	// wildcard (e.g. "200601" for YYYYMM).
	DateFormat string

	// LonVar, LatVar, TimeVar override the coordinate variable names
	// in the archive's files. Empty values default to lon/lat/time.
	LonVar, LatVar, TimeVar string

	// Variables maps standardized variable names to archive tokens.
	Variables map[string]VarSpec
}

// LoadArchiveConfig reads and validates an archive configuration from
// a TOML file.
func LoadArchiveConfig(path string) (*ArchiveConfig, error) {
	c := new(ArchiveConfig)
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, fmt.Errorf("siteclim: reading archive config %s: %v", path, err)
	}
	return c, nil
}

// Check validates the configuration for the requested variables.
// Configuration-level failures abort the whole run, so Check is called
// before any extraction starts.
func (c *ArchiveConfig) Check(requested []Variable) error {
	switch c.Kind {
	case "cru", "watch":
	default:
		return fmt.Errorf("siteclim: unknown archive kind %q (want cru or watch)", c.Kind)
	}
	if c.PathTemplate == "" {
		return fmt.Errorf("siteclim: archive config: empty path template")
	}
	if !strings.Contains(c.PathTemplate, "[VAR]") {
		return fmt.Errorf("siteclim: archive config: path template %q lacks the [VAR] wildcard", c.PathTemplate)
	}
	if c.Kind == "watch" {
		if !strings.Contains(c.PathTemplate, "[DATE]") {
			return fmt.Errorf("siteclim: archive config: path template %q lacks the [DATE] wildcard", c.PathTemplate)
		}
		if c.DateFormat == "" {
			return fmt.Errorf("siteclim: archive config: empty date format")
		}
	}
	for _, v := range requested {
		if err := c.checkResolvable(v); err != nil {
			return err
		}
	}
	return nil
}

// checkResolvable verifies that v maps to an archive token, either
// directly or through the inputs it is derived from.
func (c *ArchiveConfig) checkResolvable(v Variable) error {
	if _, ok := c.Variables[string(v)]; ok {
		return nil
	}
	if c.Kind == "cru" && v == VPD {
		_, hasVap := c.Variables[string(VAP)]
		_, hasTemp := c.Variables[string(Temp)]
		if hasVap && hasTemp {
			return nil
		}
	}
	return fmt.Errorf("siteclim: archive config: no mapping for variable %q", v)
}

// spec returns the VarSpec for v with Scale defaulted.
func (c *ArchiveConfig) spec(v Variable) (VarSpec, error) {
	s, ok := c.Variables[string(v)]
	if !ok {
		return VarSpec{}, fmt.Errorf("siteclim: no mapping for variable %q", v)
	}
	if s.Scale == 0 {
		s.Scale = 1
	}
	return s, nil
}

// NewArchive constructs the adapter variant selected by the
// configuration. Selection happens here, once, at construction time.
func (c *ArchiveConfig) NewArchive() (Archive, error) {
	switch c.Kind {
	case "cru":
		return &CRUMonthly{cfg: c}, nil
	case "watch":
		return &WATCHDaily{cfg: c}, nil
	}
	return nil, fmt.Errorf("siteclim: unknown archive kind %q", c.Kind)
}
