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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(inDateFormat, s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

const exampleArchiveTOML = `
Kind = "cru"
PathTemplate = "/data/cru_ts4/cru_ts4.05.1901.2020.[VAR].dat.nc"

[Variables]
  [Variables.temp]
  Token = "tmp"
  [Variables.prec]
  Token = "pre"
  [Variables.wetd]
  Token = "wet"
  [Variables.vap]
  Token = "vap"
  [Variables.ccov]
  Token = "cld"
`

func TestLoadArchiveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.toml")
	if err := os.WriteFile(path, []byte(exampleArchiveTOML), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadArchiveConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Kind != "cru" {
		t.Errorf("kind %q; want cru", c.Kind)
	}
	if c.Variables["prec"].Token != "pre" {
		t.Errorf("prec token %q; want pre", c.Variables["prec"].Token)
	}
	if err := c.Check([]Variable{Temp, Prec, CCov}); err != nil {
		t.Error(err)
	}
	// vpd is not mapped directly but derivable from vap + temp.
	if err := c.Check([]Variable{VPD}); err != nil {
		t.Error(err)
	}
	if err := c.Check([]Variable{PAtm}); err == nil {
		t.Error("expected error for unmapped variable")
	}
}

func TestArchiveConfigCheck(t *testing.T) {
	tests := []struct {
		name string
		cfg  ArchiveConfig
		ok   bool
	}{
		{
			"valid cru",
			ArchiveConfig{Kind: "cru", PathTemplate: "/d/[VAR].nc",
				Variables: map[string]VarSpec{"temp": {Token: "tmp"}}},
			true,
		},
		{
			"unknown kind",
			ArchiveConfig{Kind: "era5", PathTemplate: "/d/[VAR].nc",
				Variables: map[string]VarSpec{"temp": {Token: "tmp"}}},
			false,
		},
		{
			"missing VAR wildcard",
			ArchiveConfig{Kind: "cru", PathTemplate: "/d/data.nc",
				Variables: map[string]VarSpec{"temp": {Token: "tmp"}}},
			false,
		},
		{
			"watch without DATE wildcard",
			ArchiveConfig{Kind: "watch", PathTemplate: "/d/[VAR].nc", DateFormat: "200601",
				Variables: map[string]VarSpec{"temp": {Token: "Tair"}}},
			false,
		},
		{
			"watch without date format",
			ArchiveConfig{Kind: "watch", PathTemplate: "/d/[VAR]_[DATE].nc",
				Variables: map[string]VarSpec{"temp": {Token: "Tair"}}},
			false,
		},
		{
			"valid watch",
			ArchiveConfig{Kind: "watch", PathTemplate: "/d/[VAR]_[DATE].nc", DateFormat: "200601",
				Variables: map[string]VarSpec{"temp": {Token: "Tair"}}},
			true,
		},
	}
	for _, test := range tests {
		err := test.cfg.Check([]Variable{Temp})
		if test.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
		}
		if !test.ok && err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}

func TestVarSpecScaleDefault(t *testing.T) {
	c := &ArchiveConfig{Variables: map[string]VarSpec{"temp": {Token: "tmp"}}}
	s, err := c.spec(Temp)
	if err != nil {
		t.Fatal(err)
	}
	if s.Scale != 1 {
		t.Errorf("zero scale defaults to %g; want 1", s.Scale)
	}
}

func TestExpandTemplate(t *testing.T) {
	got := expandTemplate("/d/[VAR]_[DATE].nc", "Tair", "200601",
		mustDate(t, "2010-03-01"))
	if got != "/d/Tair_201003.nc" {
		t.Errorf("got %q; want /d/Tair_201003.nc", got)
	}
	got = expandTemplate("/d/cru.[VAR].nc", "pre", "", mustDate(t, "2010-03-01"))
	if got != "/d/cru.pre.nc" {
		t.Errorf("got %q; want /d/cru.pre.nc", got)
	}
}
