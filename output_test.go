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
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteCSV(t *testing.T) {
	dates := []time.Time{
		time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2010, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	tbl := &SiteDaily{
		Site:  Site{Name: "CH-Dav"},
		Dates: dates,
		Values: map[Variable][]Value{
			Temp: {Some(-3.25), Missing()},
			Prec: {Some(0), Some(4.5)},
		},
	}
	dir := t.TempDir()
	if err := WriteCSV(dir, []*SiteDaily{tbl}); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(filepath.Join(dir, "CH-Dav.csv"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows; want 3", len(rows))
	}
	wantHeader := []string{"date", "prec", "temp"}
	for i, h := range wantHeader {
		if rows[0][i] != h {
			t.Errorf("header column %d is %q; want %q", i, rows[0][i], h)
		}
	}
	if rows[1][0] != "2010-01-01" || rows[1][1] != "0" || rows[1][2] != "-3.25" {
		t.Errorf("unexpected first data row: %v", rows[1])
	}
	// Missing values are empty cells, never zeros.
	if rows[2][2] != "" {
		t.Errorf("missing temperature written as %q; want empty cell", rows[2][2])
	}
	if rows[2][1] != "4.5" {
		t.Errorf("precipitation written as %q; want 4.5", rows[2][1])
	}
}
