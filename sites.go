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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx"
)

// siteColumns are the required columns of the site metadata table.
var siteColumns = []string{"sitename", "lon", "lat", "date_start", "date_end"}

// ReadSites reads the site metadata table from a CSV or XLSX file.
// The table must have a header row with the columns sitename, lon,
// lat, date_start and date_end (in any order). An unreadable or
// malformed table aborts the whole run; semantic per-site validation
// (date ordering, coordinate ranges) happens later and is isolated per
// site.
func ReadSites(path string) ([]Site, error) {
	var rows [][]string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err = readRowsXLSX(path)
	} else {
		rows, err = readRowsCSV(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("siteclim: site table %s has no data rows", path)
	}

	col := make(map[string]int)
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range siteColumns {
		if _, ok := col[c]; !ok {
			return nil, fmt.Errorf("siteclim: site table %s lacks column %q", path, c)
		}
	}

	sites := make([]Site, 0, len(rows)-1)
	for n, row := range rows[1:] {
		s, err := parseSiteRow(row, col)
		if err != nil {
			return nil, fmt.Errorf("siteclim: site table %s row %d: %v", path, n+2, err)
		}
		sites = append(sites, s)
	}
	return sites, nil
}

func parseSiteRow(row []string, col map[string]int) (Site, error) {
	get := func(name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	var s Site
	var err error
	s.Name = get("sitename")
	if s.Lon, err = strconv.ParseFloat(get("lon"), 64); err != nil {
		return s, fmt.Errorf("parsing lon %q: %v", get("lon"), err)
	}
	if s.Lat, err = strconv.ParseFloat(get("lat"), 64); err != nil {
		return s, fmt.Errorf("parsing lat %q: %v", get("lat"), err)
	}
	if s.DateStart, err = time.Parse(inDateFormat, get("date_start")); err != nil {
		return s, fmt.Errorf("parsing date_start %q: %v", get("date_start"), err)
	}
	if s.DateEnd, err = time.Parse(inDateFormat, get("date_end")); err != nil {
		return s, fmt.Errorf("parsing date_end %q: %v", get("date_end"), err)
	}
	return s, nil
}

func readRowsCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("siteclim: opening site table: %v", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("siteclim: reading site table %s: %v", path, err)
	}
	return rows, nil
}

func readRowsXLSX(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("siteclim: opening site table %s: %v", path, err)
	}
	if len(f.Sheets) == 0 {
		return nil, fmt.Errorf("siteclim: site table %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.Value
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
