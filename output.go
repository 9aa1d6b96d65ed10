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
	"sort"
	"strconv"
)

// WriteCSV writes one CSV file per site into dir: a date column plus
// one column per variable, in stable alphabetical variable order.
// Missing values are written as empty cells, never as zeros.
func WriteCSV(dir string, tables []*SiteDaily) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("siteclim: creating output directory: %v", err)
	}
	for _, t := range tables {
		if err := writeSiteCSV(dir, t); err != nil {
			return err
		}
	}
	return nil
}

func writeSiteCSV(dir string, t *SiteDaily) error {
	vars := make([]string, 0, len(t.Values))
	for v := range t.Values {
		vars = append(vars, string(v))
	}
	sort.Strings(vars)

	path := filepath.Join(dir, t.Site.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("siteclim: creating output file %s: %v", path, err)
	}
	defer f.Close()
	w := csv.NewWriter(f)

	header := append([]string{"date"}, vars...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("siteclim: writing %s: %v", path, err)
	}
	row := make([]string, len(header))
	for i, d := range t.Dates {
		row[0] = d.Format(inDateFormat)
		for j, v := range vars {
			val := t.Values[Variable(v)][i]
			if val.OK {
				row[j+1] = strconv.FormatFloat(val.V, 'g', -1, 64)
			} else {
				row[j+1] = ""
			}
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("siteclim: writing %s: %v", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("siteclim: writing %s: %v", path, err)
	}
	return nil
}
