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

// Command siteclim is a command-line interface for the SiteClim
// grid-to-site climate forcing extractor.
package main

import (
	"fmt"
	"os"

	"github.com/spatialclim/siteclim/siteclimutil"
)

func main() {
	if err := siteclimutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
