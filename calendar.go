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
	"time"
)

// CalendarPolicy selects how leap days are handled when building the
// per-site daily calendar.
type CalendarPolicy int

const (
	// Gregorian emits the true calendar, including Feb 29 in leap
	// years.
	Gregorian CalendarPolicy = iota
	// NoLeap emits exactly 365 dates per year, skipping Feb 29.
	NoLeap
)

// ParseCalendarPolicy converts a configuration string to a
// CalendarPolicy.
func ParseCalendarPolicy(s string) (CalendarPolicy, error) {
	switch s {
	case "gregorian", "":
		return Gregorian, nil
	case "noleap":
		return NoLeap, nil
	}
	return 0, fmt.Errorf("siteclim: unknown calendar policy %q (want gregorian or noleap)", s)
}

func (p CalendarPolicy) String() string {
	if p == NoLeap {
		return "noleap"
	}
	return "gregorian"
}

// isLeap reports whether year is a Gregorian leap year.
func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in the given month under the
// policy.
func (p CalendarPolicy) DaysInMonth(year int, m time.Month) int {
	if m == time.February {
		if p == Gregorian && isLeap(year) {
			return 29
		}
		return 28
	}
	switch m {
	case time.April, time.June, time.September, time.November:
		return 30
	}
	return 31
}

// DaysInYear returns the number of days in the given year under the
// policy.
func (p CalendarPolicy) DaysInYear(year int) int {
	if p == Gregorian && isLeap(year) {
		return 366
	}
	return 365
}

// BuildCalendar returns the complete ordered daily date sequence
// spanning the full years yearStart through yearEnd, under the given
// policy. The sequence is strictly increasing with no gaps or
// duplicates; under NoLeap every year contributes exactly 365 entries.
// BuildCalendar is pure: it performs no I/O and is deterministic.
func BuildCalendar(yearStart, yearEnd int, p CalendarPolicy) []time.Time {
	var n int
	for y := yearStart; y <= yearEnd; y++ {
		n += p.DaysInYear(y)
	}
	dates := make([]time.Time, 0, n)
	for y := yearStart; y <= yearEnd; y++ {
		for m := time.January; m <= time.December; m++ {
			nd := p.DaysInMonth(y, m)
			for d := 1; d <= nd; d++ {
				dates = append(dates, time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
			}
		}
	}
	return dates
}
