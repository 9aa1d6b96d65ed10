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

	"github.com/GaryBoone/GoStats/stats"
	"github.com/sirupsen/logrus"
)

// A RunConfig holds everything needed for one batch run.
type RunConfig struct {
	Sites     []Site
	Archive   Archive
	Reader    GridPointReader
	Variables []Variable
	Calendar  CalendarPolicy
	Log       *logrus.Logger
}

// A SiteDaily is the per-site output: the site's calendar and one
// interpolated daily sequence per requested variable, aligned
// index-for-index with Dates. Dates a variable could not cover hold
// explicit missing values.
type SiteDaily struct {
	Site   Site
	Dates  []time.Time
	Values map[Variable][]Value
}

// A VariableSummary holds per-variable coverage and descriptive
// statistics for one run.
type VariableSummary struct {
	Stats       stats.Stats
	MissingDays int
}

// A RunSummary reports what a run produced and what it could not, so
// incomplete coverage is detectable rather than silent.
type RunSummary struct {
	Variables map[Variable]*VariableSummary
	// SkippedSites records per-site validation failures; the affected
	// sites are excluded but the batch continues.
	SkippedSites []error
	// Degraded records month-level derivation failures
	// (missing-input months); the affected months are missing in the
	// output.
	Degraded []error
	// FileOpens records, per variable, how many grid files were
	// decoded: always the file-plan length, never a multiple of the
	// site count.
	FileOpens map[Variable]int
}

// Run executes one batch: it validates sites, extracts every requested
// variable (plus the auxiliary variables the archive needs to produce
// them), expands monthly archives to daily resolution, and merges onto
// each site's calendar. Extraction across variables runs concurrently;
// the merge is deterministic (sites in input order, dates ascending).
func Run(cfg *RunConfig) ([]*SiteDaily, *RunSummary, error) {
	log := cfg.Log
	if log == nil {
		log = logrus.New()
	}
	summary := &RunSummary{
		Variables: make(map[Variable]*VariableSummary),
		FileOpens: make(map[Variable]int),
	}

	sites := make([]Site, 0, len(cfg.Sites))
	for _, s := range cfg.Sites {
		if err := s.Check(); err != nil {
			log.WithField("site", s.Name).Warn(err)
			summary.SkippedSites = append(summary.SkippedSites, err)
			continue
		}
		s.Lon = normLon(s.Lon)
		sites = append(sites, s)
	}
	if len(sites) == 0 {
		return nil, summary, fmt.Errorf("siteclim: no valid sites")
	}

	years := sites[0].Years()
	for _, s := range sites[1:] {
		years = years.Union(s.Years())
	}

	extractVars := withRequired(cfg.Archive, cfg.Variables)

	// Extract each variable concurrently; extraction for different
	// variables shares no mutable state.
	type result struct {
		set   SeriesSet
		opens int
		err   error
	}
	results := make([]result, len(extractVars))
	errChan := make(chan struct{})
	for i, v := range extractVars {
		go func(i int, v Variable) {
			plan, err := cfg.Archive.ListRequiredFiles(v, years)
			if err != nil {
				results[i].err = err
				errChan <- struct{}{}
				return
			}
			ex := &Extractor{Reader: cfg.Reader, Log: log}
			set, err := cfg.Archive.Extract(ex, v, plan, sites)
			results[i] = result{set: set, opens: ex.Opens(), err: err}
			errChan <- struct{}{}
		}(i, v)
	}
	for range extractVars {
		<-errChan
	}
	extracted := make(map[Variable]SeriesSet, len(extractVars))
	for i, v := range extractVars {
		if results[i].err != nil {
			return nil, summary, results[i].err
		}
		extracted[v] = results[i].set
		summary.FileOpens[v] = results[i].opens
	}

	outVars := outputVariables(cfg.Variables)
	out := make([]*SiteDaily, 0, len(sites))
	for _, site := range sites {
		sd, degraded := mergeSite(cfg, site, extracted, outVars)
		summary.Degraded = append(summary.Degraded, degraded...)
		for _, v := range outVars {
			vs, ok := summary.Variables[v]
			if !ok {
				vs = new(VariableSummary)
				summary.Variables[v] = vs
			}
			for _, val := range sd.Values[v] {
				if val.OK {
					vs.Stats.Update(val.V)
				} else {
					vs.MissingDays++
				}
			}
		}
		out = append(out, sd)
	}

	logSummary(log, summary)
	return out, summary, nil
}

// withRequired expands the requested variable list with the auxiliary
// variables the archive needs, deduplicated, in deterministic order.
// Variables produced entirely by Postprocess (a derived vapor pressure
// deficit) are not extracted themselves.
func withRequired(a Archive, requested []Variable) []Variable {
	seen := make(map[Variable]bool)
	var out []Variable
	add := func(v Variable) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range requested {
		reqs := a.Requires(v)
		for _, req := range reqs {
			add(req)
		}
		if !(v == VPD && len(reqs) > 0) {
			add(v)
		}
	}
	return out
}

// outputVariables filters the requested list down to the variables
// emitted in the daily output (auxiliary inputs are consumed, not
// emitted).
func outputVariables(requested []Variable) []Variable {
	var out []Variable
	for _, v := range requested {
		if v.Kind() != Auxiliary {
			out = append(out, v)
		}
	}
	return out
}

// mergeSite assembles one site's daily table: a calendar spanning the
// site's full years, outer-joined with each variable's extracted or
// expanded values so that every calendar date appears exactly once,
// with explicit missing values where a variable has no data.
func mergeSite(cfg *RunConfig, site Site, extracted map[Variable]SeriesSet, outVars []Variable) (*SiteDaily, []error) {
	years := site.Years()
	dates := BuildCalendar(years.Start, years.End, cfg.Calendar)
	sd := &SiteDaily{
		Site:   site,
		Dates:  dates,
		Values: make(map[Variable][]Value, len(outVars)),
	}
	var degraded []error

	if cfg.Archive.Daily() {
		for _, v := range outVars {
			byDate := make(map[time.Time]Value)
			for _, s := range extracted[v][site.Name] {
				byDate[dayOf(s.Time)] = s.Value
			}
			vals := make([]Value, len(dates))
			for i, d := range dates {
				vals[i] = byDate[d] // the zero Value is missing
			}
			sd.Values[v] = vals
		}
		return sd, nil
	}

	// Monthly archive: aggregate samples into monthly records, derive
	// dependent quantities, then expand each year.
	monthly := make(map[Variable]MonthlySeries)
	for v, set := range extracted {
		monthly[v] = monthlyFromSamples(set[site.Name])
	}
	degraded = append(degraded, cfg.Archive.Postprocess(site.Name, monthly)...)

	expander := &Expander{Calendar: cfg.Calendar}
	for _, v := range outVars {
		vals := make([]Value, 0, len(dates))
		for y := years.Start; y <= years.End; y++ {
			yearVals, err := expander.ExpandYear(v, site.Name, y, monthly[v], monthly[WetD])
			if err != nil {
				degraded = append(degraded, err)
				for i := 0; i < cfg.Calendar.DaysInYear(y); i++ {
					vals = append(vals, Missing())
				}
				continue
			}
			vals = append(vals, yearVals...)
		}
		sd.Values[v] = vals
	}
	return sd, degraded
}

// dayOf truncates a timestamp to its UTC calendar date. Daily archives
// commonly centre records at noon; the join onto the calendar is by
// date, not by instant.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthlyFromSamples folds timestamped samples into per-year monthly
// records. A missing sample makes its month missing, never zero.
func monthlyFromSamples(samples []Sample) MonthlySeries {
	out := make(MonthlySeries)
	for _, s := range samples {
		out.Set(s.Time.Year(), s.Time.Month(), s.Value)
	}
	return out
}

func logSummary(log *logrus.Logger, s *RunSummary) {
	for v, vs := range s.Variables {
		f := logrus.Fields{
			"variable":    v,
			"days":        vs.Stats.Count(),
			"missingDays": vs.MissingDays,
			"fileOpens":   s.FileOpens[v],
		}
		if vs.Stats.Count() > 0 {
			f["mean"] = vs.Stats.Mean()
			f["sd"] = vs.Stats.SampleStandardDeviation()
			f["min"] = vs.Stats.Min()
			f["max"] = vs.Stats.Max()
		}
		log.WithFields(f).Info("variable coverage")
	}
	if n := len(s.SkippedSites); n > 0 {
		log.WithField("count", n).Warn("sites skipped for invalid metadata")
	}
	if n := len(s.Degraded); n > 0 {
		log.WithField("count", n).Warn("months degraded by missing inputs")
	}
}
