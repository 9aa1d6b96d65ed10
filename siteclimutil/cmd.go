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

// Package siteclimutil holds the command-line interface and
// configuration glue for the siteclim engine.
package siteclimutil

import (
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spatialclim/siteclim"
)

// Version is the version of this build, set at link time.
var Version = "dev"

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Sites",
			usage: `
              Sites is the location of the site metadata table (CSV or
              XLSX) with columns sitename, lon, lat, date_start and
              date_end.`,
			defaultVal: "sites.csv",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "ArchiveConfig",
			usage: `
              ArchiveConfig is the location of the TOML file describing
              the grid archive: adapter kind, path templates, and the
              mapping from standardized variable names to archive
              tokens.`,
			defaultVal: "archive.toml",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Variables",
			usage: `
              Variables lists the standardized variable names to
              produce (e.g. temp, prec, vpd, ccov).`,
			defaultVal: []string{"temp", "prec"},
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Calendar",
			usage: `
              Calendar selects the daily calendar policy: gregorian or
              noleap.`,
			defaultVal: "gregorian",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory the per-site daily CSV files
              are written to.`,
			shorthand:  "o",
			defaultVal: "output",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()
	Cfg.SetEnvPrefix("SITECLIM")
	for _, option := range options {
		for _, set := range option.flagsets {
			switch v := option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, v, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, v, option.usage)
				}
			case []string:
				set.StringSlice(option.name, v, option.usage)
			case bool:
				set.Bool(option.name, v, option.usage)
			default:
				panic(fmt.Sprintf("invalid argument type: %T", option.defaultVal))
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
		Cfg.BindEnv(option.name)
	}
}

// setConfig reads the configuration file if one was specified.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("siteclim: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "siteclim",
	Short: "SiteClim extracts daily climate time series for point locations from gridded archives.",
	Long: `SiteClim converts gridded climate archives into complete, gap-free
daily time series for a set of point locations, expanding monthly
archives to daily resolution with mean-preserving interpolation and a
wet-day precipitation generator.

Use the subcommands specified below to access the functionality.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("SiteClim v%s\n", Version)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the extraction batch",
	Long: `run reads the site table and archive configuration, extracts and
expands every requested variable, and writes one daily CSV per site.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := cast.ToStringSliceE(Cfg.Get("Variables"))
		if err != nil {
			return err
		}
		return RunBatch(
			os.ExpandEnv(Cfg.GetString("Sites")),
			os.ExpandEnv(Cfg.GetString("ArchiveConfig")),
			os.ExpandEnv(Cfg.GetString("OutputDir")),
			Cfg.GetString("Calendar"),
			vars,
		)
	},
}

// RunBatch wires a complete batch run from file-based configuration:
// site table in, per-site daily CSVs out.
func RunBatch(sitesPath, archivePath, outputDir, calendar string, varNames []string) error {
	log := logrus.New()

	variables := make([]siteclim.Variable, len(varNames))
	for i, v := range varNames {
		variables[i] = siteclim.Variable(v)
	}

	policy, err := siteclim.ParseCalendarPolicy(calendar)
	if err != nil {
		return err
	}
	sites, err := siteclim.ReadSites(sitesPath)
	if err != nil {
		return err
	}
	acfg, err := siteclim.LoadArchiveConfig(archivePath)
	if err != nil {
		return err
	}
	if err := acfg.Check(variables); err != nil {
		return err
	}
	archive, err := acfg.NewArchive()
	if err != nil {
		return err
	}

	tables, _, err := siteclim.Run(&siteclim.RunConfig{
		Sites:     sites,
		Archive:   archive,
		Reader:    &siteclim.NCFReader{LonVar: acfg.LonVar, LatVar: acfg.LatVar, TimeVar: acfg.TimeVar},
		Variables: variables,
		Calendar:  policy,
		Log:       log,
	})
	if err != nil {
		return err
	}
	return siteclim.WriteCSV(outputDir, tables)
}

func init() {
	Root.AddCommand(versionCmd, runCmd)
}
