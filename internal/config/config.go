// Package config provides the run configuration for the CLI: one
// explicit immutable struct with named fields, loadable from a JSON
// file with CLI flags taking precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Discovery strategy names.
const (
	StrategyProfile   = "profile"
	StrategyQuery     = "query"
	StrategyWatchlist = "watchlist"
	StrategyRandom    = "random"
)

// Report mode names accepted on the command line and in config files.
const (
	ReportAll        = "all"
	ReportIssuesOnly = "issues"
	ReportNonManaged = "nonmanaged"
)

// Options is the complete run configuration. It is built once by the
// CLI layer and passed by reference into the traversal engine, which
// never mutates it.
type Options struct {
	// Discovery
	Strategy string `json:"-"`
	Key      string `json:"key,omitempty"`   // profile id or display name
	Query    string `json:"query,omitempty"` // free-text search term

	// Expansion depths
	Ancestors       int `json:"ancestors,omitempty" validate:"min=0,max=20"`
	Descendants     int `json:"descendants,omitempty" validate:"min=0,max=10"`
	RelativeDegrees int `json:"relative_degrees,omitempty" validate:"min=0,max=10"`

	// Eligibility
	OpenOnly            bool `json:"open_only,omitempty"`
	IgnorePre1500       bool `json:"ignore_pre1500,omitempty"`
	ReliableSourcesOnly bool `json:"reliable_sources_only,omitempty"` // force pre-1700 rules

	// Reporting
	ReportMode string `json:"report_mode,omitempty" validate:"omitempty,oneof=all issues nonmanaged"`

	// Hard caps
	MaxProfiles int `json:"max_profiles,omitempty" validate:"min=0"`
	MaxReport   int `json:"max_report,omitempty" validate:"min=0"`

	// Watchlist pagination window
	SearchStart int `json:"search_start,omitempty" validate:"min=0"`
	SearchMax   int `json:"search_max,omitempty" validate:"min=0"`

	// Random sampling key space
	MinRandom int64 `json:"min_random,omitempty"`
	MaxRandom int64 `json:"max_random,omitempty"`

	// Transport
	BaseURL           string  `json:"base_url,omitempty" validate:"omitempty,url"`
	SearchURL         string  `json:"search_url,omitempty" validate:"omitempty,url"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" validate:"min=0"`
	MaxInFlight       int     `json:"max_in_flight,omitempty" validate:"min=0"`

	// Rule data
	TemplateCatalog string `json:"template_catalog,omitempty"` // path to catalog JSON

	// Output
	Verbose  bool   `json:"verbose,omitempty"`
	LogFile  string `json:"log_file,omitempty"`
	LogLevel string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

// Defaults returns the built-in defaults applied under config file and
// flag values.
func Defaults() Options {
	return Options{
		ReportMode:        ReportAll,
		MaxProfiles:       5000,
		MaxReport:         1000,
		SearchMax:         100,
		MinRandom:         1,
		MaxRandom:         40_000_000,
		RequestsPerSecond: 2,
		MaxInFlight:       8,
		LogLevel:          "info",
	}
}

// Load reads configuration from a JSON file.
func Load(path string) (*Options, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var opts Options
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return &opts, nil
}

// MergeWithDefaults returns a copy of o with zero fields filled from
// defaults. Bool flags are not merged: the CLI always wins for those.
func (o Options) MergeWithDefaults(defaults Options) Options {
	result := o

	if result.Key == "" {
		result.Key = defaults.Key
	}
	if result.Query == "" {
		result.Query = defaults.Query
	}
	if result.ReportMode == "" {
		result.ReportMode = defaults.ReportMode
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.SearchURL == "" {
		result.SearchURL = defaults.SearchURL
	}
	if result.TemplateCatalog == "" {
		result.TemplateCatalog = defaults.TemplateCatalog
	}
	if result.LogFile == "" {
		result.LogFile = defaults.LogFile
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	if result.Ancestors == 0 {
		result.Ancestors = defaults.Ancestors
	}
	if result.Descendants == 0 {
		result.Descendants = defaults.Descendants
	}
	if result.RelativeDegrees == 0 {
		result.RelativeDegrees = defaults.RelativeDegrees
	}
	if result.MaxProfiles == 0 {
		result.MaxProfiles = defaults.MaxProfiles
	}
	if result.MaxReport == 0 {
		result.MaxReport = defaults.MaxReport
	}
	if result.SearchStart == 0 {
		result.SearchStart = defaults.SearchStart
	}
	if result.SearchMax == 0 {
		result.SearchMax = defaults.SearchMax
	}
	if result.MinRandom == 0 {
		result.MinRandom = defaults.MinRandom
	}
	if result.MaxRandom == 0 {
		result.MaxRandom = defaults.MaxRandom
	}
	if result.RequestsPerSecond == 0 {
		result.RequestsPerSecond = defaults.RequestsPerSecond
	}
	if result.MaxInFlight == 0 {
		result.MaxInFlight = defaults.MaxInFlight
	}

	return result
}

// Validate checks field values and cross-field constraints.
func (o *Options) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if o.MinRandom > o.MaxRandom {
		return fmt.Errorf("config error: 'min_random' must not exceed 'max_random'")
	}
	if o.TemplateCatalog != "" {
		if _, err := os.Stat(o.TemplateCatalog); os.IsNotExist(err) {
			return fmt.Errorf("config error: template catalog not found: %s", o.TemplateCatalog)
		}
	}
	return nil
}

// IssuesOnly reports whether only profiles with issues are reported.
func (o *Options) IssuesOnly() bool {
	return o.ReportMode == ReportIssuesOnly
}

// NonManagedOnly reports whether only orphaned profiles are reported.
func (o *Options) NonManagedOnly() bool {
	return o.ReportMode == ReportNonManaged
}
