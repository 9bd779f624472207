package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/config"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/observability"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/registry"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/report"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/rules"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/traversal"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/wikitree"
)

// checkFlags holds the flag values shared by every check command.
type checkFlags struct {
	configPath string

	ancestors       int
	descendants     int
	relativeDegrees int

	openOnly            bool
	ignorePre1500       bool
	reliableSourcesOnly bool

	reportMode  string
	maxProfiles int
	maxReport   int

	templateCatalog   string
	requestsPerSecond float64
	maxInFlight       int

	verbose  bool
	logFile  string
	logLevel string
}

// registerCommonFlags wires the shared flags onto cmd.
func registerCommonFlags(cmd *cobra.Command, f *checkFlags) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	cmd.Flags().IntVar(&f.ancestors, "ancestors", 0, "Generations of ancestors to expand")
	cmd.Flags().IntVar(&f.descendants, "descendants", 0, "Generations of descendants to expand")
	cmd.Flags().IntVar(&f.relativeDegrees, "degrees", 0, "Degrees of connection to expand from flagged profiles")

	cmd.Flags().BoolVar(&f.openOnly, "open-only", false, "Check only open profiles")
	cmd.Flags().BoolVar(&f.ignorePre1500, "ignore-pre1500", false, "Skip profiles whose lifetime falls before 1500")
	cmd.Flags().BoolVar(&f.reliableSourcesOnly, "reliable-only", false, "Apply the stricter pre-1700 source rules to every profile")

	cmd.Flags().StringVar(&f.reportMode, "report", "", "Report mode: all, issues, or nonmanaged")
	cmd.Flags().IntVar(&f.maxProfiles, "max-profiles", 0, "Maximum profiles to check")
	cmd.Flags().IntVar(&f.maxReport, "max-report", 0, "Maximum rows to report")

	cmd.Flags().StringVar(&f.templateCatalog, "template-catalog", "", "Path to the template catalog JSON file")
	cmd.Flags().Float64Var(&f.requestsPerSecond, "rps", 0, "Request pacing against the API")
	cmd.Flags().IntVar(&f.maxInFlight, "max-in-flight", 0, "Ceiling on concurrent biography fetches")

	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed per-profile output")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Append JSON logs to this file")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, or error")
}

// toOptions converts flag values into an Options struct; zero values
// are filled in later from the config file and the defaults.
func (f *checkFlags) toOptions(strategy string) config.Options {
	return config.Options{
		Strategy:            strategy,
		Ancestors:           f.ancestors,
		Descendants:         f.descendants,
		RelativeDegrees:     f.relativeDegrees,
		OpenOnly:            f.openOnly,
		IgnorePre1500:       f.ignorePre1500,
		ReliableSourcesOnly: f.reliableSourcesOnly,
		ReportMode:          f.reportMode,
		MaxProfiles:         f.maxProfiles,
		MaxReport:           f.maxReport,
		TemplateCatalog:     f.templateCatalog,
		RequestsPerSecond:   f.requestsPerSecond,
		MaxInFlight:         f.maxInFlight,
		Verbose:             f.verbose,
		LogFile:             f.logFile,
		LogLevel:            f.logLevel,
	}
}

// resolveOptions layers flag values over the config file over the
// built-in defaults, then validates the result.
func resolveOptions(flagOpts config.Options, configPath string) (config.Options, error) {
	opts := flagOpts
	if configPath != "" {
		fileOpts, err := config.Load(configPath)
		if err != nil {
			return opts, err
		}
		opts = opts.MergeWithDefaults(*fileOpts)
	}
	opts = opts.MergeWithDefaults(config.Defaults())
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// runCheck builds the rule set, client, registry, and engine, runs the
// traversal, and prints the collected results. An interrupt cancels the
// run cooperatively: in-flight requests drain and partial results are
// still reported.
func runCheck(opts config.Options) error {
	logger, cleanup := observability.SetupLogger(opts.LogFile, observability.ParseLevel(opts.LogLevel))
	defer func() { _ = cleanup() }()

	rs, err := rules.New()
	if err != nil {
		return fmt.Errorf("failed to build rule set: %w", err)
	}
	if opts.TemplateCatalog != "" {
		// A bad catalog degrades the checks, it never blocks the run.
		if err := rs.LoadTemplatesFromFile(opts.TemplateCatalog); err != nil {
			logger.Warn("template catalog unavailable, continuing without it", "error", err)
		}
	}

	clientOpts := wikitree.DefaultOptions()
	if opts.BaseURL != "" {
		clientOpts.BaseURL = opts.BaseURL
	}
	if opts.SearchURL != "" {
		clientOpts.SearchURL = opts.SearchURL
	}
	if opts.RequestsPerSecond > 0 {
		clientOpts.RequestsPerSecond = opts.RequestsPerSecond
	}
	client := wikitree.NewClient(clientOpts, logger)

	mode := report.ModeAll
	switch {
	case opts.IssuesOnly():
		mode = report.ModeIssuesOnly
	case opts.NonManagedOnly():
		mode = report.ModeNonManagedOnly
	}
	collector := report.NewCollector(mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := traversal.New(client, rs, registry.New(), collector, &opts, logger)
	runErr := engine.Run(ctx)

	printer := observability.NewPrinter(os.Stdout)
	if opts.Verbose {
		for _, row := range collector.Rows() {
			printer.PrintRow(row)
		}
	}
	printer.PrintRows(collector.Rows())
	if summary, ok := collector.Summary(); ok {
		printer.PrintSummary(summary)
	}

	return runErr
}
