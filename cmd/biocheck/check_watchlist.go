package main

import (
	"github.com/spf13/cobra"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/config"
)

var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "Check profiles on the authenticated watchlist",
	Long:  "Enumerates the watchlist in pages, checking the window selected by --start and --max. The total is learned from a probe call so no page beyond the end is ever requested.",
	RunE:  runWatchlistCmd,
}

var (
	watchlistFlags checkFlags
	watchlistStart int
	watchlistMax   int
)

func init() {
	registerCommonFlags(watchlistCmd, &watchlistFlags)
	watchlistCmd.Flags().IntVar(&watchlistStart, "start", 0, "Watchlist offset to start checking at")
	watchlistCmd.Flags().IntVar(&watchlistMax, "max", 0, "Maximum watchlist entries to check")

	rootCmd.AddCommand(watchlistCmd)
}

func runWatchlistCmd(_ *cobra.Command, _ []string) error {
	flagOpts := watchlistFlags.toOptions(config.StrategyWatchlist)
	flagOpts.SearchStart = watchlistStart
	flagOpts.SearchMax = watchlistMax

	opts, err := resolveOptions(flagOpts, watchlistFlags.configPath)
	if err != nil {
		return err
	}
	return runCheck(opts)
}
