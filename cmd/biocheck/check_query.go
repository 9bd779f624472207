package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/config"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Check profiles matching a text query",
	Long:  "Searches the external profile index for the given query and checks every match, up to the configured profile cap.",
	RunE:  runQueryCmd,
}

var (
	queryFlags checkFlags
	queryText  string
)

func init() {
	registerCommonFlags(queryCmd, &queryFlags)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "Search query, e.g. a surname (required)")

	if err := queryCmd.MarkFlagRequired("query"); err != nil {
		panic(fmt.Sprintf("failed to mark query flag as required: %v", err))
	}

	rootCmd.AddCommand(queryCmd)
}

func runQueryCmd(_ *cobra.Command, _ []string) error {
	flagOpts := queryFlags.toOptions(config.StrategyQuery)
	flagOpts.Query = queryText

	opts, err := resolveOptions(flagOpts, queryFlags.configPath)
	if err != nil {
		return err
	}
	return runCheck(opts)
}
