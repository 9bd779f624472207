package main

import (
	"github.com/spf13/cobra"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/config"
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Check randomly drawn profiles",
	Long:  "Draws profile ids uniformly from the configured id range and checks each one that resolves to a readable profile.",
	RunE:  runRandomCmd,
}

var (
	randomFlags checkFlags
	randomMin   int64
	randomMax   int64
)

func init() {
	registerCommonFlags(randomCmd, &randomFlags)
	randomCmd.Flags().Int64Var(&randomMin, "min", 0, "Lowest profile id to draw")
	randomCmd.Flags().Int64Var(&randomMax, "max", 0, "Highest profile id to draw")

	rootCmd.AddCommand(randomCmd)
}

func runRandomCmd(_ *cobra.Command, _ []string) error {
	flagOpts := randomFlags.toOptions(config.StrategyRandom)
	flagOpts.MinRandom = randomMin
	flagOpts.MaxRandom = randomMax

	opts, err := resolveOptions(flagOpts, randomFlags.configPath)
	if err != nil {
		return err
	}
	return runCheck(opts)
}
