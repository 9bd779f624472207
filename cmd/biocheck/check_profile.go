package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Check one profile and its configured generational expansion",
	Long:  "Checks the given profile, expands the configured generations of ancestors and descendants, and optionally walks degrees of connection from profiles found to have issues.",
	RunE:  runProfileCmd,
}

var (
	profileFlags checkFlags
	profileKey   string
)

func init() {
	registerCommonFlags(profileCmd, &profileFlags)
	profileCmd.Flags().StringVarP(&profileKey, "key", "k", "", "Profile id or display name, e.g. Surname-123 (required)")

	if err := profileCmd.MarkFlagRequired("key"); err != nil {
		panic(fmt.Sprintf("failed to mark key flag as required: %v", err))
	}

	rootCmd.AddCommand(profileCmd)
}

func runProfileCmd(_ *cobra.Command, _ []string) error {
	flagOpts := profileFlags.toOptions(config.StrategyProfile)
	flagOpts.Key = profileKey

	opts, err := resolveOptions(flagOpts, profileFlags.configPath)
	if err != nil {
		return err
	}
	return runCheck(opts)
}
