// Package main provides the entry point for the biocheck CLI, which
// audits profile biographies for missing or invalid sourcing and for
// style defects.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "biocheck",
	Short: "Audit profile biographies for sourcing and style problems",
	Long:  "biocheck discovers profiles by id, query, watchlist, or random sampling, parses each biography, classifies its sources against the rule tables, and reports which profiles are unsourced or carry style defects.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
