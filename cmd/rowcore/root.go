package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set during build.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "rowcore",
	Short: "Structured-row indexing and query core",
	Long: `rowcore indexes extracted structured objects into ClickHouse rows
and Qdrant vector collections, and answers GraphQL and vector queries
against them.

Examples:
  rowcore serve all                 # run every processor in one process
  rowcore serve rows-write          # run only the row writer (C2)
  rowcore serve row-embeddings      # run only the embeddings computer (C3)
  rowcore invoke row-embeddings ...  # issue a one-shot vector query`,
	Version: Version,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to a .env config file")
	rootCmd.PersistentFlags().String("log_level", "", "override the configured log level (debug, info, warn, error)")
}
