package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

var rowsQueryCmd = &cobra.Command{
	Use:   "rows-query",
	Short: "Run the GraphQL row query service (C5)",
	Run: func(cmd *cobra.Command, args []string) {
		mgr, _, err := bootstrap()
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		ctx := context.Background()
		if err := mgr.StartConfig(ctx); err != nil {
			log.Fatalf("❌ starting config subscription: %v", err)
		}
		if err := mgr.StartRowsQuery(ctx); err != nil {
			log.Fatalf("❌ starting rows-query: %v", err)
		}
		runUntilSignal(mgr, healthPortFlag(cmd))
	},
}

func init() {
	serveCmd.AddCommand(rowsQueryCmd)
}
