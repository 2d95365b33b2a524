package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

var rowsWriteCmd = &cobra.Command{
	Use:   "rows-write",
	Short: "Run the row writer (C2): ExtractedObject -> ClickHouse rows",
	Run: func(cmd *cobra.Command, args []string) {
		mgr, _, err := bootstrap()
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		ctx := context.Background()
		if err := mgr.StartConfig(ctx); err != nil {
			log.Fatalf("❌ starting config subscription: %v", err)
		}
		if err := mgr.StartRowsWrite(ctx); err != nil {
			log.Fatalf("❌ starting rows-write: %v", err)
		}
		runUntilSignal(mgr, healthPortFlag(cmd))
	},
}

func init() {
	serveCmd.AddCommand(rowsWriteCmd)
}
