package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

var rowEmbeddingsCmd = &cobra.Command{
	Use:   "row-embeddings",
	Short: "Run the row embeddings computer (C3): ExtractedObject -> RowEmbeddings",
	Run: func(cmd *cobra.Command, args []string) {
		mgr, _, err := bootstrap()
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		ctx := context.Background()
		if err := mgr.StartConfig(ctx); err != nil {
			log.Fatalf("❌ starting config subscription: %v", err)
		}
		if err := mgr.StartRowEmbeddings(ctx); err != nil {
			log.Fatalf("❌ starting row-embeddings: %v", err)
		}
		runUntilSignal(mgr, healthPortFlag(cmd))
	},
}

func init() {
	serveCmd.AddCommand(rowEmbeddingsCmd)
}
