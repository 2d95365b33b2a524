package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

var rowEmbeddingsQueryCmd = &cobra.Command{
	Use:   "row-embeddings-query",
	Short: "Run the vector query sibling of C5 against Qdrant",
	Run: func(cmd *cobra.Command, args []string) {
		mgr, _, err := bootstrap()
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		ctx := context.Background()
		if err := mgr.StartRowEmbeddingsQuery(ctx); err != nil {
			log.Fatalf("❌ starting row-embeddings-query: %v", err)
		}
		runUntilSignal(mgr, healthPortFlag(cmd))
	},
}

func init() {
	serveCmd.AddCommand(rowEmbeddingsQueryCmd)
}
