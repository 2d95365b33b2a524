package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

var rowEmbeddingsWriteCmd = &cobra.Command{
	Use:   "row-embeddings-write",
	Short: "Run the row embeddings writer (C4): RowEmbeddings -> Qdrant",
	Run: func(cmd *cobra.Command, args []string) {
		mgr, _, err := bootstrap()
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		ctx := context.Background()
		if err := mgr.StartConfig(ctx); err != nil {
			log.Fatalf("❌ starting config subscription: %v", err)
		}
		if err := mgr.StartRowEmbeddingsWrite(ctx); err != nil {
			log.Fatalf("❌ starting row-embeddings-write: %v", err)
		}
		runUntilSignal(mgr, healthPortFlag(cmd))
	},
}

func init() {
	serveCmd.AddCommand(rowEmbeddingsWriteCmd)
}
