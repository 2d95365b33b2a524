package main

import (
	"context"
	"log"

	"github.com/spf13/cobra"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run every processor in one process",
	Run: func(cmd *cobra.Command, args []string) {
		mgr, _, err := bootstrap()
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		ctx := context.Background()

		starters := []struct {
			name string
			fn   func(context.Context) error
		}{
			{"config", mgr.StartConfig},
			{"rows-write", mgr.StartRowsWrite},
			{"row-embeddings", mgr.StartRowEmbeddings},
			{"row-embeddings-write", mgr.StartRowEmbeddingsWrite},
			{"rows-query", mgr.StartRowsQuery},
			{"row-embeddings-query", mgr.StartRowEmbeddingsQuery},
		}
		for _, s := range starters {
			if err := s.fn(ctx); err != nil {
				log.Fatalf("❌ starting %s: %v", s.name, err)
			}
			log.Printf("✅ %s started", s.name)
		}

		runUntilSignal(mgr, healthPortFlag(cmd))
	},
}

func init() {
	serveCmd.AddCommand(allCmd)
}
