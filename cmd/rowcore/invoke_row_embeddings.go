package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/rowcore/rowcore/internal/bus"
)

var (
	invokeUser       string
	invokeCollection string
	invokeSchemaName string
	invokeIndexName  string
	invokeLimit      int
)

// invokeCmd groups one-shot request/response tools, the CLI surface's
// equivalent of the bus's own request/response topics (§6), the way
// trustgraph-cli's tg-invoke-* scripts wrap one flow call each.
var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Issue a one-shot request against a running processor",
}

var invokeRowEmbeddingsCmd = &cobra.Command{
	Use:   "row-embeddings [query text]",
	Short: "Query row data by text similarity over indexed fields",
	Long:  "Queries row data by text similarity using vector embeddings on indexed fields.\nReturns matching rows with their index values and similarity scores.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mgr, cfg, err := bootstrap()
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		if cfg.EmbedderURL == "" {
			log.Fatal("❌ no embedder_url configured, cannot embed the query text")
		}

		ctx := context.Background()
		vectors, err := embedQueryText(ctx, cfg.EmbedderURL, args[0])
		if err != nil {
			log.Fatalf("❌ embedding query text: %v", err)
		}

		resp := mgr.QueryRowEmbeddings(ctx, bus.RowEmbeddingsRequest{
			Vectors:    vectors,
			Limit:      invokeLimit,
			User:       invokeUser,
			Collection: invokeCollection,
			SchemaName: invokeSchemaName,
			IndexName:  invokeIndexName,
		})

		if resp.Error != nil {
			fmt.Println("Exception:", resp.Error.Message)
			return
		}

		for _, match := range resp.Matches {
			fmt.Printf("Index: %s\n", match.IndexName)
			fmt.Printf("  Values: %v\n", match.IndexValue)
			fmt.Printf("  Text: %s\n", match.Text)
			fmt.Printf("  Score: %.4f\n\n", match.Score)
		}
	},
}

func init() {
	rootCmd.AddCommand(invokeCmd)
	invokeCmd.AddCommand(invokeRowEmbeddingsCmd)

	invokeRowEmbeddingsCmd.Flags().StringVarP(&invokeUser, "user", "U", "rowcore", "user/keyspace")
	invokeRowEmbeddingsCmd.Flags().StringVarP(&invokeCollection, "collection", "c", "default", "collection")
	invokeRowEmbeddingsCmd.Flags().StringVarP(&invokeSchemaName, "schema-name", "s", "", "schema name to search within (required)")
	invokeRowEmbeddingsCmd.Flags().StringVarP(&invokeIndexName, "index-name", "i", "", "index name to filter search (optional)")
	invokeRowEmbeddingsCmd.Flags().IntVarP(&invokeLimit, "limit", "l", 10, "maximum number of results")
	invokeRowEmbeddingsCmd.MarkFlagRequired("schema-name")
}
