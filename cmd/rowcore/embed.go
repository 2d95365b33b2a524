package main

import (
	"context"

	"github.com/rowcore/rowcore/internal/embeddings"
)

func embedQueryText(ctx context.Context, embedderURL, text string) ([][]float32, error) {
	client := embeddings.NewHTTPClient(embedderURL)
	return client.Embed(ctx, text)
}
