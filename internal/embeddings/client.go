package embeddings

import "context"

// Client is the embedding model service (out of scope per spec,
// referenced only by interface): embed(text) -> vectors.
type Client interface {
	Embed(ctx context.Context, text string) ([][]float32, error)
}
