// Package embeddings implements the Row Embeddings Computer (C3):
// stage 1 of the two-stage embeddings pipeline (§4.3), grounded on
// trustgraph-flow/trustgraph/embeddings/row_embeddings/embeddings.py.
package embeddings

import (
	"context"
	"log"

	"github.com/rowcore/rowcore/internal/bus"
	"github.com/rowcore/rowcore/internal/registry"
	"github.com/rowcore/rowcore/internal/schema"
)

const defaultBatchSize = 10

// Processor computes embeddings for the active-index field values of
// every incoming ExtractedObject and emits batched RowEmbeddings.
type Processor struct {
	schemas     *registry.SchemaRegistry
	collections *registry.CollectionRegistry
	embedder    Client
	batchSize   int
	publish     func(ctx context.Context, out bus.RowEmbeddings) error
}

// NewProcessor creates a row embeddings computer. publish is invoked
// once per output batch (the bus.Producer.Send call for the "output"
// topic, already bound to its destination by the caller).
func NewProcessor(schemas *registry.SchemaRegistry, collections *registry.CollectionRegistry, embedder Client, batchSize int, publish func(ctx context.Context, out bus.RowEmbeddings) error) *Processor {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Processor{
		schemas:     schemas,
		collections: collections,
		embedder:    embedder,
		batchSize:   batchSize,
		publish:     publish,
	}
}

type pendingEmbedding struct {
	indexName  string
	indexValue []string
	text       string
}

// OnObject handles one ExtractedObject: collect unique texts across
// the batch (a text maps to the first (index_name, index_value)
// observed, per §4.3's deduplication rule), embed each exactly once,
// then emit RowEmbeddings messages of at most batchSize entries.
func (p *Processor) OnObject(ctx context.Context, obj bus.ExtractedObject) error {
	log.Printf("row-embeddings: computing embeddings for %d rows, schema %s, doc %s",
		len(obj.Values), obj.SchemaName, obj.Metadata.ID)

	if p.collections != nil && !p.collections.Exists(obj.Metadata.User, obj.Metadata.Collection) {
		log.Printf("row-embeddings: collection %s for user %s does not exist in config - dropping message",
			obj.Metadata.Collection, obj.Metadata.User)
		return nil
	}

	rowSchema, ok := p.schemas.Get(obj.SchemaName)
	if !ok {
		log.Printf("row-embeddings: no schema found for %s - skipping", obj.SchemaName)
		return nil
	}

	indexNames := rowSchema.ActiveIndexNames()
	if len(indexNames) == 0 {
		log.Printf("row-embeddings: schema %s has no indexed fields - skipping", obj.SchemaName)
		return nil
	}

	textsToEmbed := make(map[string]pendingEmbedding)
	var order []string

	for _, valueMap := range obj.Values {
		for _, indexName := range indexNames {
			indexValue := schema.BuildIndexValue(valueMap, indexName)
			if schema.IsEmptyIndexValue(indexValue) {
				continue
			}

			text := schema.IndexText(indexValue)
			if text == "" {
				continue
			}
			if _, seen := textsToEmbed[text]; seen {
				continue
			}
			textsToEmbed[text] = pendingEmbedding{indexName: indexName, indexValue: indexValue, text: text}
			order = append(order, text)
		}
	}

	if len(textsToEmbed) == 0 {
		log.Printf("row-embeddings: no texts to embed")
		return nil
	}

	var computed []bus.RowIndexEmbedding
	for _, text := range order {
		pending := textsToEmbed[text]
		vectors, err := p.embedder.Embed(ctx, text)
		if err != nil {
			return err
		}
		computed = append(computed, bus.RowIndexEmbedding{
			IndexName:  pending.indexName,
			IndexValue: pending.indexValue,
			Text:       pending.text,
			Vectors:    vectors,
		})
	}

	for i := 0; i < len(computed); i += p.batchSize {
		end := i + p.batchSize
		if end > len(computed) {
			end = len(computed)
		}
		out := bus.RowEmbeddings{
			Metadata:   obj.Metadata,
			SchemaName: obj.SchemaName,
			Embeddings: computed[i:end],
		}
		if err := p.publish(ctx, out); err != nil {
			return err
		}
	}

	log.Printf("row-embeddings: computed %d embeddings for %d rows (%d indexes)",
		len(computed), len(obj.Values), len(indexNames))
	return nil
}
