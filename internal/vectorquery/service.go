// Package vectorquery implements the vector query sibling of C5:
// given a set of query vectors plus (user, collection, schema_name),
// locate the matching Qdrant collection by prefix and return
// nearest-neighbor matches, grounded on
// trustgraph-flow/trustgraph/query/row_embeddings/qdrant/service.py.
package vectorquery

import (
	"context"
	"log"

	"github.com/rowcore/rowcore/internal/bus"
	"github.com/rowcore/rowcore/internal/vectorstore"
)

// VectorStore is the storage dependency of the vector query sibling,
// satisfied by *vectorstore.Store.
type VectorStore interface {
	ListCollectionNames(ctx context.Context) ([]string, error)
	Search(ctx context.Context, collectionName string, vector []float32, limit int, matchField, matchValue string) ([]vectorstore.Match, error)
}

var _ VectorStore = (*vectorstore.Store)(nil)

// Processor is the C5 vector query sibling.
type Processor struct {
	vectors VectorStore
}

// NewProcessor creates a Processor over the given vector Store.
func NewProcessor(vectors VectorStore) *Processor {
	return &Processor{vectors: vectors}
}

// findCollection returns the first collection whose name starts with
// the (user, collection, schema_name) prefix, or "" if none exists.
// There should typically be only one match per dimension in ordinary
// operation.
func (p *Processor) findCollection(ctx context.Context, user, collection, schemaName string) (string, error) {
	prefix := vectorstore.CollectionPrefix(user, collection, schemaName)

	names, err := p.vectors.ListCollectionNames(ctx)
	if err != nil {
		return "", err
	}

	for _, name := range names {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return name, nil
		}
	}
	return "", nil
}

// Query executes one RowEmbeddingsRequest. A missing vector collection
// is not an error: it simply yields no matches (§8, S7).
func (p *Processor) Query(ctx context.Context, req bus.RowEmbeddingsRequest) (bus.RowEmbeddingsResponse, error) {
	collectionName, err := p.findCollection(ctx, req.User, req.Collection, req.SchemaName)
	if err != nil {
		return bus.RowEmbeddingsResponse{}, err
	}

	if collectionName == "" {
		log.Printf("row-embeddings-query: no qdrant collection found for %s/%s/%s",
			req.User, req.Collection, req.SchemaName)
		return bus.RowEmbeddingsResponse{Matches: []bus.RowIndexMatch{}}, nil
	}

	filterField := ""
	if req.IndexName != "" {
		filterField = "index_name"
	}

	var matches []bus.RowIndexMatch
	for _, vector := range req.Vectors {
		results, err := p.vectors.Search(ctx, collectionName, vector, req.Limit, filterField, req.IndexName)
		if err != nil {
			return bus.RowEmbeddingsResponse{}, err
		}

		for _, m := range results {
			matches = append(matches, bus.RowIndexMatch{
				IndexName:  m.Payload["index_name"],
				IndexValue: vectorstore.DecodeIndexValue(m.Payload["index_value"]),
				Text:       m.Payload["text"],
				Score:      m.Score,
			})
		}
	}

	if matches == nil {
		matches = []bus.RowIndexMatch{}
	}

	log.Printf("row-embeddings-query: returning %d matches", len(matches))
	return bus.RowEmbeddingsResponse{Matches: matches}, nil
}

// OnRequest handles one request/response exchange, wrapping execution
// errors into the wire error taxonomy instead of propagating them, the
// way the Python original catches around on_message and still replies.
func (p *Processor) OnRequest(ctx context.Context, req bus.RowEmbeddingsRequest) bus.RowEmbeddingsResponse {
	resp, err := p.Query(ctx, req)
	if err != nil {
		log.Printf("row-embeddings-query: %v", err)
		return bus.RowEmbeddingsResponse{
			Error:   &bus.Error{Type: "row-embeddings-query-error", Message: err.Error()},
			Matches: []bus.RowIndexMatch{},
		}
	}
	return resp
}
