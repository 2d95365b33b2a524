// Package vectorwriter implements the Row Embeddings Writer (C4):
// consumes RowEmbeddings and upserts vectors into lazily-created
// per-(tenant,collection,schema,dimension) Qdrant collections,
// grounded on
// trustgraph-flow/trustgraph/storage/row_embeddings/qdrant/write.py.
package vectorwriter

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/rowcore/rowcore/internal/bus"
	"github.com/rowcore/rowcore/internal/logger"
	"github.com/rowcore/rowcore/internal/registry"
	"github.com/rowcore/rowcore/internal/vectorstore"
)

const auditProcessor = "row-embeddings-write"

// VectorStore is the storage dependency of the row embeddings writer,
// satisfied by *vectorstore.Store.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dimension int) error
	Upsert(ctx context.Context, collectionName string, points []vectorstore.Point) error
	DropByPrefix(ctx context.Context, prefix string) (int, error)
}

var _ VectorStore = (*vectorstore.Store)(nil)

// Processor is the C4 row embeddings writer.
type Processor struct {
	collections *registry.CollectionRegistry
	vectors     VectorStore
}

// NewProcessor creates a row embeddings writer over the given vector Store.
func NewProcessor(collections *registry.CollectionRegistry, vectors VectorStore) *Processor {
	return &Processor{collections: collections, vectors: vectors}
}

// OnEmbeddings handles one RowEmbeddings message: for each
// RowIndexEmbedding, each vector is upserted with a fresh unique ID
// into the collection matching its dimension, created lazily.
func (p *Processor) OnEmbeddings(ctx context.Context, msg bus.RowEmbeddings) error {
	log.Printf("row-embeddings-write: writing %d embeddings for schema %s from %s",
		len(msg.Embeddings), msg.SchemaName, msg.Metadata.ID)

	if p.collections != nil && !p.collections.Exists(msg.Metadata.User, msg.Metadata.Collection) {
		log.Printf("row-embeddings-write: collection %s for user %s does not exist in config - dropping message",
			msg.Metadata.Collection, msg.Metadata.User)
		return nil
	}

	written := 0
	for _, rowEmb := range msg.Embeddings {
		if len(rowEmb.Vectors) == 0 {
			log.Printf("row-embeddings-write: no vectors for index %s - skipping", rowEmb.IndexName)
			continue
		}

		for _, vector := range rowEmb.Vectors {
			dimension := len(vector)
			collectionName := vectorstore.CollectionName(msg.Metadata.User, msg.Metadata.Collection, msg.SchemaName, dimension)

			if err := p.vectors.EnsureCollection(ctx, collectionName, dimension); err != nil {
				logger.LogAudit(auditProcessor, msg.Metadata.ID, msg.Metadata.User, msg.Metadata.Collection, "error")
				return err
			}

			point := vectorstore.Point{
				ID:     uuid.NewString(),
				Vector: vector,
				Payload: map[string]string{
					"index_name":  rowEmb.IndexName,
					"index_value": vectorstore.EncodeIndexValue(rowEmb.IndexValue),
					"text":        rowEmb.Text,
				},
			}
			if err := p.vectors.Upsert(ctx, collectionName, []vectorstore.Point{point}); err != nil {
				logger.LogAudit(auditProcessor, msg.Metadata.ID, msg.Metadata.User, msg.Metadata.Collection, "error")
				return err
			}
			written++
		}
	}

	log.Printf("row-embeddings-write: wrote %d embeddings to qdrant", written)
	logger.LogAudit(auditProcessor, msg.Metadata.ID, msg.Metadata.User, msg.Metadata.Collection, "success")
	return nil
}

// DeleteCollection removes every vector collection belonging to
// (user, collection).
func (p *Processor) DeleteCollection(ctx context.Context, user, collection string) error {
	prefix := vectorstore.CollectionPrefix(user, collection, "")
	dropped, err := p.vectors.DropByPrefix(ctx, prefix)
	if err != nil {
		logger.LogAudit(auditProcessor, "", user, collection, "error")
		return err
	}
	if dropped == 0 {
		log.Printf("row-embeddings-write: no qdrant collections found matching prefix %s", prefix)
	} else {
		log.Printf("row-embeddings-write: deleted %d collection(s) for %s/%s", dropped, user, collection)
	}
	logger.LogAudit(auditProcessor, "", user, collection, "deleted")
	return nil
}

// DeleteCollectionSchema removes every vector collection belonging to
// (user, collection, schemaName).
func (p *Processor) DeleteCollectionSchema(ctx context.Context, user, collection, schemaName string) error {
	prefix := vectorstore.CollectionPrefix(user, collection, schemaName)
	_, err := p.vectors.DropByPrefix(ctx, prefix)
	if err != nil {
		logger.LogAudit(auditProcessor, "", user, collection, "error")
		return err
	}
	logger.LogAudit(auditProcessor, "", user, collection, "deleted")
	return nil
}
