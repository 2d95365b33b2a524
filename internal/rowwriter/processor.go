// Package rowwriter implements the Row Writer (C2): consumes
// ExtractedObject batches and writes one copy per active index into
// the unified rows table, grounded on
// trustgraph-flow/trustgraph/storage/rows/cassandra/write.py.
package rowwriter

import (
	"context"
	"fmt"
	"log"

	"github.com/rowcore/rowcore/internal/bus"
	"github.com/rowcore/rowcore/internal/clickhouse"
	"github.com/rowcore/rowcore/internal/logger"
	"github.com/rowcore/rowcore/internal/registry"
	"github.com/rowcore/rowcore/internal/schema"
)

const auditProcessor = "rows-write"

// RowsStore is the storage dependency of the row writer, satisfied by
// *clickhouse.RowsStore.
type RowsStore interface {
	WriteRows(ctx context.Context, tenant, collection, source string, rowSchema schema.RowSchema, values []map[string]string) (int, error)
	DeleteCollection(ctx context.Context, tenant, collection string) error
	DeleteCollectionSchema(ctx context.Context, tenant, collection, schemaName string) error
}

var _ RowsStore = (*clickhouse.RowsStore)(nil)

// Processor is the C2 row writer.
type Processor struct {
	schemas     *registry.SchemaRegistry
	collections *registry.CollectionRegistry
	rows        RowsStore
}

// NewProcessor creates a row writer over the given RowsStore.
func NewProcessor(schemas *registry.SchemaRegistry, collections *registry.CollectionRegistry, rows RowsStore) *Processor {
	return &Processor{schemas: schemas, collections: collections, rows: rows}
}

// OnObject handles one ExtractedObject. Writing to an unregistered
// collection is a validation error (non-retryable, §7), unlike the
// softer schema-missing case which is dropped with a warning.
func (p *Processor) OnObject(ctx context.Context, obj bus.ExtractedObject) error {
	log.Printf("rows-write: storing %d rows for schema %s from %s",
		len(obj.Values), obj.SchemaName, obj.Metadata.ID)

	if p.collections != nil && !p.collections.Exists(obj.Metadata.User, obj.Metadata.Collection) {
		err := fmt.Errorf("collection %s does not exist - create it first via collection management API", obj.Metadata.Collection)
		log.Printf("rows-write: %v", err)
		logger.LogAudit(auditProcessor, obj.Metadata.ID, obj.Metadata.User, obj.Metadata.Collection, "rejected")
		return err
	}

	rowSchema, ok := p.schemas.Get(obj.SchemaName)
	if !ok {
		log.Printf("rows-write: no schema found for %s - skipping", obj.SchemaName)
		return nil
	}

	tenant := schema.Sanitize(obj.Metadata.User)
	source := obj.Metadata.Source

	_, err := p.rows.WriteRows(ctx, tenant, obj.Metadata.Collection, source, rowSchema, obj.Values)
	if err != nil {
		logger.LogAudit(auditProcessor, obj.Metadata.ID, obj.Metadata.User, obj.Metadata.Collection, "error")
		return err
	}
	logger.LogAudit(auditProcessor, obj.Metadata.ID, obj.Metadata.User, obj.Metadata.Collection, "success")
	return nil
}

// DeleteCollection removes all rows for a (tenant, collection) pair.
func (p *Processor) DeleteCollection(ctx context.Context, user, collection string) error {
	err := p.rows.DeleteCollection(ctx, schema.Sanitize(user), collection)
	logger.LogAudit(auditProcessor, "", user, collection, auditStatus(err))
	return err
}

// DeleteCollectionSchema removes all rows for one (tenant, collection,
// schema_name) triple.
func (p *Processor) DeleteCollectionSchema(ctx context.Context, user, collection, schemaName string) error {
	err := p.rows.DeleteCollectionSchema(ctx, schema.Sanitize(user), collection, schemaName)
	logger.LogAudit(auditProcessor, "", user, collection, auditStatus(err))
	return err
}

func auditStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "deleted"
}
