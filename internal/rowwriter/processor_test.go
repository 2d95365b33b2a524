package rowwriter

import (
	"context"
	"testing"

	"github.com/rowcore/rowcore/internal/bus"
	"github.com/rowcore/rowcore/internal/registry"
	"github.com/rowcore/rowcore/internal/schema"
)

type fakeRowsStore struct {
	written            []map[string]string
	deletedCollections []string
	deletedSchemas     []string
}

func (f *fakeRowsStore) WriteRows(ctx context.Context, tenant, collection, source string, rowSchema schema.RowSchema, values []map[string]string) (int, error) {
	f.written = append(f.written, values...)
	return len(values), nil
}

func (f *fakeRowsStore) DeleteCollection(ctx context.Context, tenant, collection string) error {
	f.deletedCollections = append(f.deletedCollections, tenant+"/"+collection)
	return nil
}

func (f *fakeRowsStore) DeleteCollectionSchema(ctx context.Context, tenant, collection, schemaName string) error {
	f.deletedSchemas = append(f.deletedSchemas, tenant+"/"+collection+"/"+schemaName)
	return nil
}

const customerSchemaJSON = `{
	"fields": [
		{"name": "customer_id", "type": "string", "primary_key": true},
		{"name": "email", "type": "string", "indexed": true}
	]
}`

func setupProcessor(t *testing.T) (*Processor, *fakeRowsStore) {
	t.Helper()
	schemas := registry.NewSchemaRegistry("")
	schemas.OnConfig(1, map[string]map[string]string{"schema": {"customer_records": customerSchemaJSON}})

	collections := registry.NewCollectionRegistry("")
	collections.OnConfig(1, map[string]map[string]string{"collection": {"orders": `{"user": "acme"}`}})

	rows := &fakeRowsStore{}
	return NewProcessor(schemas, collections, rows), rows
}

func TestProcessorWritesRegisteredCollection(t *testing.T) {
	p, rows := setupProcessor(t)

	obj := bus.ExtractedObject{
		Metadata:   bus.Metadata{User: "acme", Collection: "orders", ID: "doc-1"},
		SchemaName: "customer_records",
		Values: []map[string]string{
			{"customer_id": "C1", "email": "a@example.com"},
		},
	}

	if err := p.OnObject(context.Background(), obj); err != nil {
		t.Fatalf("OnObject: %v", err)
	}
	if len(rows.written) != 1 {
		t.Fatalf("expected 1 row written, got %d", len(rows.written))
	}
}

func TestProcessorRejectsUnregisteredCollection(t *testing.T) {
	p, rows := setupProcessor(t)

	obj := bus.ExtractedObject{
		Metadata:   bus.Metadata{User: "acme", Collection: "unregistered"},
		SchemaName: "customer_records",
		Values:     []map[string]string{{"customer_id": "C1"}},
	}

	err := p.OnObject(context.Background(), obj)
	if err == nil {
		t.Fatal("expected a hard error for an unregistered collection")
	}
	if len(rows.written) != 0 {
		t.Error("should not write for an unregistered collection")
	}
}

func TestProcessorSkipsUnknownSchema(t *testing.T) {
	p, rows := setupProcessor(t)

	obj := bus.ExtractedObject{
		Metadata:   bus.Metadata{User: "acme", Collection: "orders"},
		SchemaName: "no_such_schema",
		Values:     []map[string]string{{"a": "b"}},
	}

	if err := p.OnObject(context.Background(), obj); err != nil {
		t.Fatalf("unknown schema should be a soft skip, got error: %v", err)
	}
	if len(rows.written) != 0 {
		t.Error("should not write for an unknown schema")
	}
}

func TestDeleteCollectionSanitizesTenant(t *testing.T) {
	p, rows := setupProcessor(t)

	if err := p.DeleteCollection(context.Background(), "Acme Corp", "orders"); err != nil {
		t.Fatalf("DeleteCollection: %v", err)
	}
	if len(rows.deletedCollections) != 1 || rows.deletedCollections[0] != "acme_corp/orders" {
		t.Errorf("expected sanitized tenant in delete call, got %v", rows.deletedCollections)
	}
}
