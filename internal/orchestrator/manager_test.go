package orchestrator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rowcore/rowcore/internal/bus"
	"github.com/rowcore/rowcore/internal/clickhouse"
	"github.com/rowcore/rowcore/internal/graphqlquery"
	"github.com/rowcore/rowcore/internal/registry"
	"github.com/rowcore/rowcore/internal/rowwriter"
	"github.com/rowcore/rowcore/internal/schema"
	"github.com/rowcore/rowcore/internal/vectorquery"
	"github.com/rowcore/rowcore/internal/vectorstore"
	"github.com/rowcore/rowcore/internal/vectorwriter"
)

const testSchemaJSON = `{
  "name": "customer_records",
  "fields": [
    {"name": "customer_id", "type": "string", "primary_key": true},
    {"name": "email", "type": "string", "indexed": true}
  ]
}`

type fakeRowsStore struct {
	written            int
	deletedCollections []string
	deletedSchemas     []string
}

func (f *fakeRowsStore) WriteRows(ctx context.Context, tenant, collection, source string, rs schema.RowSchema, values []map[string]string) (int, error) {
	f.written += len(values)
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

type fakeVectorStore struct {
	deletedCollections []string
}

func (f *fakeVectorStore) EnsureCollection(ctx context.Context, name string, dimension int) error {
	return nil
}
func (f *fakeVectorStore) Upsert(ctx context.Context, collectionName string, points []vectorstore.Point) error {
	return nil
}
func (f *fakeVectorStore) DropByPrefix(ctx context.Context, prefix string) (int, error) {
	f.deletedCollections = append(f.deletedCollections, prefix)
	return 0, nil
}
func (f *fakeVectorStore) ListCollectionNames(ctx context.Context) ([]string, error)     { return nil, nil }
func (f *fakeVectorStore) Search(ctx context.Context, collectionName string, vector []float32, limit int, matchField, matchValue string) ([]vectorstore.Match, error) {
	return nil, nil
}

type stubQueryStore struct{}

func (s *stubQueryStore) Query(ctx context.Context, tenant, collection, schemaName string, rs schema.RowSchema, filters map[string]string, opts clickhouse.QueryOptions) ([]map[string]string, error) {
	return []map[string]string{{"customer_id": "1", "email": "a@example.com"}}, nil
}

func newTestManager() (*Manager, *registry.SchemaRegistry) {
	m, schemas, _, _ := newTestManagerWithFakes()
	return m, schemas
}

func newTestManagerWithFakes() (*Manager, *registry.SchemaRegistry, *fakeRowsStore, *fakeVectorStore) {
	schemas := registry.NewSchemaRegistry("schema")
	collections := registry.NewCollectionRegistry("collection")
	rows := &fakeRowsStore{}
	vectors := &fakeVectorStore{}

	m := &Manager{
		bus:         bus.NewInProcess(),
		schemas:     schemas,
		collections: collections,
	}
	m.rowWriter = rowwriter.NewProcessor(schemas, collections, rows)
	m.vectorWriter = vectorwriter.NewProcessor(collections, vectors)
	m.vectorQuery = vectorquery.NewProcessor(&fakeVectorStore{})
	m.graphQL = graphqlquery.NewProcessor(schemas, graphqlquery.NewPlanner(&stubQueryStore{}))

	collections.Subscribe(m.onCollectionEvent)

	return m, schemas, rows, vectors
}

func TestStartConfigFeedsBothRegistries(t *testing.T) {
	m, schemas := newTestManager()
	ctx := context.Background()

	if err := m.StartConfig(ctx); err != nil {
		t.Fatalf("StartConfig: %v", err)
	}

	got := m.bus.Send(ctx, topicConfig, bus.ConfigSnapshot{
		Version: 1,
		Config: map[string]map[string]string{
			"schema":     {"customer_records": testSchemaJSON},
			"collection": {"orders": `{"user":"acme"}`},
		},
	}, nil)
	if got != nil {
		t.Fatalf("Send config: %v", got)
	}

	if _, ok := schemas.Get("customer_records"); !ok {
		t.Error("expected the schema registry to pick up the pushed schema")
	}
	if !m.collections.Exists("acme", "orders") {
		t.Error("expected the collection registry to pick up the pushed collection")
	}
}

func TestStartRowsWriteRejectsUnregisteredCollection(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	if err := m.StartRowsWrite(ctx); err != nil {
		t.Fatalf("StartRowsWrite: %v", err)
	}

	err := m.bus.Send(ctx, topicExtractedObject, bus.ExtractedObject{
		Metadata:   bus.Metadata{User: "acme", Collection: "orders"},
		SchemaName: "customer_records",
		Values:     []map[string]string{{"customer_id": "1"}},
	}, nil)
	if err == nil {
		t.Error("expected an error for a write against an unregistered collection")
	}
}

func TestQueryRowsNoSchemaYieldsError(t *testing.T) {
	m, _ := newTestManager()
	resp := m.QueryRows(context.Background(), bus.RowsQueryRequest{User: "acme", Collection: "orders", Query: "{ __typename }"})
	if resp.Error == nil {
		t.Error("expected an error when no schema has been registered yet")
	}
}

func TestStartRowsQueryPublishesCorrelatedResponse(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	if err := m.StartRowsQuery(ctx); err != nil {
		t.Fatalf("StartRowsQuery: %v", err)
	}

	var got bus.RowsQueryResponse
	var gotProps map[string]string
	m.bus.Subscribe(topicRowsQueryResponse, func(ctx context.Context, msg bus.Message) error {
		got = msg.Value.(bus.RowsQueryResponse)
		gotProps = msg.Properties
		return nil
	})

	err := m.bus.Send(ctx, topicRowsQueryRequest, bus.RowsQueryRequest{
		User:       "acme",
		Collection: "orders",
		Query:      "{ __typename }",
	}, map[string]string{"id": "req-1"})
	if err != nil {
		t.Fatalf("Send request: %v", err)
	}

	if gotProps["id"] != "req-1" {
		t.Errorf("expected the response to carry the request id, got %v", gotProps)
	}
	if got.Error == nil {
		t.Error("expected an error response since no schema is registered")
	}
}

func TestQueryRowEmbeddingsMissingCollectionIsEmpty(t *testing.T) {
	m, _ := newTestManager()
	resp := m.QueryRowEmbeddings(context.Background(), bus.RowEmbeddingsRequest{
		User:       "acme",
		Collection: "orders",
		SchemaName: "customer_records",
		Vectors:    [][]float32{{0.1, 0.2}},
		Limit:      5,
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if resp.Matches == nil {
		t.Error("expected an empty, non-nil matches slice")
	}
	encoded, _ := json.Marshal(resp)
	if len(encoded) == 0 {
		t.Error("expected a marshalable response")
	}
}

func TestCollectionDeleteFansOutToWriters(t *testing.T) {
	m, _, rows, vectors := newTestManagerWithFakes()
	ctx := context.Background()

	if err := m.StartConfig(ctx); err != nil {
		t.Fatalf("StartConfig: %v", err)
	}

	send := func(version int, collectionsConfig map[string]string) {
		err := m.bus.Send(ctx, topicConfig, bus.ConfigSnapshot{
			Version: version,
			Config:  map[string]map[string]string{"collection": collectionsConfig},
		}, nil)
		if err != nil {
			t.Fatalf("Send config v%d: %v", version, err)
		}
	}

	send(1, map[string]string{"orders": `{"user":"acme"}`})
	if !m.collections.Exists("acme", "orders") {
		t.Fatal("expected collection to be registered after creation")
	}

	send(2, map[string]string{})
	if m.collections.Exists("acme", "orders") {
		t.Error("expected collection to be gone after deletion")
	}
	if len(rows.deletedCollections) != 1 || rows.deletedCollections[0] != "acme/orders" {
		t.Errorf("expected row writer to receive the delete, got %v", rows.deletedCollections)
	}
	if len(vectors.deletedCollections) != 1 {
		t.Errorf("expected vector writer to receive the delete, got %v", vectors.deletedCollections)
	}
}
