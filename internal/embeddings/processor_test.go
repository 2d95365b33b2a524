package embeddings

import (
	"context"
	"testing"

	"github.com/rowcore/rowcore/internal/bus"
	"github.com/rowcore/rowcore/internal/registry"
)

type fakeEmbedder struct {
	calls []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([][]float32, error) {
	f.calls = append(f.calls, text)
	return [][]float32{{1, 2, 3}}, nil
}

const customerSchemaJSON = `{
	"fields": [
		{"name": "customer_id", "type": "string", "primary_key": true},
		{"name": "email", "type": "string", "indexed": true},
		{"name": "age", "type": "integer"}
	]
}`

func setupProcessor(t *testing.T, embedder Client) (*Processor, *[]bus.RowEmbeddings) {
	t.Helper()
	schemas := registry.NewSchemaRegistry("")
	schemas.OnConfig(1, map[string]map[string]string{"schema": {"customer_records": customerSchemaJSON}})

	collections := registry.NewCollectionRegistry("")
	collections.OnConfig(1, map[string]map[string]string{"collection": {"orders": `{"user": "acme"}`}})

	var published []bus.RowEmbeddings
	p := NewProcessor(schemas, collections, embedder, 2, func(ctx context.Context, out bus.RowEmbeddings) error {
		published = append(published, out)
		return nil
	})
	return p, &published
}

func TestProcessorDedupesTexts(t *testing.T) {
	embedder := &fakeEmbedder{}
	p, published := setupProcessor(t, embedder)

	obj := bus.ExtractedObject{
		Metadata:   bus.Metadata{User: "acme", Collection: "orders", ID: "doc-1"},
		SchemaName: "customer_records",
		Values: []map[string]string{
			{"customer_id": "C1", "email": "a@example.com"},
			{"customer_id": "C1", "email": "a@example.com"},
			{"customer_id": "C2", "email": "b@example.com"},
		},
	}

	if err := p.OnObject(context.Background(), obj); err != nil {
		t.Fatalf("OnObject: %v", err)
	}

	if len(embedder.calls) != 4 {
		t.Fatalf("expected 4 unique texts embedded (2 distinct customer_id + 2 distinct email, deduped), got %d: %v", len(embedder.calls), embedder.calls)
	}

	total := 0
	for _, msg := range *published {
		if len(msg.Embeddings) > 2 {
			t.Errorf("batch exceeds batchSize: %d", len(msg.Embeddings))
		}
		total += len(msg.Embeddings)
	}
	if total != 4 {
		t.Errorf("expected 4 total embeddings published, got %d", total)
	}
}

func TestProcessorSkipsUnregisteredCollection(t *testing.T) {
	embedder := &fakeEmbedder{}
	p, published := setupProcessor(t, embedder)

	obj := bus.ExtractedObject{
		Metadata:   bus.Metadata{User: "acme", Collection: "unregistered", ID: "doc-1"},
		SchemaName: "customer_records",
		Values:     []map[string]string{{"customer_id": "C1"}},
	}

	if err := p.OnObject(context.Background(), obj); err != nil {
		t.Fatalf("OnObject: %v", err)
	}
	if len(*published) != 0 {
		t.Error("should not publish for an unregistered collection")
	}
	if len(embedder.calls) != 0 {
		t.Error("should not embed for an unregistered collection")
	}
}

func TestProcessorSkipsUnknownSchema(t *testing.T) {
	embedder := &fakeEmbedder{}
	p, published := setupProcessor(t, embedder)

	obj := bus.ExtractedObject{
		Metadata:   bus.Metadata{User: "acme", Collection: "orders"},
		SchemaName: "no_such_schema",
		Values:     []map[string]string{{"a": "b"}},
	}

	if err := p.OnObject(context.Background(), obj); err != nil {
		t.Fatalf("OnObject: %v", err)
	}
	if len(*published) != 0 {
		t.Error("unknown schema should not publish anything")
	}
}
