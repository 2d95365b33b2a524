package graphqlquery

import (
	"context"
	"testing"

	"github.com/rowcore/rowcore/internal/bus"
	"github.com/rowcore/rowcore/internal/registry"
)

const customerSchemaJSON = `{
	"fields": [
		{"name": "customer_id", "type": "string", "primary_key": true},
		{"name": "email", "type": "string", "indexed": true},
		{"name": "age", "type": "integer"}
	]
}`

func TestProcessorRebuildsSchemaAndExecutesQuery(t *testing.T) {
	schemas := registry.NewSchemaRegistry("")

	planner := NewPlanner(&fakeQueryStore{results: []map[string]string{
		{"customer_id": "C1", "email": "a@example.com", "age": "30"},
	}})
	p := NewProcessor(schemas, planner)

	schemas.OnConfig(1, map[string]map[string]string{"schema": {"customer_records": customerSchemaJSON}})

	resp := p.OnRequest(context.Background(), bus.RowsQueryRequest{
		User:       "acme",
		Collection: "orders",
		Query:      `{ customer_records(where: {email: {eq: "a@example.com"}}) { customer_id email age } }`,
	})

	if resp.Error != nil {
		t.Fatalf("unexpected top-level error: %v", resp.Error)
	}
	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected GraphQL errors: %v", resp.Errors)
	}
	if resp.Data == nil {
		t.Fatal("expected non-nil data")
	}
}

func TestProcessorNoSchemaYieldsError(t *testing.T) {
	schemas := registry.NewSchemaRegistry("")
	planner := NewPlanner(&fakeQueryStore{})
	p := NewProcessor(schemas, planner)

	resp := p.OnRequest(context.Background(), bus.RowsQueryRequest{
		User:       "acme",
		Collection: "orders",
		Query:      `{ __typename }`,
	})

	if resp.Error == nil {
		t.Fatal("expected a top-level error when no schema has been built yet")
	}
}
