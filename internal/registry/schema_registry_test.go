package registry

import (
	"testing"

	"github.com/rowcore/rowcore/internal/schema"
)

const customerSchemaJSON = `{
	"description": "customer records",
	"fields": [
		{"name": "customer_id", "type": "string", "primary_key": true},
		{"name": "name", "type": "string", "required": true},
		{"name": "email", "type": "string", "indexed": true}
	]
}`

func TestSchemaRegistryOnConfig(t *testing.T) {
	r := NewSchemaRegistry("")

	r.OnConfig(1, map[string]map[string]string{
		"schema": {"customer_records": customerSchemaJSON},
	})

	rs, ok := r.Get("customer_records")
	if !ok {
		t.Fatal("expected customer_records schema to be registered")
	}
	if len(rs.ActiveIndexNames()) != 2 {
		t.Errorf("ActiveIndexNames() = %v, want 2 entries", rs.ActiveIndexNames())
	}
}

func TestSchemaRegistryBadSchemaDoesNotBlockOthers(t *testing.T) {
	r := NewSchemaRegistry("")

	r.OnConfig(1, map[string]map[string]string{
		"schema": {
			"customer_records": customerSchemaJSON,
			"broken":           `not json`,
		},
	})

	if _, ok := r.Get("customer_records"); !ok {
		t.Fatal("valid schema should still load when a sibling schema is malformed")
	}
	if _, ok := r.Get("broken"); ok {
		t.Fatal("malformed schema should not be registered")
	}
}

func TestSchemaRegistryWholesaleReplace(t *testing.T) {
	r := NewSchemaRegistry("")
	r.OnConfig(1, map[string]map[string]string{"schema": {"customer_records": customerSchemaJSON}})
	r.OnConfig(2, map[string]map[string]string{"schema": {}})

	if _, ok := r.Get("customer_records"); ok {
		t.Fatal("schema from a previous version should be gone after an empty reload")
	}
}

func TestSchemaRegistryNotifiesRemovals(t *testing.T) {
	r := NewSchemaRegistry("")

	var removed []string
	calls := 0
	r.SubscribeRemovals(func(names []string) {
		calls++
		removed = names
	})

	r.OnConfig(1, map[string]map[string]string{"schema": {"customer_records": customerSchemaJSON}})
	if calls != 0 {
		t.Fatalf("expected no removal notification on first load, got %d calls", calls)
	}

	r.OnConfig(2, map[string]map[string]string{"schema": {"customer_records": customerSchemaJSON}})
	if calls != 0 {
		t.Fatalf("expected no removal notification when nothing was dropped, got %d calls", calls)
	}

	r.OnConfig(3, map[string]map[string]string{"schema": {}})
	if calls != 1 {
		t.Fatalf("expected exactly one removal notification, got %d calls", calls)
	}
	if len(removed) != 1 || removed[0] != "customer_records" {
		t.Errorf("removed = %v, want [customer_records]", removed)
	}
}

func TestSchemaRegistryNotifiesSubscribers(t *testing.T) {
	r := NewSchemaRegistry("")

	var got map[string]schema.RowSchema
	r.Subscribe(func(schemas map[string]schema.RowSchema) {
		got = schemas
	})

	r.OnConfig(1, map[string]map[string]string{"schema": {"customer_records": customerSchemaJSON}})

	if got == nil {
		t.Fatal("subscriber was not invoked")
	}
	if _, ok := got["customer_records"]; !ok {
		t.Error("subscriber snapshot missing customer_records")
	}
}
