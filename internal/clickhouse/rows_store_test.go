package clickhouse

import "testing"

func newTestRowsStore(registered ...string) *RowsStore {
	rs := &RowsStore{registeredPartitions: make(map[string]struct{})}
	for _, k := range registered {
		rs.registeredPartitions[k] = struct{}{}
	}
	return rs
}

func TestInvalidateSchemaPurgesAllTenantsAndCollections(t *testing.T) {
	rs := newTestRowsStore(
		partitionCacheKey("acme", "orders", "customer_records"),
		partitionCacheKey("acme", "invoices", "customer_records"),
		partitionCacheKey("globex", "orders", "customer_records"),
		partitionCacheKey("acme", "orders", "shipment_records"),
	)

	rs.InvalidateSchema("customer_records")

	if len(rs.registeredPartitions) != 1 {
		t.Fatalf("expected only the unrelated schema's entry to survive, got %v", rs.registeredPartitions)
	}
	if _, ok := rs.registeredPartitions[partitionCacheKey("acme", "orders", "shipment_records")]; !ok {
		t.Error("expected shipment_records entry to be untouched")
	}
}

func TestInvalidateSchemaNoMatchIsNoop(t *testing.T) {
	key := partitionCacheKey("acme", "orders", "customer_records")
	rs := newTestRowsStore(key)

	rs.InvalidateSchema("unrelated_schema")

	if _, ok := rs.registeredPartitions[key]; !ok {
		t.Error("expected unrelated schema invalidation to leave the cache untouched")
	}
}

func TestInvalidateSchemaDoesNotMatchSuffixOfAnotherName(t *testing.T) {
	// "records" must not purge "customer_records" - InvalidateSchema
	// matches on the full trailing path segment, not a raw string suffix.
	key := partitionCacheKey("acme", "orders", "customer_records")
	rs := newTestRowsStore(key)

	rs.InvalidateSchema("records")

	if _, ok := rs.registeredPartitions[key]; !ok {
		t.Error("expected a partial schema-name match not to purge an unrelated entry")
	}
}

func TestRegisterPartitionsCacheKeyRoundTrip(t *testing.T) {
	rs := newTestRowsStore()
	key := partitionCacheKey("acme", "orders", "customer_records")
	rs.registeredPartitions[key] = struct{}{}

	rs.InvalidateSchema("customer_records")

	if len(rs.registeredPartitions) != 0 {
		t.Errorf("expected the cache to be empty after invalidation, got %v", rs.registeredPartitions)
	}
}
