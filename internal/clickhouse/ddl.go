package clickhouse

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ColumnDefinition is one column of a generated CREATE TABLE,
// generalized from the teacher's schema_with_indexes.go DSL.
type ColumnDefinition struct {
	Name    string
	Type    string
	Comment string
}

// TableSchema is a declarative table definition generalized from the
// teacher's predefined per-use-case tables to the two tables every
// tenant database gets: the unified multi-index "rows" table and its
// "row_partitions" registry.
type TableSchema struct {
	Name    string
	Columns []ColumnDefinition
	Engine  string
	OrderBy []string
}

// RowsTableSchema is the unified wide-column table (§2): one physical
// row per (collection, schema_name, index_name, index_value). Colliding
// writes on the same index_value are resolved by ReplacingMergeTree's
// merge-time dedup on the ORDER BY key, matching the "last write wins"
// semantics of §5.2.
var RowsTableSchema = TableSchema{
	Name: "rows",
	Columns: []ColumnDefinition{
		{Name: "collection", Type: "String", Comment: "collection identifier"},
		{Name: "schema_name", Type: "String", Comment: "row schema name"},
		{Name: "index_name", Type: "String", Comment: "single field or comma-joined composite"},
		{Name: "index_value", Type: "Array(String)", Comment: "index field value(s), positional"},
		{Name: "data", Type: "Map(String, String)", Comment: "full row, one entry per schema field"},
		{Name: "source", Type: "String", Comment: "source identifier from message metadata"},
	},
	Engine:  "ReplacingMergeTree()",
	OrderBy: []string{"collection", "schema_name", "index_name", "index_value"},
}

// RowPartitionsTableSchema tracks every (collection, schema_name,
// index_name) triple ever written, so a tenant/collection delete can
// find its data in O(#partitions) instead of scanning every index.
var RowPartitionsTableSchema = TableSchema{
	Name: "row_partitions",
	Columns: []ColumnDefinition{
		{Name: "collection", Type: "String"},
		{Name: "schema_name", Type: "String"},
		{Name: "index_name", Type: "String"},
	},
	Engine:  "ReplacingMergeTree()",
	OrderBy: []string{"collection", "schema_name", "index_name"},
}

func (t TableSchema) createTableSQL(database string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS `%s`.%s (\n", database, t.Name)
	for i, col := range t.Columns {
		fmt.Fprintf(&b, "  %s %s", col.Name, col.Type)
		if i < len(t.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, ") ENGINE = %s\n", t.Engine)
	fmt.Fprintf(&b, "ORDER BY (%s)", strings.Join(t.OrderBy, ", "))
	return b.String()
}

// SchemaManager ensures per-tenant databases and the rows/row_partitions
// tables exist, caching what it has already created the way the
// Python original's write.py caches known_keyspaces/tables_initialized.
type SchemaManager struct {
	store *Store

	mu               sync.Mutex
	knownDatabases   map[string]struct{}
	tablesInitialied map[string]struct{}
}

// NewSchemaManager creates a schema manager over store.
func NewSchemaManager(store *Store) *SchemaManager {
	return &SchemaManager{
		store:            store,
		knownDatabases:   make(map[string]struct{}),
		tablesInitialied: make(map[string]struct{}),
	}
}

// EnsureDatabase creates the per-tenant database if it does not exist.
// tenant is expected to already be sanitized via schema.Sanitize.
func (sm *SchemaManager) EnsureDatabase(ctx context.Context, tenant string) error {
	sm.mu.Lock()
	_, known := sm.knownDatabases[tenant]
	sm.mu.Unlock()
	if known {
		return nil
	}

	query := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", tenant)
	if _, err := sm.store.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create database %s: %w", tenant, err)
	}

	sm.mu.Lock()
	sm.knownDatabases[tenant] = struct{}{}
	sm.mu.Unlock()
	return nil
}

// EnsureTables creates the rows and row_partitions tables in tenant's
// database if they do not exist.
func (sm *SchemaManager) EnsureTables(ctx context.Context, tenant string) error {
	sm.mu.Lock()
	_, done := sm.tablesInitialied[tenant]
	sm.mu.Unlock()
	if done {
		return nil
	}

	if err := sm.EnsureDatabase(ctx, tenant); err != nil {
		return err
	}

	if _, err := sm.store.db.ExecContext(ctx, RowsTableSchema.createTableSQL(tenant)); err != nil {
		return fmt.Errorf("create rows table for %s: %w", tenant, err)
	}
	if _, err := sm.store.db.ExecContext(ctx, RowPartitionsTableSchema.createTableSQL(tenant)); err != nil {
		return fmt.Errorf("create row_partitions table for %s: %w", tenant, err)
	}

	sm.mu.Lock()
	sm.tablesInitialied[tenant] = struct{}{}
	sm.mu.Unlock()
	return nil
}
