package clickhouse

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/rowcore/rowcore/internal/schema"
)

// RowsStore is the storage side of the row writer (C2), grounded on
// the Python original's write.py on_object/register_partitions/delete_collection
// trio. One logical row is written once per active index field.
type RowsStore struct {
	store   *Store
	schemas *SchemaManager

	mu                   sync.Mutex
	registeredPartitions map[string]struct{} // tenant/collection/schema_name
}

// NewRowsStore creates a RowsStore over store.
func NewRowsStore(store *Store) *RowsStore {
	return &RowsStore{
		store:                store,
		schemas:              NewSchemaManager(store),
		registeredPartitions: make(map[string]struct{}),
	}
}

func partitionCacheKey(tenant, collection, schemaName string) string {
	return tenant + "/" + collection + "/" + schemaName
}

// RegisterPartitions records the (collection, schema_name, index_name)
// triples for this schema in row_partitions, once per (tenant,
// collection, schema_name) triple - deletion walks this table instead
// of scanning every index.
func (rs *RowsStore) RegisterPartitions(ctx context.Context, tenant, collection string, rowSchema schema.RowSchema) error {
	cacheKey := partitionCacheKey(tenant, collection, rowSchema.Name)

	rs.mu.Lock()
	_, done := rs.registeredPartitions[cacheKey]
	rs.mu.Unlock()
	if done {
		return nil
	}

	indexNames := rowSchema.ActiveIndexNames()
	insertSQL := fmt.Sprintf(
		"INSERT INTO `%s`.row_partitions (collection, schema_name, index_name) VALUES (?, ?, ?)",
		tenant,
	)

	for _, indexName := range indexNames {
		if _, err := rs.store.db.ExecContext(ctx, insertSQL, collection, rowSchema.Name, indexName); err != nil {
			log.Printf("rows-write: failed to register partition %s/%s/%s: %v", collection, rowSchema.Name, indexName, err)
		}
	}

	rs.mu.Lock()
	rs.registeredPartitions[cacheKey] = struct{}{}
	rs.mu.Unlock()

	log.Printf("rows-write: registered partitions for %s/%s: %v", collection, rowSchema.Name, indexNames)
	return nil
}

// WriteRows writes every row in values, once per active index field,
// into the unified rows table. Rows whose index value is entirely empty for a
// given index are skipped for that index (§5.2 edge case).
func (rs *RowsStore) WriteRows(ctx context.Context, tenant, collection, source string, rowSchema schema.RowSchema, values []map[string]string) (int, error) {
	if err := rs.schemas.EnsureTables(ctx, tenant); err != nil {
		return 0, err
	}
	if err := rs.RegisterPartitions(ctx, tenant, collection, rowSchema); err != nil {
		return 0, err
	}

	indexNames := rowSchema.ActiveIndexNames()
	if len(indexNames) == 0 {
		log.Printf("rows-write: schema %s has no indexed fields - rows won't be queryable", rowSchema.Name)
		return 0, nil
	}

	insertSQL := fmt.Sprintf(
		"INSERT INTO `%s`.rows (collection, schema_name, index_name, index_value, data, source) VALUES (?, ?, ?, ?, ?, ?)",
		tenant,
	)

	written := 0
	for rowIndex, valueMap := range values {
		dataMap := schema.BuildDataMap(rowSchema, valueMap)

		for _, indexName := range indexNames {
			indexValue := schema.BuildIndexValue(valueMap, indexName)
			if schema.IsEmptyIndexValue(indexValue) {
				continue
			}

			if _, err := rs.store.db.ExecContext(ctx, insertSQL,
				collection, rowSchema.Name, indexName, indexValue, dataMap, source); err != nil {
				return written, fmt.Errorf("insert row %d for index %s: %w", rowIndex, indexName, err)
			}
			written++
		}
	}

	log.Printf("rows-write: wrote %d index entries for %d rows (%d indexes per row)",
		written, len(values), len(indexNames))
	return written, nil
}

type partitionRow struct {
	SchemaName string
	IndexName  string
}

// DeleteCollection removes every row belonging to collection, using
// row_partitions to enumerate the (schema_name, index_name) pairs that
// need deleting instead of scanning the whole rows table.
func (rs *RowsStore) DeleteCollection(ctx context.Context, tenant, collection string) error {
	partitions, err := rs.listPartitions(ctx, tenant, "SELECT DISTINCT schema_name, index_name FROM `%s`.row_partitions WHERE collection = ?", collection)
	if err != nil {
		return fmt.Errorf("query partitions for collection %s: %w", collection, err)
	}

	deleted := 0
	for _, p := range partitions {
		deleteSQL := fmt.Sprintf(
			"ALTER TABLE `%s`.rows DELETE WHERE collection = ? AND schema_name = ? AND index_name = ?", tenant)
		if _, err := rs.store.db.ExecContext(ctx, deleteSQL, collection, p.SchemaName, p.IndexName); err != nil {
			return fmt.Errorf("delete partition %s/%s/%s: %w", collection, p.SchemaName, p.IndexName, err)
		}
		deleted++
	}

	deletePartitionsSQL := fmt.Sprintf("ALTER TABLE `%s`.row_partitions DELETE WHERE collection = ?", tenant)
	if _, err := rs.store.db.ExecContext(ctx, deletePartitionsSQL, collection); err != nil {
		return fmt.Errorf("clean up row_partitions for %s: %w", collection, err)
	}

	rs.mu.Lock()
	for k := range rs.registeredPartitions {
		if hasCollectionPrefix(k, tenant, collection) {
			delete(rs.registeredPartitions, k)
		}
	}
	rs.mu.Unlock()

	log.Printf("rows-write: deleted collection %s: %d partitions", collection, deleted)
	return nil
}

// DeleteCollectionSchema removes every row belonging to one
// (collection, schema_name) pair.
func (rs *RowsStore) DeleteCollectionSchema(ctx context.Context, tenant, collection, schemaName string) error {
	partitions, err := rs.listPartitions(ctx, tenant,
		"SELECT DISTINCT schema_name, index_name FROM `%s`.row_partitions WHERE collection = ? AND schema_name = ?",
		collection, schemaName)
	if err != nil {
		return fmt.Errorf("query partitions for %s/%s: %w", collection, schemaName, err)
	}

	deleted := 0
	for _, p := range partitions {
		deleteSQL := fmt.Sprintf(
			"ALTER TABLE `%s`.rows DELETE WHERE collection = ? AND schema_name = ? AND index_name = ?", tenant)
		if _, err := rs.store.db.ExecContext(ctx, deleteSQL, collection, schemaName, p.IndexName); err != nil {
			return fmt.Errorf("delete partition %s/%s/%s: %w", collection, schemaName, p.IndexName, err)
		}
		deleted++
	}

	deletePartitionsSQL := fmt.Sprintf(
		"ALTER TABLE `%s`.row_partitions DELETE WHERE collection = ? AND schema_name = ?", tenant)
	if _, err := rs.store.db.ExecContext(ctx, deletePartitionsSQL, collection, schemaName); err != nil {
		return fmt.Errorf("clean up row_partitions for %s/%s: %w", collection, schemaName, err)
	}

	rs.mu.Lock()
	delete(rs.registeredPartitions, partitionCacheKey(tenant, collection, schemaName))
	rs.mu.Unlock()

	log.Printf("rows-write: deleted %s/%s: %d partitions", collection, schemaName, deleted)
	return nil
}

// InvalidateSchema purges every cached partition-registration entry
// for schemaName, across every tenant and collection, so the next
// write against that schema re-registers its partitions in
// row_partitions instead of trusting a stale "already registered"
// entry. Wired to registry.SchemaRegistry.SubscribeRemovals so a
// schema delete-then-recreate (Testable Property #2) doesn't
// permanently skip re-registration.
func (rs *RowsStore) InvalidateSchema(schemaName string) {
	suffix := "/" + schemaName

	rs.mu.Lock()
	defer rs.mu.Unlock()
	for k := range rs.registeredPartitions {
		if strings.HasSuffix(k, suffix) {
			delete(rs.registeredPartitions, k)
		}
	}
}

func hasCollectionPrefix(cacheKey, tenant, collection string) bool {
	prefix := tenant + "/" + collection + "/"
	return len(cacheKey) >= len(prefix) && cacheKey[:len(prefix)] == prefix
}

func (rs *RowsStore) listPartitions(ctx context.Context, tenant, queryFmt string, args ...interface{}) ([]partitionRow, error) {
	query := fmt.Sprintf(queryFmt, tenant)
	rows, err := rs.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []partitionRow
	for rows.Next() {
		var p partitionRow
		if err := rows.Scan(&p.SchemaName, &p.IndexName); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
