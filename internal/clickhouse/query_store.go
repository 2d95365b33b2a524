package clickhouse

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/rowcore/rowcore/internal/schema"
)

// SortDirection selects ascending or descending post-query sort order.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// QueryOptions parameterizes one Query call.
type QueryOptions struct {
	Limit     int
	OrderBy   string
	Direction SortDirection
}

// QueryStore is the storage side of the row query planner (C5),
// grounded on the Python original's service.py query_cassandra/
// find_matching_index/_matches_filters trio, retargeted at ClickHouse.
type QueryStore struct {
	store *Store
}

// NewQueryStore creates a QueryStore over store.
func NewQueryStore(store *Store) *QueryStore {
	return &QueryStore{store: store}
}

// FindMatchingIndex looks for an exact-match filter on one of the
// schema's active index fields. Only single-field indexes are matched
// this way; the first matching index in field-declaration order wins
// (an explicit tie-break decision, since the original leaves the
// policy implicit in dict iteration order).
func FindMatchingIndex(rs schema.RowSchema, filters map[string]string) (indexName string, indexValue []string, ok bool) {
	for _, name := range rs.ActiveIndexNames() {
		if value, present := filters[name]; present {
			return name, []string{value}, true
		}
	}
	return "", nil, false
}

// Query executes a query against the unified rows table: a direct
// index-equality lookup when the filters pin an indexed field, or a
// scan-and-post-filter fallback across the schema's first index
// otherwise.
//
// When order_by is set, the scan fallback collects every matching row
// before sorting, and limit is applied after the sort - preserving a
// deterministic top-N instead of truncating to an arbitrary scan
// prefix and only then sorting it.
func (qs *QueryStore) Query(ctx context.Context, tenant, collection, schemaName string, rowSchema schema.RowSchema, filters map[string]string, opts QueryOptions) ([]map[string]string, error) {
	indexName, indexValue, matched := FindMatchingIndex(rowSchema, filters)

	var results []map[string]string
	var err error

	sorting := opts.OrderBy != ""
	scanLimit := opts.Limit
	if sorting {
		scanLimit = 0 // collect everything; limit is applied post-sort below
	}

	if matched {
		results, err = qs.queryByIndex(ctx, tenant, collection, schemaName, indexName, indexValue, scanLimit)
	} else {
		results, err = qs.scanAndFilter(ctx, tenant, collection, schemaName, rowSchema, filters, scanLimit)
	}
	if err != nil {
		return nil, err
	}

	if sorting && len(results) > 0 {
		sortResults(results, opts.OrderBy, opts.Direction)
	}
	if sorting && opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}

	return results, nil
}

func (qs *QueryStore) queryByIndex(ctx context.Context, tenant, collection, schemaName, indexName string, indexValue []string, limit int) ([]map[string]string, error) {
	query := fmt.Sprintf(
		"SELECT data, source FROM `%s`.rows WHERE collection = ? AND schema_name = ? AND index_name = ? AND index_value = ?",
		tenant,
	)
	args := []interface{}{collection, schemaName, indexName, indexValue}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return qs.execDataRows(ctx, query, args...)
}

func (qs *QueryStore) scanAndFilter(ctx context.Context, tenant, collection, schemaName string, rowSchema schema.RowSchema, filters map[string]string, limit int) ([]map[string]string, error) {
	indexNames := rowSchema.ActiveIndexNames()
	if len(indexNames) == 0 {
		log.Printf("rows-query: schema %s has no indexes", schemaName)
		return nil, nil
	}

	log.Printf("rows-query: no index match for filters %v - scanning index %s", filters, indexNames[0])

	query := fmt.Sprintf(
		"SELECT data, source FROM `%s`.rows WHERE collection = ? AND schema_name = ? AND index_name = ?",
		tenant,
	)
	rows, err := qs.store.db.QueryContext(ctx, query, collection, schemaName, indexNames[0])
	if err != nil {
		return nil, fmt.Errorf("scan rows: %w", err)
	}
	defer rows.Close()

	var results []map[string]string
	for rows.Next() {
		var data map[string]string
		var source string
		if err := rows.Scan(&data, &source); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		if matchesFilters(data, filters) {
			results = append(results, data)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, rows.Err()
}

func (qs *QueryStore) execDataRows(ctx context.Context, query string, args ...interface{}) ([]map[string]string, error) {
	rows, err := qs.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var results []map[string]string
	for rows.Next() {
		var data map[string]string
		var source string
		if err := rows.Scan(&data, &source); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, data)
	}
	return results, rows.Err()
}

// matchesFilters re-applies every filter to a scanned row, supporting
// the same "field_op" suffix convention as the original: gt, gte, lt,
// lte, contains, in default to eq when no recognized suffix is found.
func matchesFilters(row map[string]string, filters map[string]string) bool {
	for filterKey, filterValue := range filters {
		fieldName, operator := splitFilterKey(filterKey)
		rowValue, present := row[fieldName]
		if !present {
			return false
		}

		switch operator {
		case "eq":
			if rowValue != filterValue {
				return false
			}
		case "gt", "gte", "lt", "lte":
			rv, errR := strconv.ParseFloat(rowValue, 64)
			fv, errF := strconv.ParseFloat(filterValue, 64)
			if errR != nil || errF != nil {
				return false
			}
			switch operator {
			case "gt":
				if rv <= fv {
					return false
				}
			case "gte":
				if rv < fv {
					return false
				}
			case "lt":
				if rv >= fv {
					return false
				}
			case "lte":
				if rv > fv {
					return false
				}
			}
		case "contains":
			if !strings.Contains(rowValue, filterValue) {
				return false
			}
		case "in":
			found := false
			for _, v := range strings.Split(filterValue, ",") {
				if rowValue == strings.TrimSpace(v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

var recognizedOperators = map[string]bool{
	"gt": true, "gte": true, "lt": true, "lte": true, "contains": true, "in": true,
}

func splitFilterKey(filterKey string) (fieldName, operator string) {
	idx := strings.LastIndex(filterKey, "_")
	if idx < 0 {
		return filterKey, "eq"
	}
	suffix := filterKey[idx+1:]
	if recognizedOperators[suffix] {
		return filterKey[:idx], suffix
	}
	return filterKey, "eq"
}

func sortResults(results []map[string]string, orderBy string, direction SortDirection) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i][orderBy], results[j][orderBy]
		if direction == SortDescending {
			return a > b
		}
		return a < b
	})
}
