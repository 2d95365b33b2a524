package graphqlquery

import (
	"context"

	"github.com/rowcore/rowcore/internal/clickhouse"
	"github.com/rowcore/rowcore/internal/schema"
)

// QueryStore is the storage dependency of the query planner, satisfied
// by *clickhouse.QueryStore.
type QueryStore interface {
	Query(ctx context.Context, tenant, collection, schemaName string, rowSchema schema.RowSchema, filters map[string]string, opts clickhouse.QueryOptions) ([]map[string]string, error)
}

var _ QueryStore = (*clickhouse.QueryStore)(nil)

// Planner adapts a QueryStore into the QueryFunc signature the
// generated GraphQL resolvers call, sanitizing the tenant name the
// same way every other store-facing processor does (§6).
type Planner struct {
	store QueryStore
}

// NewPlanner creates a Planner over the given QueryStore.
func NewPlanner(store QueryStore) *Planner {
	return &Planner{store: store}
}

// Query implements QueryFunc.
func (pl *Planner) Query(ctx context.Context, user, collection, schemaName string, rowSchema schema.RowSchema, filters map[string]string, limit int, orderBy string, direction SortDirection) ([]map[string]string, error) {
	tenant := schema.Sanitize(user)

	opts := clickhouse.QueryOptions{
		Limit:     limit,
		OrderBy:   orderBy,
		Direction: clickhouse.SortDirection(direction),
	}

	results, err := pl.store.Query(ctx, tenant, collection, schemaName, rowSchema, filters, opts)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []map[string]string{}
	}
	return results, nil
}
