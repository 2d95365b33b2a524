// Package graphqlquery implements the dynamic GraphQL schema synthesis
// and query planner of the Row Query Service (C5), grounded on
// trustgraph-flow/trustgraph/query/graphql/{types,filters,schema}.py
// and query/rows/cassandra/service.py, using github.com/graphql-go/graphql
// the way other_examples' LumaDB graphql-engine.go builds one object
// type per collection.
package graphqlquery

// SortDirection selects ascending or descending order_by output.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// stringFilterOps and numericFilterOps enumerate the per-type filter
// sub-fields of §4.5.1: String gets eq/contains/startsWith/endsWith/
// in/not/not_in; Integer and Float get eq/gt/gte/lt/lte/in/not/not_in.
var stringFilterOps = []string{"eq", "contains", "startsWith", "endsWith", "in", "not", "not_in"}
var numericFilterOps = []string{"eq", "gt", "gte", "lt", "lte", "in", "not", "not_in"}
