package graphqlquery

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/graphql-go/graphql"

	"github.com/rowcore/rowcore/internal/bus"
	"github.com/rowcore/rowcore/internal/registry"
	"github.com/rowcore/rowcore/internal/schema"
)

// Processor is the C5 row query service: it keeps a GraphQL schema
// synthesized from the current Schema Registry snapshot and executes
// RowsQueryRequests against it, grounded on
// trustgraph-flow/trustgraph/query/rows/cassandra/service.py's
// on_schema_config/execute_graphql_query/on_message.
type Processor struct {
	queryFn QueryFunc

	// schema holds the built *graphql.Schema (nil until the first
	// config version arrives) behind an atomic pointer, so an
	// in-flight query completes against the schema it started with
	// while a concurrent rebuild swaps in a new one (§5).
	schema atomic.Pointer[graphql.Schema]
}

// NewProcessor creates a Processor that plans queries through planner
// and rebuilds its GraphQL schema on every Schema Registry update.
func NewProcessor(schemas *registry.SchemaRegistry, planner *Planner) *Processor {
	p := &Processor{queryFn: planner.Query}
	schemas.Subscribe(p.onSchemas)
	return p
}

// onSchemas rebuilds the GraphQL schema wholesale from a fresh
// snapshot, matching the Python original's "clear builder, re-add
// every schema, rebuild" on every config version (§4.5.1).
func (p *Processor) onSchemas(schemas map[string]schema.RowSchema) {
	builder := NewSchemaBuilder()
	for name, rs := range schemas {
		builder.AddSchema(name, rs)
	}

	built, err := builder.Build(p.queryFn)
	if err != nil {
		log.Printf("rows-query: %v - GraphQL schema not updated", err)
		return
	}

	p.schema.Store(&built)
	log.Printf("rows-query: generated GraphQL schema with %d types", len(schemas))
}

// Execute runs one GraphQL query/variables/operation triple against
// the currently-built schema, in the (user, collection) request
// context the generated resolvers read.
func (p *Processor) Execute(ctx context.Context, query string, variables map[string]interface{}, operationName, user, collection string) *graphql.Result {
	s := p.schema.Load()
	if s == nil {
		return nil
	}

	reqCtx := WithRequestContext(ctx, user, collection)
	result := graphql.Do(graphql.Params{
		Schema:         *s,
		RequestString:  query,
		VariableValues: variables,
		OperationName:  operationName,
		Context:        reqCtx,
	})
	return result
}

// OnRequest handles one RowsQueryRequest end to end, producing the
// response envelope of §4.5.5: a missing schema or a failure to encode
// the result data populates the top-level `error` with type
// "rows-query-error". Every error graphql-go reports - parse,
// validation and resolver errors, including a store failure returned
// by the planner inside a resolver - goes to `errors[]`, not to the
// top-level `error`.
func (p *Processor) OnRequest(ctx context.Context, req bus.RowsQueryRequest) bus.RowsQueryResponse {
	result := p.Execute(ctx, req.Query, req.Variables, req.OperationName, req.User, req.Collection)
	if result == nil {
		return bus.RowsQueryResponse{
			Error: &bus.Error{
				Type:    "rows-query-error",
				Message: "no GraphQL schema available - no schemas loaded",
			},
			Errors: []bus.GraphQLError{},
		}
	}

	resp := bus.RowsQueryResponse{Errors: []bus.GraphQLError{}}

	if result.Data != nil {
		encoded, err := json.Marshal(result.Data)
		if err != nil {
			return bus.RowsQueryResponse{
				Error:  &bus.Error{Type: "rows-query-error", Message: fmt.Sprintf("encode response data: %v", err)},
				Errors: []bus.GraphQLError{},
			}
		}
		s := string(encoded)
		resp.Data = &s
	}

	for _, gerr := range result.Errors {
		resp.Errors = append(resp.Errors, bus.GraphQLError{Message: gerr.Message})
	}

	return resp
}
