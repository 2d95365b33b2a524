package graphqlquery

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/graphql-go/graphql"

	"github.com/rowcore/rowcore/internal/schema"
)

type contextKey string

const (
	contextKeyUser       contextKey = "user"
	contextKeyCollection contextKey = "collection"
)

// WithRequestContext attaches the (user, collection) pair a resolver
// needs but that isn't part of the GraphQL query itself - it travels
// on the execution context the way the Python original threads it
// through Strawberry's `info.context`.
func WithRequestContext(ctx context.Context, user, collection string) context.Context {
	ctx = context.WithValue(ctx, contextKeyUser, user)
	ctx = context.WithValue(ctx, contextKeyCollection, collection)
	return ctx
}

// QueryFunc executes a planned query against the unified row store.
// It is the Go analog of the Python builder's query_callback.
type QueryFunc func(ctx context.Context, user, collection, schemaName string, rowSchema schema.RowSchema, filters map[string]string, limit int, orderBy string, direction SortDirection) ([]map[string]string, error)

var (
	filterTypesOnce sync.Once
	stringFilterIn  *graphql.InputObject
	intFilterIn     *graphql.InputObject
	floatFilterIn   *graphql.InputObject
)

func initFilterTypes() {
	filterTypesOnce.Do(func() {
		stringFilterIn = graphql.NewInputObject(graphql.InputObjectConfig{
			Name:   "StringFilter",
			Fields: filterFields(graphql.String, stringFilterOps),
		})
		intFilterIn = graphql.NewInputObject(graphql.InputObjectConfig{
			Name:   "IntFilter",
			Fields: filterFields(graphql.Int, numericFilterOps),
		})
		floatFilterIn = graphql.NewInputObject(graphql.InputObjectConfig{
			Name:   "FloatFilter",
			Fields: filterFields(graphql.Float, numericFilterOps),
		})
	})
}

func filterFields(scalar *graphql.Scalar, ops []string) graphql.InputObjectConfigFieldMap {
	fields := make(graphql.InputObjectConfigFieldMap, len(ops))
	for _, op := range ops {
		typ := graphql.Input(scalar)
		if op == "in" || op == "not_in" {
			typ = graphql.NewList(scalar)
		}
		fields[op] = &graphql.InputObjectFieldConfig{Type: typ}
	}
	return fields
}

func graphqlScalar(t schema.FieldType) *graphql.Scalar {
	switch t {
	case schema.FieldTypeInteger:
		return graphql.Int
	case schema.FieldTypeFloat:
		return graphql.Float
	case schema.FieldTypeBoolean:
		return graphql.Boolean
	default:
		return graphql.String
	}
}

func filterInputForType(t schema.FieldType) *graphql.InputObject {
	switch t {
	case schema.FieldTypeInteger:
		return intFilterIn
	case schema.FieldTypeFloat:
		return floatFilterIn
	case schema.FieldTypeString:
		return stringFilterIn
	default:
		return nil
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SchemaBuilder synthesizes one GraphQL object, filter input, and
// top-level query field per registered RowSchema, the way the Python
// GraphQLSchemaBuilder does (§4.5.1).
type SchemaBuilder struct {
	schemas map[string]schema.RowSchema
}

// NewSchemaBuilder creates an empty builder.
func NewSchemaBuilder() *SchemaBuilder {
	initFilterTypes()
	return &SchemaBuilder{schemas: make(map[string]schema.RowSchema)}
}

// AddSchema registers one RowSchema under name (the GraphQL query
// field name).
func (b *SchemaBuilder) AddSchema(name string, rs schema.RowSchema) {
	b.schemas[name] = rs
}

// Build synthesizes a graphql.Schema whose resolvers call queryFn.
// Returns an error if no schemas are loaded (mirrors the Python
// original returning None in that case, surfaced here as an error
// since Go has no schema-shaped nil).
func (b *SchemaBuilder) Build(queryFn QueryFunc) (graphql.Schema, error) {
	if len(b.schemas) == 0 {
		return graphql.Schema{}, fmt.Errorf("no schemas loaded, cannot generate graphql schema")
	}

	queryFields := graphql.Fields{}

	for schemaName, rs := range b.schemas {
		objType := buildObjectType(schemaName, rs)
		filterType := buildFilterType(schemaName, rs)

		queryFields[schemaName] = &graphql.Field{
			Type: graphql.NewList(objType),
			Args: graphql.FieldConfigArgument{
				"where": &graphql.ArgumentConfig{Type: filterType},
				"order_by": &graphql.ArgumentConfig{
					Type: graphql.String,
				},
				"direction": &graphql.ArgumentConfig{
					Type: graphql.NewEnum(graphql.EnumConfig{
						Name: capitalize(schemaName) + "SortDirection",
						Values: graphql.EnumValueConfigMap{
							"ASC":  &graphql.EnumValueConfig{Value: string(SortAscending)},
							"DESC": &graphql.EnumValueConfig{Value: string(SortDescending)},
						},
					}),
				},
				"limit": &graphql.ArgumentConfig{
					Type:         graphql.Int,
					DefaultValue: 100,
				},
			},
			Resolve: makeResolver(schemaName, rs, queryFn),
		}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: queryFields,
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

func buildObjectType(schemaName string, rs schema.RowSchema) *graphql.Object {
	fields := graphql.Fields{}
	for _, f := range rs.Fields {
		var t graphql.Output = graphqlScalar(f.Type)
		if f.Required || f.Primary {
			t = graphql.NewNonNull(t)
		}
		fields[f.Name] = &graphql.Field{
			Type: t,
			Resolve: func(name string) graphql.FieldResolveFn {
				return func(p graphql.ResolveParams) (interface{}, error) {
					row, _ := p.Source.(map[string]string)
					return row[name], nil
				}
			}(f.Name),
		}
	}
	return graphql.NewObject(graphql.ObjectConfig{
		Name:   capitalize(schemaName) + "Type",
		Fields: fields,
	})
}

func buildFilterType(schemaName string, rs schema.RowSchema) *graphql.InputObject {
	fields := graphql.InputObjectConfigFieldMap{}
	for _, f := range rs.Fields {
		filterType := filterInputForType(f.Type)
		if filterType == nil {
			continue
		}
		fields[f.Name] = &graphql.InputObjectFieldConfig{Type: filterType}
	}
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name:   capitalize(schemaName) + "Filter",
		Fields: fields,
	})
}

func makeResolver(schemaName string, rs schema.RowSchema, queryFn QueryFunc) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		user, _ := p.Context.Value(contextKeyUser).(string)
		collection, _ := p.Context.Value(contextKeyCollection).(string)

		var filters map[string]string
		if where, ok := p.Args["where"].(map[string]interface{}); ok {
			filters = flattenWhere(where)
		} else {
			filters = map[string]string{}
		}

		orderBy, _ := p.Args["order_by"].(string)
		direction := SortAscending
		if d, ok := p.Args["direction"].(string); ok && d != "" {
			direction = SortDirection(strings.ToLower(d))
		}
		limit := 100
		if l, ok := p.Args["limit"].(int); ok {
			limit = l
		}

		return queryFn(p.Context, user, collection, schemaName, rs, filters, limit, orderBy, direction)
	}
}
