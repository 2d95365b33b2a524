package graphqlquery

import "fmt"

// flattenWhere normalizes a nested GraphQL where-clause argument into
// the flat {field_or_field_op -> value} map the query planner expects
// (§4.5.2). where is the decoded `graphql.ArgumentConfig` value for
// the "where" argument: a map from field name to its per-type filter
// sub-object (itself a map from op name to value), the shape
// graphql-go hands resolvers for an input object argument.
func flattenWhere(where map[string]interface{}) map[string]string {
	conditions := make(map[string]string)
	if where == nil {
		return conditions
	}

	for fieldName, rawFilter := range where {
		if rawFilter == nil {
			continue
		}
		filterObj, ok := rawFilter.(map[string]interface{})
		if !ok {
			continue
		}

		for op, value := range filterObj {
			if value == nil {
				continue
			}
			str := toFilterString(value)

			switch op {
			case "eq":
				conditions[fieldName] = str
			case "gt", "gte", "lt", "lte", "contains", "startsWith", "endsWith", "not", "not_in":
				conditions[fieldName+"_"+op] = str
			case "in":
				conditions[fieldName+"_in"] = str
			}
		}
	}

	return conditions
}

// toFilterString renders a decoded argument value (string, int,
// float64, or a list of those) into the string representation the
// planner's post-filter predicate compares against (§4.5.4).
func toFilterString(value interface{}) string {
	switch v := value.(type) {
	case []interface{}:
		out := ""
		for i, item := range v {
			if i > 0 {
				out += ","
			}
			out += toFilterString(item)
		}
		return out
	default:
		return fmt.Sprintf("%v", v)
	}
}
