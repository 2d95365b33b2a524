package schema

import "strings"

// BuildIndexValue builds the ordered, stringified IndexValue (§3) for
// a given index name against a row's value map. A composite index
// name is a comma-separated list of field names; today every active
// index is single-field, but this stays general so composite indexes
// (reserved) need no call-site changes when they land.
func BuildIndexValue(values map[string]string, indexName string) []string {
	fieldNames := strings.Split(indexName, ",")
	out := make([]string, len(fieldNames))
	for i, fn := range fieldNames {
		out[i] = values[strings.TrimSpace(fn)]
	}
	return out
}

// IsEmptyIndexValue reports whether every element of an index value
// is the empty string - such values must never be written (§3).
func IsEmptyIndexValue(indexValue []string) bool {
	if len(indexValue) == 0 {
		return true
	}
	for _, v := range indexValue {
		if v != "" {
			return false
		}
	}
	return true
}

// IndexText canonicalizes an index value into the text that gets
// embedded (§4.3): a plain space join, so composite indexes produce
// a multi-token string.
func IndexText(indexValue []string) string {
	return strings.Join(indexValue, " ")
}

// BuildDataMap stringifies every defined field that has a value in
// the row, skipping fields absent from the row (§4.2 step 4).
func BuildDataMap(rs RowSchema, values map[string]string) map[string]string {
	data := make(map[string]string, len(rs.Fields))
	for _, f := range rs.Fields {
		if v, ok := values[f.Name]; ok {
			data[f.Name] = v
		}
	}
	return data
}
