// Package schema holds the RowSchema data model shared by every
// processor: the row writer, the embeddings computer, the embeddings
// writer, and the query service all parse the same schema JSON and
// agree on the same notion of an "active index".
package schema

import (
	"encoding/json"
	"fmt"
)

// FieldType enumerates the scalar types a Field may declare.
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInteger   FieldType = "integer"
	FieldTypeFloat     FieldType = "float"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeDate      FieldType = "date"
	FieldTypeTime      FieldType = "time"
	FieldTypeUUID      FieldType = "uuid"
)

// Field describes one column of a RowSchema.
type Field struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Primary     bool      `json:"primary_key"`
	Indexed     bool      `json:"indexed"`
	Required    bool      `json:"required"`
	EnumValues  []string  `json:"enum,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Active reports whether the field participates in indexing: primary
// fields are always queryable, indexed fields opt in explicitly.
func (f Field) Active() bool {
	return f.Primary || f.Indexed
}

// RowSchema is the named description of a structured record.
type RowSchema struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
}

// fieldDefJSON mirrors the wire shape of one schema field, matching
// the Python original's field_def dict (primary_key/indexed/enum keys).
type fieldDefJSON struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Size        int      `json:"size,omitempty"`
	PrimaryKey  bool     `json:"primary_key"`
	Indexed     bool     `json:"indexed"`
	Required    bool     `json:"required"`
	EnumValues  []string `json:"enum,omitempty"`
	Description string   `json:"description,omitempty"`
}

type schemaDefJSON struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Fields      []fieldDefJSON `json:"fields"`
}

// Parse decodes a single schema JSON document (as delivered in a
// config version's `{config_type -> {schema_name -> schema_json}}`
// map) into a RowSchema. name is the key under which the schema was
// registered; it's used as a fallback when the document omits "name".
func Parse(name string, raw string) (RowSchema, error) {
	var def schemaDefJSON
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		return RowSchema{}, fmt.Errorf("parse schema %s: %w", name, err)
	}

	schemaName := def.Name
	if schemaName == "" {
		schemaName = name
	}

	fields := make([]Field, 0, len(def.Fields))
	for _, fd := range def.Fields {
		if fd.Name == "" {
			return RowSchema{}, fmt.Errorf("parse schema %s: field with empty name", name)
		}
		fields = append(fields, Field{
			Name:        fd.Name,
			Type:        FieldType(fd.Type),
			Primary:     fd.PrimaryKey,
			Indexed:     fd.Indexed,
			Required:    fd.Required,
			EnumValues:  fd.EnumValues,
			Description: fd.Description,
		})
	}

	rs := RowSchema{Name: schemaName, Description: def.Description, Fields: fields}
	if err := rs.Validate(); err != nil {
		return RowSchema{}, fmt.Errorf("parse schema %s: %w", name, err)
	}
	return rs, nil
}

// Validate checks the invariants of §3: at least one primary field,
// unique field names.
func (rs RowSchema) Validate() error {
	if len(rs.Fields) == 0 {
		return fmt.Errorf("schema %s has no fields", rs.Name)
	}

	seen := make(map[string]bool, len(rs.Fields))
	hasPrimary := false
	for _, f := range rs.Fields {
		if seen[f.Name] {
			return fmt.Errorf("schema %s has duplicate field %q", rs.Name, f.Name)
		}
		seen[f.Name] = true
		if f.Primary {
			hasPrimary = true
		}
	}

	if !hasPrimary {
		return fmt.Errorf("schema %s has no primary field", rs.Name)
	}
	return nil
}

// ActiveIndexNames returns the IndexName set (§3) in field-declaration
// order: every field that is primary or indexed, single-field index
// names only (composite indexes are reserved, not yet emitted).
func (rs RowSchema) ActiveIndexNames() []string {
	names := make([]string, 0, len(rs.Fields))
	for _, f := range rs.Fields {
		if f.Active() {
			names = append(names, f.Name)
		}
	}
	return names
}

// FieldByName looks up a field by name, used by the GraphQL type/filter
// builders to recover type information for a flattened filter key.
func (rs RowSchema) FieldByName(name string) (Field, bool) {
	for _, f := range rs.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
