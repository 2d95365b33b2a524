// Package bus defines the message schemas of §6 and a minimal
// consumer/producer abstraction for the outer message bus. The bus
// itself (the broker, topic routing, consumer-group rebalancing) is
// an external collaborator out of scope for this module (§1); this
// package holds only the wire shapes every processor agrees on and a
// small in-process implementation used to wire processors together
// for tests and for the single-process `serve all` entrypoint.
package bus

// Metadata is attached to every incoming batch (§3).
type Metadata struct {
	ID         string `json:"id"`
	User       string `json:"user"`
	Collection string `json:"collection"`
	Source     string `json:"source,omitempty"`
}

// ExtractedObject is the input consumed by the row writer (C2) and the
// row embeddings computer (C3).
type ExtractedObject struct {
	Metadata   Metadata            `json:"metadata"`
	SchemaName string              `json:"schema_name"`
	Values     []map[string]string `json:"values"`
	Confidence float64             `json:"confidence"`
	SourceSpan string              `json:"source_span,omitempty"`
}

// RowIndexEmbedding is one computed embedding for one (index_name,
// index_value) pair.
type RowIndexEmbedding struct {
	IndexName  string      `json:"index_name"`
	IndexValue []string    `json:"index_value"`
	Text       string      `json:"text"`
	Vectors    [][]float32 `json:"vectors"`
}

// RowEmbeddings is emitted by C3 and consumed by C4.
type RowEmbeddings struct {
	Metadata   Metadata            `json:"metadata"`
	SchemaName string              `json:"schema_name"`
	Embeddings []RowIndexEmbedding `json:"embeddings"`
}

// RowEmbeddingsRequest is a semantic lookup request for the vector
// query sibling (§4.5.6).
type RowEmbeddingsRequest struct {
	Vectors    [][]float32 `json:"vectors"`
	Limit      int         `json:"limit"`
	User       string      `json:"user"`
	Collection string      `json:"collection"`
	SchemaName string      `json:"schema_name"`
	IndexName  string      `json:"index_name,omitempty"`
}

// RowIndexMatch is one nearest-neighbor match.
type RowIndexMatch struct {
	IndexName  string   `json:"index_name"`
	IndexValue []string `json:"index_value"`
	Text       string   `json:"text"`
	Score      float32  `json:"score"`
}

// Error is the wire error taxonomy carrier of §6/§7.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RowEmbeddingsResponse is the response to a RowEmbeddingsRequest.
type RowEmbeddingsResponse struct {
	Error   *Error          `json:"error,omitempty"`
	Matches []RowIndexMatch `json:"matches"`
}

// RowsQueryRequest carries a GraphQL query destined for C5.
type RowsQueryRequest struct {
	User          string                 `json:"user"`
	Collection    string                 `json:"collection"`
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operation_name,omitempty"`
}

// GraphQLError mirrors one entry of a GraphQL execution result's
// errors array.
type GraphQLError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// RowsQueryResponse is the response envelope of §4.5.5.
type RowsQueryResponse struct {
	Error      *Error                 `json:"error,omitempty"`
	Data       *string                `json:"data"`
	Errors     []GraphQLError         `json:"errors"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}
