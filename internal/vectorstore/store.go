// Package vectorstore wraps Qdrant for the row embeddings writer (C4)
// and the vector query sibling of C5. It generalizes the lazy,
// single-collection client of the teacher's sibling pack repo
// (MycelicMemory's internal/vector/qdrant.go: enabled flag, baseURL,
// lazy InitCollection) to one Qdrant collection per
// (tenant, collection, schema, dimension) tuple, created on first
// write, per spec.md §5.4.
package vectorstore

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/qdrant/go-client/qdrant"

	"github.com/rowcore/rowcore/internal/schema"
)

// indexValueSep is a unit separator, chosen because it cannot appear in
// any index value built from ordinary field text, used to flatten an
// index_value list into the single string value a Qdrant payload field
// holds.
const indexValueSep = "\x1f"

// EncodeIndexValue flattens a composite index_value (one string per
// indexed field) into the single payload string Upsert stores.
func EncodeIndexValue(values []string) string {
	return strings.Join(values, indexValueSep)
}

// DecodeIndexValue reverses EncodeIndexValue.
func DecodeIndexValue(encoded string) []string {
	if encoded == "" {
		return nil
	}
	return strings.Split(encoded, indexValueSep)
}

// Store lazily creates and talks to per-(tenant,collection,schema,
// dimension) Qdrant collections.
type Store struct {
	client *qdrant.Client

	mu       sync.Mutex
	existing map[string]struct{}
}

// NewStore connects to the Qdrant instance at host:port.
func NewStore(host string, port int, apiKey string) (*Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	return &Store{client: client, existing: make(map[string]struct{})}, nil
}

// CollectionName deterministically names the Qdrant collection for one
// (tenant, collection, schemaName, dimension) tuple - sanitized the
// same way table/database identifiers are (§6). A schema's several
// indexed fields share one collection per embedding dimension; only
// the payload (index_name, index_value) distinguishes entries.
func CollectionName(tenant, collection, schemaName string, dimension int) string {
	return fmt.Sprintf("rows_%s_%s_%s_%d",
		schema.Sanitize(tenant), schema.Sanitize(collection), schema.Sanitize(schemaName), dimension)
}

// CollectionPrefix is the prefix shared by every collection belonging
// to (tenant, collection) - used to enumerate and delete them all on a
// collection delete - and, with schemaName non-empty, by every
// collection belonging to (tenant, collection, schemaName).
func CollectionPrefix(tenant, collection, schemaName string) string {
	prefix := fmt.Sprintf("rows_%s_%s_", schema.Sanitize(tenant), schema.Sanitize(collection))
	if schemaName != "" {
		prefix += schema.Sanitize(schemaName) + "_"
	}
	return prefix
}

// EnsureCollection creates the named collection with the given vector
// dimension if it does not already exist.
func (s *Store) EnsureCollection(ctx context.Context, name string, dimension int) error {
	s.mu.Lock()
	_, known := s.existing[name]
	s.mu.Unlock()
	if known {
		return nil
	}

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", name, err)
	}

	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dimension),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
		log.Printf("row-embeddings: created vector collection %s (dim=%d)", name, dimension)
	}

	s.mu.Lock()
	s.existing[name] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Point is one vector plus its payload. The writer assigns ID a fresh
// uuid.NewString() per point (vectorwriter/processor.go), so repeat
// writes for the same (index_name, index_value) accumulate rather
// than replace - matching rows, not row_embeddings, carries the
// last-writer-wins semantics of §5.2/§5.4.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

// Upsert writes points into the named collection.
func (s *Store) Upsert(ctx context.Context, collectionName string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	qpoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		payload := make(map[string]*qdrant.Value, len(p.Payload))
		for k, v := range p.Payload {
			payload[k] = qdrant.NewValueString(v)
		}
		qpoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         qpoints,
	})
	if err != nil {
		return fmt.Errorf("upsert into %s: %w", collectionName, err)
	}
	return nil
}

// Match is one nearest-neighbor search result.
type Match struct {
	Payload map[string]string
	Score   float32
}

// Search performs a nearest-neighbor lookup against collectionName,
// optionally restricted server-side to points whose payload has
// matchField == matchValue (matchField == "" disables filtering).
func (s *Store) Search(ctx context.Context, collectionName string, vector []float32, limit int, matchField, matchValue string) ([]Match, error) {
	if limit <= 0 {
		limit = 10
	}

	query := &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if matchField != "" {
		query.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch(matchField, matchValue),
			},
		}
	}

	points, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collectionName, err)
	}

	matches := make([]Match, 0, len(points))
	for _, p := range points {
		payload := make(map[string]string, len(p.Payload))
		for k, v := range p.Payload {
			payload[k] = v.GetStringValue()
		}
		matches = append(matches, Match{Payload: payload, Score: p.Score})
	}
	return matches, nil
}

// ListCollectionNames returns the names of every collection currently
// in Qdrant.
func (s *Store) ListCollectionNames(ctx context.Context) ([]string, error) {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return collections, nil
}

// DropCollection deletes a whole collection outright.
func (s *Store) DropCollection(ctx context.Context, collectionName string) error {
	if err := s.client.DeleteCollection(ctx, collectionName); err != nil {
		return fmt.Errorf("drop collection %s: %w", collectionName, err)
	}
	s.mu.Lock()
	delete(s.existing, collectionName)
	s.mu.Unlock()
	return nil
}

// DropByPrefix deletes every collection whose name starts with prefix,
// the way the Python original enumerates `get_collections()` and
// filters client-side rather than the store supporting a native
// prefix-delete operation (§5.4).
func (s *Store) DropByPrefix(ctx context.Context, prefix string) (int, error) {
	names, err := s.ListCollectionNames(ctx)
	if err != nil {
		return 0, err
	}

	dropped := 0
	for _, name := range names {
		if len(name) < len(prefix) || name[:len(prefix)] != prefix {
			continue
		}
		if err := s.DropCollection(ctx, name); err != nil {
			return dropped, err
		}
		dropped++
	}
	return dropped, nil
}
