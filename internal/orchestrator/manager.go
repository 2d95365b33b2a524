// Package orchestrator wires the five processors of SPEC_FULL.md's
// component design onto one shared bus and one pair of store clients,
// generalizing the teacher's ServiceManager (main.go: StartAll/StopAll
// over a map of http.Server) from "one HTTP server per service" to
// "one bus subscription per processor" plus the two synchronous C5
// request/response entry points.
package orchestrator

import (
	"context"
	"fmt"
	"log"

	"github.com/rowcore/rowcore/internal/bus"
	"github.com/rowcore/rowcore/internal/clickhouse"
	"github.com/rowcore/rowcore/internal/config"
	"github.com/rowcore/rowcore/internal/embeddings"
	"github.com/rowcore/rowcore/internal/graphqlquery"
	"github.com/rowcore/rowcore/internal/registry"
	"github.com/rowcore/rowcore/internal/rowwriter"
	"github.com/rowcore/rowcore/internal/vectorquery"
	"github.com/rowcore/rowcore/internal/vectorstore"
	"github.com/rowcore/rowcore/internal/vectorwriter"
)

const (
	topicExtractedObject         = "extracted-object"
	topicRowEmbeddings           = "row-embeddings"
	topicConfig                  = "config"
	topicRowsQueryRequest        = "rows-query-request"
	topicRowsQueryResponse       = "rows-query-response"
	topicEmbeddingsQueryRequest  = "row-embeddings-request"
	topicEmbeddingsQueryResponse = "row-embeddings-response"
)

// Manager owns every processor's dependencies and wires them together
// on a shared bus.Bus, mirroring the teacher's ServiceManager
// responsibility of owning the concrete clients and the running set.
type Manager struct {
	cfg *config.Config
	bus bus.Bus

	chStore   *clickhouse.Store
	vStore    *vectorstore.Store
	rowsStore *clickhouse.RowsStore

	schemas     *registry.SchemaRegistry
	collections *registry.CollectionRegistry

	rowWriter    *rowwriter.Processor
	embedder     *embeddings.Processor
	vectorWriter *vectorwriter.Processor
	graphQL      *graphqlquery.Processor
	vectorQuery  *vectorquery.Processor
}

// New creates a Manager. embedClient is the client for the out-of-scope
// embedding model service (§1); it is accepted rather than constructed
// here so the caller chooses it (cmd/rowcore passes an
// embeddings.HTTPClient when an embedder URL is configured).
func New(cfg *config.Config, b bus.Bus, embedClient embeddings.Client) (*Manager, error) {
	chStore, err := clickhouse.NewStore(cfg.ClickHouseDSN)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse: %w", err)
	}

	vStore, err := vectorstore.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantAPIKey)
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}

	schemas := registry.NewSchemaRegistry(cfg.SchemaConfigType)
	collections := registry.NewCollectionRegistry(cfg.CollectionConfigType)

	rowsStore := clickhouse.NewRowsStore(chStore)
	queryStore := clickhouse.NewQueryStore(chStore)

	m := &Manager{
		cfg:         cfg,
		bus:         b,
		chStore:     chStore,
		vStore:      vStore,
		rowsStore:   rowsStore,
		schemas:     schemas,
		collections: collections,

		rowWriter:    rowwriter.NewProcessor(schemas, collections, rowsStore),
		vectorWriter: vectorwriter.NewProcessor(collections, vStore),
		graphQL:      graphqlquery.NewProcessor(schemas, graphqlquery.NewPlanner(queryStore)),
		vectorQuery:  vectorquery.NewProcessor(vStore),
	}

	m.embedder = embeddings.NewProcessor(schemas, collections, embedClient, cfg.EmbeddingsBatchSize, m.publishEmbeddings)

	// A schema dropped from the registry leaves rows_store.go's
	// registered-partitions cache stale for that name forever unless
	// something purges it here.
	schemas.SubscribeRemovals(func(removedNames []string) {
		for _, name := range removedNames {
			rowsStore.InvalidateSchema(name)
		}
	})

	// Collection delete/schema-delete notifications fan out to every
	// processor that owns per-collection storage, the same dispatch the
	// Python CollectionConfigHandler.on_collection_config performs.
	collections.Subscribe(m.onCollectionEvent)

	return m, nil
}

// onCollectionEvent dispatches one collection create/delete
// notification to the row writer and row embeddings writer. Creation
// needs no action - both stores provision their tables/collections
// lazily on first write.
func (m *Manager) onCollectionEvent(event registry.CollectionEvent) {
	if event.Created {
		return
	}

	ctx := context.Background()
	if err := m.rowWriter.DeleteCollection(ctx, event.User, event.Collection); err != nil {
		log.Printf("orchestrator: row writer failed to delete collection %s/%s: %v", event.User, event.Collection, err)
	}
	if err := m.vectorWriter.DeleteCollection(ctx, event.User, event.Collection); err != nil {
		log.Printf("orchestrator: vector writer failed to delete collection %s/%s: %v", event.User, event.Collection, err)
	}
}

func (m *Manager) publishEmbeddings(ctx context.Context, msg bus.RowEmbeddings) error {
	return m.bus.Send(ctx, topicRowEmbeddings, msg, nil)
}

// StartRowsWrite, StartRowEmbeddings and StartRowEmbeddingsWrite
// subscribe the row writer (C2), embeddings computer (C3), and row
// embeddings writer (C4) to their input topics; the config-push topic
// is subscribed separately by StartConfig. Per SPEC_FULL.md §A these
// are independently startable (`serve rows-write`, `serve
// row-embeddings`, `serve row-embeddings-write`), so the caller picks
// which of them to start - see cmd/rowcore.
func (m *Manager) StartRowsWrite(ctx context.Context) error {
	return m.bus.Subscribe(topicExtractedObject, func(ctx context.Context, msg bus.Message) error {
		obj, ok := msg.Value.(bus.ExtractedObject)
		if !ok {
			return fmt.Errorf("rows-write: unexpected message type %T", msg.Value)
		}
		return m.rowWriter.OnObject(ctx, obj)
	})
}

func (m *Manager) StartRowEmbeddings(ctx context.Context) error {
	return m.bus.Subscribe(topicExtractedObject, func(ctx context.Context, msg bus.Message) error {
		obj, ok := msg.Value.(bus.ExtractedObject)
		if !ok {
			return fmt.Errorf("row-embeddings: unexpected message type %T", msg.Value)
		}
		return m.embedder.OnObject(ctx, obj)
	})
}

func (m *Manager) StartRowEmbeddingsWrite(ctx context.Context) error {
	return m.bus.Subscribe(topicRowEmbeddings, func(ctx context.Context, msg bus.Message) error {
		emb, ok := msg.Value.(bus.RowEmbeddings)
		if !ok {
			return fmt.Errorf("row-embeddings-write: unexpected message type %T", msg.Value)
		}
		return m.vectorWriter.OnEmbeddings(ctx, emb)
	})
}

// StartConfig subscribes both registries to the config-push topic (C1,
// §4.1).
func (m *Manager) StartConfig(ctx context.Context) error {
	return m.bus.Subscribe(topicConfig, func(ctx context.Context, msg bus.Message) error {
		snapshot, ok := msg.Value.(bus.ConfigSnapshot)
		if !ok {
			return fmt.Errorf("config: unexpected message type %T", msg.Value)
		}
		m.schemas.OnConfig(snapshot.Version, snapshot.Config)
		m.collections.OnConfig(snapshot.Version, snapshot.Config)
		return nil
	})
}

// QueryRows serves one synchronous rows-query request (C5).
func (m *Manager) QueryRows(ctx context.Context, req bus.RowsQueryRequest) bus.RowsQueryResponse {
	return m.graphQL.OnRequest(ctx, req)
}

// QueryRowEmbeddings serves one synchronous row-embeddings-query
// request (C5-vector sibling).
func (m *Manager) QueryRowEmbeddings(ctx context.Context, req bus.RowEmbeddingsRequest) bus.RowEmbeddingsResponse {
	return m.vectorQuery.OnRequest(ctx, req)
}

// StartRowsQuery subscribes the GraphQL query service to the
// rows-query-request topic and publishes its response to
// rows-query-response, carrying the caller-assigned `id` message
// property through unchanged for correlation (§6).
func (m *Manager) StartRowsQuery(ctx context.Context) error {
	return m.bus.Subscribe(topicRowsQueryRequest, func(ctx context.Context, msg bus.Message) error {
		req, ok := msg.Value.(bus.RowsQueryRequest)
		if !ok {
			return fmt.Errorf("rows-query: unexpected message type %T", msg.Value)
		}
		resp := m.graphQL.OnRequest(ctx, req)
		return m.bus.Send(ctx, topicRowsQueryResponse, resp, msg.Properties)
	})
}

// StartRowEmbeddingsQuery subscribes the vector query sibling to the
// row-embeddings-request topic and publishes its response to
// row-embeddings-response the same way.
func (m *Manager) StartRowEmbeddingsQuery(ctx context.Context) error {
	return m.bus.Subscribe(topicEmbeddingsQueryRequest, func(ctx context.Context, msg bus.Message) error {
		req, ok := msg.Value.(bus.RowEmbeddingsRequest)
		if !ok {
			return fmt.Errorf("row-embeddings-query: unexpected message type %T", msg.Value)
		}
		resp := m.vectorQuery.OnRequest(ctx, req)
		return m.bus.Send(ctx, topicEmbeddingsQueryResponse, resp, msg.Properties)
	})
}

// Close releases the ClickHouse connection pool. The Qdrant client is
// not closed here; vectorstore.Store has no Close method.
func (m *Manager) Close() error {
	if err := m.chStore.Close(); err != nil {
		log.Printf("orchestrator: error closing clickhouse: %v", err)
		return err
	}
	return nil
}
