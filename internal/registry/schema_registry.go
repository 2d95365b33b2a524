// Package registry holds the Schema Registry (C1) and the Collection
// Registry (SPEC_FULL.md §C.1): both are config-push-fed,
// mutex-guarded, in-process snapshots, modeled on the teacher's
// internal/registry/tenant_registry.go (package-level map guarded by
// sync.RWMutex, wholesale reload, explicit accessors) generalized from
// a file-backed list to a config-version-backed map.
package registry

import (
	"log"
	"sync"

	"github.com/rowcore/rowcore/internal/schema"
)

// Subscriber is notified with the full new schema snapshot on every
// config version (§4.1: "Subscribers receive the full snapshot, not a
// diff; they compute their own diffs").
type Subscriber func(schemas map[string]schema.RowSchema)

// SchemaRemovalSubscriber is notified with the names of the schemas a
// configuration reload dropped - the evicting counterpart to
// Subscriber's full-snapshot callback. A full snapshot alone can't
// tell a cache which entries went stale, so storage-layer caches
// subscribe here instead (§9: "Cache invalidation on schema reload is
// mandatory").
type SchemaRemovalSubscriber func(removedNames []string)

// SchemaRegistry holds the current versioned set of RowSchemas.
type SchemaRegistry struct {
	configKey string

	mu      sync.RWMutex
	schemas map[string]schema.RowSchema
	version int

	subMu       sync.Mutex
	subscribers []Subscriber
	removalSubs []SchemaRemovalSubscriber
}

// NewSchemaRegistry creates a registry reading the given config_type
// key (default "schema" per §6 Configuration).
func NewSchemaRegistry(configKey string) *SchemaRegistry {
	if configKey == "" {
		configKey = "schema"
	}
	return &SchemaRegistry{
		configKey: configKey,
		schemas:   make(map[string]schema.RowSchema),
	}
}

// Subscribe registers a callback invoked after every successful
// config load, with the full new snapshot.
func (r *SchemaRegistry) Subscribe(sub Subscriber) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.subscribers = append(r.subscribers, sub)
}

// SubscribeRemovals registers a callback invoked once per config load
// that drops one or more schemas, with the names removed. Not called
// when a reload adds or changes schemas without removing any.
func (r *SchemaRegistry) SubscribeRemovals(sub SchemaRemovalSubscriber) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.removalSubs = append(r.removalSubs, sub)
}

// OnConfig handles one configuration version (§4.1): parse every
// schema JSON, replace the local map wholesale, and publish a change
// event. One bad schema must not prevent the others from loading.
func (r *SchemaRegistry) OnConfig(version int, config map[string]map[string]string) {
	log.Printf("schema-registry: loading configuration version %d", version)

	schemasConfig, ok := config[r.configKey]
	if !ok {
		log.Printf("schema-registry: no %q type in configuration", r.configKey)
		return
	}

	loaded := make(map[string]schema.RowSchema, len(schemasConfig))
	for name, raw := range schemasConfig {
		rs, err := schema.Parse(name, raw)
		if err != nil {
			log.Printf("schema-registry: failed to parse schema %s: %v", name, err)
			continue
		}
		loaded[name] = rs
	}

	log.Printf("schema-registry: configuration loaded: %d schemas", len(loaded))

	r.mu.Lock()
	previous := r.schemas
	r.schemas = loaded
	r.version = version
	r.mu.Unlock()

	var removed []string
	for name := range previous {
		if _, ok := loaded[name]; !ok {
			removed = append(removed, name)
		}
	}

	r.subMu.Lock()
	subs := append([]Subscriber(nil), r.subscribers...)
	removalSubs := append([]SchemaRemovalSubscriber(nil), r.removalSubs...)
	r.subMu.Unlock()

	snapshot := r.Snapshot()
	for _, sub := range subs {
		sub(snapshot)
	}

	if len(removed) > 0 {
		log.Printf("schema-registry: %d schemas removed: %v", len(removed), removed)
		for _, sub := range removalSubs {
			sub(removed)
		}
	}
}

// Snapshot returns a copy of the current schema map. Callers take
// their own reference and never observe a partially-updated map.
func (r *SchemaRegistry) Snapshot() map[string]schema.RowSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]schema.RowSchema, len(r.schemas))
	for k, v := range r.schemas {
		out[k] = v
	}
	return out
}

// Get looks up one schema by name.
func (r *SchemaRegistry) Get(name string) (schema.RowSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rs, ok := r.schemas[name]
	return rs, ok
}
