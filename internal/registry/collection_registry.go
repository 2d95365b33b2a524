package registry

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// CollectionSubscriber is notified when a collection is created or
// deleted, so processors can lazily provision or tear down any
// per-collection resources (per-collection vector collections in
// Qdrant, for instance).
type CollectionSubscriber func(event CollectionEvent)

// CollectionEvent describes one collection entering or leaving the
// registered set.
type CollectionEvent struct {
	User       string
	Collection string
	Created    bool // false means deleted
}

func key(user, collection string) string {
	return user + "/" + collection
}

// CollectionRegistry is the supplemented gate of SPEC_FULL.md §C.1,
// grounded on the Python CollectionConfigHandler mixin: a
// mutex-guarded in-process set of (user, collection) pairs, fed by
// config_type "collection" pushes, that every processor consults
// before accepting a message for a collection it has never seen
// registered.
type CollectionRegistry struct {
	configKey string

	mu      sync.RWMutex
	present map[string]struct{}

	subMu       sync.Mutex
	subscribers []CollectionSubscriber
}

// NewCollectionRegistry creates a registry reading the given
// config_type key (default "collection").
func NewCollectionRegistry(configKey string) *CollectionRegistry {
	if configKey == "" {
		configKey = "collection"
	}
	return &CollectionRegistry{
		configKey: configKey,
		present:   make(map[string]struct{}),
	}
}

// Subscribe registers a callback invoked once per create/delete diff.
func (r *CollectionRegistry) Subscribe(sub CollectionSubscriber) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.subscribers = append(r.subscribers, sub)
}

// OnConfig handles one configuration version: the new collection set
// replaces the old wholesale, and the diff against the old set is
// turned into create/delete notifications.
//
// The config value per collection name is expected to be a JSON
// object of the form {"user": "..."}; the collection name itself
// carries the collection identity.
func (r *CollectionRegistry) OnConfig(version int, config map[string]map[string]string) {
	collectionsConfig, ok := config[r.configKey]
	if !ok {
		log.Printf("collection-registry: no %q type in configuration", r.configKey)
		return
	}

	newSet := make(map[string]struct{}, len(collectionsConfig))
	newPairs := make(map[string][2]string, len(collectionsConfig))
	for name, raw := range collectionsConfig {
		user, collection, err := parseCollectionEntry(name, raw)
		if err != nil {
			log.Printf("collection-registry: skipping malformed entry %s: %v", name, err)
			continue
		}
		k := key(user, collection)
		newSet[k] = struct{}{}
		newPairs[k] = [2]string{user, collection}
	}

	r.mu.Lock()
	oldSet := r.present
	r.present = newSet
	r.mu.Unlock()

	log.Printf("collection-registry: configuration version %d loaded: %d collections", version, len(newSet))

	r.subMu.Lock()
	subs := append([]CollectionSubscriber(nil), r.subscribers...)
	r.subMu.Unlock()
	if len(subs) == 0 {
		return
	}

	for k, pair := range newPairs {
		if _, existed := oldSet[k]; !existed {
			event := CollectionEvent{User: pair[0], Collection: pair[1], Created: true}
			for _, sub := range subs {
				sub(event)
			}
		}
	}
	for k := range oldSet {
		if _, still := newSet[k]; !still {
			var user, collection string
			if i := indexOfSlash(k); i >= 0 {
				user, collection = k[:i], k[i+1:]
			}
			event := CollectionEvent{User: user, Collection: collection, Created: false}
			for _, sub := range subs {
				sub(event)
			}
		}
	}
}

func indexOfSlash(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func parseCollectionEntry(name, raw string) (user, collection string, err error) {
	if raw == "" {
		return "", "", fmt.Errorf("empty config value")
	}
	type entry struct {
		User string `json:"user"`
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return "", "", err
	}
	if e.User == "" {
		return "", "", fmt.Errorf("missing user field")
	}
	return e.User, name, nil
}

// Exists reports whether (user, collection) is currently registered.
func (r *CollectionRegistry) Exists(user, collection string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.present[key(user, collection)]
	return ok
}
