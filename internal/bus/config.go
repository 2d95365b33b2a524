package bus

// ConfigSnapshot is one versioned configuration delivery (§4.1):
// config_type -> {name -> JSON document}. Both the Schema Registry
// (config_type "schema" by default) and the Collection Registry
// (config_type "collection", SPEC_FULL.md §C.1) are delivered this
// way - subscribers receive the full snapshot, not a diff, and
// compute their own diffs against their previous local copy.
type ConfigSnapshot struct {
	Version int
	Config  map[string]map[string]string
}

// ConfigHandler is invoked on every config version push.
type ConfigHandler func(snapshot ConfigSnapshot) error
