// Package config loads rowcore's runtime configuration: store
// endpoints/credentials and the processor-level defaults of SPEC_FULL.md
// §A, grounded on the teacher's internal/config/config.go
// (godotenv.Load + getEnv helpers) generalized with viper's env-binding
// and defaulting idiom the way MycelicMemory's pkg/config/config.go
// uses it.
package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full set of runtime settings every rowcore processor
// reads from at startup.
type Config struct {
	ClickHouseDSN string `mapstructure:"clickhouse_dsn"`

	QdrantHost   string `mapstructure:"qdrant_host"`
	QdrantPort   int    `mapstructure:"qdrant_port"`
	QdrantAPIKey string `mapstructure:"qdrant_api_key"`

	// SchemaConfigType and CollectionConfigType are the config-push
	// prefixes schemas/collections arrive under (§4.1), default
	// "schema"/"collection" respectively.
	SchemaConfigType     string `mapstructure:"schema_config_type"`
	CollectionConfigType string `mapstructure:"collection_config_type"`

	// EmbeddingsBatchSize is the row embeddings computer's (C3)
	// per-RowEmbeddings-message chunk size (§4.3).
	EmbeddingsBatchSize int `mapstructure:"embeddings_batch_size"`

	// EmbedderURL is the out-of-scope embedding model service this
	// module only talks to through internal/embeddings.Client (§1).
	EmbedderURL string `mapstructure:"embedder_url"`

	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// Load reads configuration from environment variables (optionally via
// a .env file, loaded the same optional best-effort way the teacher
// does it) with the defaults of SPEC_FULL.md §A.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load, but reads the .env file at the given path instead
// of the default "./.env" lookup when path is non-empty (the
// `--config` flag of cmd/rowcore).
func LoadFrom(path string) (*Config, error) {
	var envErr error
	if path != "" {
		envErr = godotenv.Load(path)
	} else {
		envErr = godotenv.Load()
	}
	if envErr != nil {
		log.Printf("config: no .env file found or error loading it: %v (this is optional)", envErr)
	}

	v := viper.New()
	v.SetEnvPrefix("ROWCORE")
	v.AutomaticEnv()

	v.SetDefault("clickhouse_dsn", "tcp://localhost:9000?debug=false")
	v.SetDefault("qdrant_host", "localhost")
	v.SetDefault("qdrant_port", 6334)
	v.SetDefault("qdrant_api_key", "")
	v.SetDefault("schema_config_type", "schema")
	v.SetDefault("collection_config_type", "collection")
	v.SetDefault("embeddings_batch_size", 10)
	v.SetDefault("embedder_url", "")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	cfg := &Config{
		ClickHouseDSN:        v.GetString("clickhouse_dsn"),
		QdrantHost:           v.GetString("qdrant_host"),
		QdrantPort:           v.GetInt("qdrant_port"),
		QdrantAPIKey:         v.GetString("qdrant_api_key"),
		SchemaConfigType:     v.GetString("schema_config_type"),
		CollectionConfigType: v.GetString("collection_config_type"),
		EmbeddingsBatchSize:  v.GetInt("embeddings_batch_size"),
		EmbedderURL:          v.GetString("embedder_url"),
		Environment:          v.GetString("environment"),
		LogLevel:             v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the invariants startup depends on.
func (c *Config) Validate() error {
	if c.EmbeddingsBatchSize <= 0 {
		return fmt.Errorf("embeddings_batch_size must be > 0")
	}
	if c.QdrantPort < 1 || c.QdrantPort > 65535 {
		return fmt.Errorf("qdrant_port must be between 1 and 65535")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	return nil
}
