package config

import "testing"

func TestValidateRejectsNonPositiveBatchSize(t *testing.T) {
	c := &Config{EmbeddingsBatchSize: 0, QdrantPort: 6334, LogLevel: "info"}
	if err := c.Validate(); err == nil {
		t.Error("expected an error for a non-positive embeddings batch size")
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	c := &Config{EmbeddingsBatchSize: 10, QdrantPort: 70000, LogLevel: "info"}
	if err := c.Validate(); err == nil {
		t.Error("expected an error for an out-of-range qdrant port")
	}
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	c := &Config{EmbeddingsBatchSize: 10, QdrantPort: 6334, LogLevel: "verbose"}
	if err := c.Validate(); err == nil {
		t.Error("expected an error for an unrecognized log level")
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	c := &Config{EmbeddingsBatchSize: 10, QdrantPort: 6334, LogLevel: "info"}
	if err := c.Validate(); err != nil {
		t.Errorf("expected valid defaults to pass, got %v", err)
	}
}
