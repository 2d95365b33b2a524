package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient calls an out-of-process embedding model service over a
// plain JSON POST, the same stdlib http.Client-with-timeout shape the
// teacher uses for its own outbound calls (internal/clickhouse/schema.go's
// ExecuteSQL). It is the only concrete Client: the model itself stays
// out of scope (§1).
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient builds a Client posting to the given embedder URL.
func NewHTTPClient(url string) *HTTPClient {
	return &HTTPClient{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

// Embed posts text to the embedder and decodes its vectors.
func (c *HTTPClient) Embed(ctx context.Context, text string) ([][]float32, error) {
	payload, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call embedder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedder returned %s: %s", resp.Status, string(body))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	return out.Vectors, nil
}

var _ Client = (*HTTPClient)(nil)
