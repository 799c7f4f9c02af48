// Package search is a minimal client for the Azure AI Search data plane.
// Only the vector-query path this service needs is implemented.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apiVersion = "2024-07-01"

// vectorField is the index field holding the document embeddings.
const vectorField = "text_vector"

// Document is one search hit, reduced to the two attributes the service
// selects.
type Document struct {
	Title string `json:"title"`
	Chunk string `json:"chunk"`
}

type Client struct {
	endpoint   string
	index      string
	apiKey     string
	httpClient *http.Client
}

func NewClient(endpoint, index, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		index:    index,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	Fields string    `json:"fields"`
	K      int       `json:"k"`
}

type searchRequest struct {
	VectorQueries []vectorQuery `json:"vectorQueries"`
	Select        string        `json:"select"`
}

type searchResponse struct {
	Value []Document `json:"value"`
}

// VectorSearch runs a k-nearest-neighbor query against the index's vector
// field and returns hits in the order the backend ranked them.
func (c *Client) VectorSearch(ctx context.Context, vector []float32, k int) ([]Document, error) {
	reqBody := searchRequest{
		VectorQueries: []vectorQuery{{
			Kind:   "vector",
			Vector: vector,
			Fields: vectorField,
			K:      k,
		}},
		Select: "title,chunk",
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/search?api-version=%s", c.endpoint, c.index, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return result.Value, nil
}
