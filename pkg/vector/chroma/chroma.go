// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection name for storing
	// biographer memory embeddings.
	DefaultCollectionName = "biographer_memories"
)

// ChromaDriver implements vector.Driver using Chroma's REST API.
type ChromaDriver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *zap.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string
}

// NewChromaDriver creates a new Chroma vector driver.
func NewChromaDriver(c Config, logger *zap.Logger) (*ChromaDriver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	d := &ChromaDriver{
		baseURL:        c.URL,
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	// Get or create the collection
	collectionID, err := d.getOrCreateCollection(context.Background())
	if err != nil {
		return nil, fmt.Errorf("getting or creating collection %q: %w", collectionName, err)
	}
	d.collectionID = collectionID

	logger.Info("connected to Chroma",
		zap.String("url", c.URL),
		zap.String("collection", collectionName),
		zap.String("collection_id", collectionID),
	)

	return d, nil
}

func (d *ChromaDriver) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s%s",
		d.baseURL, d.collectionID, suffix)
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (d *ChromaDriver) getOrCreateCollection(ctx context.Context) (string, error) {
	// Try to get existing collection first
	url := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections/%s", d.baseURL, d.collectionName)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var collection chromaCollection
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return "", fmt.Errorf("decoding collection response: %w", err)
		}
		return collection.ID, nil
	}

	// Collection doesn't exist, create it
	createURL := fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections", d.baseURL)
	createBody := map[string]string{"name": d.collectionName}
	jsonBody, err := json.Marshal(createBody)
	if err != nil {
		return "", fmt.Errorf("marshaling create request: %w", err)
	}

	req, err = http.NewRequestWithContext(ctx, "POST", createURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending create request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to create collection: status %d: %s", resp.StatusCode, string(body))
	}

	var collection chromaCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return "", fmt.Errorf("decoding create response: %w", err)
	}

	return collection.ID, nil
}

// post sends a JSON POST to a collection endpoint and decodes the response
// into out when out is non-nil.
func (d *ChromaDriver) post(ctx context.Context, suffix string, body any, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.collectionURL(suffix), bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// Upsert stores entries with their embeddings. An entry whose ID already
// exists is replaced.
func (d *ChromaDriver) Upsert(ctx context.Context, entries []vector.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	embeddings := make([][]float32, len(entries))
	metadatas := make([]map[string]any, len(entries))
	documents := make([]string, len(entries))

	for i, entry := range entries {
		ids[i] = entry.ID
		embeddings[i] = entry.Embedding
		documents[i] = entry.Document

		meta := make(map[string]any, len(entry.Metadata))
		for k, v := range entry.Metadata {
			meta[k] = v
		}
		metadatas[i] = meta
	}

	reqBody := chromaUpsertRequest{
		IDs:        ids,
		Embeddings: embeddings,
		Metadatas:  metadatas,
		Documents:  documents,
	}

	if err := d.post(ctx, "/upsert", reqBody, nil); err != nil {
		return fmt.Errorf("upserting entries: %w", err)
	}

	d.logger.Debug("upserted entries to chroma",
		zap.Int("count", len(entries)),
	)

	return nil
}

// Query finds the topK most similar entries to the given embedding. A
// non-empty tables slice becomes a metadata where-filter on source_table.
func (d *ChromaDriver) Query(ctx context.Context, embedding []float32, topK int, tables []string) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	reqBody := chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Include:         []string{"metadatas", "distances", "documents"},
	}

	if len(tables) > 0 {
		wanted := make([]any, len(tables))
		for i, t := range tables {
			wanted[i] = t
		}
		reqBody.Where = map[string]any{
			"source_table": map[string]any{"$in": wanted},
		}
	}

	var queryResp chromaQueryResponse
	if err := d.post(ctx, "/query", reqBody, &queryResp); err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}

	var results []vector.QueryResult

	// Process first group (we only query with one embedding)
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return results, nil
	}

	ids := queryResp.IDs[0]
	distances := queryResp.Distances[0]

	var metadatas []map[string]any
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}

	var documents []string
	if len(queryResp.Documents) > 0 {
		documents = queryResp.Documents[0]
	}

	for i, id := range ids {
		result := vector.QueryResult{
			Entry: vector.Entry{
				ID:       id,
				Metadata: map[string]string{},
			},
		}

		if i < len(metadatas) {
			for k, v := range metadatas[i] {
				if s, ok := v.(string); ok {
					result.Metadata[k] = s
				}
			}
		}

		if i < len(documents) {
			result.Document = documents[i]
		}

		if i < len(distances) {
			result.Score = vector.ScoreFromDistance(distances[i])
		}

		results = append(results, result)
	}

	d.logger.Debug("queried chroma",
		zap.Int("results", len(results)),
		zap.Strings("tables", tables),
	)

	return results, nil
}

// All returns every stored entry with its embedding.
func (d *ChromaDriver) All(ctx context.Context) ([]vector.Entry, error) {
	reqBody := chromaGetRequest{
		Include: []string{"embeddings", "metadatas", "documents"},
	}

	var getResp chromaGetResponse
	if err := d.post(ctx, "/get", reqBody, &getResp); err != nil {
		return nil, fmt.Errorf("getting entries: %w", err)
	}

	entries := make([]vector.Entry, 0, len(getResp.IDs))
	for i, id := range getResp.IDs {
		entry := vector.Entry{
			ID:       id,
			Metadata: map[string]string{},
		}

		if i < len(getResp.Embeddings) {
			entry.Embedding = getResp.Embeddings[i]
		}
		if i < len(getResp.Documents) {
			entry.Document = getResp.Documents[i]
		}
		if i < len(getResp.Metadatas) {
			for k, v := range getResp.Metadatas[i] {
				if s, ok := v.(string); ok {
					entry.Metadata[k] = s
				}
			}
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// IDs returns the IDs of every stored entry.
func (d *ChromaDriver) IDs(ctx context.Context) ([]string, error) {
	reqBody := chromaGetRequest{
		Include: []string{},
	}

	var getResp chromaGetResponse
	if err := d.post(ctx, "/get", reqBody, &getResp); err != nil {
		return nil, fmt.Errorf("getting entry ids: %w", err)
	}

	return getResp.IDs, nil
}

// Count returns the number of stored entries.
func (d *ChromaDriver) Count(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", d.collectionURL("/count"), nil)
	if err != nil {
		return 0, fmt.Errorf("creating count request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending count request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("failed to count entries: status %d: %s", resp.StatusCode, string(body))
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, fmt.Errorf("decoding count response: %w", err)
	}

	return count, nil
}

// Delete removes entries by their IDs.
func (d *ChromaDriver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := d.post(ctx, "/delete", chromaDeleteRequest{IDs: ids}, nil); err != nil {
		return fmt.Errorf("deleting entries: %w", err)
	}

	d.logger.Debug("deleted entries from chroma",
		zap.Int("count", len(ids)),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *ChromaDriver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// Ensure ChromaDriver implements vector.Driver
var _ vector.Driver = (*ChromaDriver)(nil)
