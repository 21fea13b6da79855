package testutils

import (
	"context"
	"fmt"
	"time"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	// Embeddings maps exact input text (without task prefix) to a vector.
	Embeddings map[string][]float32

	// FailOn causes embedding to return an error when the input text matches
	FailOn string

	// Delay makes every embedding call sleep, to simulate a slow server.
	Delay time.Duration

	// DocumentCalls and QueryCalls record the inputs seen by each side.
	DocumentCalls []string
	QueryCalls    []string
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
	}
}

func (m *MockEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	m.DocumentCalls = append(m.DocumentCalls, text)
	return m.embed(text)
}

func (m *MockEmbedder) EmbedQuery(_ context.Context, query string) ([]float32, error) {
	m.QueryCalls = append(m.QueryCalls, query)
	return m.embed(query)
}

func (m *MockEmbedder) embed(text string) ([]float32, error) {
	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	// Return a default embedding for any text
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}
