// Package embeddings
package embeddings

import "context"

// Embedder provides text embedding capabilities.
//
// Documents and queries embed differently: asymmetric retrieval models like
// nomic-embed-text want a task prefix on each side, so the two halves of
// the protocol get their own methods. Mixing them up silently degrades
// retrieval quality, which is why there is no plain Embed.
type Embedder interface {
	// EmbedDocument converts stored content into a vector embedding.
	EmbedDocument(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery converts a search query into a vector embedding.
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
