// Package retrieval provides shared semantic search types and logic over
// the memory vector index. It is used by the REST API endpoint, the MCP
// server tool and the CLI search command.
//
// Retrieval is best-effort by design: an unreachable embedding server or
// vector store degrades to an empty result set instead of an error, so an
// interview session keeps flowing when infrastructure is down. Failures
// are logged, never surfaced to the caller.
package retrieval

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/embeddings"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/vector"
)

// DefaultTopK is used when a search request does not specify a limit.
const DefaultTopK = 15

// SearchInput represents the input arguments for a search request.
type SearchInput struct {
	Query  string   `json:"query"`
	TopK   int      `json:"top_k,omitempty"`
	Tables []string `json:"tables,omitempty"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	ID       string            `json:"id"`
	Table    string            `json:"table"`
	RowID    int64             `json:"row_id"`
	Score    float32           `json:"score"`
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchOutput represents the output of a search operation.
type SearchOutput struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Count   int            `json:"count"`
}

// Searcher performs semantic searches over the memory index.
type Searcher struct {
	embedder embeddings.Embedder
	vectors  vector.Driver
	logger   *zap.Logger
}

// NewSearcher creates a searcher.
func NewSearcher(embedder embeddings.Embedder, vectors vector.Driver, logger *zap.Logger) *Searcher {
	return &Searcher{
		embedder: embedder,
		vectors:  vectors,
		logger:   logger,
	}
}

// Search embeds the query and returns the closest memory entries, best
// score first. A non-empty tables slice restricts results to those source
// tables.
func (s *Searcher) Search(ctx context.Context, query string, topK int, tables []string) *SearchOutput {
	if topK <= 0 {
		topK = DefaultTopK
	}

	output := &SearchOutput{
		Query:   query,
		Results: []SearchResult{},
	}

	s.logger.Debug("search request",
		zap.String("query", query),
		zap.Int("topK", topK),
		zap.Strings("tables", tables),
	)

	queryEmbedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		s.logger.Warn("query embedding failed, returning empty results",
			zap.Error(err),
		)
		return output
	}

	results, err := s.vectors.Query(ctx, queryEmbedding, topK, tables)
	if err != nil {
		s.logger.Warn("vector query failed, returning empty results",
			zap.Error(err),
		)
		return output
	}

	searchResults := make([]SearchResult, 0, len(results))
	for _, result := range results {
		sr := SearchResult{
			ID:       result.ID,
			Score:    result.Score,
			Document: result.Document,
			Metadata: result.Metadata,
		}
		if table, rowID, ok := vector.ParseEntryID(result.ID); ok {
			sr.Table = table
			sr.RowID = rowID
		}
		searchResults = append(searchResults, sr)
	}

	// The descending-score contract holds regardless of backend ordering.
	sort.SliceStable(searchResults, func(i, j int) bool {
		return searchResults[i].Score > searchResults[j].Score
	})

	output.Results = searchResults
	output.Count = len(searchResults)
	return output
}
