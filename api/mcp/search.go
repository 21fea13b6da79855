package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/retrieval"
)

var (
	searchToolName    = "memory_search"
	searchDescription = "Search the subject's memory knowledge base using semantic search. Returns the most relevant memories for the query text, each with its source table and similarity score. Use this before asking about a topic to avoid re-asking what is already known."
)

// SearchInput represents the input arguments for the memory_search tool.
type SearchInput struct {
	Query  string   `json:"query" jsonschema:"the search query text to find relevant memories"`
	TopK   int      `json:"top_k,omitempty" jsonschema:"number of results to return (default: 15)"`
	Tables []string `json:"tables,omitempty" jsonschema:"optional list of source tables to restrict results to (e.g. fears, joys, wisdom)"`
}

// handleSearch processes a memory search request.
func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, retrieval.SearchOutput, error) {
	logger := s.config.Logger

	if input.Query == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "query is required"},
			},
		}, retrieval.SearchOutput{}, nil
	}

	logger.Debug("MCP memory search request",
		zap.String("query", input.Query),
		zap.Int("topK", input.TopK),
	)

	output := s.config.Searcher.Search(ctx, input.Query, input.TopK, input.Tables)

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, retrieval.SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, *output, nil
}
