package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/extraction"
)

var (
	recordToolName    = "memory_record"
	recordDescription = "Record a new memory about the subject into the knowledge base. The category routes the entry to its table (fears, joys, wisdom, relationships, ...); unknown categories land in self_knowledge. The insight is required; everything else is optional."
)

// RecordInput represents the input arguments for the memory_record tool.
type RecordInput struct {
	Category     string `json:"category" jsonschema:"the memory category (e.g. fears, joys, wisdom, relationships)"`
	Title        string `json:"title,omitempty" jsonschema:"a short title for the entry"`
	Insight      string `json:"insight" jsonschema:"the memory content; required"`
	Evidence     string `json:"evidence,omitempty" jsonschema:"supporting evidence from the conversation"`
	SubCategory  string `json:"sub_category,omitempty" jsonschema:"a finer-grained category"`
	Significance int    `json:"significance,omitempty" jsonschema:"importance rating from 1 to 10"`
	SourceQuote  string `json:"source_quote,omitempty" jsonschema:"the subject's words the memory is based on"`
	LifePeriod   string `json:"life_period,omitempty" jsonschema:"the life period the memory refers to"`
}

// RecordOutput represents the structured output of a memory record call.
type RecordOutput struct {
	Added        int `json:"added"`
	Skipped      int `json:"skipped"`
	Errors       int `json:"errors"`
	SyncFailures int `json:"sync_failures"`
}

// handleRecord processes a memory record request.
func (s *Server) handleRecord(ctx context.Context, _ *mcp.CallToolRequest, input RecordInput) (*mcp.CallToolResult, RecordOutput, error) {
	logger := s.config.Logger

	if input.Insight == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "insight is required"},
			},
		}, RecordOutput{}, nil
	}

	record := extraction.Record{
		Category:     input.Category,
		Title:        input.Title,
		Insight:      input.Insight,
		Evidence:     input.Evidence,
		SubCategory:  input.SubCategory,
		Significance: input.Significance,
		SourceQuote:  input.SourceQuote,
		LifePeriod:   input.LifePeriod,
		EvidenceType: "stated",
	}
	if record.Significance < 1 || record.Significance > 10 {
		record.Significance = extraction.DefaultSignificance
	}

	logger.Debug("MCP memory record request",
		zap.String("category", input.Category),
		zap.String("title", input.Title),
	)

	result := s.config.Enricher.ProcessExtractions(ctx, []extraction.Record{record})

	output := RecordOutput{
		Added:        result.Added,
		Skipped:      result.Skipped,
		Errors:       result.Errors,
		SyncFailures: result.SyncFailures,
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal record output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize result: %v", err)},
			},
		}, RecordOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
