package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/cluster"
)

// StatusResponse reports per-table row counts and the vector entry count.
type StatusResponse struct {
	// Tables maps table name to row count, omitting empty tables.
	Tables map[string]int `json:"tables"`

	// TotalEntries is the sum over all tables.
	TotalEntries int `json:"total_entries"`

	// VectorEntries is the number of entries in the vector index.
	VectorEntries int `json:"vector_entries"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStatus returns per-table and vector index counts.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	ctx := c.Context()

	counts, err := s.storer.Counts(ctx)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "failed to count rows"})
	}

	status := StatusResponse{Tables: map[string]int{}}
	for table, count := range counts {
		if count == 0 {
			continue
		}
		status.Tables[table] = count
		status.TotalEntries += count
	}

	// The vector index is allowed to be unavailable; status still reports
	// the relational side.
	if vectorCount, err := s.vectors.Count(ctx); err == nil {
		status.VectorEntries = vectorCount
	}

	return c.JSON(status)
}

// handleClusters returns thematic clusters over the vector index.
// Query parameters:
//   - n (optional): number of clusters to compute
func (s *Server) handleClusters(c *fiber.Ctx) error {
	n := 0
	if nStr := c.Query("n"); nStr != "" {
		parsed, err := strconv.Atoi(nStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
				Error: "n must be a positive integer",
			})
		}
		n = parsed
	}

	clusters, err := cluster.Clusters(c.Context(), s.vectors, n)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{
			Error: err.Error(),
		})
	}

	return c.JSON(map[string]any{
		"count":    len(clusters),
		"clusters": clusters,
	})
}
