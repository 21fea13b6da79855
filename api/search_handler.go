package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/retrieval"
)

// handleSearch handles POST /api/v1/search requests.
// The JSON body carries the query, an optional top_k and an optional list
// of source tables to restrict results to.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	if s.searcher == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{
			Error: "search is not configured: vector driver and embedder are required",
		})
	}

	var input retrieval.SearchInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: "invalid request body",
		})
	}

	if input.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: "query is required",
		})
	}

	output := s.searcher.Search(c.Context(), input.Query, input.TopK, input.Tables)

	return c.JSON(output)
}
