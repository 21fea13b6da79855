package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/wjcornelius/VECTOR-Biographer/pkg/extraction"
	"github.com/wjcornelius/VECTOR-Biographer/pkg/worker"
)

// handleExtractions handles POST /api/v1/extractions requests. The body is
// an extraction batch in the collaborator JSON format. Enrichment runs in
// the background worker, so the handler responds 202 as soon as the batch
// is queued.
func (s *Server) handleExtractions(c *fiber.Ctx) error {
	if s.pool == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{
			Error: "enrichment is not configured",
		})
	}

	var batch extraction.Batch
	if err := c.BodyParser(&batch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: "invalid extraction batch",
		})
	}

	if len(batch.Extractions) == 0 && len(batch.Connections) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error: "batch contains no extractions or connections",
		})
	}

	err := s.pool.Enqueue(worker.Job{
		Extractions: batch.Extractions,
		Connections: batch.Connections,
	})
	if err != nil {
		if errors.Is(err, worker.ErrQueueFull) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{
				Error: "enrichment queue is full, retry later",
			})
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorResponse{
			Error: err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(map[string]any{
		"queued_extractions": len(batch.Extractions),
		"queued_connections": len(batch.Connections),
	})
}
