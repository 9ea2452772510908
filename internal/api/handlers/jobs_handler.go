package handlers

import (
	"github.com/gofiber/fiber/v2"
	job "github.com/maheshrc27/xflow/internal/jobs"
)

type JobsHandler struct {
	store *job.RunStore
}

func NewJobsHandler(store *job.RunStore) *JobsHandler {
	return &JobsHandler{store: store}
}

// LastPublishRun returns the most recent sweep summary, or 204 when no
// sweep has completed since startup.
func (h *JobsHandler) LastPublishRun(c *fiber.Ctx) error {
	result := h.store.GetLast()
	if result == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}
