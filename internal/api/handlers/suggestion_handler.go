package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/xflow/internal/service"
	"github.com/maheshrc27/xflow/internal/transfer"
)

type SuggestionHandler struct {
	s service.SuggestionService
}

func NewSuggestionHandler(service service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{s: service}
}

func (h *SuggestionHandler) ListSuggestions(c *fiber.Ctx) error {
	userID := GetUserID(c)
	status := c.Query("status")
	cursor := c.Query("cursor")
	take := c.QueryInt("take", 20)

	page, err := h.s.List(c.Context(), userID, status, cursor, take)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list suggestions",
		})
	}

	return c.Status(fiber.StatusOK).JSON(page)
}

func (h *SuggestionHandler) AcceptSuggestion(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.AcceptSuggestion
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	result, err := h.s.Accept(c.Context(), userID, &req)
	if err != nil {
		return c.Status(suggestionErrorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *SuggestionHandler) RejectSuggestion(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.RejectSuggestion
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.Reject(c.Context(), userID, req.SuggestionID, req.Reason); err != nil {
		return c.Status(suggestionErrorStatus(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusOK)
}

func suggestionErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrSuggestionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrSuggestionNotPending),
		errors.Is(err, service.ErrScheduleTooSoon):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
