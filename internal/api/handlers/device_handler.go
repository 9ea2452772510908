package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/xflow/internal/service"
	"github.com/maheshrc27/xflow/internal/transfer"
)

type DeviceHandler struct {
	s service.DeviceService
}

func NewDeviceHandler(service service.DeviceService) *DeviceHandler {
	return &DeviceHandler{s: service}
}

func (h *DeviceHandler) RegisterDevice(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.DeviceRegistration
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.Register(c.Context(), userID, req.Token, req.Platform, req.DeviceID); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *DeviceHandler) RemoveDevice(c *fiber.Ctx) error {
	userID := GetUserID(c)

	var req transfer.DeviceRegistration
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse request body",
		})
	}

	if err := h.s.Deactivate(c.Context(), userID, req.Token); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove device",
		})
	}
	return c.SendStatus(fiber.StatusOK)
}
