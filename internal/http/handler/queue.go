package handler

import (
	"strconv"

	"backend-layanan/internal/queue"

	"github.com/gofiber/fiber/v2"
)

type QueueHandler struct {
	Coordinator *queue.Coordinator
}

func NewQueueHandler(coordinator *queue.Coordinator) *QueueHandler {
	return &QueueHandler{Coordinator: coordinator}
}

// GetVendorQueue - snapshot antrian satu vendor urut posisi.
// Read-only, tanpa lock — boleh sedikit basi.
func (h *QueueHandler) GetVendorQueue(c *fiber.Ctx) error {
	vendorID, err := strconv.ParseInt(c.Params("vendorId"), 10, 64)
	if err != nil {
		return fiber.ErrBadRequest
	}

	tokens, err := h.Coordinator.GetQueue(c.Context(), vendorID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"vendor_id": vendorID,
			"queue":     tokens,
			"total":     len(tokens),
		},
	})
}
