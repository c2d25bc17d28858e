package handler

import (
	"backend-layanan/internal/queue"
	"backend-layanan/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// StrategyRequest - Request untuk ganti strategy antrian
type StrategyRequest struct {
	Strategy string `json:"strategy"`
}

type ConfigHandler struct {
	Coordinator *queue.Coordinator
	Settings    *repository.SettingRepository
}

func NewConfigHandler(coordinator *queue.Coordinator, settings *repository.SettingRepository) *ConfigHandler {
	return &ConfigHandler{Coordinator: coordinator, Settings: settings}
}

// GetStrategy - strategy yang lagi aktif + daftar yang tersedia
func (h *ConfigHandler) GetStrategy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"active":    h.Coordinator.GetStrategy().Name(),
			"available": queue.StrategyNames(),
		},
	})
}

// UpdateStrategy - ganti strategy aktif. Cuma ngaruh ke recompute
// berikutnya; posisi yang sudah tersimpan tidak ditulis ulang.
func (h *ConfigHandler) UpdateStrategy(c *fiber.Ctx) error {
	var req StrategyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	strategy, ok := queue.StrategyByName(req.Strategy)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Strategy tidak dikenal: " + req.Strategy,
		})
	}

	h.Coordinator.SetStrategy(strategy)

	// Persist biar kepilih lagi setelah restart
	if err := h.Settings.Set(c.Context(), repository.SettingActiveStrategy, strategy.Name()); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Strategy antrian diganti ke " + strategy.Name(),
	})
}
