package handler

import (
	"strconv"

	"backend-layanan/internal/models"
	"backend-layanan/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TokenHandler struct {
	Tokens *service.TokenService
}

func NewTokenHandler(tokens *service.TokenService) *TokenHandler {
	return &TokenHandler{Tokens: tokens}
}

func tokenIDParam(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// Create - user ajukan permintaan layanan baru ke vendor
func (h *TokenHandler) Create(c *fiber.Ctx) error {
	var req models.CreateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.VendorID == 0 || req.ServiceType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "vendor_id dan service_type wajib diisi",
		})
	}

	token, err := h.Tokens.Create(c.Context(), actorFromCtx(c), req)
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Token berhasil dibuat, menunggu persetujuan vendor",
		"data":    token,
	})
}

// Approve - vendor terima token dan masukkan ke antrian
func (h *TokenHandler) Approve(c *fiber.Ctx) error {
	id, err := tokenIDParam(c)
	if err != nil {
		return fiber.ErrBadRequest
	}

	token, err := h.Tokens.Approve(c.Context(), actorFromCtx(c), id)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Token disetujui dan masuk antrian",
		"data":    token,
	})
}

// Reject - vendor tolak token, alasan wajib
func (h *TokenHandler) Reject(c *fiber.Ctx) error {
	id, err := tokenIDParam(c)
	if err != nil {
		return fiber.ErrBadRequest
	}

	var req models.RejectTokenRequest
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "message (alasan penolakan) wajib diisi",
		})
	}

	token, err := h.Tokens.Reject(c.Context(), actorFromCtx(c), id, req.Message)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Token ditolak",
		"data":    token,
	})
}

// Start - vendor mulai kerjakan token
func (h *TokenHandler) Start(c *fiber.Ctx) error {
	id, err := tokenIDParam(c)
	if err != nil {
		return fiber.ErrBadRequest
	}

	token, err := h.Tokens.Start(c.Context(), actorFromCtx(c), id)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Token mulai dikerjakan",
		"data":    token,
	})
}

// Complete - vendor selesaikan token
func (h *TokenHandler) Complete(c *fiber.Ctx) error {
	id, err := tokenIDParam(c)
	if err != nil {
		return fiber.ErrBadRequest
	}

	token, err := h.Tokens.Complete(c.Context(), actorFromCtx(c), id)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Token selesai dikerjakan",
		"data":    token,
	})
}

// Cancel - user batalkan tokennya sendiri
func (h *TokenHandler) Cancel(c *fiber.Ctx) error {
	id, err := tokenIDParam(c)
	if err != nil {
		return fiber.ErrBadRequest
	}

	token, err := h.Tokens.Cancel(c.Context(), actorFromCtx(c), id)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Token dibatalkan",
		"data":    token,
	})
}

// Delete - user hapus permanen token yang sudah selesai
func (h *TokenHandler) Delete(c *fiber.Ctx) error {
	id, err := tokenIDParam(c)
	if err != nil {
		return fiber.ErrBadRequest
	}

	if err := h.Tokens.Delete(c.Context(), actorFromCtx(c), id); err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Token dihapus permanen",
	})
}

func (h *TokenHandler) GetByID(c *fiber.Ctx) error {
	id, err := tokenIDParam(c)
	if err != nil {
		return fiber.ErrBadRequest
	}

	token, err := h.Tokens.GetByID(c.Context(), actorFromCtx(c), id)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    token,
	})
}

// ListMine - semua token milik user yang login
func (h *TokenHandler) ListMine(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)

	tokens, err := h.Tokens.ListForUser(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    tokens,
	})
}

// History - riwayat transisi satu token
func (h *TokenHandler) History(c *fiber.Ctx) error {
	id, err := tokenIDParam(c)
	if err != nil {
		return fiber.ErrBadRequest
	}

	events, err := h.Tokens.History(c.Context(), actorFromCtx(c), id)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    events,
	})
}
