package handler

import (
	"backend-layanan/internal/config"
	"backend-layanan/internal/realtime"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type WSHandler struct {
	Hub *realtime.Hub
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{Hub: hub}
}

// Upgrade - middleware cek request memang upgrade websocket
func (h *WSHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Events - koneksi event per identitas. Browser tidak bisa set
// header di websocket, jadi JWT lewat query param.
func (h *WSHandler) Events() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		claims, err := config.ValidateToken(c.Query("token"))
		if err != nil {
			_ = c.WriteJSON(fiber.Map{
				"type":    "error",
				"message": "Token tidak valid",
			})
			_ = c.Close()
			return
		}

		// Staff vendor dengerin event vendornya, user biasa
		// dengerin event dirinya sendiri.
		key := realtime.UserKey(claims.UserID)
		if claims.VendorID != nil {
			key = realtime.VendorKey(*claims.VendorID)
		}

		h.Hub.Serve(key, c)
	})
}
