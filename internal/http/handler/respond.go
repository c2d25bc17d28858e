package handler

import (
	"log"

	"backend-layanan/internal/apperr"
	"backend-layanan/internal/service"

	"github.com/gofiber/fiber/v2"
)

// fail translate error bertipe jadi response seragam. Error yang
// tidak dikenal tidak dibocorkan ke client.
func fail(c *fiber.Ctx, err error) error {
	if apperr.KindOf(err) == apperr.KindUnknown {
		log.Printf("[http] %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Terjadi kesalahan internal",
		})
	}

	return c.Status(apperr.StatusCode(err)).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

// actorFromCtx ambil identitas pemanggil dari JWT context.
func actorFromCtx(c *fiber.Ctx) service.Actor {
	actor := service.Actor{UserID: c.Locals("user_id").(int64)}
	if vendorID, ok := c.Locals("vendor_id").(int64); ok {
		actor.VendorID = &vendorID
	}
	return actor
}
