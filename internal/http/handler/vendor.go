package handler

import (
	"strconv"

	"backend-layanan/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type VendorHandler struct {
	Vendors *repository.VendorRepository
}

func NewVendorHandler(vendors *repository.VendorRepository) *VendorHandler {
	return &VendorHandler{Vendors: vendors}
}

// ListVendors - daftar vendor aktif, endpoint publik
func (h *VendorHandler) ListVendors(c *fiber.Ctx) error {
	vendors, err := h.Vendors.ListActive(c.Context())
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    vendors,
	})
}

// ListServices - katalog layanan satu vendor
func (h *VendorHandler) ListServices(c *fiber.Ctx) error {
	vendorID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.ErrBadRequest
	}

	if _, err := h.Vendors.FindByID(c.Context(), vendorID); err != nil {
		return fail(c, err)
	}

	services, err := h.Vendors.ListServices(c.Context(), vendorID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    services,
	})
}
