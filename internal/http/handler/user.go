package handler

import (
	"database/sql"
	"log"
	"strconv"

	"backend-layanan/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type UserHandler struct {
	DB *sql.DB
}

func NewUserHandler(db *sql.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// CreateUser - admin bikin akun baru (user / staff vendor / admin)
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req models.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	if req.Nama == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "nama, email, password, dan role wajib diisi",
		})
	}

	if req.Role != "user" && req.Role != "vendor" && req.Role != "admin" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "role harus 'user', 'vendor', atau 'admin'",
		})
	}

	// Akun staff vendor wajib nempel ke vendor
	if req.Role == "vendor" && req.VendorID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "akun role vendor wajib punya vendor_id",
		})
	}

	var exists int
	err := h.DB.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", req.Email).Scan(&exists)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Gagal validasi email",
		})
	}
	if exists > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"error":   "Email sudah terdaftar",
		})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Gagal hash password",
		})
	}

	result, err := h.DB.Exec(`
		INSERT INTO users (nama, email, password, role, is_banned, vendor_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, 'n', ?, NOW(), NOW())
	`, req.Nama, req.Email, string(hashed), req.Role, req.VendorID)
	if err != nil {
		log.Printf("[user] gagal insert user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Gagal membuat user",
		})
	}

	id, _ := result.LastInsertId()
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User berhasil dibuat",
		"data": fiber.Map{
			"id":    id,
			"nama":  req.Nama,
			"email": req.Email,
			"role":  req.Role,
		},
	})
}

// GetAllUsersPagination - daftar user dengan limit & offset
func (h *UserHandler) GetAllUsersPagination(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	var total int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Gagal menghitung user",
		})
	}

	rows, err := h.DB.Query(`
		SELECT id, nama, email, role, is_banned, vendor_id, created_at, updated_at
		FROM users
		ORDER BY id ASC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "Gagal mengambil daftar user",
		})
	}
	defer rows.Close()

	var users []models.UserResponse
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Nama, &u.Email, &u.Role, &u.IsBanned, &u.VendorID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			log.Printf("[user] scan error: %v", err)
			continue
		}
		users = append(users, models.ToUserResponse(u))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    users,
		"meta": fiber.Map{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}
