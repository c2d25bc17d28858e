package main

import (
	"context"
	"log"
	"os"
	"runtime"

	"backend-layanan/internal/config"
	"backend-layanan/internal/http/handler"
	"backend-layanan/internal/http/middleware"
	"backend-layanan/internal/lock"
	"backend-layanan/internal/queue"
	"backend-layanan/internal/realtime"
	"backend-layanan/internal/repository"
	"backend-layanan/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
	})

	config.LoadEnv()
	db := config.NewDB()
	defer db.Close()
	rdb := config.NewRedis()

	// Repository
	tokenRepo := repository.NewTokenRepository(db)
	vendorRepo := repository.NewVendorRepository(db)
	eventRepo := repository.NewEventRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Queue coordinator: lock per vendor + sorted set Redis +
	// strategy dari config tersimpan (fallback fifo).
	locks := lock.NewCoordinator(rdb)
	members := queue.NewRedisMembershipStore(rdb)
	coordinator := queue.NewCoordinator(locks, members, tokenRepo, loadStrategy(settingRepo))

	// Event relay via websocket hub
	hub := realtime.NewHub()
	relay := realtime.NewWebsocketRelay(hub)

	tokenService := service.NewTokenService(tokenRepo, vendorRepo, coordinator, eventRepo, relay)

	// Handler
	authHandler := handler.NewAuthHandler(db)
	userHandler := handler.NewUserHandler(db)
	vendorHandler := handler.NewVendorHandler(vendorRepo)
	tokenHandler := handler.NewTokenHandler(tokenService)
	queueHandler := handler.NewQueueHandler(coordinator)
	configHandler := handler.NewConfigHandler(coordinator, settingRepo)
	wsHandler := handler.NewWSHandler(hub)

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Layanan API jalan",
		})
	})

	app.Post("/san/login", authHandler.Login)
	app.Get("/api/vendors", vendorHandler.ListVendors)
	app.Get("/api/vendors/:id/services", vendorHandler.ListServices)

	// WebSocket event relay (JWT via query param)
	app.Use("/ws", wsHandler.Upgrade)
	app.Get("/ws", wsHandler.Events())

	// Base API (semua wajib login)
	api := app.Group("/api", middleware.JWTAuth())

	// Auth
	api.Post("/logout", authHandler.Logout)

	// Token lifecycle (accessible by both roles)
	api.Get("/tokens/:id", tokenHandler.GetByID)
	api.Get("/tokens/:id/events", tokenHandler.History)

	// ===== USER ROUTES =====
	api.Post("/tokens", middleware.RoleAuth("user"), tokenHandler.Create)
	api.Get("/tokens", middleware.RoleAuth("user"), tokenHandler.ListMine)
	api.Post("/tokens/:id/cancel", middleware.RoleAuth("user"), tokenHandler.Cancel)
	api.Delete("/tokens/:id", middleware.RoleAuth("user"), tokenHandler.Delete)

	// ===== VENDOR ROUTES =====
	api.Post("/tokens/:id/approve", middleware.RoleAuth("vendor"), tokenHandler.Approve)
	api.Post("/tokens/:id/reject", middleware.RoleAuth("vendor"), tokenHandler.Reject)
	api.Post("/tokens/:id/start", middleware.RoleAuth("vendor"), tokenHandler.Start)
	api.Post("/tokens/:id/complete", middleware.RoleAuth("vendor"), tokenHandler.Complete)
	api.Get("/queue/vendor/:vendorId", queueHandler.GetVendorQueue)

	// ===== ADMIN ROUTES =====
	api.Post("/users", middleware.RoleAuth("admin"), userHandler.CreateUser)
	api.Get("/users/paginate", middleware.RoleAuth("admin"), userHandler.GetAllUsersPagination)
	api.Get("/config/strategy", configHandler.GetStrategy)
	api.Put("/config/strategy", middleware.RoleAuth("admin"), configHandler.UpdateStrategy)

	addr := os.Getenv("APP_HOST") + ":" + os.Getenv("APP_PORT")
	log.Println("Server jalan di", addr)
	log.Fatal(app.Listen(addr))
}

// loadStrategy baca strategy aktif dari app_config; kalau belum
// diset atau namanya tidak dikenal, pakai fifo.
func loadStrategy(settings *repository.SettingRepository) queue.SchedulingStrategy {
	name, err := settings.Get(context.Background(), repository.SettingActiveStrategy)
	if err != nil {
		log.Printf("[config] gagal baca strategy aktif, pakai default: %v", err)
		name = queue.DefaultStrategyName
	}
	if name == "" {
		name = queue.DefaultStrategyName
	}

	strategy, ok := queue.StrategyByName(name)
	if !ok {
		log.Printf("[config] strategy %q tidak dikenal, pakai %s", name, queue.DefaultStrategyName)
		strategy, _ = queue.StrategyByName(queue.DefaultStrategyName)
	}

	log.Println("Strategy antrian aktif:", strategy.Name())
	return strategy
}
