package handler

import (
	"context"
	"time"

	"go-inventory-ledger/internal/cache"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/ws"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SystemHandler struct {
	db    *gorm.DB
	cache cache.Cache
	hub   *ws.Hub
}

func NewSystemHandler(db *gorm.DB, c cache.Cache, hub *ws.Hub) *SystemHandler {
	return &SystemHandler{db: db, cache: c, hub: hub}
}

// Health pings the database and cache. Only the database is fatal.
// GET /health
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	checks := fiber.Map{"database": "ok", "cache": "ok"}

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		checks["database"] = err.Error()
		status = fiber.StatusServiceUnavailable
	}
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			checks["cache"] = err.Error()
		}
	}

	body := fiber.Map{"status": "ok", "checks": checks, "time": time.Now().UTC()}
	if status != fiber.StatusOK {
		body["status"] = "degraded"
	}
	if h.hub != nil {
		body["ws_clients"] = h.hub.ClientCount()
	}
	return c.Status(status).JSON(body)
}

// GetPrivileges lists the privilege codes routes are guarded by
// GET /api/v1/privileges
func (h *SystemHandler) GetPrivileges(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": model.DefaultPrivileges})
}
