package handler

import (
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type LocationHandler struct {
	service   service.LocationService
	inventory service.InventoryQueryService
	history   service.TransactionQueryService
	paging    service.PageLimits
}

func NewLocationHandler(s service.LocationService, inv service.InventoryQueryService, history service.TransactionQueryService, paging service.PageLimits) *LocationHandler {
	return &LocationHandler{service: s, inventory: inv, history: history, paging: paging}
}

// CreateLocation
// POST /api/v1/locations
func (h *LocationHandler) CreateLocation(c *fiber.Ctx) error {
	var req service.CreateLocationRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	location, err := h.service.Create(c.UserContext(), req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Location created", "data": location})
}

// GetLocations
// GET /api/v1/locations?is_active=&warehouse_type=&skip=&limit=
func (h *LocationHandler) GetLocations(c *fiber.Ctx) error {
	page, err := queryPage(c, h.paging)
	if err != nil {
		return respondError(c, err)
	}
	active, err := queryBool(c, "is_active")
	if err != nil {
		return respondError(c, err)
	}
	locations, total, err := h.service.List(c.UserContext(), repository.LocationFilter{
		IsActive:      active,
		WarehouseType: c.Query("warehouse_type"),
		Page:          page,
	})
	if err != nil {
		return respondError(c, err)
	}
	return list(c, locations, total, page)
}

func (h *LocationHandler) GetLocation(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	location, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(location)
}

func (h *LocationHandler) GetLocationByName(c *fiber.Ctx) error {
	location, err := h.service.GetByName(c.UserContext(), c.Params("name"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(location)
}

func (h *LocationHandler) GetLocationByCode(c *fiber.Ctx) error {
	location, err := h.service.GetByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(location)
}

// GetLocationInventory returns stock totals and valuation for a location
// GET /api/v1/locations/:id/inventory
func (h *LocationHandler) GetLocationInventory(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	summary, err := h.service.InventorySummary(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GetLocationActivity
// GET /api/v1/locations/:id/activity?days=30
func (h *LocationHandler) GetLocationActivity(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	days, err := queryInt(c, "days", 30)
	if err != nil {
		return respondError(c, err)
	}
	activity, err := h.service.Activity(c.UserContext(), id, days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(activity)
}

func (h *LocationHandler) GetLocationTransactions(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return respondError(c, err)
	}
	rows, err := h.history.LocationHistory(c.UserContext(), id, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": rows})
}

func (h *LocationHandler) GetStatistics(c *fiber.Ctx) error {
	stats, err := h.service.Statistics(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *LocationHandler) GetWarehouseTypes(c *fiber.Ctx) error {
	types, err := h.service.WarehouseTypes(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": types})
}

func (h *LocationHandler) GetEmptyLocations(c *fiber.Ctx) error {
	locations, err := h.service.Empty(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": locations})
}

// GetLowActivityLocations
// GET /api/v1/locations/low-activity?days=30&min_transactions=5
func (h *LocationHandler) GetLowActivityLocations(c *fiber.Ctx) error {
	days, err := queryInt(c, "days", 30)
	if err != nil {
		return respondError(c, err)
	}
	minTx, err := queryInt(c, "min_transactions", 5)
	if err != nil {
		return respondError(c, err)
	}
	locations, err := h.service.LowActivity(c.UserContext(), days, minTx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": locations})
}

// UpdateLocation
// PUT /api/v1/locations/:id
func (h *LocationHandler) UpdateLocation(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req service.UpdateLocationRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	location, err := h.service.Update(c.UserContext(), id, req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Location updated", "data": location})
}

// DeactivateLocation
// DELETE /api/v1/locations/:id
func (h *LocationHandler) DeactivateLocation(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Deactivate(c.UserContext(), id, getUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Location deactivated"})
}

// DeleteLocation
// DELETE /api/v1/locations/:id/permanent
func (h *LocationHandler) DeleteLocation(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeletePermanently(c.UserContext(), id, getUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Location permanently deleted"})
}
