package handler

import (
	"fmt"
	"time"

	"go-inventory-ledger/internal/export"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	queries      service.InventoryQueryService
	reservations service.ReservationService
	processor    service.TransactionProcessor
	paging       service.PageLimits
}

func NewInventoryHandler(q service.InventoryQueryService, r service.ReservationService, p service.TransactionProcessor, paging service.PageLimits) *InventoryHandler {
	return &InventoryHandler{queries: q, reservations: r, processor: p, paging: paging}
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// GetInventory lists ledger rows
// GET /api/v1/inventory?product_id=&location_id=&skip=&limit=
func (h *InventoryHandler) GetInventory(c *fiber.Ctx) error {
	page, err := queryPage(c, h.paging)
	if err != nil {
		return respondError(c, err)
	}
	productID, err := queryUUID(c, "product_id")
	if err != nil {
		return respondError(c, err)
	}
	locationID, err := queryUUID(c, "location_id")
	if err != nil {
		return respondError(c, err)
	}

	rows, total, err := h.queries.List(c.UserContext(), repository.InventoryFilter{
		ProductID:  productID,
		LocationID: locationID,
		Page:       page,
	})
	if err != nil {
		return respondError(c, err)
	}
	return list(c, rows, total, page)
}

func (h *InventoryHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.queries.Summary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GetLowStock returns rows at or below their product's reorder point
// GET /api/v1/inventory/low-stock
func (h *InventoryHandler) GetLowStock(c *fiber.Ctx) error {
	rows, err := h.queries.ListLowStock(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": rows})
}

func (h *InventoryHandler) GetLowStockAlerts(c *fiber.Ctx) error {
	alerts, err := h.queries.LowStockAlerts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": alerts, "total": len(alerts)})
}

// ExportInventory streams every ledger row as an XLSX workbook
// GET /api/v1/inventory/export.xlsx
func (h *InventoryHandler) ExportInventory(c *fiber.Ctx) error {
	rows, err := h.queries.ExportRows(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	data, err := export.InventoryWorkbook(rows)
	if err != nil {
		return respondError(c, err)
	}

	filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}

func (h *InventoryHandler) GetLocationInventory(c *fiber.Ctx) error {
	locationID, err := paramUUID(c, "location_id")
	if err != nil {
		return respondError(c, err)
	}
	rows, err := h.queries.ListByLocation(c.UserContext(), locationID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": rows})
}

// GetInventoryRecord
// GET /api/v1/inventory/:product_id/:location_id
func (h *InventoryHandler) GetInventoryRecord(c *fiber.Ctx) error {
	productID, locationID, err := pairParams(c)
	if err != nil {
		return respondError(c, err)
	}
	inv, err := h.queries.Get(c.UserContext(), productID, locationID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}

// RecountInventory sets on hand to a counted value, recorded as an ADJUSTMENT
// PUT /api/v1/inventory/:product_id/:location_id
func (h *InventoryHandler) RecountInventory(c *fiber.Ctx) error {
	productID, locationID, err := pairParams(c)
	if err != nil {
		return respondError(c, err)
	}
	var req service.RecountRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	req.ProductID = productID
	req.LocationID = locationID
	req.UserID = getUserID(c)
	if req.IdempotencyKey, err = idempotencyKey(c); err != nil {
		return respondError(c, err)
	}
	if err := validator.Validate(&req); err != nil {
		return respondError(c, err)
	}

	result, err := h.processor.Recount(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Inventory recounted", "data": result})
}

// ReserveStock
// POST /api/v1/inventory/:product_id/:location_id/reserve
func (h *InventoryHandler) ReserveStock(c *fiber.Ctx) error {
	productID, locationID, err := pairParams(c)
	if err != nil {
		return respondError(c, err)
	}
	var req quantityRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	inv, err := h.reservations.Reserve(c.UserContext(), productID, locationID, req.Quantity, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock reserved", "data": inv})
}

// ReleaseStock
// POST /api/v1/inventory/:product_id/:location_id/release
func (h *InventoryHandler) ReleaseStock(c *fiber.Ctx) error {
	productID, locationID, err := pairParams(c)
	if err != nil {
		return respondError(c, err)
	}
	var req quantityRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	inv, err := h.reservations.Release(c.UserContext(), productID, locationID, req.Quantity, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock released", "data": inv})
}

func pairParams(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	productID, err := paramUUID(c, "product_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	locationID, err := paramUUID(c, "location_id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return productID, locationID, nil
}
