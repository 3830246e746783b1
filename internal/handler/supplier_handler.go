package handler

import (
	"strconv"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

type SupplierHandler struct {
	service service.SupplierService
	paging  service.PageLimits
}

func NewSupplierHandler(s service.SupplierService, paging service.PageLimits) *SupplierHandler {
	return &SupplierHandler{service: s, paging: paging}
}

// CreateSupplier
// POST /api/v1/suppliers
func (h *SupplierHandler) CreateSupplier(c *fiber.Ctx) error {
	var req service.CreateSupplierRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	supplier, err := h.service.Create(c.UserContext(), req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Supplier created", "data": supplier})
}

// GetSuppliers
// GET /api/v1/suppliers?is_active=&min_rating=&skip=&limit=
func (h *SupplierHandler) GetSuppliers(c *fiber.Ctx) error {
	page, err := queryPage(c, h.paging)
	if err != nil {
		return respondError(c, err)
	}
	active, err := queryBool(c, "is_active")
	if err != nil {
		return respondError(c, err)
	}
	filter := repository.SupplierFilter{IsActive: active, Page: page}
	if raw := c.Query("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil || rating < 0 || rating > 5 {
			return respondError(c, apperror.Validation("min_rating must be between 0 and 5", "min_rating"))
		}
		filter.MinRating = &rating
	}

	suppliers, total, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return list(c, suppliers, total, page)
}

func (h *SupplierHandler) GetSupplier(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	supplier, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(supplier)
}

func (h *SupplierHandler) GetSupplierByName(c *fiber.Ctx) error {
	supplier, err := h.service.GetByName(c.UserContext(), c.Params("name"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(supplier)
}

// GetSupplierProducts
// GET /api/v1/suppliers/:id/products?active_only=true
func (h *SupplierHandler) GetSupplierProducts(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	activeOnly := c.QueryBool("active_only", true)
	products, err := h.service.Products(c.UserContext(), id, activeOnly)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": products})
}

func (h *SupplierHandler) GetSupplierPerformance(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	perf, err := h.service.Performance(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(perf)
}

// UpdateSupplierRating stores a manual rating, or recomputes it when the
// body omits performance_rating.
// PUT /api/v1/suppliers/:id/performance
func (h *SupplierHandler) UpdateSupplierRating(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		PerformanceRating *float64 `json:"performance_rating"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
	}

	supplier, err := h.service.UpdateRating(c.UserContext(), id, req.PerformanceRating, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier rating updated", "data": supplier})
}

// RecomputeRatings
// POST /api/v1/suppliers/performance/recompute
func (h *SupplierHandler) RecomputeRatings(c *fiber.Ctx) error {
	updated, err := h.service.RecomputeRatings(c.UserContext(), getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier ratings recomputed", "updated": updated})
}

func (h *SupplierHandler) GetStatistics(c *fiber.Ctx) error {
	stats, err := h.service.Statistics(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *SupplierHandler) GetReviewNeeded(c *fiber.Ctx) error {
	suppliers, err := h.service.NeedingReview(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": suppliers})
}

// UpdateSupplier
// PUT /api/v1/suppliers/:id
func (h *SupplierHandler) UpdateSupplier(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req service.UpdateSupplierRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	supplier, err := h.service.Update(c.UserContext(), id, req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier updated", "data": supplier})
}

// DeactivateSupplier
// DELETE /api/v1/suppliers/:id
func (h *SupplierHandler) DeactivateSupplier(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Deactivate(c.UserContext(), id, getUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier deactivated"})
}

// DeleteSupplier
// DELETE /api/v1/suppliers/:id/permanent
func (h *SupplierHandler) DeleteSupplier(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeletePermanently(c.UserContext(), id, getUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Supplier permanently deleted"})
}
