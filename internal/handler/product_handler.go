package handler

import (
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service   service.ProductService
	inventory service.InventoryQueryService
	history   service.TransactionQueryService
	paging    service.PageLimits
}

func NewProductHandler(s service.ProductService, inv service.InventoryQueryService, history service.TransactionQueryService, paging service.PageLimits) *ProductHandler {
	return &ProductHandler{service: s, inventory: inv, history: history, paging: paging}
}

// CreateProduct handles product creation
// POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req service.CreateProductRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	product, err := h.service.Create(c.UserContext(), req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

// GetProducts lists products
// GET /api/v1/products?category=&is_active=&supplier_id=&search=&skip=&limit=
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	page, err := queryPage(c, h.paging)
	if err != nil {
		return respondError(c, err)
	}
	active, err := queryBool(c, "is_active")
	if err != nil {
		return respondError(c, err)
	}
	supplierID, err := queryUUID(c, "supplier_id")
	if err != nil {
		return respondError(c, err)
	}

	products, total, err := h.service.List(c.UserContext(), repository.ProductFilter{
		Category:   c.Query("category"),
		IsActive:   active,
		SupplierID: supplierID,
		Search:     c.Query("search"),
		Page:       page,
	})
	if err != nil {
		return respondError(c, err)
	}
	return list(c, products, total, page)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	product, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// GetProductBySKU
// GET /api/v1/products/sku/:sku
func (h *ProductHandler) GetProductBySKU(c *fiber.Ctx) error {
	product, err := h.service.GetBySKU(c.UserContext(), c.Params("sku"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

func (h *ProductHandler) GetCategories(c *fiber.Ctx) error {
	categories, err := h.service.Categories(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": categories})
}

func (h *ProductHandler) GetLowStockProducts(c *fiber.Ctx) error {
	products, err := h.service.LowStock(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": products})
}

// GetProductInventory returns the product's stock across all locations
// GET /api/v1/products/:id/inventory
func (h *ProductHandler) GetProductInventory(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	stock, err := h.inventory.ProductStock(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stock)
}

// GetProductTransactions returns the newest ledger rows of a product
// GET /api/v1/products/:id/transactions?limit=
func (h *ProductHandler) GetProductTransactions(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return respondError(c, err)
	}
	rows, err := h.history.ProductHistory(c.UserContext(), id, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": rows})
}

// UpdateProduct handles partial product updates. SKU cannot change.
// PUT /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req service.UpdateProductRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}

	product, err := h.service.Update(c.UserContext(), id, req, getUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": product})
}

// DeactivateProduct is the soft delete
// DELETE /api/v1/products/:id
func (h *ProductHandler) DeactivateProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.Deactivate(c.UserContext(), id, getUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deactivated"})
}

// DeleteProduct
// DELETE /api/v1/products/:id/permanent
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeletePermanently(c.UserContext(), id, getUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product permanently deleted"})
}
