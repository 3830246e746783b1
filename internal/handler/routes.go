package handler

import (
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Product     *ProductHandler
	Supplier    *SupplierHandler
	Location    *LocationHandler
	Inventory   *InventoryHandler
	Transaction *TransactionHandler
	Dashboard   *DashboardHandler
	System      *SystemHandler
}

// RegisterRoutes mounts /health and the authenticated /api/v1 tree.
// limiter may be nil.
func RegisterRoutes(app *fiber.App, h Handlers, auth fiber.Handler, limiter fiber.Handler) {
	app.Get("/health", h.System.Health)

	api := app.Group("/api/v1")
	api.Get("/health", h.System.Health)

	protected := api.Group("", auth)
	if limiter != nil {
		protected.Use(limiter)
	}
	priv := middleware.RequirePrivilege

	protected.Get("/privileges", h.System.GetPrivileges)

	// Dashboard
	protected.Get("/dashboard/stats", priv(model.PrivInventoryView), h.Dashboard.GetDashboardStats)
	protected.Get("/dashboard/stock-movement", priv(model.PrivTransactionView), h.Dashboard.GetStockMovement)

	// Products
	products := protected.Group("/products")
	products.Get("/", priv(model.PrivCatalogView), h.Product.GetProducts)
	products.Get("/categories", priv(model.PrivCatalogView), h.Product.GetCategories)
	products.Get("/low-stock", priv(model.PrivInventoryView), h.Product.GetLowStockProducts)
	products.Get("/sku/:sku", priv(model.PrivCatalogView), h.Product.GetProductBySKU)
	products.Get("/:id", priv(model.PrivCatalogView), h.Product.GetProduct)
	products.Get("/:id/inventory", priv(model.PrivInventoryView), h.Product.GetProductInventory)
	products.Get("/:id/transactions", priv(model.PrivTransactionView), h.Product.GetProductTransactions)
	products.Post("/", priv(model.PrivCatalogManage), h.Product.CreateProduct)
	products.Put("/:id", priv(model.PrivCatalogManage), h.Product.UpdateProduct)
	products.Delete("/:id", priv(model.PrivCatalogManage), h.Product.DeactivateProduct)
	products.Delete("/:id/permanent", priv(model.PrivCatalogDelete), h.Product.DeleteProduct)

	// Suppliers
	suppliers := protected.Group("/suppliers")
	suppliers.Get("/", priv(model.PrivCatalogView), h.Supplier.GetSuppliers)
	suppliers.Get("/statistics", priv(model.PrivCatalogView), h.Supplier.GetStatistics)
	suppliers.Get("/review-needed", priv(model.PrivCatalogView), h.Supplier.GetReviewNeeded)
	suppliers.Post("/performance/recompute", priv(model.PrivCatalogManage), h.Supplier.RecomputeRatings)
	suppliers.Get("/name/:name", priv(model.PrivCatalogView), h.Supplier.GetSupplierByName)
	suppliers.Get("/:id", priv(model.PrivCatalogView), h.Supplier.GetSupplier)
	suppliers.Get("/:id/products", priv(model.PrivCatalogView), h.Supplier.GetSupplierProducts)
	suppliers.Get("/:id/performance", priv(model.PrivCatalogView), h.Supplier.GetSupplierPerformance)
	suppliers.Put("/:id/performance", priv(model.PrivCatalogManage), h.Supplier.UpdateSupplierRating)
	suppliers.Post("/", priv(model.PrivCatalogManage), h.Supplier.CreateSupplier)
	suppliers.Put("/:id", priv(model.PrivCatalogManage), h.Supplier.UpdateSupplier)
	suppliers.Delete("/:id", priv(model.PrivCatalogManage), h.Supplier.DeactivateSupplier)
	suppliers.Delete("/:id/permanent", priv(model.PrivCatalogDelete), h.Supplier.DeleteSupplier)

	// Locations
	locations := protected.Group("/locations")
	locations.Get("/", priv(model.PrivCatalogView), h.Location.GetLocations)
	locations.Get("/statistics", priv(model.PrivCatalogView), h.Location.GetStatistics)
	locations.Get("/warehouse-types", priv(model.PrivCatalogView), h.Location.GetWarehouseTypes)
	locations.Get("/empty", priv(model.PrivInventoryView), h.Location.GetEmptyLocations)
	locations.Get("/low-activity", priv(model.PrivTransactionView), h.Location.GetLowActivityLocations)
	locations.Get("/name/:name", priv(model.PrivCatalogView), h.Location.GetLocationByName)
	locations.Get("/code/:code", priv(model.PrivCatalogView), h.Location.GetLocationByCode)
	locations.Get("/:id", priv(model.PrivCatalogView), h.Location.GetLocation)
	locations.Get("/:id/inventory", priv(model.PrivInventoryView), h.Location.GetLocationInventory)
	locations.Get("/:id/activity", priv(model.PrivTransactionView), h.Location.GetLocationActivity)
	locations.Get("/:id/transactions", priv(model.PrivTransactionView), h.Location.GetLocationTransactions)
	locations.Post("/", priv(model.PrivCatalogManage), h.Location.CreateLocation)
	locations.Put("/:id", priv(model.PrivCatalogManage), h.Location.UpdateLocation)
	locations.Delete("/:id", priv(model.PrivCatalogManage), h.Location.DeactivateLocation)
	locations.Delete("/:id/permanent", priv(model.PrivCatalogDelete), h.Location.DeleteLocation)

	// Inventory
	inventory := protected.Group("/inventory")
	inventory.Get("/", priv(model.PrivInventoryView), h.Inventory.GetInventory)
	inventory.Get("/summary", priv(model.PrivInventoryView), h.Inventory.GetSummary)
	inventory.Get("/low-stock", priv(model.PrivInventoryView), h.Inventory.GetLowStock)
	inventory.Get("/alerts/low-stock", priv(model.PrivInventoryView), h.Inventory.GetLowStockAlerts)
	inventory.Get("/export.xlsx", priv(model.PrivInventoryView), h.Inventory.ExportInventory)
	inventory.Get("/location/:location_id", priv(model.PrivInventoryView), h.Inventory.GetLocationInventory)
	inventory.Get("/:product_id/:location_id", priv(model.PrivInventoryView), h.Inventory.GetInventoryRecord)
	inventory.Put("/:product_id/:location_id", priv(model.PrivInventoryAdjust), h.Inventory.RecountInventory)
	inventory.Post("/:product_id/:location_id/reserve", priv(model.PrivInventoryReserve), h.Inventory.ReserveStock)
	inventory.Post("/:product_id/:location_id/release", priv(model.PrivInventoryReserve), h.Inventory.ReleaseStock)

	// Transactions
	transactions := protected.Group("/transactions")
	transactions.Get("/", priv(model.PrivTransactionView), h.Transaction.GetTransactions)
	transactions.Get("/summary", priv(model.PrivTransactionView), h.Transaction.GetSummary)
	transactions.Get("/movement", priv(model.PrivTransactionView), h.Transaction.GetStockMovement)
	transactions.Get("/:id", priv(model.PrivTransactionView), h.Transaction.GetTransaction)
	transactions.Post("/", priv(model.PrivTransactionCreate), h.Transaction.CreateTransaction)
	transactions.Post("/batch", priv(model.PrivTransactionCreate), h.Transaction.CreateBatch)
	transactions.Post("/receipt", priv(model.PrivTransactionCreate), h.Transaction.CreateReceipt)
	transactions.Post("/shipment", priv(model.PrivTransactionCreate), h.Transaction.CreateShipment)
	transactions.Post("/transfer", priv(model.PrivTransactionCreate), h.Transaction.CreateTransfer)
	transactions.Post("/adjustment", priv(model.PrivInventoryAdjust), h.Transaction.CreateAdjustment)
}
