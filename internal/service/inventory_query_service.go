package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go-inventory-ledger/internal/cache"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const cacheKeyAlerts = "inventory:low-stock-alerts"

// LocationAvailability is one location line of a low-stock alert.
type LocationAvailability struct {
	LocationID   uuid.UUID `json:"location_id"`
	LocationName string    `json:"location_name"`
	OnHand       int       `json:"quantity_on_hand"`
	Available    int       `json:"available"`
}

// LowStockAlert aggregates the low-stock rows of one product.
type LowStockAlert struct {
	ProductID        uuid.UUID              `json:"product_id"`
	SKU              string                 `json:"sku"`
	Name             string                 `json:"name"`
	Category         string                 `json:"category,omitempty"`
	ReorderPoint     int                    `json:"reorder_point"`
	ReorderQuantity  int                    `json:"reorder_quantity"`
	CurrentAvailable int                    `json:"current_available"`
	Shortage         int                    `json:"shortage"`
	SupplierID       *uuid.UUID             `json:"supplier_id,omitempty"`
	Locations        []LocationAvailability `json:"locations"`
}

type InventorySummary struct {
	TotalProductsWithStock int             `json:"total_products_with_stock"`
	TotalQuantityOnHand    int             `json:"total_quantity_on_hand"`
	TotalReservedQuantity  int             `json:"total_reserved_quantity"`
	TotalAvailableQuantity int             `json:"total_available_quantity"`
	TotalInventoryValue    decimal.Decimal `json:"total_inventory_value"`
	LowStockProducts       int             `json:"low_stock_products"`
}

// ProductStock is a product's position across all locations.
type ProductStock struct {
	Product        *model.Product    `json:"product"`
	TotalOnHand    int               `json:"total_quantity_on_hand"`
	TotalReserved  int               `json:"total_reserved_quantity"`
	TotalAvailable int               `json:"total_available_quantity"`
	NeedsReorder   bool              `json:"needs_reorder"`
	Locations      []model.Inventory `json:"locations"`
}

// InventoryQueryService is the read model of the ledger.
type InventoryQueryService interface {
	GetAvailable(ctx context.Context, productID, locationID uuid.UUID) (int, error)
	Get(ctx context.Context, productID, locationID uuid.UUID) (*model.Inventory, error)
	List(ctx context.Context, filter repository.InventoryFilter) ([]model.Inventory, int64, error)
	ListByLocation(ctx context.Context, locationID uuid.UUID) ([]model.Inventory, error)
	ListLowStock(ctx context.Context) ([]model.Inventory, error)
	LowStockAlerts(ctx context.Context) ([]LowStockAlert, error)
	Summary(ctx context.Context) (*InventorySummary, error)
	ProductStock(ctx context.Context, productID uuid.UUID) (*ProductStock, error)
	ExportRows(ctx context.Context) ([]model.Inventory, error)
}

type inventoryQueryService struct {
	inventoryRepo repository.InventoryRepository
	productRepo   repository.ProductRepository
	locationRepo  repository.LocationRepository
	cache         cache.Cache
	notifier      *Notifier
	group         singleflight.Group
	paging        PageLimits
	logger        *zap.Logger
}

func NewInventoryQueryService(
	iRepo repository.InventoryRepository,
	pRepo repository.ProductRepository,
	lRepo repository.LocationRepository,
	c cache.Cache,
	notifier *Notifier,
	paging PageLimits,
	logger *zap.Logger,
) InventoryQueryService {
	if c == nil {
		c = cache.NopCache{}
	}
	return &inventoryQueryService{
		inventoryRepo: iRepo,
		productRepo:   pRepo,
		locationRepo:  lRepo,
		cache:         c,
		notifier:      notifier,
		paging:        paging,
		logger:        logger,
	}
}

// GetAvailable is on_hand - reserved, or 0 when the pair has no row.
func (s *inventoryQueryService) GetAvailable(ctx context.Context, productID, locationID uuid.UUID) (int, error) {
	inv, err := s.inventoryRepo.Find(productID, locationID)
	if errors.Is(err, apperror.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return inv.Available(), nil
}

func (s *inventoryQueryService) Get(ctx context.Context, productID, locationID uuid.UUID) (*model.Inventory, error) {
	inv, err := s.inventoryRepo.Find(productID, locationID)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.NotFound("inventory", productID.String()+"/"+locationID.String())
	}
	return inv, err
}

func (s *inventoryQueryService) List(ctx context.Context, filter repository.InventoryFilter) ([]model.Inventory, int64, error) {
	page, err := s.paging.Normalize(filter.Page)
	if err != nil {
		return nil, 0, err
	}
	filter.Page = page
	return s.inventoryRepo.FindAll(filter)
}

func (s *inventoryQueryService) ListByLocation(ctx context.Context, locationID uuid.UUID) ([]model.Inventory, error) {
	if _, err := s.locationRepo.FindByID(locationID); err != nil {
		return nil, err
	}
	return s.inventoryRepo.FindByLocation(locationID)
}

// ListLowStock returns rows with on_hand <= reorder_point over active
// product/location pairs.
func (s *inventoryQueryService) ListLowStock(ctx context.Context) ([]model.Inventory, error) {
	return readThrough(ctx, s, cacheKeyLowStock, func() ([]model.Inventory, error) {
		rows, err := s.inventoryRepo.FindLowStock()
		if rows == nil {
			rows = []model.Inventory{}
		}
		return rows, err
	})
}

func (s *inventoryQueryService) LowStockAlerts(ctx context.Context) ([]LowStockAlert, error) {
	return readThrough(ctx, s, cacheKeyAlerts, func() ([]LowStockAlert, error) {
		rows, err := s.inventoryRepo.FindActive()
		if err != nil {
			return nil, err
		}
		return buildAlerts(rows), nil
	})
}

func buildAlerts(rows []model.Inventory) []LowStockAlert {
	byProduct := map[uuid.UUID]*LowStockAlert{}
	low := map[uuid.UUID]bool{}
	var order []uuid.UUID

	for _, inv := range rows {
		p := inv.Product
		if p == nil {
			continue
		}
		alert, ok := byProduct[p.ID]
		if !ok {
			alert = &LowStockAlert{
				ProductID:       p.ID,
				SKU:             p.SKU,
				Name:            p.Name,
				Category:        p.Category,
				ReorderPoint:    p.ReorderPoint,
				ReorderQuantity: p.ReorderQuantity,
				SupplierID:      p.SupplierID,
				Locations:       []LocationAvailability{},
			}
			byProduct[p.ID] = alert
			order = append(order, p.ID)
		}

		available := inv.Available()
		if available < 0 {
			available = 0
		}
		alert.CurrentAvailable += available

		line := LocationAvailability{LocationID: inv.LocationID, OnHand: inv.QuantityOnHand, Available: available}
		if inv.Location != nil {
			line.LocationName = inv.Location.Name
		}
		alert.Locations = append(alert.Locations, line)

		if inv.QuantityOnHand <= p.ReorderPoint {
			low[p.ID] = true
		}
	}

	alerts := []LowStockAlert{}
	for _, id := range order {
		if !low[id] {
			continue
		}
		alert := byProduct[id]
		if shortage := alert.ReorderPoint - alert.CurrentAvailable; shortage > 0 {
			alert.Shortage = shortage
		}
		alerts = append(alerts, *alert)
	}
	return alerts
}

func (s *inventoryQueryService) Summary(ctx context.Context) (*InventorySummary, error) {
	return readThrough(ctx, s, cacheKeySummary, func() (*InventorySummary, error) {
		rows, _, err := s.inventoryRepo.FindAll(repository.InventoryFilter{})
		if err != nil {
			return nil, err
		}
		lowRows, err := s.inventoryRepo.FindLowStock()
		if err != nil {
			return nil, err
		}

		summary := &InventorySummary{TotalInventoryValue: decimal.Zero}
		stocked := map[uuid.UUID]bool{}
		for _, inv := range rows {
			summary.TotalQuantityOnHand += inv.QuantityOnHand
			summary.TotalReservedQuantity += inv.ReservedQuantity
			if a := inv.Available(); a > 0 {
				summary.TotalAvailableQuantity += a
			}
			if inv.QuantityOnHand > 0 {
				stocked[inv.ProductID] = true
				if inv.Product != nil {
					summary.TotalInventoryValue = summary.TotalInventoryValue.Add(
						inv.Product.UnitCost.Mul(decimal.NewFromInt(int64(inv.QuantityOnHand))))
				}
			}
		}
		summary.TotalProductsWithStock = len(stocked)

		lowProducts := map[uuid.UUID]bool{}
		for _, inv := range lowRows {
			lowProducts[inv.ProductID] = true
		}
		summary.LowStockProducts = len(lowProducts)
		return summary, nil
	})
}

func (s *inventoryQueryService) ProductStock(ctx context.Context, productID uuid.UUID) (*ProductStock, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		return nil, err
	}
	rows, err := s.inventoryRepo.FindByProduct(productID)
	if err != nil {
		return nil, err
	}

	stock := &ProductStock{Product: product, Locations: rows}
	for _, inv := range rows {
		stock.TotalOnHand += inv.QuantityOnHand
		stock.TotalReserved += inv.ReservedQuantity
		stock.TotalAvailable += inv.Available()
	}
	stock.NeedsReorder = stock.TotalAvailable <= product.ReorderPoint
	return stock, nil
}

// ExportRows returns every ledger row ordered by SKU then location.
func (s *inventoryQueryService) ExportRows(ctx context.Context) ([]model.Inventory, error) {
	rows, _, err := s.inventoryRepo.FindAll(repository.InventoryFilter{})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Product != nil && b.Product != nil && a.Product.SKU != b.Product.SKU {
			return a.Product.SKU < b.Product.SKU
		}
		if a.Location != nil && b.Location != nil {
			return a.Location.Name < b.Location.Name
		}
		return false
	})
	return rows, nil
}

// cacheEntry stamps a cached value with the generation it was loaded in.
type cacheEntry[T any] struct {
	Generation uint64 `json:"generation"`
	Value      T      `json:"value"`
}

// readThrough serves key from the cache, loading it at most once per key
// and generation. Entries from an older generation are ignored, so a value
// loaded before an invalidation is never served after it, even when its
// write lands after the delete.
func readThrough[T any](ctx context.Context, s *inventoryQueryService, key string, load func() (T, error)) (T, error) {
	gen := s.generation()

	var entry cacheEntry[T]
	hit, err := s.cache.Get(ctx, key, &entry)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit && entry.Generation == gen {
		return entry.Value, nil
	}

	v, err, _ := s.group.Do(fmt.Sprintf("%s#%d", key, gen), func() (interface{}, error) {
		val, err := load()
		if err != nil {
			return nil, err
		}
		if gen == s.generation() {
			if err := s.cache.Set(ctx, key, cacheEntry[T]{Generation: gen, Value: val}); err != nil {
				s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (s *inventoryQueryService) generation() uint64 {
	if s.notifier == nil {
		return 0
	}
	return s.notifier.Generation()
}
