package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db       *gorm.DB
	cache    *memCache
	notifier *Notifier

	inventoryRepo   repository.InventoryRepository
	transactionRepo repository.TransactionRepository

	processor    TransactionProcessor
	reservations ReservationService
	queries      InventoryQueryService
	history      TransactionQueryService
	products     ProductService
	suppliers    SupplierService
	locations    LocationService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver:   database.DriverSQLite,
		URL:      ":memory:",
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newFixture(t *testing.T, cfg LedgerConfig) *fixture {
	t.Helper()
	db := setupTestDB(t)
	log := zap.NewNop()

	pRepo := repository.NewProductRepo(db)
	sRepo := repository.NewSupplierRepo(db)
	lRepo := repository.NewLocationRepo(db)
	iRepo := repository.NewInventoryRepo(db)
	tRepo := repository.NewTransactionRepo(db)

	c := newMemCache()
	notifier := NewNotifier(nil, nil, c, log)
	paging := DefaultPageLimits()

	return &fixture{
		db:              db,
		cache:           c,
		notifier:        notifier,
		inventoryRepo:   iRepo,
		transactionRepo: tRepo,
		processor:       NewTransactionProcessor(db, iRepo, tRepo, cfg, notifier, log),
		reservations:    NewReservationService(db, iRepo, notifier, log),
		queries:         NewInventoryQueryService(iRepo, pRepo, lRepo, c, notifier, paging, log),
		history:         NewTransactionQueryService(tRepo, pRepo, lRepo, paging),
		products:        NewProductService(db, pRepo, sRepo, lRepo, iRepo, tRepo, cfg, ProductDefaults{ReorderPoint: 10, ReorderQuantity: 50}, paging, notifier, log),
		suppliers:       NewSupplierService(db, sRepo, pRepo, tRepo, paging, notifier, log),
		locations:       NewLocationService(db, lRepo, iRepo, tRepo, paging, notifier, log),
	}
}

func defaultLedger() LedgerConfig {
	return LedgerConfig{AllowNegativeInventory: false, AutoCreateInventoryRecords: true}
}

func (f *fixture) product(t *testing.T, sku string, reorderPoint int) *model.Product {
	t.Helper()
	p := &model.Product{
		SKU:             sku,
		Name:            "Product " + sku,
		UnitCost:        decimal.RequireFromString("2.50"),
		ReorderPoint:    reorderPoint,
		ReorderQuantity: 50,
		IsActive:        true,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *fixture) location(t *testing.T, name string) *model.Location {
	t.Helper()
	l := &model.Location{Name: name, WarehouseType: "warehouse", IsActive: true}
	require.NoError(t, f.db.Create(l).Error)
	return l
}

// seed provisions a ledger row with the given quantities.
func (f *fixture) seed(t *testing.T, p *model.Product, l *model.Location, onHand, reserved int) {
	t.Helper()
	inv := &model.Inventory{ProductID: p.ID, LocationID: l.ID, QuantityOnHand: onHand, ReservedQuantity: reserved}
	require.NoError(t, f.db.Create(inv).Error)
}

func (f *fixture) row(t *testing.T, p *model.Product, l *model.Location) model.Inventory {
	t.Helper()
	var inv model.Inventory
	require.NoError(t, f.db.Where("product_id = ? AND location_id = ?", p.ID, l.ID).First(&inv).Error)
	return inv
}

func (f *fixture) countTransactions(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Transaction{}).Count(&n).Error)
	return n
}

var bg = context.Background()

// memCache is an in-process cache.Cache that keeps JSON like RedisCache.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	raw, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.deletes++
	return nil
}

func (c *memCache) Ping(ctx context.Context) error { return nil }
func (c *memCache) Close() error                   { return nil }

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func ptr[T any](v T) *T { return &v }

func newID() uuid.UUID { return uuid.New() }
