package repository

import (
	"testing"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver:   database.DriverSQLite,
		URL:      ":memory:",
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func createProduct(t *testing.T, db *gorm.DB, sku string) *model.Product {
	t.Helper()
	p := &model.Product{
		SKU:             sku,
		Name:            "Product " + sku,
		UnitCost:        decimal.RequireFromString("1.00"),
		ReorderPoint:    5,
		ReorderQuantity: 20,
		IsActive:        true,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func createLocation(t *testing.T, db *gorm.DB, name string) *model.Location {
	t.Helper()
	l := &model.Location{Name: name, WarehouseType: "warehouse", IsActive: true}
	require.NoError(t, db.Create(l).Error)
	return l
}

func keyed(p *model.Product, l *model.Location, quantity int, key string) *model.Transaction {
	return &model.Transaction{
		ProductID:       p.ID,
		LocationID:      l.ID,
		TransactionType: model.TxIn,
		Quantity:        quantity,
		QuantityAfter:   quantity,
		IdempotencyKey:  &key,
	}
}
