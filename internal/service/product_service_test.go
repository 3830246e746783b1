package service

import (
	"testing"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductCreate_ProvisionsActiveLocations(t *testing.T) {
	f := newFixture(t, defaultLedger())
	l1 := f.location(t, "L1")
	l2 := f.location(t, "L2")
	require.NoError(t, f.db.Model(l2).Update("is_active", false).Error)

	p, err := f.products.Create(bg, CreateProductRequest{
		SKU:      "  WID-1 ",
		Name:     "Widget",
		UnitCost: decimal.RequireFromString("4.20"),
	}, "u1")
	require.NoError(t, err)

	assert.Equal(t, "WID-1", p.SKU)
	assert.True(t, p.IsActive)
	assert.Equal(t, 10, p.ReorderPoint)
	assert.Equal(t, 50, p.ReorderQuantity)
	assert.Equal(t, "u1", p.CreatedBy)

	var rows []model.Inventory
	require.NoError(t, f.db.Where("product_id = ?", p.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, l1.ID, rows[0].LocationID)
	assert.Equal(t, 0, rows[0].QuantityOnHand)
}

func TestProductCreate_Rejections(t *testing.T) {
	f := newFixture(t, defaultLedger())
	f.product(t, "DUP", 0)

	_, err := f.products.Create(bg, CreateProductRequest{SKU: "DUP", Name: "Again"}, "")
	assert.ErrorIs(t, err, apperror.ErrConstraintViolation)

	_, err = f.products.Create(bg, CreateProductRequest{SKU: "", Name: "No SKU"}, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.products.Create(bg, CreateProductRequest{SKU: "NEG", Name: "Neg", UnitCost: decimal.NewFromInt(-1)}, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	missing := newID()
	_, err = f.products.Create(bg, CreateProductRequest{SKU: "SUP", Name: "Sup", SupplierID: &missing}, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.products.Create(bg, CreateProductRequest{SKU: "RP", Name: "Rp", ReorderPoint: ptr(-1)}, "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestProductUpdate_PartialFields(t *testing.T) {
	f := newFixture(t, defaultLedger())
	p := f.product(t, "A", 5)

	updated, err := f.products.Update(bg, p.ID, UpdateProductRequest{
		Name:         ptr("Renamed"),
		ReorderPoint: ptr(20),
		UnitCost:     decimal.NewNullDecimal(decimal.RequireFromString("9.99")),
	}, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "A", updated.SKU)
	assert.Equal(t, 20, updated.ReorderPoint)
	assert.Equal(t, 50, updated.ReorderQuantity)
	assert.True(t, decimal.RequireFromString("9.99").Equal(updated.UnitCost))

	_, err = f.products.Update(bg, newID(), UpdateProductRequest{Name: ptr("x")}, "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestProductDeactivate_BlocksMovements(t *testing.T) {
	f := newFixture(t, defaultLedger())
	p := f.product(t, "A", 5)
	l := f.location(t, "L1")
	f.seed(t, p, l, 5, 0)

	require.NoError(t, f.products.Deactivate(bg, p.ID, "u1"))

	_, err := f.processor.Receipt(bg, ReceiptRequest{ProductID: p.ID, LocationID: l.ID, Quantity: 1})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransaction)

	stored, err := f.products.Get(bg, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestProductDeletePermanently(t *testing.T) {
	f := newFixture(t, defaultLedger())
	l := f.location(t, "L1")

	t.Run("unused product with empty rows", func(t *testing.T) {
		p, err := f.products.Create(bg, CreateProductRequest{SKU: "FRESH", Name: "Fresh"}, "")
		require.NoError(t, err)

		require.NoError(t, f.products.DeletePermanently(bg, p.ID, ""))
		_, err = f.products.Get(bg, p.ID)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("product with history", func(t *testing.T) {
		p := f.product(t, "USED", 0)
		_, err := f.processor.Receipt(bg, ReceiptRequest{ProductID: p.ID, LocationID: l.ID, Quantity: 1})
		require.NoError(t, err)

		err = f.products.DeletePermanently(bg, p.ID, "")
		assert.ErrorIs(t, err, apperror.ErrConstraintViolation)
	})

	t.Run("unknown product", func(t *testing.T) {
		err := f.products.DeletePermanently(bg, newID(), "")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})
}

func TestProductQueries(t *testing.T) {
	f := newFixture(t, defaultLedger())
	l := f.location(t, "L1")

	_, err := f.products.Create(bg, CreateProductRequest{SKU: "A-1", Name: "Alpha", Category: "tools"}, "")
	require.NoError(t, err)
	_, err = f.products.Create(bg, CreateProductRequest{SKU: "B-1", Name: "Beta", Category: "parts", ReorderPoint: ptr(0)}, "")
	require.NoError(t, err)

	bySKU, err := f.products.GetBySKU(bg, "A-1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", bySKU.Name)

	categories, err := f.products.Categories(bg)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"parts", "tools"}, categories)

	rows, total, err := f.products.List(bg, repository.ProductFilter{Category: "tools"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, rows, 1)

	// Alpha sits at 0 <= 10, Beta at 0 <= 0.
	low, err := f.products.LowStock(bg)
	require.NoError(t, err)
	assert.Len(t, low, 2)

	_, err = f.processor.Receipt(bg, ReceiptRequest{ProductID: bySKU.ID, LocationID: l.ID, Quantity: 11})
	require.NoError(t, err)
	low, err = f.products.LowStock(bg)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "B-1", low[0].SKU)
}
