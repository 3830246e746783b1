package service

import (
	"testing"

	"go-inventory-ledger/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformanceScore(t *testing.T) {
	tests := []struct {
		receipts int64
		leadTime int
		want     float64
	}{
		{0, 0, 0},
		{10, 0, 3},
		{50, 0, 5},
		{200, 0, 5},
		{25, 7, 3.4},
		{3, 80, 0.15},
		{1, 14, 1.85},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, performanceScore(tt.receipts, tt.leadTime), "receipts=%d lead=%d", tt.receipts, tt.leadTime)
	}
}

func TestSupplierLifecycle(t *testing.T) {
	f := newFixture(t, defaultLedger())

	sup, err := f.suppliers.Create(bg, CreateSupplierRequest{Name: " Acme ", Email: "ops@acme.test", LeadTimeDays: 7}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", sup.Name)
	assert.True(t, sup.IsActive)

	_, err = f.suppliers.Create(bg, CreateSupplierRequest{Name: "Acme"}, "u1")
	assert.ErrorIs(t, err, apperror.ErrConstraintViolation)

	_, err = f.suppliers.Create(bg, CreateSupplierRequest{Name: "Bad", Email: "nope"}, "u1")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	p, err := f.products.Create(bg, CreateProductRequest{SKU: "A", Name: "A", SupplierID: &sup.ID}, "u1")
	require.NoError(t, err)

	err = f.suppliers.Deactivate(bg, sup.ID, "u1")
	assert.ErrorIs(t, err, apperror.ErrConstraintViolation)

	err = f.suppliers.DeletePermanently(bg, sup.ID, "u1")
	assert.ErrorIs(t, err, apperror.ErrConstraintViolation)

	products, err := f.suppliers.Products(bg, sup.ID, true)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, p.ID, products[0].ID)

	require.NoError(t, f.products.Deactivate(bg, p.ID, "u1"))
	require.NoError(t, f.suppliers.Deactivate(bg, sup.ID, "u1"))

	stored, err := f.suppliers.Get(bg, sup.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	_, err = f.products.Create(bg, CreateProductRequest{SKU: "B", Name: "B", SupplierID: &sup.ID}, "u1")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSupplierPerformanceAndRating(t *testing.T) {
	f := newFixture(t, defaultLedger())
	l := f.location(t, "L1")

	sup, err := f.suppliers.Create(bg, CreateSupplierRequest{Name: "Acme", LeadTimeDays: 14}, "")
	require.NoError(t, err)
	p, err := f.products.Create(bg, CreateProductRequest{SKU: "A", Name: "A", SupplierID: &sup.ID}, "")
	require.NoError(t, err)

	_, err = f.processor.Receipt(bg, ReceiptRequest{ProductID: p.ID, LocationID: l.ID, Quantity: 30})
	require.NoError(t, err)

	perf, err := f.suppliers.Performance(bg, sup.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, perf.TotalProducts)
	assert.Equal(t, 1, perf.ActiveProducts)
	assert.Equal(t, int64(1), perf.TotalReceipts)
	assert.Equal(t, int64(30), perf.TotalQuantityReceived)
	assert.Equal(t, 1.85, perf.PerformanceScore)

	rated, err := f.suppliers.UpdateRating(bg, sup.ID, nil, "")
	require.NoError(t, err)
	require.NotNil(t, rated.PerformanceRating)
	assert.Equal(t, 1.85, *rated.PerformanceRating)

	review, err := f.suppliers.NeedingReview(bg)
	require.NoError(t, err)
	require.Len(t, review, 1)

	rated, err = f.suppliers.UpdateRating(bg, sup.ID, ptr(4.5), "")
	require.NoError(t, err)
	assert.Equal(t, 4.5, *rated.PerformanceRating)

	_, err = f.suppliers.UpdateRating(bg, sup.ID, ptr(6.0), "")
	assert.ErrorIs(t, err, apperror.ErrValidation)

	review, err = f.suppliers.NeedingReview(bg)
	require.NoError(t, err)
	assert.Empty(t, review)

	n, err := f.suppliers.RecomputeRatings(bg, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats, err := f.suppliers.Statistics(bg)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalSuppliers)
	assert.Equal(t, int64(1), stats.ActiveSuppliers)
	assert.Equal(t, 14.0, stats.AverageLeadTimeDays)
	require.Len(t, stats.TopSuppliers, 1)
}

func TestSupplierDeleteUnreferenced(t *testing.T) {
	f := newFixture(t, defaultLedger())
	sup, err := f.suppliers.Create(bg, CreateSupplierRequest{Name: "Gone"}, "")
	require.NoError(t, err)

	require.NoError(t, f.suppliers.DeletePermanently(bg, sup.ID, ""))
	_, err = f.suppliers.Get(bg, sup.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
