package service

import (
	"testing"

	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationCreate_UniqueNameAndCode(t *testing.T) {
	f := newFixture(t, defaultLedger())

	loc, err := f.locations.Create(bg, CreateLocationRequest{Name: "Main", Code: " WH1 ", WarehouseType: "warehouse"}, "u1")
	require.NoError(t, err)
	require.NotNil(t, loc.Code)
	assert.Equal(t, "WH1", *loc.Code)

	_, err = f.locations.Create(bg, CreateLocationRequest{Name: "Main"}, "u1")
	assert.ErrorIs(t, err, apperror.ErrConstraintViolation)

	_, err = f.locations.Create(bg, CreateLocationRequest{Name: "Other", Code: "WH1"}, "u1")
	assert.ErrorIs(t, err, apperror.ErrConstraintViolation)

	// Locations without a code do not collide with each other.
	_, err = f.locations.Create(bg, CreateLocationRequest{Name: "Store A"}, "u1")
	require.NoError(t, err)
	_, err = f.locations.Create(bg, CreateLocationRequest{Name: "Store B"}, "u1")
	require.NoError(t, err)

	byCode, err := f.locations.GetByCode(bg, "WH1")
	require.NoError(t, err)
	assert.Equal(t, loc.ID, byCode.ID)

	_, total, err := f.locations.List(bg, repository.LocationFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestLocationDeactivate_RefusesWhileStocked(t *testing.T) {
	f := newFixture(t, defaultLedger())
	p := f.product(t, "A", 0)
	l := f.location(t, "L1")
	f.seed(t, p, l, 3, 0)

	err := f.locations.Deactivate(bg, l.ID, "u1")
	assert.ErrorIs(t, err, apperror.ErrConstraintViolation)

	_, err = f.locations.Update(bg, l.ID, UpdateLocationRequest{IsActive: ptr(false)}, "u1")
	assert.ErrorIs(t, err, apperror.ErrConstraintViolation)

	_, err = f.processor.Shipment(bg, ShipmentRequest{ProductID: p.ID, LocationID: l.ID, Quantity: 3})
	require.NoError(t, err)
	require.NoError(t, f.locations.Deactivate(bg, l.ID, "u1"))

	_, err = f.processor.Receipt(bg, ReceiptRequest{ProductID: p.ID, LocationID: l.ID, Quantity: 1})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransaction)
}

func TestLocationDeletePermanently(t *testing.T) {
	f := newFixture(t, defaultLedger())
	p := f.product(t, "A", 0)
	empty := f.location(t, "Empty")
	used := f.location(t, "Used")
	f.seed(t, p, empty, 0, 0)

	require.NoError(t, f.locations.DeletePermanently(bg, empty.ID, ""))
	_, err := f.locations.Get(bg, empty.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.processor.Receipt(bg, ReceiptRequest{ProductID: p.ID, LocationID: used.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.processor.Shipment(bg, ShipmentRequest{ProductID: p.ID, LocationID: used.ID, Quantity: 2})
	require.NoError(t, err)

	err = f.locations.DeletePermanently(bg, used.ID, "")
	assert.ErrorIs(t, err, apperror.ErrConstraintViolation)
}

func TestLocationInventorySummaryAndActivity(t *testing.T) {
	f := newFixture(t, defaultLedger())
	a := f.product(t, "A", 0)
	b := f.product(t, "B", 0)
	l := f.location(t, "L1")
	other := f.location(t, "L2")

	_, err := f.processor.Receipt(bg, ReceiptRequest{ProductID: a.ID, LocationID: l.ID, Quantity: 10})
	require.NoError(t, err)
	_, err = f.processor.Receipt(bg, ReceiptRequest{ProductID: b.ID, LocationID: l.ID, Quantity: 4})
	require.NoError(t, err)
	_, err = f.processor.Transfer(bg, TransferRequest{ProductID: a.ID, FromLocationID: l.ID, ToLocationID: other.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = f.reservations.Reserve(bg, b.ID, l.ID, 1, "")
	require.NoError(t, err)

	summary, err := f.locations.InventorySummary(bg, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalProducts)
	assert.Equal(t, 11, summary.TotalQuantity)
	assert.Equal(t, 1, summary.TotalReserved)
	assert.Equal(t, 10, summary.TotalAvailable)
	assert.True(t, decimal.RequireFromString("27.5").Equal(summary.TotalValue))

	activity, err := f.locations.Activity(bg, l.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, activity.TotalTransactions)
	assert.Equal(t, 2, activity.InTransactions)
	assert.Equal(t, 1, activity.OutTransactions)
	assert.Equal(t, 14, activity.TotalQuantityIn)
	assert.Equal(t, 3, activity.TotalQuantityOut)
	assert.Equal(t, 11, activity.NetChange)
	assert.Equal(t, 2, activity.TransactionTypes["IN"])
	assert.Equal(t, 1, activity.TransactionTypes["TRANSFER"])

	_, err = f.locations.Activity(bg, l.ID, 400)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestLocationStatistics(t *testing.T) {
	f := newFixture(t, defaultLedger())
	p := f.product(t, "A", 0)
	l1 := f.location(t, "L1")
	l2 := f.location(t, "L2")
	f.seed(t, p, l1, 7, 0)
	require.NoError(t, f.db.Model(l2).Update("is_active", false).Error)

	stats, err := f.locations.Statistics(bg)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalLocations)
	assert.Equal(t, int64(1), stats.ActiveLocations)
	assert.Equal(t, int64(1), stats.InactiveLocations)
	assert.Contains(t, stats.WarehouseTypes, "warehouse")

	_, err = f.locations.LowActivity(bg, 30, 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
