package repository

import (
	"testing"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventoryRepo_SaveBumpsVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInventoryRepo(db)
	p := createProduct(t, db, "SKU-1")
	l := createLocation(t, db, "L1")

	inv := &model.Inventory{ProductID: p.ID, LocationID: l.ID, QuantityOnHand: 10}
	require.NoError(t, repo.Create(db, inv))

	inv.QuantityOnHand = 7
	inv.ReservedQuantity = 2
	require.NoError(t, repo.Save(db, inv))
	assert.Equal(t, int64(1), inv.Version)
	assert.Equal(t, 5, inv.AvailableQuantity)

	stored, err := repo.Find(p.ID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.QuantityOnHand)
	assert.Equal(t, 2, stored.ReservedQuantity)
	assert.Equal(t, int64(1), stored.Version)
}

func TestInventoryRepo_SaveWithStaleVersionIsRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInventoryRepo(db)
	p := createProduct(t, db, "SKU-1")
	l := createLocation(t, db, "L1")

	require.NoError(t, repo.Create(db, &model.Inventory{ProductID: p.ID, LocationID: l.ID, QuantityOnHand: 10}))

	first, err := repo.FindForUpdate(db, p.ID, l.ID)
	require.NoError(t, err)
	second, err := repo.FindForUpdate(db, p.ID, l.ID)
	require.NoError(t, err)

	first.QuantityOnHand = 4
	require.NoError(t, repo.Save(db, first))

	second.QuantityOnHand = 99
	err = repo.Save(db, second)
	assert.ErrorIs(t, err, apperror.ErrConcurrentModification)
	assert.Equal(t, int64(0), second.Version)

	stored, err := repo.Find(p.ID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.QuantityOnHand)
	assert.Equal(t, int64(1), stored.Version)
}

func TestInventoryRepo_DuplicateCreateIsConcurrentModification(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInventoryRepo(db)
	p := createProduct(t, db, "SKU-1")
	l := createLocation(t, db, "L1")

	require.NoError(t, repo.Create(db, &model.Inventory{ProductID: p.ID, LocationID: l.ID, QuantityOnHand: 3}))

	err := repo.Create(db, &model.Inventory{ProductID: p.ID, LocationID: l.ID, QuantityOnHand: 8})
	assert.ErrorIs(t, err, apperror.ErrConcurrentModification)

	stored, err := repo.Find(p.ID, l.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.QuantityOnHand)
}

func TestInventoryRepo_FindMissingIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInventoryRepo(db)
	p := createProduct(t, db, "SKU-1")
	l := createLocation(t, db, "L1")

	_, err := repo.Find(p.ID, l.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
