package repository

import (
	"testing"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepo_DuplicateKeyAtLocationIsConcurrentModification(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepo(db)
	p := createProduct(t, db, "SKU-1")
	l := createLocation(t, db, "L1")

	require.NoError(t, repo.Create(db, keyed(p, l, 5, "po-1")))

	err := repo.Create(db, keyed(p, l, 9, "po-1"))
	assert.ErrorIs(t, err, apperror.ErrConcurrentModification)

	var n int64
	require.NoError(t, db.Model(&model.Transaction{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestTransactionRepo_SameKeyAtAnotherLocationIsAllowed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepo(db)
	p := createProduct(t, db, "SKU-1")
	l1 := createLocation(t, db, "L1")
	l2 := createLocation(t, db, "L2")

	require.NoError(t, repo.Create(db, keyed(p, l1, 5, "po-1")))
	require.NoError(t, repo.Create(db, keyed(p, l2, 7, "po-1")))

	rows, err := repo.FindByIdempotencyKey(db, l2.ID, "po-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, l2.ID, rows[0].LocationID)
	assert.Equal(t, 7, rows[0].Quantity)

	rows, err = repo.FindByIdempotencyKey(db, l1.ID, "po-2")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTransactionRepo_FindByIdempotencyKeyReturnsBothTransferLegs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepo(db)
	p := createProduct(t, db, "SKU-1")
	from := createLocation(t, db, "L1")
	to := createLocation(t, db, "L2")

	transferID := uuid.New()
	now := time.Now().UTC()
	out := keyed(p, from, -4, "move-1")
	out.TransactionType = model.TxTransfer
	out.TransferID = &transferID
	out.CreatedAt = now
	in := keyed(p, to, 4, "move-1")
	in.TransactionType = model.TxTransfer
	in.TransferID = &transferID
	in.CreatedAt = now
	require.NoError(t, repo.Create(db, out, in))

	rows, err := repo.FindByIdempotencyKey(db, from.ID, "move-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, from.ID, rows[0].LocationID)
	assert.Equal(t, to.ID, rows[1].LocationID)
}

func TestTransactionRepo_RowsAreImmutable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepo(db)
	p := createProduct(t, db, "SKU-1")
	l := createLocation(t, db, "L1")

	row := keyed(p, l, 5, "po-1")
	require.NoError(t, repo.Create(db, row))

	err := db.Model(row).Update("quantity", 50).Error
	assert.ErrorIs(t, err, model.ErrTransactionImmutable)
}
