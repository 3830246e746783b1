package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxIn         TransactionType = "IN"
	TxOut        TransactionType = "OUT"
	TxTransfer   TransactionType = "TRANSFER"
	TxAdjustment TransactionType = "ADJUSTMENT"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxIn, TxOut, TxTransfer, TxAdjustment:
		return true
	}
	return false
}

var ErrTransactionImmutable = errors.New("transactions are append-only")

// Transaction is an immutable ledger movement.
//
// IN and OUT store a positive magnitude. ADJUSTMENT stores the signed delta,
// and each TRANSFER leg stores the signed delta applied at its own location
// (negative at the source, positive at the destination). Both transfer legs
// share TransferID and ReferenceNumber.
type Transaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	LocationID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:ux_transactions_idempotency" json:"location_id"`
	Product         *Product        `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Location        *Location       `gorm:"constraint:OnDelete:RESTRICT" json:"location,omitempty"`
	TransactionType TransactionType `gorm:"type:varchar(20);not null;index" json:"transaction_type"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	QuantityAfter   int             `gorm:"not null" json:"quantity_after"`
	ReferenceNumber string          `gorm:"type:varchar(100);index" json:"reference_number,omitempty"`
	Notes           string          `gorm:"type:text" json:"notes,omitempty"`
	UserID          string          `gorm:"type:varchar(255)" json:"user_id,omitempty"`
	TransferID      *uuid.UUID      `gorm:"type:uuid;index" json:"transfer_id,omitempty"`
	IdempotencyKey  *string         `gorm:"type:varchar(255);uniqueIndex:ux_transactions_idempotency" json:"-"`
	CreatedAt       time.Time       `gorm:"not null;index" json:"created_at"`
}

// Delta is the effect of the row on quantity_on_hand at its location.
func (t *Transaction) Delta() int {
	if t.TransactionType == TxOut {
		return -t.Quantity
	}
	return t.Quantity
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrTransactionImmutable
}

func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return ErrTransactionImmutable
}
