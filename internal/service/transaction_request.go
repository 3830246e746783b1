package service

import (
	"fmt"
	"strings"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
)

// MaxQuantity bounds the magnitude of any single movement.
const MaxQuantity = 1_000_000_000

// LedgerConfig holds the ledger policy switches.
type LedgerConfig struct {
	AllowNegativeInventory     bool
	AutoCreateInventoryRecords bool
}

// RequestMeta is carried by every ledger request.
type RequestMeta struct {
	ReferenceNumber string `json:"reference_number" validate:"max=100"`
	UserID          string `json:"-"`
	IdempotencyKey  string `json:"-"`
}

func (m *RequestMeta) meta() *RequestMeta { return m }

// TransactionRequest is one of ReceiptRequest, ShipmentRequest,
// TransferRequest, AdjustmentRequest or RecountRequest.
type TransactionRequest interface {
	Kind() model.TransactionType
	meta() *RequestMeta
	check() error
	// keyLocation scopes the idempotency key: the source for a transfer.
	keyLocation() uuid.UUID
}

type ReceiptRequest struct {
	ProductID  uuid.UUID `json:"product_id"`
	LocationID uuid.UUID `json:"location_id"`
	Quantity   int       `json:"quantity"`
	Notes      string    `json:"notes"`
	RequestMeta
}

type ShipmentRequest struct {
	ProductID  uuid.UUID `json:"product_id"`
	LocationID uuid.UUID `json:"location_id"`
	Quantity   int       `json:"quantity"`
	Notes      string    `json:"notes"`
	RequestMeta
}

type TransferRequest struct {
	ProductID      uuid.UUID `json:"product_id"`
	FromLocationID uuid.UUID `json:"from_location_id"`
	ToLocationID   uuid.UUID `json:"to_location_id"`
	Quantity       int       `json:"quantity"`
	Notes          string    `json:"notes"`
	RequestMeta
}

// AdjustmentRequest applies a signed correction to on_hand.
type AdjustmentRequest struct {
	ProductID  uuid.UUID `json:"product_id"`
	LocationID uuid.UUID `json:"location_id"`
	Quantity   int       `json:"adjustment_quantity"`
	Reason     string    `json:"reason"`
	RequestMeta
}

// RecountRequest sets on_hand to a physically counted value. It is recorded
// as an ADJUSTMENT of the difference computed under the row lock.
type RecountRequest struct {
	ProductID       uuid.UUID `json:"-"`
	LocationID      uuid.UUID `json:"-"`
	CountedQuantity int       `json:"counted_quantity"`
	Reason          string    `json:"reason"`
	RequestMeta
}

func (*ReceiptRequest) Kind() model.TransactionType    { return model.TxIn }
func (*ShipmentRequest) Kind() model.TransactionType   { return model.TxOut }
func (*TransferRequest) Kind() model.TransactionType   { return model.TxTransfer }
func (*AdjustmentRequest) Kind() model.TransactionType { return model.TxAdjustment }
func (*RecountRequest) Kind() model.TransactionType    { return model.TxAdjustment }

func (r *ReceiptRequest) keyLocation() uuid.UUID    { return r.LocationID }
func (r *ShipmentRequest) keyLocation() uuid.UUID   { return r.LocationID }
func (r *TransferRequest) keyLocation() uuid.UUID   { return r.FromLocationID }
func (r *AdjustmentRequest) keyLocation() uuid.UUID { return r.LocationID }
func (r *RecountRequest) keyLocation() uuid.UUID    { return r.LocationID }

func (r *ReceiptRequest) check() error {
	if err := requireIDs(r.ProductID, r.LocationID); err != nil {
		return err
	}
	return positiveQuantity(r.Quantity)
}

func (r *ShipmentRequest) check() error {
	if err := requireIDs(r.ProductID, r.LocationID); err != nil {
		return err
	}
	return positiveQuantity(r.Quantity)
}

func (r *TransferRequest) check() error {
	if err := requireIDs(r.ProductID, r.FromLocationID); err != nil {
		return err
	}
	if r.ToLocationID == uuid.Nil {
		return apperror.InvalidTransaction("to_location_id is required")
	}
	if r.FromLocationID == r.ToLocationID {
		return apperror.InvalidTransaction("source and destination locations must differ")
	}
	return positiveQuantity(r.Quantity)
}

func (r *AdjustmentRequest) check() error {
	if err := requireIDs(r.ProductID, r.LocationID); err != nil {
		return err
	}
	if r.Quantity == 0 {
		return apperror.InvalidTransaction("adjustment quantity cannot be zero")
	}
	if r.Quantity > MaxQuantity || r.Quantity < -MaxQuantity {
		return apperror.InvalidTransaction(fmt.Sprintf("quantity exceeds %d", MaxQuantity))
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return apperror.InvalidTransaction("adjustment reason is required")
	}
	return nil
}

func (r *RecountRequest) check() error {
	if err := requireIDs(r.ProductID, r.LocationID); err != nil {
		return err
	}
	if r.CountedQuantity < 0 {
		return apperror.InvalidTransaction("counted quantity cannot be negative")
	}
	if r.CountedQuantity > MaxQuantity {
		return apperror.InvalidTransaction(fmt.Sprintf("quantity exceeds %d", MaxQuantity))
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return apperror.InvalidTransaction("recount reason is required")
	}
	return nil
}

func requireIDs(productID, locationID uuid.UUID) error {
	if productID == uuid.Nil {
		return apperror.InvalidTransaction("product_id is required")
	}
	if locationID == uuid.Nil {
		return apperror.InvalidTransaction("location_id is required")
	}
	return nil
}

func positiveQuantity(q int) error {
	if q <= 0 {
		return apperror.InvalidTransaction("quantity must be positive")
	}
	if q > MaxQuantity {
		return apperror.InvalidTransaction(fmt.Sprintf("quantity exceeds %d", MaxQuantity))
	}
	return nil
}

// TransactionEnvelope is the generic wire form used by POST /transactions
// and the batch endpoint. For TRANSFER, location_id is the source.
type TransactionEnvelope struct {
	TransactionType model.TransactionType `json:"transaction_type" validate:"required"`
	ProductID       uuid.UUID             `json:"product_id"`
	LocationID      uuid.UUID             `json:"location_id"`
	ToLocationID    *uuid.UUID            `json:"to_location_id"`
	Quantity        int                   `json:"quantity"`
	Reason          string                `json:"reason"`
	Notes           string                `json:"notes"`
	ReferenceNumber string                `json:"reference_number" validate:"max=100"`
}

// Request converts the envelope into its typed request.
func (e TransactionEnvelope) Request(userID, idempotencyKey string) (TransactionRequest, error) {
	meta := RequestMeta{
		ReferenceNumber: strings.TrimSpace(e.ReferenceNumber),
		UserID:          userID,
		IdempotencyKey:  idempotencyKey,
	}

	switch model.TransactionType(strings.ToUpper(string(e.TransactionType))) {
	case model.TxIn:
		return &ReceiptRequest{ProductID: e.ProductID, LocationID: e.LocationID, Quantity: e.Quantity, Notes: e.Notes, RequestMeta: meta}, nil
	case model.TxOut:
		return &ShipmentRequest{ProductID: e.ProductID, LocationID: e.LocationID, Quantity: e.Quantity, Notes: e.Notes, RequestMeta: meta}, nil
	case model.TxTransfer:
		if e.ToLocationID == nil {
			return nil, apperror.InvalidTransaction("to_location_id is required for TRANSFER")
		}
		return &TransferRequest{ProductID: e.ProductID, FromLocationID: e.LocationID, ToLocationID: *e.ToLocationID, Quantity: e.Quantity, Notes: e.Notes, RequestMeta: meta}, nil
	case model.TxAdjustment:
		reason := e.Reason
		if strings.TrimSpace(reason) == "" {
			reason = e.Notes
		}
		return &AdjustmentRequest{ProductID: e.ProductID, LocationID: e.LocationID, Quantity: e.Quantity, Reason: reason, RequestMeta: meta}, nil
	}
	return nil, apperror.InvalidTransaction(fmt.Sprintf("unknown transaction type %q", e.TransactionType))
}
