package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventPublisher delivers domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Event is implemented by every published payload.
type Event interface {
	EventType() string
	PartitionKey() string
}

// StockMovementRecorded is emitted once per committed Transaction row.
type StockMovementRecorded struct {
	TransactionID   uuid.UUID  `json:"transaction_id"`
	ProductID       uuid.UUID  `json:"product_id"`
	LocationID      uuid.UUID  `json:"location_id"`
	TransactionType string     `json:"transaction_type"`
	Quantity        int        `json:"quantity"`
	QuantityAfter   int        `json:"quantity_after"`
	ReferenceNumber string     `json:"reference_number,omitempty"`
	TransferID      *uuid.UUID `json:"transfer_id,omitempty"`
	UserID          string     `json:"user_id,omitempty"`
	OccurredAt      time.Time  `json:"occurred_at"`
}

func (StockMovementRecorded) EventType() string { return "StockMovementRecorded" }

func (e StockMovementRecorded) PartitionKey() string { return e.ProductID.String() }

// ReservationChanged is emitted after reserve or release.
type ReservationChanged struct {
	Action           string    `json:"action"` // reserved | released
	ProductID        uuid.UUID `json:"product_id"`
	LocationID       uuid.UUID `json:"location_id"`
	Quantity         int       `json:"quantity"`
	QuantityOnHand   int       `json:"quantity_on_hand"`
	ReservedQuantity int       `json:"reserved_quantity"`
	Available        int       `json:"available_quantity"`
	UserID           string    `json:"user_id,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

func (e ReservationChanged) EventType() string {
	if e.Action == "released" {
		return "StockReleased"
	}
	return "StockReserved"
}

func (e ReservationChanged) PartitionKey() string { return e.ProductID.String() }

// CatalogChanged is emitted when products, suppliers or locations change.
type CatalogChanged struct {
	Entity     string    `json:"entity"`
	EntityID   uuid.UUID `json:"entity_id"`
	Action     string    `json:"action"`
	UserID     string    `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (CatalogChanged) EventType() string { return "CatalogChanged" }

func (e CatalogChanged) PartitionKey() string { return e.EntityID.String() }

// LogEventPublisher writes events to the log. Used when no broker is configured.
type LogEventPublisher struct {
	logger *zap.Logger
}

func NewLogEventPublisher(logger *zap.Logger) EventPublisher {
	return &LogEventPublisher{logger: logger}
}

func (p *LogEventPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.Debug("Event published (log only)",
		zap.String("event-type", event.EventType()),
		zap.String("key", event.PartitionKey()),
		zap.Any("event", event),
	)
	return nil
}

func (p *LogEventPublisher) Close() error {
	return nil
}
