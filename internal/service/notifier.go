package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go-inventory-ledger/internal/cache"
	"go-inventory-ledger/internal/events"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/ws"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	cacheKeyLowStock = "inventory:low-stock"
	cacheKeySummary  = "inventory:summary"
	cachePattern     = "inventory:*"

	publishTimeout = 10 * time.Second
)

// Notifier runs the post-commit side effects of ledger and catalog changes:
// synchronous cache invalidation, then asynchronous websocket broadcast and
// event publishing.
type Notifier struct {
	hub       *ws.Hub
	publisher events.EventPublisher
	cache     cache.Cache
	logger    *zap.Logger

	// generation is bumped before every invalidation. Cached reads are
	// stamped with it and only served while it is unchanged.
	generation atomic.Uint64
}

func NewNotifier(hub *ws.Hub, publisher events.EventPublisher, c cache.Cache, logger *zap.Logger) *Notifier {
	if publisher == nil {
		publisher = events.NewLogEventPublisher(logger)
	}
	if c == nil {
		c = cache.NopCache{}
	}
	n := &Notifier{hub: hub, publisher: publisher, cache: c, logger: logger}
	// Entries written by an earlier process must not match a fresh counter.
	n.generation.Store(uint64(time.Now().UnixNano()))
	return n
}

// invalidate drops cached ledger reads. It runs before the mutating call
// returns so no caller can observe a pre-commit summary afterwards.
func (n *Notifier) invalidate(ctx context.Context) {
	n.generation.Add(1)
	if err := n.cache.DeletePattern(ctx, cachePattern); err != nil {
		n.logger.Error("cache invalidation failed", zap.Error(err))
	}
}

// Generation identifies the current cache epoch.
func (n *Notifier) Generation() uint64 {
	return n.generation.Load()
}

func (n *Notifier) MovementCommitted(ctx context.Context, rows []model.Transaction, ledger []model.Inventory) {
	n.invalidate(ctx)

	after := map[uuid.UUID]model.Inventory{}
	for _, inv := range ledger {
		after[inv.LocationID] = inv
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		for _, row := range rows {
			ev := events.StockMovementRecorded{
				TransactionID:   row.ID,
				ProductID:       row.ProductID,
				LocationID:      row.LocationID,
				TransactionType: string(row.TransactionType),
				Quantity:        row.Quantity,
				QuantityAfter:   row.QuantityAfter,
				ReferenceNumber: row.ReferenceNumber,
				TransferID:      row.TransferID,
				UserID:          row.UserID,
				OccurredAt:      row.CreatedAt,
			}
			if err := n.publisher.Publish(pubCtx, ev); err != nil {
				n.logger.Error("failed to publish stock movement", zap.String("transaction_id", row.ID.String()), zap.Error(err))
			}

			if n.hub != nil {
				inv := after[row.LocationID]
				n.hub.Publish(map[string]interface{}{
					"type":   "stock_update",
					"action": "transaction_created",
					"transaction": map[string]interface{}{
						"id":               row.ID,
						"transaction_type": row.TransactionType,
						"quantity":         row.Quantity,
						"product_id":       row.ProductID,
						"location_id":      row.LocationID,
						"reference_number": row.ReferenceNumber,
					},
					"inventory": map[string]interface{}{
						"quantity_on_hand":   inv.QuantityOnHand,
						"reserved_quantity":  inv.ReservedQuantity,
						"available_quantity": inv.Available(),
					},
					"user": map[string]interface{}{"id": row.UserID},
					"message": fmt.Sprintf("%s %d at location %s", row.TransactionType, row.Quantity, row.LocationID),
				})
			}
		}
	}()
}

func (n *Notifier) ReservationChanged(ctx context.Context, action string, inv *model.Inventory, quantity int, userID string) {
	n.invalidate(ctx)

	ev := events.ReservationChanged{
		Action:           action,
		ProductID:        inv.ProductID,
		LocationID:       inv.LocationID,
		Quantity:         quantity,
		QuantityOnHand:   inv.QuantityOnHand,
		ReservedQuantity: inv.ReservedQuantity,
		Available:        inv.Available(),
		UserID:           userID,
		OccurredAt:       inv.LastUpdated,
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := n.publisher.Publish(pubCtx, ev); err != nil {
			n.logger.Error("failed to publish reservation change", zap.Error(err))
		}
		if n.hub != nil {
			n.hub.Publish(map[string]interface{}{
				"type":      "stock_update",
				"action":    "reservation_" + action,
				"inventory": ev,
			})
		}
	}()
}

func (n *Notifier) CatalogChanged(ctx context.Context, entity string, id uuid.UUID, action, userID string) {
	n.invalidate(ctx)

	ev := events.CatalogChanged{
		Entity:     entity,
		EntityID:   id,
		Action:     action,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}

	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := n.publisher.Publish(pubCtx, ev); err != nil {
			n.logger.Error("failed to publish catalog change", zap.Error(err))
		}
		if n.hub != nil {
			n.hub.Publish(map[string]interface{}{
				"type":   "catalog_update",
				"action": entity + "_" + action,
				"id":     id,
			})
		}
	}()
}
