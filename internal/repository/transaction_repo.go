package repository

import (
	"errors"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Quantity moved into / out of a location, whatever the sign convention of the type.
const (
	inboundExpr  = "CASE WHEN transaction_type = 'IN' THEN quantity WHEN transaction_type IN ('TRANSFER', 'ADJUSTMENT') AND quantity > 0 THEN quantity ELSE 0 END"
	outboundExpr = "CASE WHEN transaction_type = 'OUT' THEN quantity WHEN transaction_type IN ('TRANSFER', 'ADJUSTMENT') AND quantity < 0 THEN -quantity ELSE 0 END"
)

type TransactionFilter struct {
	ProductID       *uuid.UUID
	LocationID      *uuid.UUID
	Type            model.TransactionType
	ReferenceNumber string
	StartDate       *time.Time
	EndDate         *time.Time
	Page
}

// TypeTotals aggregates ledger rows of one transaction type.
type TypeTotals struct {
	TransactionType model.TransactionType `json:"transaction_type"`
	Count           int64                 `json:"count"`
	QuantityIn      int64                 `json:"quantity_in"`
	QuantityOut     int64                 `json:"quantity_out"`
}

// StockMovementData is one day of the movement chart
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// ProductReceipts counts IN rows for a set of products.
type ProductReceipts struct {
	Receipts         int64 `json:"total_receipts"`
	QuantityReceived int64 `json:"total_quantity_received"`
}

// TransactionRepository is append-only: there is no update or delete.
type TransactionRepository interface {
	Create(tx *gorm.DB, rows ...*model.Transaction) error
	FindByIdempotencyKey(tx *gorm.DB, locationID uuid.UUID, key string) ([]model.Transaction, error)
	FindByID(id uuid.UUID) (*model.Transaction, error)
	FindAll(filter TransactionFilter) ([]model.Transaction, int64, error)
	FindRecent(column string, id uuid.UUID, limit int) ([]model.Transaction, error)
	FindSince(locationID uuid.UUID, since time.Time) ([]model.Transaction, error)
	Summary(filter TransactionFilter) ([]TypeTotals, error)
	GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error)
	Receipts(productIDs []uuid.UUID) (*ProductReceipts, error)
	CountBy(tx *gorm.DB, column string, id uuid.UUID) (int64, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) Create(tx *gorm.DB, rows ...*model.Transaction) error {
	for _, row := range rows {
		if err := tx.Omit("Product", "Location").Create(row).Error; err != nil {
			// A duplicate idempotency key means a concurrent request with the
			// same key committed first; the caller retries and gets a replay.
			if row.IdempotencyKey != nil && (errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err)) {
				return apperror.ConcurrentModification("idempotency key " + *row.IdempotencyKey + " is already in use")
			}
			return translateError(err, "transaction")
		}
	}
	return nil
}

// FindByIdempotencyKey matches the (location_id, idempotency_key) unique
// index. A transfer leg found at the location brings its sibling leg along.
func (r *transactionRepo) FindByIdempotencyKey(tx *gorm.DB, locationID uuid.UUID, key string) ([]model.Transaction, error) {
	var rows []model.Transaction
	err := tx.Where("location_id = ? AND idempotency_key = ?", locationID, key).
		Order("created_at ASC, quantity ASC").Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "transaction")
	}

	var transferIDs []uuid.UUID
	for _, row := range rows {
		if row.TransferID != nil {
			transferIDs = append(transferIDs, *row.TransferID)
		}
	}
	if len(transferIDs) == 0 {
		return rows, nil
	}

	var legs []model.Transaction
	err = tx.Where("idempotency_key = ? AND (location_id = ? OR transfer_id IN ?)", key, locationID, transferIDs).
		Order("created_at ASC, quantity ASC").Find(&legs).Error
	return legs, translateError(err, "transaction")
}

func (r *transactionRepo) FindByID(id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.Preload("Product").Preload("Location").First(&transaction, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err, "transaction")
	}
	return &transaction, nil
}

func (r *transactionRepo) filtered(filter TransactionFilter) *gorm.DB {
	q := r.db.Model(&model.Transaction{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.LocationID != nil {
		q = q.Where("location_id = ?", *filter.LocationID)
	}
	if filter.Type != "" {
		q = q.Where("transaction_type = ?", filter.Type)
	}
	if filter.ReferenceNumber != "" {
		q = q.Where("reference_number = ?", filter.ReferenceNumber)
	}
	if filter.StartDate != nil {
		q = q.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("created_at <= ?", *filter.EndDate)
	}
	return q
}

func (r *transactionRepo) FindAll(filter TransactionFilter) ([]model.Transaction, int64, error) {
	var total int64
	if err := r.filtered(filter).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "transaction")
	}

	var rows []model.Transaction
	err := filter.Page.apply(r.filtered(filter)).
		Preload("Product").Preload("Location").
		Order("created_at DESC, id ASC").
		Find(&rows).Error
	return rows, total, translateError(err, "transaction")
}

// FindRecent returns the newest rows for a product_id or location_id.
func (r *transactionRepo) FindRecent(column string, id uuid.UUID, limit int) ([]model.Transaction, error) {
	var rows []model.Transaction
	err := r.db.
		Where(column+" = ?", id).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, translateError(err, "transaction")
}

func (r *transactionRepo) FindSince(locationID uuid.UUID, since time.Time) ([]model.Transaction, error) {
	var rows []model.Transaction
	err := r.db.
		Where("location_id = ? AND created_at >= ?", locationID, since).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, translateError(err, "transaction")
}

func (r *transactionRepo) Summary(filter TransactionFilter) ([]TypeTotals, error) {
	var totals []TypeTotals
	err := r.filtered(filter).
		Select("transaction_type, COUNT(*) AS count, " +
			"COALESCE(SUM(" + inboundExpr + "), 0) AS quantity_in, " +
			"COALESCE(SUM(" + outboundExpr + "), 0) AS quantity_out").
		Group("transaction_type").
		Order("transaction_type ASC").
		Scan(&totals).Error
	return totals, translateError(err, "transaction")
}

// GetStockMovement buckets inbound/outbound units per UTC day. Bucketing
// happens here rather than in SQL so the date format is the same on every driver.
func (r *transactionRepo) GetStockMovement(startDate, endDate time.Time) ([]StockMovementData, error) {
	var rows []model.Transaction
	err := r.db.
		Select("transaction_type", "quantity", "created_at").
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "transaction")
	}

	results := []StockMovementData{}
	index := map[string]int{}
	for _, row := range rows {
		day := row.CreatedAt.UTC().Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			results = append(results, StockMovementData{Date: day})
			i = len(results) - 1
			index[day] = i
		}
		if d := row.Delta(); d > 0 {
			results[i].Inbound += d
		} else {
			results[i].Outbound -= d
		}
	}

	return results, nil
}

func (r *transactionRepo) Receipts(productIDs []uuid.UUID) (*ProductReceipts, error) {
	out := &ProductReceipts{}
	if len(productIDs) == 0 {
		return out, nil
	}
	err := r.db.Model(&model.Transaction{}).
		Select("COUNT(*) AS receipts, COALESCE(SUM(quantity), 0) AS quantity_received").
		Where("product_id IN ? AND transaction_type = ?", productIDs, model.TxIn).
		Scan(out).Error
	return out, translateError(err, "transaction")
}

func (r *transactionRepo) CountBy(tx *gorm.DB, column string, id uuid.UUID) (int64, error) {
	var n int64
	err := tx.Model(&model.Transaction{}).Where(column+" = ?", id).Count(&n).Error
	return n, translateError(err, "transaction")
}
