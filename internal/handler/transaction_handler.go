package handler

import (
	"fmt"
	"strings"

	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/validator"

	"github.com/gofiber/fiber/v2"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxBatchSize         = 100
	// leaves room for the ":<index>" suffix of batch entries
	maxIdempotencyKeyLen = 200
)

type TransactionHandler struct {
	processor service.TransactionProcessor
	history   service.TransactionQueryService
	paging    service.PageLimits
}

func NewTransactionHandler(p service.TransactionProcessor, h service.TransactionQueryService, paging service.PageLimits) *TransactionHandler {
	return &TransactionHandler{processor: p, history: h, paging: paging}
}

// CreateTransaction accepts the generic envelope for any movement type
// POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	var env service.TransactionEnvelope
	if err := parseBody(c, &env); err != nil {
		return respondError(c, err)
	}
	if err := validator.Validate(env); err != nil {
		return respondError(c, err)
	}
	if err := authorizeEnvelope(c, env); err != nil {
		return respondError(c, err)
	}
	key, err := idempotencyKey(c)
	if err != nil {
		return respondError(c, err)
	}
	req, err := env.Request(getUserID(c), key)
	if err != nil {
		return respondError(c, err)
	}
	return h.process(c, req)
}

// CreateBatch applies each entry as its own unit of work, in order. Entry i
// uses "<Idempotency-Key>:i" when the header is present.
// POST /api/v1/transactions/batch
func (h *TransactionHandler) CreateBatch(c *fiber.Ctx) error {
	var body struct {
		Transactions []service.TransactionEnvelope `json:"transactions"`
	}
	if err := parseBody(c, &body); err != nil {
		return respondError(c, err)
	}
	if len(body.Transactions) == 0 {
		return respondError(c, apperror.Validation("transactions must not be empty", "transactions"))
	}
	if len(body.Transactions) > maxBatchSize {
		return respondError(c, apperror.Validation(fmt.Sprintf("at most %d transactions per batch", maxBatchSize), "transactions"))
	}

	for _, env := range body.Transactions {
		if err := authorizeEnvelope(c, env); err != nil {
			return respondError(c, err)
		}
	}
	baseKey, err := idempotencyKey(c)
	if err != nil {
		return respondError(c, err)
	}
	userID := getUserID(c)
	results := make([]service.BatchItemResult, len(body.Transactions))
	var reqs []service.TransactionRequest
	var slots []int

	for i, env := range body.Transactions {
		var req service.TransactionRequest
		key := ""
		if baseKey != "" {
			key = fmt.Sprintf("%s:%d", baseKey, i)
		}
		err := validator.Validate(env)
		if err == nil {
			req, err = env.Request(userID, key)
		}
		if err == nil {
			err = validator.Validate(req)
		}
		if err != nil {
			results[i] = service.BatchItemResult{Index: i, Error: apperror.From(err)}
			continue
		}
		reqs = append(reqs, req)
		slots = append(slots, i)
	}

	for j, item := range h.processor.ProcessBatch(c.UserContext(), reqs) {
		item.Index = slots[j]
		results[slots[j]] = item
	}

	succeeded := 0
	for _, r := range results {
		if r.Error == nil {
			succeeded++
		}
	}
	return c.Status(fiber.StatusMultiStatus).JSON(fiber.Map{
		"results":   results,
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

// CreateReceipt
// POST /api/v1/transactions/receipt
func (h *TransactionHandler) CreateReceipt(c *fiber.Ctx) error {
	var req service.ReceiptRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.stamp(c, &req.RequestMeta); err != nil {
		return respondError(c, err)
	}
	return h.process(c, &req)
}

// CreateShipment
// POST /api/v1/transactions/shipment
func (h *TransactionHandler) CreateShipment(c *fiber.Ctx) error {
	var req service.ShipmentRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.stamp(c, &req.RequestMeta); err != nil {
		return respondError(c, err)
	}
	return h.process(c, &req)
}

// CreateTransfer
// POST /api/v1/transactions/transfer
func (h *TransactionHandler) CreateTransfer(c *fiber.Ctx) error {
	var req service.TransferRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.stamp(c, &req.RequestMeta); err != nil {
		return respondError(c, err)
	}
	return h.process(c, &req)
}

// CreateAdjustment
// POST /api/v1/transactions/adjustment
func (h *TransactionHandler) CreateAdjustment(c *fiber.Ctx) error {
	var req service.AdjustmentRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.stamp(c, &req.RequestMeta); err != nil {
		return respondError(c, err)
	}
	return h.process(c, &req)
}

func (h *TransactionHandler) stamp(c *fiber.Ctx, meta *service.RequestMeta) error {
	key, err := idempotencyKey(c)
	if err != nil {
		return err
	}
	meta.ReferenceNumber = strings.TrimSpace(meta.ReferenceNumber)
	meta.UserID = getUserID(c)
	meta.IdempotencyKey = key
	return nil
}

// authorizeEnvelope applies the per-type privilege the typed routes enforce:
// adjustments need inventory:adjust on top of transaction:create.
func authorizeEnvelope(c *fiber.Ctx, env service.TransactionEnvelope) error {
	if strings.EqualFold(string(env.TransactionType), string(model.TxAdjustment)) &&
		!middleware.HasAnyPrivilege(c, model.PrivInventoryAdjust) {
		return apperror.Forbidden(model.PrivInventoryAdjust)
	}
	return nil
}

// idempotencyKey reads the optional Idempotency-Key header.
func idempotencyKey(c *fiber.Ctx) (string, error) {
	key := strings.TrimSpace(c.Get(headerIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		return "", apperror.Validation(
			fmt.Sprintf("%s must be at most %d characters", headerIdempotencyKey, maxIdempotencyKeyLen), headerIdempotencyKey)
	}
	return key, nil
}

// process answers 201 for a new movement and 200 for an idempotent replay.
func (h *TransactionHandler) process(c *fiber.Ctx, req service.TransactionRequest) error {
	if err := validator.Validate(req); err != nil {
		return respondError(c, err)
	}
	result, err := h.processor.Process(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusCreated
	if result.Replayed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{"message": "Transaction recorded", "data": result})
}

// GetTransactions
// GET /api/v1/transactions?product_id=&location_id=&transaction_type=&reference_number=&start_date=&end_date=&skip=&limit=
func (h *TransactionHandler) GetTransactions(c *fiber.Ctx) error {
	filter, err := transactionFilter(c, h.paging)
	if err != nil {
		return respondError(c, err)
	}
	rows, total, err := h.history.List(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return list(c, rows, total, filter.Page)
}

func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := paramUUID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	tx, err := h.history.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tx)
}

// GetSummary totals quantities by type over the same filters as the list
// GET /api/v1/transactions/summary
func (h *TransactionHandler) GetSummary(c *fiber.Ctx) error {
	filter, err := transactionFilter(c, h.paging)
	if err != nil {
		return respondError(c, err)
	}
	summary, err := h.history.Summary(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GetStockMovement returns daily inbound/outbound units for charts
// GET /api/v1/transactions/movement?days=7
func (h *TransactionHandler) GetStockMovement(c *fiber.Ctx) error {
	days, err := queryInt(c, "days", 7)
	if err != nil {
		return respondError(c, err)
	}
	data, err := h.history.StockMovement(c.UserContext(), days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"period": days, "data": data})
}

func transactionFilter(c *fiber.Ctx, paging service.PageLimits) (repository.TransactionFilter, error) {
	var filter repository.TransactionFilter
	var err error
	if filter.Page, err = queryPage(c, paging); err != nil {
		return filter, err
	}
	if filter.ProductID, err = queryUUID(c, "product_id"); err != nil {
		return filter, err
	}
	if filter.LocationID, err = queryUUID(c, "location_id"); err != nil {
		return filter, err
	}
	if filter.StartDate, err = queryTime(c, "start_date", false); err != nil {
		return filter, err
	}
	if filter.EndDate, err = queryTime(c, "end_date", true); err != nil {
		return filter, err
	}
	filter.Type = model.TransactionType(strings.ToUpper(c.Query("transaction_type")))
	filter.ReferenceNumber = c.Query("reference_number")
	return filter, nil
}
