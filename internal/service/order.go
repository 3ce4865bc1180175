package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jagadeeswarasurya/billing-api/internal/database"
	"github.com/jagadeeswarasurya/billing-api/internal/enum"
	"github.com/shopspring/decimal"
)

// maxTicketRetries bounds the retry loop on ticket_id unique violations.
// The per-day counter makes collisions impossible in normal operation; the
// retry only matters if the counter table is reset while orders exist.
const maxTicketRetries = 3

// categoryFallback is recorded on a line item when its title has no matching
// menu item or the menu item has no category.
const categoryFallback = "Uncategorized"

// Errors returned by the order service.
var (
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidPaymentMode   = errors.New("invalid payment mode")
	ErrInvalidServiceType   = errors.New("invalid service type")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidRate          = errors.New("invalid rate")
	ErrInvalidTotal         = errors.New("invalid total")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrTotalMismatch        = errors.New("total does not match line items")
	ErrTotalQtyMismatch     = errors.New("total_qty does not match line items")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrOrderNotFound        = errors.New("order not found")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	ErrStatusConflict       = errors.New("order status changed, please retry")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	NextTicketSeq(ctx context.Context, day string) (int32, error)
	GetMenuItemCategory(ctx context.Context, title string) (pgtype.Text, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderByTicketID(ctx context.Context, ticketID string) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
// Monetary fields travel as decimal strings.
type CreateOrderRequest struct {
	CustomerName   string
	CustomerMobile string
	Items          []CreateOrderItemRequest
	Total          string
	TotalQty       int32
	PaymentMode    string
	ServiceType    string
	ReceivedCash   string
	Balance        string
	BankName       string
	CardDigits     string
}

// CreateOrderItemRequest is a single line item in the order.
type CreateOrderItemRequest struct {
	Title string
	Qty   int32
	Rate  string
}

// CreateOrderResult is the full created order with its line items.
type CreateOrderResult struct {
	TicketID string
	Order    database.Order
	Items    []database.OrderItem
}

// OrderService handles order business logic.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
	now      func() time.Time
}

// NewOrderService creates a new OrderService. store is used for single-
// statement operations, newStore for transaction-scoped ones.
func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore, now: time.Now}
}

// processedItem holds a validated line item before insertion.
type processedItem struct {
	title string
	qty   int32
	rate  decimal.Decimal
}

// CreateOrder validates the request, assigns the next ticket ID for today,
// and persists the order with its line items atomically.
//
// Totals are recomputed from the line items and are authoritative; client
// supplied total/total_qty are cross-checked against the recomputed values
// and the request is rejected on mismatch.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if !isValidPaymentMode(req.PaymentMode) {
		return nil, ErrInvalidPaymentMode
	}
	if !isValidServiceType(req.ServiceType) {
		return nil, ErrInvalidServiceType
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	// --- Validate items and recompute totals ---
	total := decimal.Zero
	var totalQty int32
	items := make([]processedItem, len(req.Items))
	for i, item := range req.Items {
		if item.Qty <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		rate, err := decimal.NewFromString(item.Rate)
		if err != nil || rate.IsNegative() {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidRate)
		}
		total = total.Add(rate.Mul(decimal.NewFromInt32(item.Qty)))
		totalQty += item.Qty
		items[i] = processedItem{title: item.Title, qty: item.Qty, rate: rate}
	}

	// Client-supplied totals are cross-checked when present. An empty total /
	// zero total_qty means the client left the computation to the server.
	if req.Total != "" {
		claimed, err := decimal.NewFromString(req.Total)
		if err != nil {
			return nil, ErrInvalidTotal
		}
		if !claimed.Equal(total) {
			return nil, fmt.Errorf("%w: claimed %s, computed %s", ErrTotalMismatch, claimed, total)
		}
	}
	if req.TotalQty != 0 && req.TotalQty != totalQty {
		return nil, fmt.Errorf("%w: claimed %d, computed %d", ErrTotalQtyMismatch, req.TotalQty, totalQty)
	}

	// --- Payment-mode-conditional fields; irrelevant ones stay NULL ---
	receivedCash := pgtype.Numeric{}
	balance := pgtype.Numeric{}
	bankName := pgtype.Text{}
	cardDigits := pgtype.Text{}
	switch req.PaymentMode {
	case enum.PaymentModeCash:
		if req.ReceivedCash != "" {
			d, err := decimal.NewFromString(req.ReceivedCash)
			if err != nil {
				return nil, fmt.Errorf("received_cash: %w", ErrInvalidAmount)
			}
			receivedCash = decimalToNumeric(d)
		}
		if req.Balance != "" {
			d, err := decimal.NewFromString(req.Balance)
			if err != nil {
				return nil, fmt.Errorf("balance: %w", ErrInvalidAmount)
			}
			balance = decimalToNumeric(d)
		}
	case enum.PaymentModeCard:
		if req.BankName != "" {
			bankName = pgtype.Text{String: req.BankName, Valid: true}
		}
		if req.CardDigits != "" {
			cardDigits = pgtype.Text{String: req.CardDigits, Valid: true}
		}
	}

	params := database.CreateOrderParams{
		CustomerName:   req.CustomerName,
		CustomerMobile: req.CustomerMobile,
		Total:          decimalToNumeric(total),
		TotalQty:       totalQty,
		PaymentMode:    req.PaymentMode,
		ServiceType:    req.ServiceType,
		ReceivedCash:   receivedCash,
		Balance:        balance,
		BankName:       bankName,
		CardDigits:     cardDigits,
	}

	// Retry loop: the ticket_id unique constraint backstops the counter.
	var lastErr error
	for attempt := 0; attempt < maxTicketRetries; attempt++ {
		result, err := s.createOrderTx(ctx, params, items)
		if err == nil {
			return result, nil
		}
		if isTicketConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isTicketConflict checks if the error is a unique constraint violation on
// the ticket ID (pgconn error code 23505).
func isTicketConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_ticket_id_key"
	}
	return false
}

// createOrderTx executes the full order creation in a single transaction.
func (s *OrderService) createOrderTx(ctx context.Context, params database.CreateOrderParams, items []processedItem) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Assign ticket ID: date prefix from the server clock, sequence from
	// the per-day atomic counter ---
	day := s.now().Format("20060102")
	seq, err := store.NextTicketSeq(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("next ticket seq: %w", err)
	}
	// %04d widens past 9999 rather than truncating.
	params.TicketID = fmt.Sprintf("%s-%04d", day, seq)

	order, err := store.CreateOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Insert line items with their category snapshot ---
	var itemResults []database.OrderItem
	for i, item := range items {
		category, err := resolveCategory(ctx, store, item.title)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: resolve category: %w", i, err)
		}
		created, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:  order.ID,
			Title:    item.title,
			Category: category,
			Qty:      item.qty,
			Rate:     decimalToNumeric(item.rate),
		})
		if err != nil {
			return nil, fmt.Errorf("items[%d]: create order item: %w", i, err)
		}
		itemResults = append(itemResults, created)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{
		TicketID: order.TicketID,
		Order:    order,
		Items:    itemResults,
	}, nil
}

// resolveCategory snapshots the current category name for a line-item title.
// Deleted or renamed menu items, and items without a category, fall back to
// "Uncategorized".
func resolveCategory(ctx context.Context, store OrderStore, title string) (string, error) {
	name, err := store.GetMenuItemCategory(ctx, title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return categoryFallback, nil
		}
		return "", err
	}
	if !name.Valid || name.String == "" {
		return categoryFallback, nil
	}
	return name.String, nil
}

// allowedTransitions defines the guarded lifecycle edges: the linear happy
// path plus a cancel side-exit from any non-terminal state. served and
// canceled are terminal and have no entry.
var allowedTransitions = map[string][]string{
	enum.OrderStatusOnBoard:   {enum.OrderStatusPreparing, enum.OrderStatusCanceled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCanceled},
	enum.OrderStatusReady:     {enum.OrderStatusServed, enum.OrderStatusCanceled},
}

// UpdateStatus advances an order along the guarded lifecycle. The write is a
// compare-and-swap on the status read here; a concurrent change surfaces as
// ErrStatusConflict rather than a lost update.
func (s *OrderService) UpdateStatus(ctx context.Context, ticketID, newStatus string) (*database.Order, error) {
	if !isValidStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	current, err := s.store.GetOrderByTicketID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := validateTransition(current.Status, newStatus); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		TicketID:       ticketID,
		Status:         newStatus,
		ExpectedStatus: pgtype.Text{String: current.Status, Valid: true},
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return &updated, nil
}

// ForceSetStatus sets any valid status regardless of the current state.
// Exists for manual corrections by staff; the kitchen board uses the guarded
// UpdateStatus.
func (s *OrderService) ForceSetStatus(ctx context.Context, ticketID, newStatus string) (*database.Order, error) {
	if !isValidStatus(newStatus) {
		return nil, ErrInvalidStatus
	}

	updated, err := s.store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		TicketID: ticketID,
		Status:   newStatus,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("force set order status: %w", err)
	}
	return &updated, nil
}

// validateTransition checks the guarded edge set.
func validateTransition(current, next string) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return fmt.Errorf("%w: %s is terminal", ErrTransitionNotAllowed, current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, current, next)
}

// --- Helpers ---

func isValidPaymentMode(s string) bool {
	switch s {
	case enum.PaymentModeCash, enum.PaymentModeCard, enum.PaymentModeUpi:
		return true
	}
	return false
}

func isValidServiceType(s string) bool {
	switch s {
	case enum.ServiceTypeDineIn, enum.ServiceTypeTakeAway:
		return true
	}
	return false
}

func isValidStatus(s string) bool {
	switch s {
	case enum.OrderStatusOnBoard, enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusServed, enum.OrderStatusCanceled:
		return true
	}
	return false
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
