package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, ticket_id, customer_name, customer_mobile, total, total_qty,
	payment_mode, service_type, received_cash, balance, bank_name, card_digits,
	status, onboard_at, preparing_at, ready_at, served_at, canceled_at, created_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.TicketID, &o.CustomerName, &o.CustomerMobile, &o.Total, &o.TotalQty,
		&o.PaymentMode, &o.ServiceType, &o.ReceivedCash, &o.Balance, &o.BankName, &o.CardDigits,
		&o.Status, &o.OnBoardAt, &o.PreparingAt, &o.ReadyAt, &o.ServedAt, &o.CanceledAt, &o.CreatedAt,
	)
	return o, err
}

const nextTicketSeq = `
INSERT INTO ticket_counters (day, last_seq)
VALUES ($1, 1)
ON CONFLICT (day) DO UPDATE SET last_seq = ticket_counters.last_seq + 1
RETURNING last_seq
`

// NextTicketSeq atomically increments and returns the ticket sequence for the
// given day prefix. Safe under concurrent order creation: the upsert is a
// single statement, so two writers can never observe the same value.
func (q *Queries) NextTicketSeq(ctx context.Context, day string) (int32, error) {
	var seq int32
	err := q.db.QueryRow(ctx, nextTicketSeq, day).Scan(&seq)
	return seq, err
}

type CreateOrderParams struct {
	TicketID       string
	CustomerName   string
	CustomerMobile string
	Total          pgtype.Numeric
	TotalQty       int32
	PaymentMode    string
	ServiceType    string
	ReceivedCash   pgtype.Numeric
	Balance        pgtype.Numeric
	BankName       pgtype.Text
	CardDigits     pgtype.Text
}

const createOrder = `
INSERT INTO orders (
	ticket_id, customer_name, customer_mobile, total, total_qty,
	payment_mode, service_type, received_cash, balance, bank_name, card_digits
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + orderColumns

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.TicketID, arg.CustomerName, arg.CustomerMobile, arg.Total, arg.TotalQty,
		arg.PaymentMode, arg.ServiceType, arg.ReceivedCash, arg.Balance, arg.BankName, arg.CardDigits,
	)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID  uuid.UUID
	Title    string
	Category string
	Qty      int32
	Rate     pgtype.Numeric
}

const createOrderItem = `
INSERT INTO order_items (order_id, title, category, qty, rate)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, title, category, qty, rate
`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var i OrderItem
	err := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.Title, arg.Category, arg.Qty, arg.Rate,
	).Scan(&i.ID, &i.OrderID, &i.Title, &i.Category, &i.Qty, &i.Rate)
	return i, err
}

const getOrderByTicketID = `SELECT ` + orderColumns + ` FROM orders WHERE ticket_id = $1`

func (q *Queries) GetOrderByTicketID(ctx context.Context, ticketID string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByTicketID, ticketID))
}

type ListOrdersParams struct {
	Status pgtype.Text
	From   pgtype.Timestamptz
	To     pgtype.Timestamptz
	Limit  int32
	Offset int32
}

const listOrders = `
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at <= $3)
ORDER BY created_at DESC
LIMIT $4 OFFSET $5
`

// ListOrders returns orders newest-first with optional status and date filters.
func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.Status, arg.From, arg.To, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrderItemsByOrder = `
SELECT id, order_id, title, category, qty, rate
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.Title, &i.Category, &i.Qty, &i.Rate); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

type UpdateOrderStatusParams struct {
	TicketID string
	Status   string
	// ExpectedStatus, when valid, turns the update into a compare-and-swap:
	// no row is updated if the stored status changed since it was read.
	ExpectedStatus pgtype.Text
}

const updateOrderStatus = `
UPDATE orders SET
	status       = $2,
	onboard_at   = CASE WHEN $2 = 'onBoard'   THEN now() ELSE onboard_at   END,
	preparing_at = CASE WHEN $2 = 'preparing' THEN now() ELSE preparing_at END,
	ready_at     = CASE WHEN $2 = 'ready'     THEN now() ELSE ready_at     END,
	served_at    = CASE WHEN $2 = 'served'    THEN now() ELSE served_at    END,
	canceled_at  = CASE WHEN $2 = 'canceled'  THEN now() ELSE canceled_at  END
WHERE ticket_id = $1
  AND ($3::text IS NULL OR status = $3)
RETURNING ` + orderColumns

// UpdateOrderStatus sets the status and stamps the matching per-status
// timestamp in a single statement. Returns pgx.ErrNoRows when the ticket is
// unknown or the compare-and-swap precondition failed.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, updateOrderStatus, arg.TicketID, arg.Status, arg.ExpectedStatus))
}
