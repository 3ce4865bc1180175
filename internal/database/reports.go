package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ReportRangeParams is an optional inclusive [From, To] filter on order
// creation time. Invalid (NULL) bounds are open on that side.
type ReportRangeParams struct {
	From pgtype.Timestamptz
	To   pgtype.Timestamptz
}

type BillWiseRow struct {
	TicketID     string
	CustomerName string
	Total        pgtype.Numeric
	TotalQty     int32
	PaymentMode  string
	ServiceType  string
	Status       string
	CreatedAt    time.Time
}

const billWiseReport = `
SELECT ticket_id, customer_name, total, total_qty, payment_mode, service_type, status, created_at
FROM orders
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at <= $2)
ORDER BY created_at DESC
`

func (q *Queries) BillWiseReport(ctx context.Context, arg ReportRangeParams) ([]BillWiseRow, error) {
	rows, err := q.db.Query(ctx, billWiseReport, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BillWiseRow
	for rows.Next() {
		var r BillWiseRow
		if err := rows.Scan(
			&r.TicketID, &r.CustomerName, &r.Total, &r.TotalQty,
			&r.PaymentMode, &r.ServiceType, &r.Status, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

type ItemWiseRow struct {
	Title  string
	Qty    int64
	Amount pgtype.Numeric
}

const itemWiseReport = `
SELECT oi.title, SUM(oi.qty)::bigint AS qty, SUM(oi.qty * oi.rate) AS amount
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE ($1::timestamptz IS NULL OR o.created_at >= $1)
  AND ($2::timestamptz IS NULL OR o.created_at <= $2)
GROUP BY oi.title
ORDER BY amount DESC, oi.title
`

func (q *Queries) ItemWiseReport(ctx context.Context, arg ReportRangeParams) ([]ItemWiseRow, error) {
	rows, err := q.db.Query(ctx, itemWiseReport, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ItemWiseRow
	for rows.Next() {
		var r ItemWiseRow
		if err := rows.Scan(&r.Title, &r.Qty, &r.Amount); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

type CategoryWiseRow struct {
	Category string
	Qty      int64
	Amount   pgtype.Numeric
}

// Groups by the category snapshot taken at order creation, so menu renames
// and deletions never reclassify historical sales.
const categoryWiseReport = `
SELECT oi.category, SUM(oi.qty)::bigint AS qty, SUM(oi.qty * oi.rate) AS amount
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE ($1::timestamptz IS NULL OR o.created_at >= $1)
  AND ($2::timestamptz IS NULL OR o.created_at <= $2)
GROUP BY oi.category
ORDER BY amount DESC, oi.category
`

func (q *Queries) CategoryWiseReport(ctx context.Context, arg ReportRangeParams) ([]CategoryWiseRow, error) {
	rows, err := q.db.Query(ctx, categoryWiseReport, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []CategoryWiseRow
	for rows.Next() {
		var r CategoryWiseRow
		if err := rows.Scan(&r.Category, &r.Qty, &r.Amount); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
