package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jagadeeswarasurya/billing-api/internal/database"
	"github.com/shopspring/decimal"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	BillWiseReport(ctx context.Context, arg database.ReportRangeParams) ([]database.BillWiseRow, error)
	ItemWiseReport(ctx context.Context, arg database.ReportRangeParams) ([]database.ItemWiseRow, error)
	CategoryWiseReport(ctx context.Context, arg database.ReportRangeParams) ([]database.CategoryWiseRow, error)
}

// ReportsHandler handles sales report endpoints.
type ReportsHandler struct {
	store ReportsStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/billwise", h.BillWise)
	r.Get("/itemwise", h.ItemWise)
	r.Get("/categorywise", h.CategoryWise)
}

type billWiseEntry struct {
	TicketID     string    `json:"ticket_id"`
	CustomerName string    `json:"customer_name"`
	Total        string    `json:"total"`
	TotalQty     int32     `json:"total_qty"`
	PaymentMode  string    `json:"payment_mode"`
	ServiceType  string    `json:"service_type"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type itemWiseEntry struct {
	Title  string `json:"title"`
	Qty    int64  `json:"qty"`
	Amount string `json:"amount"`
}

type categoryWiseEntry struct {
	Category string `json:"category"`
	Qty      int64  `json:"qty"`
	Amount   string `json:"amount"`
}

type billWiseResponse struct {
	Bills      []billWiseEntry `json:"bills"`
	GrandTotal string          `json:"grand_total"`
	TotalBills int             `json:"total_bills"`
}

type itemWiseResponse struct {
	Items      []itemWiseEntry `json:"items"`
	GrandTotal string          `json:"grand_total"`
	TotalQty   int64           `json:"total_qty"`
}

type categoryWiseResponse struct {
	Categories []categoryWiseEntry `json:"categories"`
	GrandTotal string              `json:"grand_total"`
	TotalQty   int64               `json:"total_qty"`
}

// BillWise handles GET /reports/billwise: one row per order in the range,
// newest-first, plus a grand total.
func (h *ReportsHandler) BillWise(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.BillWiseReport(r.Context(), database.ReportRangeParams{From: from, To: to})
	if err != nil {
		log.Printf("ERROR: billwise report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	grandTotal := decimal.Zero
	bills := make([]billWiseEntry, len(rows))
	for i, row := range rows {
		total := numericToDecimal(row.Total)
		grandTotal = grandTotal.Add(total)
		bills[i] = billWiseEntry{
			TicketID:     row.TicketID,
			CustomerName: row.CustomerName,
			Total:        total.StringFixed(2),
			TotalQty:     row.TotalQty,
			PaymentMode:  row.PaymentMode,
			ServiceType:  row.ServiceType,
			Status:       row.Status,
			CreatedAt:    row.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, billWiseResponse{
		Bills:      bills,
		GrandTotal: grandTotal.StringFixed(2),
		TotalBills: len(bills),
	})
}

// ItemWise handles GET /reports/itemwise: quantity and revenue totals
// grouped by item title.
func (h *ReportsHandler) ItemWise(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.ItemWiseReport(r.Context(), database.ReportRangeParams{From: from, To: to})
	if err != nil {
		log.Printf("ERROR: itemwise report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	grandTotal := decimal.Zero
	var totalQty int64
	items := make([]itemWiseEntry, len(rows))
	for i, row := range rows {
		amount := numericToDecimal(row.Amount)
		grandTotal = grandTotal.Add(amount)
		totalQty += row.Qty
		items[i] = itemWiseEntry{
			Title:  row.Title,
			Qty:    row.Qty,
			Amount: amount.StringFixed(2),
		}
	}

	writeJSON(w, http.StatusOK, itemWiseResponse{
		Items:      items,
		GrandTotal: grandTotal.StringFixed(2),
		TotalQty:   totalQty,
	})
}

// CategoryWise handles GET /reports/categorywise: quantity and revenue
// totals grouped by the category captured on each line item.
func (h *ReportsHandler) CategoryWise(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.CategoryWiseReport(r.Context(), database.ReportRangeParams{From: from, To: to})
	if err != nil {
		log.Printf("ERROR: categorywise report: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	grandTotal := decimal.Zero
	var totalQty int64
	categories := make([]categoryWiseEntry, len(rows))
	for i, row := range rows {
		amount := numericToDecimal(row.Amount)
		grandTotal = grandTotal.Add(amount)
		totalQty += row.Qty
		categories[i] = categoryWiseEntry{
			Category: row.Category,
			Qty:      row.Qty,
			Amount:   amount.StringFixed(2),
		}
	}

	writeJSON(w, http.StatusOK, categoryWiseResponse{
		Categories: categories,
		GrandTotal: grandTotal.StringFixed(2),
		TotalQty:   totalQty,
	})
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
