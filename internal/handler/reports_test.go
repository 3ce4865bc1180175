package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jagadeeswarasurya/billing-api/internal/database"
	"github.com/jagadeeswarasurya/billing-api/internal/enum"
	"github.com/jagadeeswarasurya/billing-api/internal/handler"
	"github.com/jagadeeswarasurya/billing-api/internal/middleware"
)

// --- Mock ReportsStore ---

type mockReportsStore struct {
	billWiseFn     func(ctx context.Context, arg database.ReportRangeParams) ([]database.BillWiseRow, error)
	itemWiseFn     func(ctx context.Context, arg database.ReportRangeParams) ([]database.ItemWiseRow, error)
	categoryWiseFn func(ctx context.Context, arg database.ReportRangeParams) ([]database.CategoryWiseRow, error)
}

func (m *mockReportsStore) BillWiseReport(ctx context.Context, arg database.ReportRangeParams) ([]database.BillWiseRow, error) {
	if m.billWiseFn != nil {
		return m.billWiseFn(ctx, arg)
	}
	return []database.BillWiseRow{}, nil
}

func (m *mockReportsStore) ItemWiseReport(ctx context.Context, arg database.ReportRangeParams) ([]database.ItemWiseRow, error) {
	if m.itemWiseFn != nil {
		return m.itemWiseFn(ctx, arg)
	}
	return []database.ItemWiseRow{}, nil
}

func (m *mockReportsStore) CategoryWiseReport(ctx context.Context, arg database.ReportRangeParams) ([]database.CategoryWiseRow, error) {
	if m.categoryWiseFn != nil {
		return m.categoryWiseFn(ctx, arg)
	}
	return []database.CategoryWiseRow{}, nil
}

func setupReportsRouter(store *mockReportsStore) *chi.Mux {
	h := handler.NewReportsHandler(store)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		r.Route("/reports", h.RegisterRoutes)
	})
	return r
}

// --- Tests ---

func TestBillWiseReport(t *testing.T) {
	store := &mockReportsStore{
		billWiseFn: func(ctx context.Context, arg database.ReportRangeParams) ([]database.BillWiseRow, error) {
			return []database.BillWiseRow{
				{
					TicketID:     "20260314-0002",
					CustomerName: "Asha",
					Total:        toNumeric("150.00"),
					TotalQty:     2,
					PaymentMode:  enum.PaymentModeUpi,
					ServiceType:  enum.ServiceTypeTakeAway,
					Status:       enum.OrderStatusServed,
					CreatedAt:    time.Now(),
				},
				{
					TicketID:     "20260314-0001",
					CustomerName: "Ravi",
					Total:        toNumeric("280.00"),
					TotalQty:     3,
					PaymentMode:  enum.PaymentModeCash,
					ServiceType:  enum.ServiceTypeDineIn,
					Status:       enum.OrderStatusServed,
					CreatedAt:    time.Now().Add(-time.Hour),
				},
			}, nil
		},
	}
	router := setupReportsRouter(store)

	rr := doAuthRequest(t, router, http.MethodGet, "/reports/billwise", nil, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["grand_total"] != "430.00" {
		t.Errorf("grand_total: got %v, want 430.00", resp["grand_total"])
	}
	if resp["total_bills"] != float64(2) {
		t.Errorf("total_bills: got %v, want 2", resp["total_bills"])
	}
	bills := resp["bills"].([]interface{})
	first := bills[0].(map[string]interface{})
	if first["ticket_id"] != "20260314-0002" {
		t.Errorf("expected newest bill first, got %v", first["ticket_id"])
	}
}

func TestItemWiseReport(t *testing.T) {
	store := &mockReportsStore{
		itemWiseFn: func(ctx context.Context, arg database.ReportRangeParams) ([]database.ItemWiseRow, error) {
			return []database.ItemWiseRow{
				{Title: "Burger", Qty: 4, Amount: toNumeric("480.00")},
				{Title: "Coke", Qty: 3, Amount: toNumeric("120.00")},
			}, nil
		},
	}
	router := setupReportsRouter(store)

	rr := doAuthRequest(t, router, http.MethodGet, "/reports/itemwise", nil, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["grand_total"] != "600.00" {
		t.Errorf("grand_total: got %v, want 600.00", resp["grand_total"])
	}
	if resp["total_qty"] != float64(7) {
		t.Errorf("total_qty: got %v, want 7", resp["total_qty"])
	}
	items := resp["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("items: got %d, want 2", len(items))
	}
	burger := items[0].(map[string]interface{})
	if burger["title"] != "Burger" || burger["qty"] != float64(4) || burger["amount"] != "480.00" {
		t.Errorf("burger row: got %v", burger)
	}
}

func TestCategoryWiseReport(t *testing.T) {
	store := &mockReportsStore{
		categoryWiseFn: func(ctx context.Context, arg database.ReportRangeParams) ([]database.CategoryWiseRow, error) {
			return []database.CategoryWiseRow{
				{Category: "Snacks", Qty: 4, Amount: toNumeric("480.00")},
				{Category: "Uncategorized", Qty: 1, Amount: toNumeric("40.00")},
			}, nil
		},
	}
	router := setupReportsRouter(store)

	rr := doAuthRequest(t, router, http.MethodGet, "/reports/categorywise", nil, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["grand_total"] != "520.00" {
		t.Errorf("grand_total: got %v, want 520.00", resp["grand_total"])
	}
	categories := resp["categories"].([]interface{})
	last := categories[1].(map[string]interface{})
	if last["category"] != "Uncategorized" {
		t.Errorf("expected Uncategorized bucket, got %v", last["category"])
	}
}

func TestReportDateRangePassedThrough(t *testing.T) {
	var gotParams database.ReportRangeParams
	store := &mockReportsStore{
		itemWiseFn: func(ctx context.Context, arg database.ReportRangeParams) ([]database.ItemWiseRow, error) {
			gotParams = arg
			return nil, nil
		},
	}
	router := setupReportsRouter(store)

	rr := doAuthRequest(t, router, http.MethodGet,
		"/reports/itemwise?from=2026-03-01&to=2026-03-31", nil, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if !gotParams.From.Valid || !gotParams.To.Valid {
		t.Fatal("expected both bounds set")
	}
	if gotParams.From.Time.Day() != 1 {
		t.Errorf("from day: got %d, want 1", gotParams.From.Time.Day())
	}
	// Bare to date is inclusive of the whole day.
	if gotParams.To.Time.Before(gotParams.From.Time.AddDate(0, 0, 30)) {
		t.Errorf("to bound too early: %v", gotParams.To.Time)
	}
}

func TestReportInvalidRangeReturns400(t *testing.T) {
	router := setupReportsRouter(&mockReportsStore{})

	rr := doAuthRequest(t, router, http.MethodGet,
		"/reports/billwise?from=2026-04-01&to=2026-03-01", nil, testClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestReportsEmptyRange(t *testing.T) {
	router := setupReportsRouter(&mockReportsStore{})

	rr := doAuthRequest(t, router, http.MethodGet, "/reports/billwise", nil, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	resp := decodeBody(t, rr)
	if resp["grand_total"] != "0.00" {
		t.Errorf("grand_total: got %v, want 0.00", resp["grand_total"])
	}
}
