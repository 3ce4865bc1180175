package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jagadeeswarasurya/billing-api/internal/database"
	"github.com/jagadeeswarasurya/billing-api/internal/service"
	"github.com/jagadeeswarasurya/billing-api/internal/ws"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	UpdateStatus(ctx context.Context, ticketID, newStatus string) (*database.Order, error)
	ForceSetStatus(ctx context.Context, ticketID, newStatus string) (*database.Order, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	GetOrderByTicketID(ctx context.Context, ticketID string) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// OrderBroadcaster pushes order events to the kitchen board.
// Satisfied by *ws.Hub.
type OrderBroadcaster interface {
	BroadcastOrderEvent(eventType string, payload interface{})
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	hub   OrderBroadcaster
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, hub OrderBroadcaster) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, hub: hub}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{ticketID}", h.Get)
	r.Patch("/{ticketID}/status", h.UpdateStatus)
	r.Put("/{ticketID}/status", h.ForceSetStatus)
}

// --- Request / Response types ---

type customerPayload struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

type createOrderItemRequest struct {
	Title string `json:"title"`
	Qty   int32  `json:"qty"`
	Rate  string `json:"rate"`
}

type createOrderRequest struct {
	Customer     customerPayload          `json:"customer"`
	Items        []createOrderItemRequest `json:"items"`
	Total        string                   `json:"total"`
	TotalQty     int32                    `json:"total_qty"`
	PaymentMode  string                   `json:"payment_mode"`
	ServiceType  string                   `json:"service_type"`
	ReceivedCash string                   `json:"received_cash"`
	Balance      string                   `json:"balance"`
	BankName     string                   `json:"bank_name"`
	CardDigits   string                   `json:"card_digits"`
}

type orderItemResponse struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Qty      int32  `json:"qty"`
	Rate     string `json:"rate"`
}

// statusTimestampsResponse keys are the lifecycle state names; a nil entry
// means the order has never entered that state.
type statusTimestampsResponse struct {
	OnBoard   *time.Time `json:"onBoard"`
	Preparing *time.Time `json:"preparing"`
	Ready     *time.Time `json:"ready"`
	Served    *time.Time `json:"served"`
	Canceled  *time.Time `json:"canceled"`
}

type orderResponse struct {
	TicketID         string                   `json:"ticket_id"`
	Customer         customerPayload          `json:"customer"`
	Items            []orderItemResponse      `json:"items"`
	Total            string                   `json:"total"`
	TotalQty         int32                    `json:"total_qty"`
	PaymentMode      string                   `json:"payment_mode"`
	ServiceType      string                   `json:"service_type"`
	ReceivedCash     *string                  `json:"received_cash"`
	Balance          *string                  `json:"balance"`
	BankName         *string                  `json:"bank_name"`
	CardDigits       *string                  `json:"card_digits"`
	Status           string                   `json:"status"`
	StatusTimestamps statusTimestampsResponse `json:"status_timestamps"`
	CreatedAt        time.Time                `json:"created_at"`
}

type createOrderResponse struct {
	Success  bool          `json:"success"`
	TicketID string        `json:"ticket_id"`
	Order    orderResponse `json:"order"`
}

type statusUpdateResponse struct {
	Success bool          `json:"success"`
	Order   orderResponse `json:"order"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.PaymentMode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "payment_mode is required"})
		return
	}
	if req.ServiceType == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "service_type is required"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	svcItems := make([]service.CreateOrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = service.CreateOrderItemRequest{
			Title: item.Title,
			Qty:   item.Qty,
			Rate:  item.Rate,
		}
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		CustomerName:   req.Customer.Name,
		CustomerMobile: req.Customer.Mobile,
		Items:          svcItems,
		Total:          req.Total,
		TotalQty:       req.TotalQty,
		PaymentMode:    req.PaymentMode,
		ServiceType:    req.ServiceType,
		ReceivedCash:   req.ReceivedCash,
		Balance:        req.Balance,
		BankName:       req.BankName,
		CardDigits:     req.CardDigits,
	})
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(result.Order, result.Items)
	h.hub.BroadcastOrderEvent(ws.EventOrderCreated, resp)

	writeJSON(w, http.StatusCreated, createOrderResponse{
		Success:  true,
		TicketID: result.TicketID,
		Order:    resp,
	})
}

// List handles GET /orders. Orders come back newest-first with optional
// status and from/to filters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	// Pagination params parse as int32; out-of-range values fall back to the
	// defaults instead of overflowing the query arguments.
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 32); err == nil && v > 0 {
			limit = int(v)
		}
	}
	if limit > 200 {
		limit = 200
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.ParseInt(s, 10, 32); err == nil && v >= 0 {
			offset = int(v)
		}
	}

	from, to, err := parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	params := database.ListOrdersParams{
		From:   from,
		To:     to,
		Limit:  int32(limit),
		Offset: int32(offset),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		params.Status = pgtype.Text{String: s, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		items, err := h.store.ListOrderItemsByOrder(r.Context(), o.ID)
		if err != nil {
			log.Printf("ERROR: list order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp[i] = toOrderResponse(o, items)
	}

	writeJSON(w, http.StatusOK, orderListResponse{
		Orders: resp,
		Limit:  limit,
		Offset: offset,
	})
}

// Get handles GET /orders/{ticketID}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	order, err := h.store.GetOrderByTicketID(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// UpdateStatus handles PATCH /orders/{ticketID}/status: the guarded
// lifecycle transition used by the kitchen board.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.svc.UpdateStatus)
}

// ForceSetStatus handles PUT /orders/{ticketID}/status: sets any valid
// status regardless of the current state, for manual corrections by staff.
func (h *OrderHandler) ForceSetStatus(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.svc.ForceSetStatus)
}

func (h *OrderHandler) setStatus(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, ticketID, newStatus string) (*database.Order, error)) {
	ticketID := chi.URLParam(r, "ticketID")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := apply(r.Context(), ticketID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		case errors.Is(err, service.ErrOrderNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		case errors.Is(err, service.ErrTransitionNotAllowed), errors.Is(err, service.ErrStatusConflict):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: update order status: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := toOrderResponse(*order, items)
	h.hub.BroadcastOrderEvent(ws.EventOrderStatusUpdated, resp)

	writeJSON(w, http.StatusOK, statusUpdateResponse{Success: true, Order: resp})
}

// --- Helpers ---

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidPaymentMode) ||
		errors.Is(err, service.ErrInvalidServiceType) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidRate) ||
		errors.Is(err, service.ErrInvalidTotal) ||
		errors.Is(err, service.ErrInvalidAmount) ||
		errors.Is(err, service.ErrTotalMismatch) ||
		errors.Is(err, service.ErrTotalQtyMismatch)
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		TicketID: o.TicketID,
		Customer: customerPayload{
			Name:   o.CustomerName,
			Mobile: o.CustomerMobile,
		},
		Total:       numericToString(o.Total),
		TotalQty:    o.TotalQty,
		PaymentMode: o.PaymentMode,
		ServiceType: o.ServiceType,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}

	if o.ReceivedCash.Valid {
		s := numericToString(o.ReceivedCash)
		resp.ReceivedCash = &s
	}
	if o.Balance.Valid {
		s := numericToString(o.Balance)
		resp.Balance = &s
	}
	if o.BankName.Valid {
		resp.BankName = &o.BankName.String
	}
	if o.CardDigits.Valid {
		resp.CardDigits = &o.CardDigits.String
	}

	onBoard := o.OnBoardAt
	resp.StatusTimestamps.OnBoard = &onBoard
	if o.PreparingAt.Valid {
		resp.StatusTimestamps.Preparing = &o.PreparingAt.Time
	}
	if o.ReadyAt.Valid {
		resp.StatusTimestamps.Ready = &o.ReadyAt.Time
	}
	if o.ServedAt.Valid {
		resp.StatusTimestamps.Served = &o.ServedAt.Time
	}
	if o.CanceledAt.Valid {
		resp.StatusTimestamps.Canceled = &o.CanceledAt.Time
	}

	resp.Items = make([]orderItemResponse, len(items))
	for i, item := range items {
		resp.Items[i] = orderItemResponse{
			Title:    item.Title,
			Category: item.Category,
			Qty:      item.Qty,
			Rate:     numericToString(item.Rate),
		}
	}

	return resp
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseDateRange parses the optional from/to query parameters. Both bounds
// are inclusive; a bare date for "to" covers that whole day. Accepts RFC3339
// timestamps or YYYY-MM-DD dates.
func parseDateRange(r *http.Request) (pgtype.Timestamptz, pgtype.Timestamptz, error) {
	var from, to pgtype.Timestamptz

	if s := r.URL.Query().Get("from"); s != "" {
		t, _, err := parseTimeParam(s)
		if err != nil {
			return from, to, fmt.Errorf("invalid from: %w", err)
		}
		from = pgtype.Timestamptz{Time: t, Valid: true}
	}

	if s := r.URL.Query().Get("to"); s != "" {
		t, bareDate, err := parseTimeParam(s)
		if err != nil {
			return from, to, fmt.Errorf("invalid to: %w", err)
		}
		if bareDate {
			t = t.AddDate(0, 0, 1).Add(-time.Microsecond)
		}
		to = pgtype.Timestamptz{Time: t, Valid: true}
	}

	if from.Valid && to.Valid && from.Time.After(to.Time) {
		return from, to, fmt.Errorf("from must not be after to")
	}

	return from, to, nil
}

// parseTimeParam accepts an RFC3339 timestamp or a bare YYYY-MM-DD date.
// The second return reports which form was given.
func parseTimeParam(s string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("expected RFC3339 or YYYY-MM-DD")
	}
	return t, true, nil
}
