package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jagadeeswarasurya/billing-api/internal/database"
	"github.com/jagadeeswarasurya/billing-api/internal/enum"
	"github.com/shopspring/decimal"
)

// MenuStore defines the database methods needed by menu handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type MenuStore interface {
	ListMenuItems(ctx context.Context) ([]database.MenuItemRow, error)
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItemRow, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItemRow, error)
	DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// MenuHandler handles menu item endpoints.
type MenuHandler struct {
	store MenuStore
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(store MenuStore) *MenuHandler {
	return &MenuHandler{store: store}
}

// RegisterRoutes registers menu endpoints on the given Chi router.
// admin gates the mutating routes.
func (h *MenuHandler) RegisterRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Post("/", h.Create)
		r.Put("/{itemID}", h.Update)
		r.Delete("/{itemID}", h.Delete)
	})
}

type menuItemRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CategoryID  *string `json:"category_id"`
	Price       string  `json:"price"`
	ItemType    string  `json:"item_type"`
	Active      *bool   `json:"active"`
}

type menuItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  *string   `json:"category_id"`
	Category    *string   `json:"category"`
	Price       string    `json:"price"`
	ItemType    string    `json:"item_type"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

func toMenuItemResponse(row database.MenuItemRow) menuItemResponse {
	resp := menuItemResponse{
		ID:        row.ID,
		Title:     row.Title,
		Price:     numericToString(row.Price),
		ItemType:  row.ItemType,
		Active:    row.Active,
		CreatedAt: row.CreatedAt,
	}
	if row.Description.Valid {
		resp.Description = row.Description.String
	}
	if row.CategoryID.Valid {
		id := uuid.UUID(row.CategoryID.Bytes).String()
		resp.CategoryID = &id
	}
	if row.CategoryName.Valid {
		resp.Category = &row.CategoryName.String
	}
	return resp
}

// List handles GET /menu.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListMenuItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, item := range items {
		resp[i] = toMenuItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create handles POST /menu.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, err := menuItemParams(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toMenuItemResponse(item))
}

// Update handles PUT /menu/{itemID}.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item id"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params, err := menuItemParams(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	item, err := h.store.UpdateMenuItem(r.Context(), database.UpdateMenuItemParams{
		ID:          id,
		Title:       params.Title,
		Description: params.Description,
		CategoryID:  params.CategoryID,
		Price:       params.Price,
		ItemType:    params.ItemType,
		Active:      params.Active,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(item))
}

// Delete handles DELETE /menu/{itemID}.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item id"})
		return
	}

	if _, err := h.store.DeleteMenuItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func menuItemParams(req menuItemRequest) (database.CreateMenuItemParams, error) {
	var params database.CreateMenuItemParams

	params.Title = strings.TrimSpace(req.Title)
	if params.Title == "" {
		return params, errors.New("title is required")
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return params, errors.New("price must be a non-negative decimal")
	}
	if err := params.Price.Scan(price.StringFixed(2)); err != nil {
		return params, errors.New("price must be a non-negative decimal")
	}

	switch req.ItemType {
	case enum.ItemTypeVeg, enum.ItemTypeNonVeg:
		params.ItemType = req.ItemType
	default:
		return params, errors.New("item_type must be Veg or Non-Veg")
	}

	if desc := strings.TrimSpace(req.Description); desc != "" {
		params.Description = pgtype.Text{String: desc, Valid: true}
	}

	if req.CategoryID != nil && *req.CategoryID != "" {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return params, errors.New("invalid category_id")
		}
		params.CategoryID = pgtype.UUID{Bytes: id, Valid: true}
	}

	params.Active = true
	if req.Active != nil {
		params.Active = *req.Active
	}

	return params, nil
}
