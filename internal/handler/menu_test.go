package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jagadeeswarasurya/billing-api/internal/database"
	"github.com/jagadeeswarasurya/billing-api/internal/enum"
	"github.com/jagadeeswarasurya/billing-api/internal/handler"
	"github.com/jagadeeswarasurya/billing-api/internal/middleware"
)

// --- Mock MenuStore ---

type mockMenuStore struct {
	listFn   func(ctx context.Context) ([]database.MenuItemRow, error)
	createFn func(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItemRow, error)
	updateFn func(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItemRow, error)
	deleteFn func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

func (m *mockMenuStore) ListMenuItems(ctx context.Context) ([]database.MenuItemRow, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return []database.MenuItemRow{}, nil
}

func (m *mockMenuStore) CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItemRow, error) {
	if m.createFn != nil {
		return m.createFn(ctx, arg)
	}
	return database.MenuItemRow{}, pgx.ErrNoRows
}

func (m *mockMenuStore) UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItemRow, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, arg)
	}
	return database.MenuItemRow{}, pgx.ErrNoRows
}

func (m *mockMenuStore) DeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return uuid.Nil, pgx.ErrNoRows
}

func setupMenuRouter(store *mockMenuStore) *chi.Mux {
	h := handler.NewMenuHandler(store)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		r.Route("/menu", func(r chi.Router) {
			h.RegisterRoutes(r, middleware.RequireRole(enum.UserRoleAdmin))
		})
	})
	return r
}

func testMenuItemRow(title, category string) database.MenuItemRow {
	row := database.MenuItemRow{
		MenuItem: database.MenuItem{
			ID:        uuid.New(),
			Title:     title,
			Price:     toNumeric("120.00"),
			ItemType:  enum.ItemTypeVeg,
			Active:    true,
			CreatedAt: time.Now(),
		},
	}
	if category != "" {
		row.CategoryID = pgtype.UUID{Bytes: uuid.New(), Valid: true}
		row.CategoryName = pgtype.Text{String: category, Valid: true}
	}
	return row
}

// --- Tests ---

func TestListMenuItems(t *testing.T) {
	store := &mockMenuStore{
		listFn: func(ctx context.Context) ([]database.MenuItemRow, error) {
			return []database.MenuItemRow{
				testMenuItemRow("Burger", "Snacks"),
				testMenuItemRow("Coke", ""),
			}, nil
		},
	}
	router := setupMenuRouter(store)

	rr := doAuthRequest(t, router, http.MethodGet, "/menu", nil, testClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateMenuItem(t *testing.T) {
	var gotParams database.CreateMenuItemParams
	store := &mockMenuStore{
		createFn: func(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItemRow, error) {
			gotParams = arg
			return testMenuItemRow(arg.Title, "Snacks"), nil
		},
	}
	router := setupMenuRouter(store)

	body := map[string]interface{}{
		"title":     "Burger",
		"price":     "120.00",
		"item_type": "Veg",
	}
	rr := doAuthRequest(t, router, http.MethodPost, "/menu", body, adminClaims())

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}
	if gotParams.Title != "Burger" {
		t.Errorf("title: got %s, want Burger", gotParams.Title)
	}
	if !gotParams.Active {
		t.Error("active should default to true")
	}
}

func TestCreateMenuItemRequiresAdmin(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{})

	body := map[string]interface{}{"title": "Burger", "price": "120.00", "item_type": "Veg"}
	rr := doAuthRequest(t, router, http.MethodPost, "/menu", body, testClaims())

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want 403", rr.Code)
	}
}

func TestCreateMenuItemInvalidItemType(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{})

	body := map[string]interface{}{"title": "Burger", "price": "120.00", "item_type": "Vegan"}
	rr := doAuthRequest(t, router, http.MethodPost, "/menu", body, adminClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestCreateMenuItemNegativePrice(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{})

	body := map[string]interface{}{"title": "Burger", "price": "-5.00", "item_type": "Veg"}
	rr := doAuthRequest(t, router, http.MethodPost, "/menu", body, adminClaims())

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestUpdateMenuItemNotFound(t *testing.T) {
	router := setupMenuRouter(&mockMenuStore{})

	body := map[string]interface{}{"title": "Burger", "price": "120.00", "item_type": "Veg"}
	rr := doAuthRequest(t, router, http.MethodPut, "/menu/"+uuid.NewString(), body, adminClaims())

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
}

func TestDeleteMenuItem(t *testing.T) {
	id := uuid.New()
	store := &mockMenuStore{
		deleteFn: func(ctx context.Context, got uuid.UUID) (uuid.UUID, error) {
			return got, nil
		},
	}
	router := setupMenuRouter(store)

	rr := doAuthRequest(t, router, http.MethodDelete, "/menu/"+id.String(), nil, adminClaims())

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
}
