package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jagadeeswarasurya/billing-api/internal/auth"
	"github.com/jagadeeswarasurya/billing-api/internal/database"
	"github.com/jagadeeswarasurya/billing-api/internal/enum"
	"github.com/jagadeeswarasurya/billing-api/internal/handler"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock UserStore ---

type mockUserStore struct {
	getByEmailFn func(ctx context.Context, email string) (database.User, error)
	getByIDFn    func(ctx context.Context, id uuid.UUID) (database.User, error)
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (database.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockUserStore) GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return database.User{}, pgx.ErrNoRows
}

func setupAuthRouter(store *mockUserStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testJWTSecret)
	r := chi.NewRouter()
	r.Route("/auth", h.RegisterRoutes)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func testUser(t *testing.T, password string) database.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return database.User{
		ID:             uuid.New(),
		Email:          "cashier@test.com",
		HashedPassword: string(hashed),
		FullName:       "Test Cashier",
		Role:           enum.UserRoleCashier,
		CreatedAt:      time.Now(),
	}
}

// --- Tests ---

func TestLoginSuccess(t *testing.T) {
	user := testUser(t, "password123")
	store := &mockUserStore{
		getByEmailFn: func(ctx context.Context, email string) (database.User, error) {
			if email != user.Email {
				return database.User{}, pgx.ErrNoRows
			}
			return user, nil
		},
	}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, http.MethodPost, "/auth/login",
		map[string]string{"email": user.Email, "password": "password123"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	tokenStr, _ := resp["token"].(string)
	if tokenStr == "" {
		t.Fatal("expected a token")
	}

	claims, err := auth.ValidateToken(testJWTSecret, tokenStr)
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enum.UserRoleCashier {
		t.Errorf("claims: got %+v", claims)
	}
	if resp["refresh_token"] == "" {
		t.Error("expected a refresh token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, "password123")
	store := &mockUserStore{
		getByEmailFn: func(ctx context.Context, email string) (database.User, error) {
			return user, nil
		},
	}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, http.MethodPost, "/auth/login",
		map[string]string{"email": user.Email, "password": "wrong"})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	router := setupAuthRouter(&mockUserStore{})

	rr := doRequest(t, router, http.MethodPost, "/auth/login",
		map[string]string{"email": "nobody@test.com", "password": "password123"})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestLoginMissingFields(t *testing.T) {
	router := setupAuthRouter(&mockUserStore{})

	rr := doRequest(t, router, http.MethodPost, "/auth/login",
		map[string]string{"email": "cashier@test.com"})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestRefreshIssuesNewTokens(t *testing.T) {
	user := testUser(t, "password123")
	store := &mockUserStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			if id != user.ID {
				return database.User{}, pgx.ErrNoRows
			}
			return user, nil
		},
	}
	router := setupAuthRouter(store)

	refresh, err := auth.GenerateRefreshToken(testJWTSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := doRequest(t, router, http.MethodPost, "/auth/refresh",
		map[string]string{"refresh_token": refresh})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	resp := decodeBody(t, rr)
	if resp["token"] == "" {
		t.Error("expected a new token")
	}
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	router := setupAuthRouter(&mockUserStore{})

	rr := doRequest(t, router, http.MethodPost, "/auth/refresh",
		map[string]string{"refresh_token": "not.a.jwt"})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}
