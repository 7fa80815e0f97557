package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"civicfix/internal/identity/models"
	"civicfix/internal/identity/service"
	"civicfix/internal/identity/store"
	"civicfix/internal/platform/middleware"
	"civicfix/pkg/domain"
)

type stubIssuer struct{}

func (stubIssuer) GenerateAccessToken(uuid.UUID, string, domain.Role) (string, error) {
	return "issued-token", nil
}

func newAuthRouter(t *testing.T) (http.Handler, *service.Service) {
	t.Helper()
	svc := service.New(store.NewInMemory(), stubIssuer{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	// Protected routes get the actor injected directly; token parsing is
	// covered by the middleware tests.
	r.Group(func(pr chi.Router) {
		pr.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				if id := req.Header.Get("X-Test-User"); id != "" {
					actor := domain.Actor{ID: uuid.MustParse(id), Role: domain.RoleCitizen}
					ctx := middleware.WithActor(req.Context(), actor)
					req = req.WithContext(ctx)
				}
				next.ServeHTTP(w, req)
			})
		})
		h.RegisterProtected(pr)
	})
	return r, svc
}

func registerPayload() *models.RegisterRequest {
	return &models.RegisterRequest{
		Name:     "Asha Verma",
		Email:    "asha@example.com",
		Password: "correct horse",
	}
}

func postJSON(t *testing.T, router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"name":     "Asha Verma",
		"email":    "asha@example.com",
		"password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
		Role  string    `json:"role"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&user))
	require.NotEqual(t, uuid.Nil, user.ID)
	require.Equal(t, "asha@example.com", user.Email)
	require.Equal(t, "citizen", user.Role)

	// Hash must never appear in the payload.
	require.NotContains(t, rec.Body.String(), "password")
}

func TestRegisterEndpointValidation(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"name":     "Asha Verma",
		"email":    "asha@example.com",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "validation_error", resp["error"])
}

func TestLoginEndpoint(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(t, router, "/auth/register", map[string]string{
		"name":     "Asha Verma",
		"email":    "asha@example.com",
		"password": "correct horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, router, "/auth/login", map[string]string{
		"email":    "asha@example.com",
		"password": "correct horse",
		"role":     "citizen",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "issued-token", resp.Token)
	require.Equal(t, "asha@example.com", resp.User.Email)
}

func TestLoginEndpointRejectsBadCredentials(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(t, router, "/auth/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "whatever!",
		"role":     "citizen",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeEndpoint(t *testing.T) {
	router, svc := newAuthRouter(t)

	user, err := svc.Register(httptest.NewRequest(http.MethodGet, "/", nil).Context(), registerPayload())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("X-Test-User", user.ID.String())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, user.ID, resp.ID)
}

func TestMeEndpointRequiresAuth(t *testing.T) {
	router, _ := newAuthRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
