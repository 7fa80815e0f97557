package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"civicfix/internal/complaint/models"
	"civicfix/internal/complaint/service"
	"civicfix/internal/complaint/store"
	identitymodels "civicfix/internal/identity/models"
	"civicfix/internal/notify"
	"civicfix/internal/platform/middleware"
	"civicfix/pkg/domain"
)

type stubEvidence struct{}

func (stubEvidence) Store(_ context.Context, filename, _ string, _ []byte) (string, error) {
	return "https://media.local/" + filename, nil
}

type stubUsers struct{}

func (stubUsers) FindByID(_ context.Context, id uuid.UUID) (*identitymodels.User, error) {
	return &identitymodels.User{ID: id, Name: "Asha Verma", Email: "asha@example.com"}, nil
}

type stubForwarder struct {
	sent []string
}

func (s *stubForwarder) SendDepartmentForward(_ context.Context, target string, _ notify.ComplaintSummary) error {
	s.sent = append(s.sent, target)
	return nil
}

func newComplaintRouter(t *testing.T) (http.Handler, *stubForwarder) {
	t.Helper()
	forwarder := &stubForwarder{}
	svc := service.New(store.NewInMemory(), stubEvidence{}, stubUsers{},
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithForwardMailer(forwarder),
	)

	h := New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	// Actor injected from headers; token parsing is covered by the
	// middleware tests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if id := req.Header.Get("X-Test-User"); id != "" {
				role := domain.Role(req.Header.Get("X-Test-Role"))
				actor := domain.Actor{ID: uuid.MustParse(id), Role: role}
				req = req.WithContext(middleware.WithActor(req.Context(), actor))
			}
			next.ServeHTTP(w, req)
		})
	})
	h.Register(r)
	return r, forwarder
}

func asUser(req *http.Request, id uuid.UUID, role domain.Role) {
	req.Header.Set("X-Test-User", id.String())
	req.Header.Set("X-Test-Role", string(role))
}

func multipartBody(t *testing.T, fields map[string]string, photoName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if photoName != "" {
		part, err := mw.CreateFormFile("photo", photoName)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake-jpeg-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func createFields() map[string]string {
	return map[string]string{
		"title":       "Broken streetlight",
		"description": "Dark corner at night",
		"category":    "Lighting",
		"latitude":    "12.9716",
		"longitude":   "77.5946",
		"address":     "5th Cross, ward 12",
	}
}

func fileComplaint(t *testing.T, router http.Handler, citizenID uuid.UUID) models.Complaint {
	t.Helper()
	body, contentType := multipartBody(t, createFields(), "light.jpg")
	req := httptest.NewRequest(http.MethodPost, "/complaints", body)
	req.Header.Set("Content-Type", contentType)
	asUser(req, citizenID, domain.RoleCitizen)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var c models.Complaint
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&c))
	return c
}

func putJSON(t *testing.T, router http.Handler, method, path string, payload any, id uuid.UUID, role domain.Role) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	asUser(req, id, role)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp["error"]
}

func TestCreateComplaintEndpoint(t *testing.T) {
	router, _ := newComplaintRouter(t)
	citizen := uuid.New()

	c := fileComplaint(t, router, citizen)
	require.Equal(t, models.StatusRegistered, c.Status)
	require.Equal(t, citizen, c.OwnerID)
	require.Equal(t, "https://media.local/light.jpg", c.EvidenceURL)
}

func TestCreateComplaintEndpointRejectsMissingPhoto(t *testing.T) {
	router, _ := newComplaintRouter(t)

	body, contentType := multipartBody(t, createFields(), "")
	req := httptest.NewRequest(http.MethodPost, "/complaints", body)
	req.Header.Set("Content-Type", contentType)
	asUser(req, uuid.New(), domain.RoleCitizen)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", errorCode(t, rec))
}

func TestCreateComplaintEndpointRejectsBadLatitude(t *testing.T) {
	router, _ := newComplaintRouter(t)

	fields := createFields()
	fields["latitude"] = "not-a-number"
	body, contentType := multipartBody(t, fields, "light.jpg")
	req := httptest.NewRequest(http.MethodPost, "/complaints", body)
	req.Header.Set("Content-Type", contentType)
	asUser(req, uuid.New(), domain.RoleCitizen)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", errorCode(t, rec))
}

func TestCreateComplaintEndpointRequiresAuth(t *testing.T) {
	router, _ := newComplaintRouter(t)

	body, contentType := multipartBody(t, createFields(), "light.jpg")
	req := httptest.NewRequest(http.MethodPost, "/complaints", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListEndpoints(t *testing.T) {
	router, _ := newComplaintRouter(t)
	citizen := uuid.New()
	fileComplaint(t, router, citizen)

	t.Run("owner list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/complaints/my", nil)
		asUser(req, citizen, domain.RoleCitizen)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var list []models.Complaint
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
		require.Len(t, list, 1)
	})

	t.Run("admin list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/complaints", nil)
		asUser(req, uuid.New(), domain.RoleAdmin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("citizen cannot list all", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/complaints", nil)
		asUser(req, citizen, domain.RoleCitizen)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestUpdateStatusEndpoint(t *testing.T) {
	router, _ := newComplaintRouter(t)
	citizen, admin := uuid.New(), uuid.New()
	c := fileComplaint(t, router, citizen)

	rec := putJSON(t, router, http.MethodPut, "/complaints/"+c.ID.String()+"/status", map[string]string{
		"status":             "In Progress",
		"resolution_details": "crew dispatched",
	}, admin, domain.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Complaint
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	require.Equal(t, models.StatusInProgress, updated.Status)

	t.Run("citizen forbidden", func(t *testing.T) {
		rec := putJSON(t, router, http.MethodPut, "/complaints/"+c.ID.String()+"/status", map[string]string{
			"status": "Resolved", "resolution_details": "x",
		}, citizen, domain.RoleCitizen)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := putJSON(t, router, http.MethodPut, "/complaints/not-a-uuid/status", map[string]string{
			"status": "Resolved", "resolution_details": "x",
		}, admin, domain.RoleAdmin)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		rec := putJSON(t, router, http.MethodPut, "/complaints/"+uuid.NewString()+"/status", map[string]string{
			"status": "Resolved", "resolution_details": "x",
		}, admin, domain.RoleAdmin)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestVerifyEndpointFullCycle(t *testing.T) {
	router, _ := newComplaintRouter(t)
	citizen, admin := uuid.New(), uuid.New()
	c := fileComplaint(t, router, citizen)

	rec := putJSON(t, router, http.MethodPut, "/complaints/"+c.ID.String()+"/status", map[string]string{
		"status": "Resolved", "resolution_details": "light replaced",
	}, admin, domain.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code)

	body, contentType := multipartBody(t, map[string]string{
		"confirmed": "true",
		"latitude":  "12.9716",
		"longitude": "77.5946",
	}, "verify.jpg")
	req := httptest.NewRequest(http.MethodPost, "/complaints/"+c.ID.String()+"/verify", body)
	req.Header.Set("Content-Type", contentType)
	asUser(req, citizen, domain.RoleCitizen)
	vrec := httptest.NewRecorder()
	router.ServeHTTP(vrec, req)
	require.Equal(t, http.StatusOK, vrec.Code, vrec.Body.String())

	var verified models.Complaint
	require.NoError(t, json.NewDecoder(vrec.Body).Decode(&verified))
	require.Equal(t, models.StatusVerifiedComplete, verified.Status)
	require.Len(t, verified.Verifications, 1)

	t.Run("admin reads the verification record", func(t *testing.T) {
		path := fmt.Sprintf("/complaints/%s/verifications/%s", c.ID, verified.Verifications[0].ID)
		req := httptest.NewRequest(http.MethodGet, path, nil)
		asUser(req, admin, domain.RoleAdmin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var view struct {
			ComplaintTitle string `json:"complaint_title"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
		require.Equal(t, "Broken streetlight", view.ComplaintTitle)
	})

	t.Run("second verification conflicts", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{
			"confirmed": "false", "latitude": "12.9716", "longitude": "77.5946",
		}, "again.jpg")
		req := httptest.NewRequest(http.MethodPost, "/complaints/"+c.ID.String()+"/verify", body)
		req.Header.Set("Content-Type", contentType)
		asUser(req, citizen, domain.RoleCitizen)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestVerifyEndpointRejectsMissingConfirmed(t *testing.T) {
	router, _ := newComplaintRouter(t)
	citizen := uuid.New()
	c := fileComplaint(t, router, citizen)

	body, contentType := multipartBody(t, map[string]string{
		"latitude": "12.9716", "longitude": "77.5946",
	}, "verify.jpg")
	req := httptest.NewRequest(http.MethodPost, "/complaints/"+c.ID.String()+"/verify", body)
	req.Header.Set("Content-Type", contentType)
	asUser(req, citizen, domain.RoleCitizen)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", errorCode(t, rec))
}

func TestForwardEndpoint(t *testing.T) {
	router, forwarder := newComplaintRouter(t)
	citizen, admin := uuid.New(), uuid.New()
	c := fileComplaint(t, router, citizen)

	rec := putJSON(t, router, http.MethodPost, "/complaints/"+c.ID.String()+"/forward", map[string]string{
		"target_address": "Lighting@City.gov",
	}, admin, domain.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, []string{"lighting@city.gov"}, forwarder.sent)

	t.Run("citizen forbidden", func(t *testing.T) {
		rec := putJSON(t, router, http.MethodPost, "/complaints/"+c.ID.String()+"/forward", map[string]string{
			"target_address": "lighting@city.gov",
		}, citizen, domain.RoleCitizen)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("bad address", func(t *testing.T) {
		rec := putJSON(t, router, http.MethodPost, "/complaints/"+c.ID.String()+"/forward", map[string]string{
			"target_address": "not-an-email",
		}, admin, domain.RoleAdmin)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetComplaintEndpointScoping(t *testing.T) {
	router, _ := newComplaintRouter(t)
	citizen := uuid.New()
	c := fileComplaint(t, router, citizen)

	t.Run("owner reads own", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/complaints/"+c.ID.String(), nil)
		asUser(req, citizen, domain.RoleCitizen)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/complaints/"+c.ID.String(), nil)
		asUser(req, uuid.New(), domain.RoleCitizen)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}
