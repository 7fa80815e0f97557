package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"civicfix/internal/complaint/models"
	"civicfix/internal/complaint/service"
	"civicfix/internal/platform/middleware"
	"civicfix/pkg/domain"
	dErrors "civicfix/pkg/domain-errors"
	"civicfix/pkg/platform/httputil"
)

// maxUploadBytes caps the multipart form size, photo included.
const maxUploadBytes = 10 << 20

// Service defines the complaint operations the handler depends on.
type Service interface {
	Create(ctx context.Context, actor domain.Actor, req *models.CreateComplaintRequest) (*models.Complaint, error)
	ListMine(ctx context.Context, actor domain.Actor) ([]*models.Complaint, error)
	ListAll(ctx context.Context, actor domain.Actor) ([]*models.Complaint, error)
	Get(ctx context.Context, actor domain.Actor, complaintID uuid.UUID) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, complaintID uuid.UUID, req *models.UpdateStatusRequest) (*models.Complaint, error)
	SubmitVerification(ctx context.Context, actor domain.Actor, complaintID uuid.UUID, req *models.VerifyRequest) (*models.Complaint, error)
	GetVerification(ctx context.Context, actor domain.Actor, complaintID, verificationID uuid.UUID) (*service.VerificationView, error)
	Forward(ctx context.Context, actor domain.Actor, complaintID uuid.UUID, req *models.ForwardRequest) error
}

// Handler wires the complaint lifecycle endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the complaint endpoints. All of them require an
// authenticated actor; role checks happen in the service.
func (h *Handler) Register(r chi.Router) {
	r.Route("/complaints", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleListAll)
		r.Get("/my", h.HandleListMine)
		r.Route("/{complaintID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Put("/status", h.HandleUpdateStatus)
			r.Post("/verify", h.HandleVerify)
			r.Post("/forward", h.HandleForward)
			r.Get("/verifications/{verificationID}", h.HandleGetVerification)
		})
	})
}

func actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	a, ok := middleware.GetActor(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
	}
	return a, ok
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid "+param))
		return uuid.Nil, false
	}
	return id, true
}

// readPhoto pulls the uploaded file out of an already-parsed multipart
// form. The field is named "photo" to match the web client.
func readPhoto(r *http.Request) (data []byte, filename, mimeType string, err error) {
	file, header, err := r.FormFile("photo")
	if err != nil {
		return nil, "", "", dErrors.New(dErrors.CodeValidation, "a photo upload is required")
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		return nil, "", "", dErrors.New(dErrors.CodeBadRequest, "failed to read uploaded photo")
	}
	return data, header.Filename, header.Header.Get("Content-Type"), nil
}

func formFloat(r *http.Request, field string) (float64, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeValidation, "%s must be a number", field)
	}
	return v, nil
}

// HandleCreate handles POST /complaints. The body is a multipart form:
// text fields plus the photo file.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, ok := actor(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected a multipart form"))
		return
	}

	req := &models.CreateComplaintRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Address:     r.FormValue("address"),
	}
	var err error
	if req.Latitude, err = formFloat(r, "latitude"); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Longitude, err = formFloat(r, "longitude"); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.EvidenceData, req.EvidenceFilename, req.EvidenceMIME, err = readPhoto(r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.service.Create(ctx, a, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "complaint creation failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// HandleListMine handles GET /complaints/my.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListMine(r.Context(), a)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

// HandleListAll handles GET /complaints.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListAll(r.Context(), a)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

// HandleGet handles GET /complaints/{complaintID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "complaintID")
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), a, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleUpdateStatus handles PUT /complaints/{complaintID}/status.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "complaintID")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateStatusRequest](w, r)
	if !ok {
		return
	}

	c, err := h.service.UpdateStatus(ctx, a, id, req)
	if err != nil {
		h.logger.WarnContext(ctx, "status update rejected",
			"request_id", middleware.GetRequestID(ctx),
			"complaint_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleVerify handles POST /complaints/{complaintID}/verify. Multipart
// form: confirmed, latitude, longitude, and the photo file.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "complaintID")
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "expected a multipart form"))
		return
	}

	confirmed, err := strconv.ParseBool(r.FormValue("confirmed"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "confirmed must be true or false"))
		return
	}
	req := &models.VerifyRequest{Confirmed: confirmed}
	if req.Latitude, err = formFloat(r, "latitude"); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Longitude, err = formFloat(r, "longitude"); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.EvidenceData, req.EvidenceFilename, req.EvidenceMIME, err = readPhoto(r); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.service.SubmitVerification(ctx, a, id, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleForward handles POST /complaints/{complaintID}/forward.
func (h *Handler) HandleForward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "complaintID")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ForwardRequest](w, r)
	if !ok {
		return
	}

	if err := h.service.Forward(ctx, a, id, req); err != nil {
		h.logger.WarnContext(ctx, "complaint forwarding failed",
			"request_id", middleware.GetRequestID(ctx),
			"complaint_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "forwarded"})
}

// HandleGetVerification handles
// GET /complaints/{complaintID}/verifications/{verificationID}.
func (h *Handler) HandleGetVerification(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	complaintID, ok := pathID(w, r, "complaintID")
	if !ok {
		return
	}
	verificationID, ok := pathID(w, r, "verificationID")
	if !ok {
		return
	}
	view, err := h.service.GetVerification(r.Context(), a, complaintID, verificationID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}
