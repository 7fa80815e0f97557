package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"civicfix/internal/complaint/events"
	"civicfix/internal/complaint/models"
	identitymodels "civicfix/internal/identity/models"
	"civicfix/internal/notify"
	"civicfix/internal/platform/metrics"
	"civicfix/pkg/domain"
	dErrors "civicfix/pkg/domain-errors"
	"civicfix/pkg/platform/sentinel"
)

// Store is the complaint repository. Update applies its mutator atomically
// per complaint: the mutator re-validates preconditions against current
// state and an error from it aborts with nothing written.
type Store interface {
	Create(ctx context.Context, c *models.Complaint) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Complaint, error)
	ListAll(ctx context.Context) ([]*models.Complaint, error)
	Update(ctx context.Context, id uuid.UUID, mutate func(*models.Complaint) error) (*models.Complaint, error)
}

// EvidenceStore persists an uploaded photo and returns its public URL.
type EvidenceStore interface {
	Store(ctx context.Context, filename, mimeType string, data []byte) (string, error)
}

// StatusNotifier queues best-effort status emails to the owner.
type StatusNotifier interface {
	Enqueue(ctx context.Context, notice notify.StatusNotice)
}

// ForwardMailer sends the synchronous department forwarding email. Unlike
// status notices, its failure is the caller's problem.
type ForwardMailer interface {
	SendDepartmentForward(ctx context.Context, targetEmail string, c notify.ComplaintSummary) error
}

// UserFinder resolves complaint owners to their account records.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identitymodels.User, error)
}

// Service is the complaint lifecycle engine. Every operation checks the
// actor's role first, then loads state and validates the transition.
type Service struct {
	store     Store
	evidence  EvidenceStore
	users     UserFinder
	notifier  StatusNotifier
	forwarder ForwardMailer
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithStatusNotifier(n StatusNotifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithForwardMailer(m ForwardMailer) Option {
	return func(s *Service) {
		s.forwarder = m
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store Store, evidence EvidenceStore, users UserFinder, opts ...Option) *Service {
	s := &Service{
		store:     store,
		evidence:  evidence,
		users:     users,
		publisher: events.Noop{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("civicfix/complaint"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new complaint for the calling citizen.
func (s *Service) Create(ctx context.Context, actor domain.Actor, req *models.CreateComplaintRequest) (*models.Complaint, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.Create")
	defer span.End()

	if actor.Role != domain.RoleCitizen {
		return nil, dErrors.New(dErrors.CodeForbidden, "only citizens can file complaints")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	evidenceURL, err := s.evidence.Store(ctx, req.EvidenceFilename, req.EvidenceMIME, req.EvidenceData)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store photo evidence")
	}

	c, err := models.NewComplaint(uuid.New(), actor.ID,
		req.Title, req.Description, req.Category, evidenceURL,
		models.Location{Latitude: req.Latitude, Longitude: req.Longitude, Address: req.Address},
		s.now())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
		}
		return nil, err
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create complaint")
	}

	s.logger.InfoContext(ctx, "complaint created",
		"complaint_id", c.ID,
		"owner_id", c.OwnerID,
		"category", c.Category)
	if s.metrics != nil {
		s.metrics.ComplaintsCreated.Inc()
	}
	return c, nil
}

// ListMine returns the calling citizen's complaints, newest first.
func (s *Service) ListMine(ctx context.Context, actor domain.Actor) ([]*models.Complaint, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.ListMine")
	defer span.End()

	if actor.Role != domain.RoleCitizen {
		return nil, dErrors.New(dErrors.CodeForbidden, "only citizens have a personal complaint list")
	}
	list, err := s.store.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list complaints")
	}
	return list, nil
}

// ListAll returns every complaint. Admin only.
func (s *Service) ListAll(ctx context.Context, actor domain.Actor) ([]*models.Complaint, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.ListAll")
	defer span.End()

	if actor.Role != domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "admin access required")
	}
	list, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list complaints")
	}
	return list, nil
}

// Get returns one complaint. Admins can read any; citizens only their own.
func (s *Service) Get(ctx context.Context, actor domain.Actor, complaintID uuid.UUID) (*models.Complaint, error) {
	ctx, span := s.tracer.Start(ctx, "complaint.Get")
	defer span.End()

	c, err := s.load(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin && c.OwnerID != actor.ID {
		return nil, dErrors.New(dErrors.CodeForbidden, "you do not have access to this complaint")
	}
	return c, nil
}

func (s *Service) load(ctx context.Context, complaintID uuid.UUID) (*models.Complaint, error) {
	c, err := s.store.FindByID(ctx, complaintID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load complaint")
	}
	return c, nil
}

// notifyOwner queues a best-effort status email. Missing owner accounts or
// queue pressure are logged, never surfaced.
func (s *Service) notifyOwner(ctx context.Context, c *models.Complaint) {
	if s.notifier == nil {
		return
	}
	owner, err := s.users.FindByID(ctx, c.OwnerID)
	if err != nil {
		s.logger.WarnContext(ctx, "cannot notify owner, account lookup failed",
			"complaint_id", c.ID, "owner_id", c.OwnerID, "error", err)
		if s.metrics != nil {
			s.metrics.NotifyFailures.Inc()
		}
		return
	}
	s.notifier.Enqueue(ctx, notify.StatusNotice{
		Email:       owner.Email,
		ComplaintID: c.ID,
		NewStatus:   string(c.Status),
	})
}

func (s *Service) publishStatus(ctx context.Context, c *models.Complaint, actorID uuid.UUID) {
	s.publisher.PublishStatusChange(ctx, events.StatusEvent{
		ComplaintID:        c.ID,
		OwnerID:            c.OwnerID,
		Status:             string(c.Status),
		VerificationStatus: string(c.VerificationStatus),
		ActorID:            actorID,
		OccurredAt:         s.now(),
	})
}
