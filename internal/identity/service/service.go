package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"civicfix/internal/identity/models"
	"civicfix/internal/identity/secrets"
	"civicfix/pkg/domain"
	dErrors "civicfix/pkg/domain-errors"
	"civicfix/pkg/platform/sentinel"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, email string, role domain.Role) (string, error)
}

// TokenRevoker invalidates a token id ahead of its natural expiry.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string) error
}

// Service handles registration, login, and session teardown.
type Service struct {
	users   UserStore
	tokens  TokenIssuer
	revoker TokenRevoker
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTokenRevoker(revoker TokenRevoker) Option {
	return func(s *Service) {
		s.revoker = revoker
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(users UserStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{users: users, tokens: tokens, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a citizen account. There is no self-service path to an
// admin account; admins come from SeedAdmin.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user, err := models.NewUser(uuid.New(), req.Name, req.Email, req.Phone, hash, domain.RoleCitizen, s.now())
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.Message(err))
		}
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	}
	return user, nil
}

// Login verifies credentials and issues an access token. The claimed role
// must match the stored one exactly.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if err := secrets.Verify(req.Password, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, "", err
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	// Deliberately the same message as a bad password; login must not reveal
	// which surface an account belongs to.
	if user.Role != req.Role {
		return nil, "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "role", user.Role)
	}
	return user, token, nil
}

// Me returns the account behind an authenticated actor.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// Logout revokes the caller's token id. Without a revoker configured logout
// is a no-op and tokens simply age out.
func (s *Service) Logout(ctx context.Context, jti string) error {
	if s.revoker == nil || jti == "" {
		return nil
	}
	if err := s.revoker.Revoke(ctx, jti); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to revoke token")
	}
	return nil
}

// SeedAdmin ensures an admin account exists for the given credentials.
// Called at startup; an existing account with the email is left untouched.
func (s *Service) SeedAdmin(ctx context.Context, name, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check for existing admin")
	}

	hash, err := secrets.Hash(password)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash admin password")
	}
	user, err := models.NewUser(uuid.New(), name, email, "", hash, domain.RoleAdmin, s.now())
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "invalid admin seed")
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed admin")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "admin account seeded", "user_id", user.ID)
	}
	return nil
}
