package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"civicfix/pkg/domain"
	dErrors "civicfix/pkg/domain-errors"
	"civicfix/pkg/platform/httputil"
)

// TokenValidator resolves a bearer token into verified claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// RevocationChecker reports whether a token id has been revoked (logout).
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenClaims is the subset of JWT claims the middleware needs.
type TokenClaims struct {
	UserID string
	Email  string
	Role   string
	JTI    string
}

type contextKeyActor struct{}
type contextKeyTokenID struct{}

// GetActor retrieves the authenticated actor from the context. The second
// return is false when the request was not authenticated.
func GetActor(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(contextKeyActor{}).(domain.Actor)
	return actor, ok
}

// WithActor returns a context carrying the actor. Exported for handler tests.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, contextKeyActor{}, actor)
}

// GetTokenID returns the jti of the token the request authenticated with,
// or empty if none.
func GetTokenID(ctx context.Context) string {
	jti, _ := ctx.Value(contextKeyTokenID{}).(string)
	return jti
}

// WithTokenID returns a context carrying the token id.
func WithTokenID(ctx context.Context, jti string) context.Context {
	return context.WithValue(ctx, contextKeyTokenID{}, jti)
}

// RequireAuth validates the bearer token, checks revocation when a checker
// is configured, and places the resolved Actor in the request context.
// Role and ownership decisions stay with the domain services; this layer
// only establishes who is calling.
func RequireAuth(validator TokenValidator, revocation RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or malformed Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			if revocation != nil && claims.JTI != "" {
				revoked, err := revocation.IsTokenRevoked(ctx, claims.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation",
						"error", err,
						"request_id", GetRequestID(ctx))
					httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to validate token"))
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"jti", claims.JTI,
						"request_id", GetRequestID(ctx))
					httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked"))
					return
				}
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject"))
				return
			}
			role := domain.Role(claims.Role)
			if !role.IsValid() {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "unknown role"))
				return
			}

			actor := domain.Actor{ID: userID, Email: claims.Email, Role: role}
			ctx = WithActor(ctx, actor)
			ctx = WithTokenID(ctx, claims.JTI)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
