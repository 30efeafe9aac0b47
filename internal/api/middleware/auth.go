package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/service/auth"
)

// AuthMiddleware validates bearer tokens on protected routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
	logger     *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(jwtService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		logger:     slog.Default().With("component", "auth_middleware"),
	}
}

// Authenticate extracts and validates the bearer token from the
// Authorization header. On success the authenticated user's ID is placed
// in the request context; on failure the request is rejected with a 401
// whose body does not reveal which check failed. The specific failure is
// logged for operators.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tokenString, err := extractBearerToken(r)
		if err != nil {
			m.logger.DebugContext(ctx, "missing or malformed authorization header",
				slog.String("trace_id", shared.GetTraceID(ctx)),
				slog.String("path", r.URL.Path))
			shared.RespondWithError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := m.jwtService.ValidateToken(ctx, tokenString)
		if err != nil {
			m.logger.DebugContext(ctx, "token validation failed",
				slog.String("trace_id", shared.GetTraceID(ctx)),
				slog.String("path", r.URL.Path),
				slog.String("reason", err.Error()))
			shared.RespondWithError(w, r, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx = context.WithValue(ctx, shared.UserIDContextKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken pulls the token out of an "Authorization: Bearer x"
// header. The scheme comparison is case-insensitive per RFC 7235.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", auth.ErrMalformedToken
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", auth.ErrMissingToken
	}
	return token, nil
}

// GetUserID retrieves the authenticated user's ID from the request
// context. The second return is false when the request did not pass
// through Authenticate.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	return userID, ok
}
