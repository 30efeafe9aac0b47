package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/mocks"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	validClaims := &auth.Claims{UserID: userID, Email: "user@example.com"}

	t.Run("valid token reaches handler with user ID", func(t *testing.T) {
		t.Parallel()

		jwtService := &mocks.MockJWTService{
			ValidateTokenFn: func(ctx context.Context, tokenString string) (*auth.Claims, error) {
				assert.Equal(t, "valid-token", tokenString)
				return validClaims, nil
			},
		}
		mw := NewAuthMiddleware(jwtService)

		var gotUserID uuid.UUID
		var handlerCalled bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			id, ok := GetUserID(r)
			require.True(t, ok)
			gotUserID = id
		})

		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()

		mw.Authenticate(next).ServeHTTP(w, req)

		assert.True(t, handlerCalled)
		assert.Equal(t, userID, gotUserID)
	})

	t.Run("rejections", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name        string
			authHeader  string
			validateErr error
		}{
			{name: "no header", authHeader: ""},
			{name: "wrong scheme", authHeader: "Basic dXNlcjpwYXNz"},
			{name: "empty token", authHeader: "Bearer "},
			{name: "scheme only", authHeader: "Bearer"},
			{name: "expired token", authHeader: "Bearer expired", validateErr: auth.ErrExpiredToken},
			{name: "bad signature", authHeader: "Bearer forged", validateErr: auth.ErrInvalidSignature},
			{name: "malformed token", authHeader: "Bearer junk", validateErr: auth.ErrMalformedToken},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				jwtService := &mocks.MockJWTService{Err: tt.validateErr}
				if tt.validateErr == nil {
					jwtService.ValidateTokenFn = func(ctx context.Context, tokenString string) (*auth.Claims, error) {
						t.Error("token validation should not run without a bearer token")
						return nil, auth.ErrInvalidToken
					}
				}
				mw := NewAuthMiddleware(jwtService)

				next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					t.Error("handler should not be reached")
				})

				req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
				if tt.authHeader != "" {
					req.Header.Set("Authorization", tt.authHeader)
				}
				w := httptest.NewRecorder()

				mw.Authenticate(next).ServeHTTP(w, req)

				assert.Equal(t, http.StatusUnauthorized, w.Code)
				// The body must not reveal which check failed.
				assert.NotContains(t, w.Body.String(), "signature")
				assert.NotContains(t, w.Body.String(), "malformed")
			})
		}
	})

	t.Run("lowercase bearer scheme accepted", func(t *testing.T) {
		t.Parallel()

		jwtService := &mocks.MockJWTService{Claims: validClaims}
		mw := NewAuthMiddleware(jwtService)

		var handlerCalled bool
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "bearer valid-token")
		w := httptest.NewRecorder()

		mw.Authenticate(next).ServeHTTP(w, req)

		assert.True(t, handlerCalled)
	})
}

func TestGetUserID(t *testing.T) {
	t.Parallel()

	t.Run("absent", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, ok := GetUserID(req)
		assert.False(t, ok)
	})
}
