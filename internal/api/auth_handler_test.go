package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/api/shared"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/mocks"
	"github.com/phrazzld/todo-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var created *domain.User
		userStore := &mocks.MockUserStore{
			CreateFn: func(ctx context.Context, user *domain.User) error {
				created = user
				return nil
			},
		}
		hasher := &mocks.MockPasswordHasher{Hashed: "hashed-password"}
		handler := NewAuthHandler(userStore, &mocks.MockJWTService{}, hasher)

		w := postJSON(t, handler.Register, "/api/auth/register",
			`{"email":"new@example.com","password":"password123"}`)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp MessageResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "user registered successfully", resp.Message)

		// No token in the registration response; login is a separate step.
		assert.NotContains(t, w.Body.String(), "token")

		require.NotNil(t, created)
		assert.Equal(t, "new@example.com", created.Email)
		assert.Equal(t, "hashed-password", created.HashedPassword)
		assert.Empty(t, created.Password)
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Parallel()

		userStore := &mocks.MockUserStore{Err: store.ErrEmailExists}
		handler := NewAuthHandler(userStore, &mocks.MockJWTService{}, &mocks.MockPasswordHasher{Hashed: "h"})

		w := postJSON(t, handler.Register, "/api/auth/register",
			`{"email":"taken@example.com","password":"password123"}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "already registered")
	})

	t.Run("validation failures", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name string
			body string
		}{
			{name: "malformed JSON", body: `{"email":`},
			{name: "missing email", body: `{"password":"password123"}`},
			{name: "invalid email", body: `{"email":"not-an-email","password":"password123"}`},
			{name: "short password", body: `{"email":"a@example.com","password":"short"}`},
			{name: "long password", body: `{"email":"a@example.com","password":"` + strings.Repeat("x", 73) + `"}`},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				userStore := &mocks.MockUserStore{
					CreateFn: func(ctx context.Context, user *domain.User) error {
						t.Error("store should not be reached on validation failure")
						return nil
					},
				}
				handler := NewAuthHandler(userStore, &mocks.MockJWTService{}, &mocks.MockPasswordHasher{})

				w := postJSON(t, handler.Register, "/api/auth/register", tt.body)
				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
	})

	t.Run("hasher failure", func(t *testing.T) {
		t.Parallel()

		hasher := &mocks.MockPasswordHasher{HashErr: errors.New("bcrypt exploded")}
		handler := NewAuthHandler(&mocks.MockUserStore{}, &mocks.MockJWTService{}, hasher)

		w := postJSON(t, handler.Register, "/api/auth/register",
			`{"email":"a@example.com","password":"password123"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "bcrypt")
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	knownUser := &domain.User{
		ID:             userID,
		Email:          "known@example.com",
		HashedPassword: "stored-hash",
	}

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		userStore := &mocks.MockUserStore{User: knownUser}
		jwtService := &mocks.MockJWTService{Token: "signed.jwt.token"}
		handler := NewAuthHandler(userStore, jwtService, &mocks.MockPasswordHasher{})

		w := postJSON(t, handler.Login, "/api/auth/login",
			`{"email":"known@example.com","password":"password123"}`)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "signed.jwt.token", resp.Token)
		assert.Equal(t, userID, resp.UserID)
		assert.Equal(t, "known@example.com", resp.Email)
	})

	t.Run("unknown email and wrong password are indistinguishable", func(t *testing.T) {
		t.Parallel()

		unknownStore := &mocks.MockUserStore{Err: store.ErrUserNotFound}
		wrongPassStore := &mocks.MockUserStore{User: knownUser}
		wrongPassHasher := &mocks.MockPasswordHasher{CompareErr: errors.New("mismatch")}

		handlerUnknown := NewAuthHandler(unknownStore, &mocks.MockJWTService{}, &mocks.MockPasswordHasher{})
		handlerWrongPass := NewAuthHandler(wrongPassStore, &mocks.MockJWTService{}, wrongPassHasher)

		wUnknown := postJSON(t, handlerUnknown.Login, "/api/auth/login",
			`{"email":"nobody@example.com","password":"password123"}`)
		wWrongPass := postJSON(t, handlerWrongPass.Login, "/api/auth/login",
			`{"email":"known@example.com","password":"wrongpass"}`)

		assert.Equal(t, http.StatusUnauthorized, wUnknown.Code)
		assert.Equal(t, http.StatusUnauthorized, wWrongPass.Code)

		var respUnknown, respWrongPass shared.ErrorResponse
		require.NoError(t, json.Unmarshal(wUnknown.Body.Bytes(), &respUnknown))
		require.NoError(t, json.Unmarshal(wWrongPass.Body.Bytes(), &respWrongPass))
		assert.Equal(t, respUnknown.Error, respWrongPass.Error)
	})

	t.Run("token generation failure", func(t *testing.T) {
		t.Parallel()

		userStore := &mocks.MockUserStore{User: knownUser}
		jwtService := &mocks.MockJWTService{Err: errors.New("signing failed")}
		handler := NewAuthHandler(userStore, jwtService, &mocks.MockPasswordHasher{})

		w := postJSON(t, handler.Login, "/api/auth/login",
			`{"email":"known@example.com","password":"password123"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "signing")
	})

	t.Run("validation failure", func(t *testing.T) {
		t.Parallel()

		handler := NewAuthHandler(&mocks.MockUserStore{}, &mocks.MockJWTService{}, &mocks.MockPasswordHasher{})
		w := postJSON(t, handler.Login, "/api/auth/login", `{"email":"known@example.com"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
