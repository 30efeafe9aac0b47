package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService defines operations for issuing and validating bearer tokens.
// Both operations are pure computation: no storage lookup, no revocation
// list. A token is valid exactly when its signature, issuer, audience, and
// expiry check out.
type JWTService interface {
	// GenerateToken creates a signed token carrying the user's identity and
	// email, a fresh unique token ID, and a fixed expiry from issuance.
	// Returns the compact token string or an error if signing fails.
	GenerateToken(ctx context.Context, userID uuid.UUID, email string) (string, error)

	// ValidateToken verifies the token's signature, issuer, audience, and
	// expiry, and extracts its claims. Returns one of the sentinel errors
	// in errors.go on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the validated claim set of an accepted token.
type Claims struct {
	// UserID is the unique identifier of the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// Email is the user's email at issuance time.
	Email string `json:"email,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
