package auth

import "errors"

// Token validation errors. Callers need to tell "retry login" failures
// (expired) apart from tampering (bad signature) and from internal
// misconfiguration (wrong issuer or audience), so each gets its own
// sentinel. None of these distinctions are exposed to API clients; the
// middleware logs the subtype and responds with a generic 401.
var (
	// ErrMissingToken indicates a token was expected but not provided.
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrMalformedToken indicates the token is not a structurally valid JWT.
	ErrMalformedToken = errors.New("authentication token is malformed")

	// ErrInvalidSignature indicates the token signature does not verify
	// against the service's key, regardless of claim content.
	ErrInvalidSignature = errors.New("authentication token signature is invalid")

	// ErrExpiredToken indicates the token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid.
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrWrongAudience indicates the token was issued for a different
	// audience than this service accepts.
	ErrWrongAudience = errors.New("authentication token has wrong audience")

	// ErrWrongIssuer indicates the token was issued by a different issuer
	// than this service accepts.
	ErrWrongIssuer = errors.New("authentication token has wrong issuer")

	// ErrInvalidToken is the catch-all for tokens that fail validation in
	// a way not covered by a more specific error above.
	ErrInvalidToken = errors.New("invalid authentication token")
)
