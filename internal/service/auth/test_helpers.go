package auth

import "time"

// NewTestJWTService creates a JWT service with an injectable time function
// for deterministic expiry testing. Intended for use in tests only.
func NewTestJWTService(
	secret string,
	lifetime time.Duration,
	issuer string,
	audience string,
	timeFunc func() time.Time,
) JWTService {
	if timeFunc == nil {
		timeFunc = time.Now
	}
	return &hmacJWTService{
		signingKey:    []byte(secret),
		tokenLifetime: lifetime,
		issuer:        issuer,
		audience:      audience,
		timeFunc:      timeFunc,
		clockSkew:     0, // No leeway, so expiry boundaries are exact in tests
	}
}
