package providers

import "context"

// AuthProvider verifies the bearer tokens presented by joining clients and
// API callers.
type AuthProvider interface {
	VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error)
}

type TokenClaims struct {
	UID string `json:"uid"`
}
