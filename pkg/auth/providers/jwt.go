package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var _ AuthProvider = &JWTAuthProvider{}

// JWTAuthProvider verifies HS256 tokens signed with a shared secret. It is
// meant for local hosting where no Firebase project is configured.
type JWTAuthProvider struct {
	secret []byte
}

func NewJWTAuthProvider(secret string) (*JWTAuthProvider, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	return &JWTAuthProvider{secret: []byte(secret)}, nil
}

// VerifyToken checks the signature and expiry and returns the subject.
func (p *JWTAuthProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("error verifying token: %v", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("error verifying token: missing subject")
	}
	return &TokenClaims{UID: claims.Subject}, nil
}

// IssueToken signs a token for uid that expires after ttl.
func (p *JWTAuthProvider) IssueToken(uid string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %v", err)
	}
	return signed, nil
}
