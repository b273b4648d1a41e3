// internal/auth/token.go
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"rentnexus/internal/fault"
)

// Claims is the session token payload.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: now}
}

// Issue creates a signed HS256 token for the identity.
func (t *TokenIssuer) Issue(id Identity) (string, error) {
	claims := Claims{
		Role: string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.String(),
			IssuedAt:  jwt.NewNumericDate(t.now()),
			ExpiresAt: jwt.NewNumericDate(t.now().Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses a token and resolves the identity it carries.
func (t *TokenIssuer) Verify(tokenStr string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fault.Unauthenticated("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return Identity{}, fault.Wrap(fault.KindUnauthenticated, "invalid token", err)
	}
	if !token.Valid {
		return Identity{}, fault.Unauthenticated("invalid token")
	}

	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fault.Unauthenticated("invalid token subject")
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Identity{}, fault.Unauthenticated("invalid token role")
	}

	return Identity{ID: sub, Role: role}, nil
}
