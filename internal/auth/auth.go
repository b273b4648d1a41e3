// internal/auth/auth.go
package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rentnexus/internal/fault"
)

// Role is the closed set of principal roles.
type Role string

const (
	RoleTenant   Role = "TENANT"
	RoleLandlord Role = "LANDLORD"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole rejects anything outside the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleTenant, RoleLandlord, RoleAdmin:
		return Role(s), nil
	default:
		return "", fault.InvalidInput(fmt.Sprintf("unknown role %q", s))
	}
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

type contextKey struct{}

// ContextWithIdentity returns a derived context carrying the identity.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext extracts the identity resolved by the middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
