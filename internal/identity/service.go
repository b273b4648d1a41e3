// internal/identity/service.go
package identity

import (
	"context"

	"github.com/google/uuid"

	"rentnexus/internal/auth"
)

// Service defines the interface for the identity service.
type Service interface {
	Register(ctx context.Context, email, name, password string, role auth.Role) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, string, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context, actor auth.Identity) ([]User, error)
	UpdateUserRole(ctx context.Context, actor auth.Identity, id uuid.UUID, role auth.Role) (*User, error)
}
