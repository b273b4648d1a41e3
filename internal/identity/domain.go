// internal/identity/domain.go
package identity

import (
	"time"

	"github.com/google/uuid"

	"rentnexus/internal/auth"
)

// User represents a marketplace account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      auth.Role `json:"role"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credential represents a user's login credentials.
type Credential struct {
	UserID       uuid.UUID `json:"user_id"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
}

// UserRegisteredEvent is published when a new account registers.
type UserRegisteredEvent struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  auth.Role `json:"role"`
}

// UserRoleChangedEvent is published when an admin changes an account role.
type UserRoleChangedEvent struct {
	ID      uuid.UUID `json:"id"`
	NewRole auth.Role `json:"new_role"`
}
