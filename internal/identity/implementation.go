// internal/identity/implementation.go
package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/time/rate"

	"rentnexus/internal/auth"
	"rentnexus/internal/fault"
	"rentnexus/pkg/eventstore"
)

// service implements the Service interface.
type service struct {
	eventStore  *eventstore.EventStore
	db          *sql.DB
	tokens      *auth.TokenIssuer
	rateLimiter *rate.Limiter
}

// NewService creates a new identity service instance.
func NewService(es *eventstore.EventStore, db *sql.DB, tokens *auth.TokenIssuer) Service {
	return &service{
		eventStore:  es,
		db:          db,
		tokens:      tokens,
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 100),
	}
}

// Register creates a new account. Accounts self-register as tenants or
// landlords; the admin role is only ever granted by an existing admin.
func (s *service) Register(ctx context.Context, email, name, password string, role auth.Role) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, fault.Conflict("rate limit exceeded")
	}

	if email == "" || name == "" || password == "" {
		return nil, fault.InvalidInput("email, name and password are required")
	}
	if role != auth.RoleTenant && role != auth.RoleLandlord {
		return nil, fault.InvalidInput("role must be TENANT or LANDLORD")
	}

	id := uuid.New()
	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to hash password", err)
	}

	eventData, err := json.Marshal(UserRegisteredEvent{
		ID:    id,
		Email: email,
		Name:  name,
		Role:  role,
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to marshal event data", err)
	}

	event := eventstore.Event{
		AggregateID:   id,
		AggregateType: "user",
		EventType:     "UserRegistered",
		EventData:     eventData,
		Version:       1,
	}
	if err := s.eventStore.AppendEvents(ctx, id, "user", 0, []eventstore.Event{event}); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to append event", err)
	}

	user := &User{
		ID:      id,
		Email:   email,
		Name:    name,
		Role:    role,
		Version: 1,
	}
	credential := &Credential{
		UserID:       id,
		PasswordHash: passwordHash,
		Salt:         salt,
	}

	if err := s.insertUserIntoReadModel(ctx, user, credential); err != nil {
		if isUniqueViolation(err) {
			return nil, fault.Conflict("an account with this email already exists")
		}
		return nil, fault.Wrap(fault.KindInternal, "failed to update read model", err)
	}

	return user, nil
}

func (s *service) insertUserIntoReadModel(ctx context.Context, user *User, credential *Credential) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	userQuery := `
		INSERT INTO users (id, email, name, role, version)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.ExecContext(ctx, userQuery, user.ID, user.Email, user.Name, user.Role, user.Version)
	if err != nil {
		return err
	}

	credQuery := `
		INSERT INTO credentials (user_id, password_hash, salt)
		VALUES ($1, $2, $3)
	`
	_, err = tx.ExecContext(ctx, credQuery, credential.UserID, credential.PasswordHash, credential.Salt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Authenticate verifies credentials and mints a session token.
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, string, error) {
	if !s.rateLimiter.Allow() {
		return nil, "", fault.Conflict("rate limit exceeded")
	}

	user, err := s.getUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fault.Unauthenticated("invalid credentials")
	}

	credential, err := s.getCredentialByUserID(ctx, user.ID)
	if err != nil {
		return nil, "", fault.Unauthenticated("invalid credentials")
	}

	ok, err := verifyPassword(password, credential.Salt, credential.PasswordHash)
	if err != nil || !ok {
		return nil, "", fault.Unauthenticated("invalid credentials")
	}

	token, err := s.tokens.Issue(auth.Identity{ID: user.ID, Role: user.Role})
	if err != nil {
		return nil, "", fault.Wrap(fault.KindInternal, "failed to issue token", err)
	}

	return user, token, nil
}

func (s *service) getUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, name, role, version, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *service) getCredentialByUserID(ctx context.Context, userID uuid.UUID) (*Credential, error) {
	query := `
		SELECT user_id, password_hash, salt
		FROM credentials
		WHERE user_id = $1
	`
	credential := &Credential{}
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&credential.UserID,
		&credential.PasswordHash,
		&credential.Salt,
	)
	if err != nil {
		return nil, err
	}
	return credential, nil
}

// GetUser retrieves an account by id.
func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `
		SELECT id, email, name, role, version, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	user, err := s.scanUser(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fault.NotFound("user not found")
	}
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to get user", err)
	}
	return user, nil
}

// ListUsers returns the full account directory, newest first. Admin only.
func (s *service) ListUsers(ctx context.Context, actor auth.Identity) ([]User, error) {
	if actor.Role != auth.RoleAdmin {
		return nil, fault.Forbidden("only admins can list users")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, name, role, version, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to list users", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := s.scanUser(rows)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, "failed to scan user", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to list users", err)
	}
	return users, nil
}

func (s *service) scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	user := &User{}
	var role string
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&role,
		&user.Version,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsed, err := auth.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("corrupt role for user %s: %w", user.ID, err)
	}
	user.Role = parsed
	return user, nil
}

// UpdateUserRole changes an account's role. Admin only.
func (s *service) UpdateUserRole(ctx context.Context, actor auth.Identity, id uuid.UUID, role auth.Role) (*User, error) {
	if actor.Role != auth.RoleAdmin {
		return nil, fault.Forbidden("only admins can change roles")
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	eventData, err := json.Marshal(UserRoleChangedEvent{ID: id, NewRole: role})
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to marshal event data", err)
	}

	event := eventstore.Event{
		AggregateID:   id,
		AggregateType: "user",
		EventType:     "UserRoleChanged",
		EventData:     eventData,
		Version:       user.Version + 1,
	}
	if err := s.eventStore.AppendEvents(ctx, id, "user", user.Version, []eventstore.Event{event}); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to append event", err)
	}

	query := `
		UPDATE users
		SET role = $1, version = $2, updated_at = NOW()
		WHERE id = $3
	`
	if _, err := s.db.ExecContext(ctx, query, role, user.Version+1, id); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to update read model", err)
	}

	user.Role = role
	user.Version++
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
