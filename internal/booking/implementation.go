// internal/booking/implementation.go
package booking

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"rentnexus/internal/auth"
	"rentnexus/internal/catalog"
	"rentnexus/internal/fault"
	"rentnexus/internal/identity"
	"rentnexus/pkg/eventstore"
)

// PropertyDirectory exposes the property lookups the engine needs. A nil
// property with a nil error means the property does not exist.
type PropertyDirectory interface {
	GetProperty(ctx context.Context, id uuid.UUID) (*catalog.Property, error)
}

// UserDirectory exposes user lookups, used to decorate creation responses.
type UserDirectory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// service implements the Service interface.
type service struct {
	store      Store
	properties PropertyDirectory
	users      UserDirectory
	history    *eventstore.EventStore
	now        func() time.Time
}

// NewService wires the booking lifecycle engine. The clock is injected so
// the expiry sweep can be driven deterministically in tests; a nil now
// falls back to wall clock.
func NewService(store Store, properties PropertyDirectory, users UserDirectory, history *eventstore.EventStore, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{
		store:      store,
		properties: properties,
		users:      users,
		history:    history,
		now:        now,
	}
}

// CreateBooking runs the creation preconditions in order, each failing with
// a distinct kind: role, property existence, duplicate pending request,
// bookability, date overlap. The store re-validates the two race-prone
// checks atomically with the insert.
func (s *service) CreateBooking(ctx context.Context, actor auth.Identity, in CreateInput) (*Booking, error) {
	if actor.Role != auth.RoleTenant {
		return nil, fault.Forbidden("only tenants can create bookings")
	}

	if err := in.Interval.Validate(); err != nil {
		return nil, err
	}

	property, err := s.properties.GetProperty(ctx, in.PropertyID)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "property lookup failed", err)
	}
	if property == nil {
		return nil, fault.NotFound("property not found")
	}

	pending, err := s.store.HasPendingRequest(ctx, actor.ID, in.PropertyID)
	if err != nil {
		return nil, fault.Internal(err)
	}
	if pending {
		return nil, fault.Conflict("you already have a pending booking for this property")
	}

	if !property.Bookable() {
		return nil, fault.InvalidState("property is not available for booking")
	}

	overlaps, err := s.store.HasBlockingOverlap(ctx, in.PropertyID, in.Interval, uuid.Nil)
	if err != nil {
		return nil, fault.Internal(err)
	}
	if overlaps {
		return nil, fault.Conflict("property is already booked for the selected dates")
	}

	b := &Booking{
		ID:         uuid.New(),
		PropertyID: in.PropertyID,
		TenantID:   actor.ID,
		LandlordID: property.LandlordID,
		StartDate:  in.Interval.Start,
		EndDate:    in.Interval.End,
		Status:     StatusPending,
		Message:    in.Message,
		Version:    1,
		CreatedAt:  s.now(),
	}

	if err := s.store.Create(ctx, b); err != nil {
		switch {
		case errors.Is(err, ErrDuplicatePending):
			return nil, fault.Conflict("you already have a pending booking for this property")
		case errors.Is(err, ErrDatesUnavailable):
			return nil, fault.Conflict("property is already booked for the selected dates")
		default:
			return nil, fault.Internal(err)
		}
	}

	// Display associations; best-effort, the booking itself has landed.
	b.Property = property
	if s.users != nil {
		if tenant, err := s.users.GetUser(ctx, actor.ID); err == nil {
			b.Tenant = tenant
		} else {
			log.Printf("tenant lookup for booking %s failed: %v", b.ID, err)
		}
	}

	return b, nil
}

// ListBookings first sweeps expired approvals to COMPLETED, then returns a
// role-scoped listing: landlords see bookings against their properties,
// everyone else sees their own requests. Most recent first.
func (s *service) ListBookings(ctx context.Context, actor auth.Identity, filter ListFilter) ([]Booking, error) {
	if _, err := s.store.CompleteExpired(ctx, s.now()); err != nil {
		return nil, fault.Internal(err)
	}

	scope := ListScope{Status: filter.Status}
	if actor.Role == auth.RoleLandlord {
		id := actor.ID
		scope.LandlordID = &id
	} else {
		id := actor.ID
		scope.TenantID = &id
	}

	bookings, err := s.store.List(ctx, scope)
	if err != nil {
		return nil, fault.Internal(err)
	}
	return bookings, nil
}

// UpdateBookingStatus applies one transition of the lifecycle state
// machine. The actor must be an admin, the landlord owning the booking's
// property, or the tenant owning the booking; the (role, from, to) edge
// must be in the allowed-transitions table; an approval re-checks overlap.
func (s *service) UpdateBookingStatus(ctx context.Context, actor auth.Identity, id uuid.UUID, to Status) (*Booking, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fault.NotFound("booking not found")
		}
		return nil, fault.Internal(err)
	}

	actorRole, err := classifyActor(actor, b)
	if err != nil {
		return nil, err
	}

	if !AllowedTransition(actorRole, b.Status, to) {
		if b.Status.Terminal() {
			return nil, fault.InvalidState("booking is in a terminal state")
		}
		return nil, fault.InvalidState("transition not permitted for this actor")
	}

	updated, err := s.store.UpdateStatus(ctx, id, b.Status, to, actor.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, fault.NotFound("booking not found")
		case errors.Is(err, ErrDatesUnavailable):
			return nil, fault.Conflict("property is already booked for the selected dates")
		case errors.Is(err, ErrStaleBooking):
			return nil, fault.Conflict("booking was modified concurrently")
		default:
			return nil, fault.Internal(err)
		}
	}
	return updated, nil
}

// DeleteBooking hard-deletes a pending booking. Only the owning tenant or
// an admin may delete; landlords may not. Anything past PENDING is a
// historical record and stays.
func (s *service) DeleteBooking(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fault.NotFound("booking not found")
		}
		return fault.Internal(err)
	}

	if actor.Role != auth.RoleAdmin && actor.ID != b.TenantID {
		return fault.Forbidden("cannot delete this booking")
	}

	if b.Status != StatusPending {
		return fault.InvalidState("only pending bookings may be deleted")
	}

	if err := s.store.Delete(ctx, id, actor.ID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return fault.NotFound("booking not found")
		case errors.Is(err, ErrNotPending):
			return fault.InvalidState("only pending bookings may be deleted")
		default:
			return fault.Internal(err)
		}
	}
	return nil
}

// BookingHistory returns the booking's event log to its participants.
func (s *service) BookingHistory(ctx context.Context, actor auth.Identity, id uuid.UUID) ([]eventstore.Event, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fault.NotFound("booking not found")
		}
		return nil, fault.Internal(err)
	}

	if _, err := classifyActor(actor, b); err != nil {
		return nil, err
	}

	if s.history == nil {
		return nil, nil
	}
	events, err := s.history.LoadEvents(ctx, id, 1, 0)
	if err != nil {
		return nil, fault.Internal(err)
	}
	return events, nil
}

// classifyActor resolves which actor class the identity occupies for this
// booking: admin, owning landlord, or owning tenant. Anyone else is
// forbidden.
func classifyActor(actor auth.Identity, b *Booking) (auth.Role, error) {
	switch {
	case actor.Role == auth.RoleAdmin:
		return auth.RoleAdmin, nil
	case actor.Role == auth.RoleLandlord && actor.ID == b.LandlordID:
		return auth.RoleLandlord, nil
	case actor.ID == b.TenantID:
		return auth.RoleTenant, nil
	default:
		return "", fault.Forbidden("cannot act on this booking")
	}
}
