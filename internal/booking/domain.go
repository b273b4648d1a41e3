// internal/booking/domain.go
package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"rentnexus/internal/catalog"
	"rentnexus/internal/fault"
	"rentnexus/internal/identity"
)

// Status is the closed set of booking lifecycle states.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// ParseStatus rejects anything outside the closed set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
		return Status(s), nil
	default:
		return "", fault.InvalidInput(fmt.Sprintf("unknown booking status %q", s))
	}
}

// Terminal reports whether no further transitions leave the state.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// Blocking reports whether bookings in this state count toward overlap
// detection against new requests.
func (s Status) Blocking() bool {
	return s == StatusApproved || s == StatusCompleted
}

// Interval is a closed calendar-date interval [Start, End].
type Interval struct {
	Start time.Time
	End   time.Time
}

// Validate rejects zero endpoints and inverted intervals. Downstream
// overlap arithmetic assumes Start <= End.
func (i Interval) Validate() error {
	if i.Start.IsZero() || i.End.IsZero() {
		return fault.InvalidInput("start and end dates are required")
	}
	if i.Start.After(i.End) {
		return fault.InvalidInput("start date must not be after end date")
	}
	return nil
}

// Overlaps reports whether two closed intervals intersect. The boundary is
// inclusive: an interval starting exactly on another's end date conflicts.
func (i Interval) Overlaps(other Interval) bool {
	return !i.Start.After(other.End) && !other.Start.After(i.End)
}

// Booking is a tenant's reservation request for a property over a date
// interval. LandlordID is denormalized from the property at creation so
// landlord-scoped queries need no catalog lookup.
type Booking struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PropertyID uuid.UUID `json:"property_id" db:"property_id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	LandlordID uuid.UUID `json:"landlord_id" db:"landlord_id"`
	StartDate  time.Time `json:"start_date" db:"start_date"`
	EndDate    time.Time `json:"end_date" db:"end_date"`
	Status     Status    `json:"status" db:"status"`
	Message    string    `json:"message,omitempty" db:"message"`
	Version    int       `json:"version" db:"version"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	// Property and Tenant are populated for display on creation responses
	// only; the persisted row carries just the ids.
	Property *catalog.Property `json:"property,omitempty" db:"-"`
	Tenant   *identity.User    `json:"tenant,omitempty" db:"-"`
}

// Interval returns the booking's date interval.
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartDate, End: b.EndDate}
}

// BookingRequestedEvent is published when a tenant submits a request.
type BookingRequestedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	PropertyID uuid.UUID `json:"property_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

// BookingStatusChangedEvent is published on every lifecycle transition,
// including the auto-completion sweep.
type BookingStatusChangedEvent struct {
	BookingID uuid.UUID `json:"booking_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ActorID   uuid.UUID `json:"actor_id,omitempty"`
}

// BookingDeletedEvent is published when a pending request is withdrawn.
type BookingDeletedEvent struct {
	BookingID uuid.UUID `json:"booking_id"`
	ActorID   uuid.UUID `json:"actor_id"`
}
