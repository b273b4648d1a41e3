// internal/booking/service.go
package booking

import (
	"context"

	"github.com/google/uuid"

	"rentnexus/internal/auth"
	"rentnexus/pkg/eventstore"
)

// CreateInput carries a tenant's booking request.
type CreateInput struct {
	PropertyID uuid.UUID
	Interval   Interval
	Message    string
}

// ListFilter narrows a role-scoped listing.
type ListFilter struct {
	Status *Status
}

// Service defines the interface for the booking lifecycle engine.
type Service interface {
	CreateBooking(ctx context.Context, actor auth.Identity, in CreateInput) (*Booking, error)
	ListBookings(ctx context.Context, actor auth.Identity, filter ListFilter) ([]Booking, error)
	UpdateBookingStatus(ctx context.Context, actor auth.Identity, id uuid.UUID, to Status) (*Booking, error)
	DeleteBooking(ctx context.Context, actor auth.Identity, id uuid.UUID) error
	BookingHistory(ctx context.Context, actor auth.Identity, id uuid.UUID) ([]eventstore.Event, error)
}
