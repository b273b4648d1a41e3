// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"

	"rentnexus/internal/auth"
)

// CreatePropertyInput carries a landlord's new listing.
type CreatePropertyInput struct {
	Title        string
	Description  string
	Location     string
	Rent         float64
	Bedrooms     int
	Bathrooms    int
	PropertyType string
	Amenities    string
}

// UpdatePropertyInput carries a partial edit of a listing; nil fields are
// left untouched. Moderation status is not editable here, only through
// Moderate.
type UpdatePropertyInput struct {
	Title        *string
	Description  *string
	Location     *string
	Rent         *float64
	Bedrooms     *int
	Bathrooms    *int
	PropertyType *string
	Amenities    *string
}

// ListFilter narrows the public listing query. Approved+available is the
// default scope; admins may widen it via Status.
type ListFilter struct {
	Location     string
	MinRent      *float64
	MaxRent      *float64
	Bedrooms     *int
	PropertyType string
	Status       *ApprovalStatus
}

// Service defines the interface for the property catalog service.
type Service interface {
	CreateProperty(ctx context.Context, actor auth.Identity, in CreatePropertyInput) (*Property, error)
	GetProperty(ctx context.Context, id uuid.UUID) (*Property, error)
	UpdateProperty(ctx context.Context, actor auth.Identity, id uuid.UUID, in UpdatePropertyInput) (*Property, error)
	DeleteProperty(ctx context.Context, actor auth.Identity, id uuid.UUID) error
	ListProperties(ctx context.Context, filter ListFilter) ([]Property, error)
	MyProperties(ctx context.Context, actor auth.Identity) ([]Property, error)
	SearchProperties(ctx context.Context, query string) ([]Property, error)
	SetAvailability(ctx context.Context, actor auth.Identity, id uuid.UUID, available bool) (*Property, error)
	Moderate(ctx context.Context, actor auth.Identity, id uuid.UUID, status ApprovalStatus, notes string) (*Property, error)
	AddReview(ctx context.Context, actor auth.Identity, propertyID uuid.UUID, rating int, comment string) (*Review, error)
	ListReviews(ctx context.Context, propertyID uuid.UUID) ([]Review, error)
}
