// internal/catalog/domain.go
package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"rentnexus/internal/fault"
)

// ApprovalStatus is the moderation state of a listing.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// ParseApprovalStatus rejects anything outside the closed set.
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	switch ApprovalStatus(s) {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return ApprovalStatus(s), nil
	default:
		return "", fault.InvalidInput(fmt.Sprintf("unknown approval status %q", s))
	}
}

// Property represents a rental listing.
type Property struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	LandlordID   uuid.UUID      `json:"landlord_id" db:"landlord_id"`
	Title        string         `json:"title" db:"title"`
	Description  string         `json:"description" db:"description"`
	Location     string         `json:"location" db:"location"`
	Rent         float64        `json:"rent" db:"rent"`
	Bedrooms     int            `json:"bedrooms" db:"bedrooms"`
	Bathrooms    int            `json:"bathrooms" db:"bathrooms"`
	PropertyType string         `json:"property_type" db:"property_type"`
	Amenities    string         `json:"amenities,omitempty" db:"amenities"`
	Available    bool           `json:"available" db:"available"`
	Approved     ApprovalStatus `json:"approved" db:"approved"`
	ReviewNotes  string         `json:"review_notes,omitempty" db:"review_notes"`
	Version      int            `json:"version" db:"version"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Bookable reports whether new booking requests may target the listing.
func (p *Property) Bookable() bool {
	return p.Available && p.Approved == ApprovalApproved
}

// Review is a tenant's rating of a property.
type Review struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PropertyID uuid.UUID `json:"property_id" db:"property_id"`
	TenantID   uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment,omitempty" db:"comment"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// PropertyListedEvent is published when a landlord creates a listing.
type PropertyListedEvent struct {
	ID         uuid.UUID `json:"id"`
	LandlordID uuid.UUID `json:"landlord_id"`
	Title      string    `json:"title"`
	Rent       float64   `json:"rent"`
}

// PropertyUpdatedEvent is published when the owner edits a listing.
type PropertyUpdatedEvent struct {
	ID      uuid.UUID `json:"id"`
	ActorID uuid.UUID `json:"actor_id"`
}

// PropertyDeletedEvent is published when a listing is removed. The event
// outlives the read-model row.
type PropertyDeletedEvent struct {
	ID      uuid.UUID `json:"id"`
	ActorID uuid.UUID `json:"actor_id"`
}

// PropertyModeratedEvent is published when an admin rules on a listing.
type PropertyModeratedEvent struct {
	ID       uuid.UUID      `json:"id"`
	Approved ApprovalStatus `json:"approved"`
	Notes    string         `json:"notes,omitempty"`
}

// PropertyAvailabilityChangedEvent is published when the landlord toggles
// the availability flag.
type PropertyAvailabilityChangedEvent struct {
	ID        uuid.UUID `json:"id"`
	Available bool      `json:"available"`
}
