// internal/catalog/implementation.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"rentnexus/internal/auth"
	"rentnexus/internal/fault"
	"rentnexus/pkg/eventstore"
)

// SearchIndex is the full-text index kept alongside the read model. A nil
// index degrades search to the SQL fallback.
type SearchIndex interface {
	IndexProperty(ctx context.Context, p *Property) error
	RemoveProperty(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string) ([]Property, error)
}

// canManage reports whether the actor may modify the listing: admins may
// touch any property, landlords only their own.
func canManage(actor auth.Identity, p *Property) bool {
	return actor.Role == auth.RoleAdmin || actor.ID == p.LandlordID
}

// service implements the Service interface.
type service struct {
	eventStore *eventstore.EventStore
	db         *sqlx.DB
	index      SearchIndex
}

// NewService creates a new catalog service instance.
func NewService(es *eventstore.EventStore, db *sqlx.DB, index SearchIndex) Service {
	return &service{
		eventStore: es,
		db:         db,
		index:      index,
	}
}

// CreateProperty lists a new property. Listings start unmoderated
// (PENDING) and invisible to the public listing until approved.
func (s *service) CreateProperty(ctx context.Context, actor auth.Identity, in CreatePropertyInput) (*Property, error) {
	if actor.Role != auth.RoleLandlord {
		return nil, fault.Forbidden("only landlords can list properties")
	}
	if in.Title == "" || in.Location == "" {
		return nil, fault.InvalidInput("title and location are required")
	}
	if in.Rent <= 0 {
		return nil, fault.InvalidInput("rent must be positive")
	}

	id := uuid.New()
	eventData, err := json.Marshal(PropertyListedEvent{
		ID:         id,
		LandlordID: actor.ID,
		Title:      in.Title,
		Rent:       in.Rent,
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to marshal event data", err)
	}

	event := eventstore.Event{
		AggregateID:   id,
		AggregateType: "property",
		EventType:     "PropertyListed",
		EventData:     eventData,
		Version:       1,
	}
	if err := s.eventStore.AppendEvents(ctx, id, "property", 0, []eventstore.Event{event}); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to append event", err)
	}

	now := time.Now().UTC()
	property := &Property{
		ID:           id,
		LandlordID:   actor.ID,
		Title:        in.Title,
		Description:  in.Description,
		Location:     in.Location,
		Rent:         in.Rent,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		PropertyType: in.PropertyType,
		Amenities:    in.Amenities,
		Available:    true,
		Approved:     ApprovalPending,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `
		INSERT INTO properties (id, landlord_id, title, description, location, rent, bedrooms, bathrooms, property_type, amenities, available, approved, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = s.db.ExecContext(ctx, query,
		property.ID, property.LandlordID, property.Title, property.Description,
		property.Location, property.Rent, property.Bedrooms, property.Bathrooms,
		property.PropertyType, property.Amenities, property.Available,
		property.Approved, property.Version, property.CreatedAt, property.UpdatedAt,
	)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to update read model", err)
	}

	s.reindex(ctx, property)
	return property, nil
}

// GetProperty retrieves a listing by id.
func (s *service) GetProperty(ctx context.Context, id uuid.UUID) (*Property, error) {
	property := &Property{}
	err := s.db.GetContext(ctx, property, `
		SELECT id, landlord_id, title, description, location, rent, bedrooms, bathrooms,
		       property_type, amenities, available, approved, review_notes, version, created_at, updated_at
		FROM properties
		WHERE id = $1
	`, id)
	if err == sql.ErrNoRows {
		return nil, fault.NotFound("property not found")
	}
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to get property", err)
	}
	return property, nil
}

// UpdateProperty applies a partial edit to a listing. Owner or admin only;
// moderation status is untouchable here.
func (s *service) UpdateProperty(ctx context.Context, actor auth.Identity, id uuid.UUID, in UpdatePropertyInput) (*Property, error) {
	property, err := s.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, property) {
		return nil, fault.Forbidden("cannot modify this property")
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, fault.InvalidInput("title must not be empty")
		}
		property.Title = *in.Title
	}
	if in.Description != nil {
		property.Description = *in.Description
	}
	if in.Location != nil {
		if *in.Location == "" {
			return nil, fault.InvalidInput("location must not be empty")
		}
		property.Location = *in.Location
	}
	if in.Rent != nil {
		if *in.Rent <= 0 {
			return nil, fault.InvalidInput("rent must be positive")
		}
		property.Rent = *in.Rent
	}
	if in.Bedrooms != nil {
		property.Bedrooms = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		property.Bathrooms = *in.Bathrooms
	}
	if in.PropertyType != nil {
		property.PropertyType = *in.PropertyType
	}
	if in.Amenities != nil {
		property.Amenities = *in.Amenities
	}

	eventData, err := json.Marshal(PropertyUpdatedEvent{ID: id, ActorID: actor.ID})
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to marshal event data", err)
	}

	event := eventstore.Event{
		AggregateID:   id,
		AggregateType: "property",
		EventType:     "PropertyUpdated",
		EventData:     eventData,
		Version:       property.Version + 1,
	}
	if err := s.eventStore.AppendEvents(ctx, id, "property", property.Version, []eventstore.Event{event}); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to append event", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE properties
		SET title = $1, description = $2, location = $3, rent = $4, bedrooms = $5,
		    bathrooms = $6, property_type = $7, amenities = $8, version = $9, updated_at = NOW()
		WHERE id = $10
	`, property.Title, property.Description, property.Location, property.Rent,
		property.Bedrooms, property.Bathrooms, property.PropertyType, property.Amenities,
		property.Version+1, id)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to update read model", err)
	}

	property.Version++
	s.reindex(ctx, property)
	return property, nil
}

// DeleteProperty removes a listing; reviews cascade with the row, the event
// log keeps the history. Owner or admin only.
func (s *service) DeleteProperty(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	property, err := s.GetProperty(ctx, id)
	if err != nil {
		return err
	}
	if !canManage(actor, property) {
		return fault.Forbidden("cannot delete this property")
	}

	eventData, err := json.Marshal(PropertyDeletedEvent{ID: id, ActorID: actor.ID})
	if err != nil {
		return fault.Wrap(fault.KindInternal, "failed to marshal event data", err)
	}

	event := eventstore.Event{
		AggregateID:   id,
		AggregateType: "property",
		EventType:     "PropertyDeleted",
		EventData:     eventData,
		Version:       property.Version + 1,
	}
	if err := s.eventStore.AppendEvents(ctx, id, "property", property.Version, []eventstore.Event{event}); err != nil {
		return fault.Wrap(fault.KindInternal, "failed to append event", err)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE id = $1`, id); err != nil {
		return fault.Wrap(fault.KindInternal, "failed to delete property", err)
	}

	s.deindex(ctx, id)
	return nil
}

// ListProperties returns the public catalog: approved and available unless
// the filter says otherwise.
func (s *service) ListProperties(ctx context.Context, filter ListFilter) ([]Property, error) {
	query := `
		SELECT id, landlord_id, title, description, location, rent, bedrooms, bathrooms,
		       property_type, amenities, available, approved, review_notes, version, created_at, updated_at
		FROM properties
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND approved = $%d", len(args))
	} else {
		args = append(args, ApprovalApproved)
		query += fmt.Sprintf(" AND approved = $%d AND available = TRUE", len(args))
	}
	if filter.Location != "" {
		args = append(args, "%"+filter.Location+"%")
		query += fmt.Sprintf(" AND location ILIKE $%d", len(args))
	}
	if filter.MinRent != nil {
		args = append(args, *filter.MinRent)
		query += fmt.Sprintf(" AND rent >= $%d", len(args))
	}
	if filter.MaxRent != nil {
		args = append(args, *filter.MaxRent)
		query += fmt.Sprintf(" AND rent <= $%d", len(args))
	}
	if filter.Bedrooms != nil {
		args = append(args, *filter.Bedrooms)
		query += fmt.Sprintf(" AND bedrooms = $%d", len(args))
	}
	if filter.PropertyType != "" {
		args = append(args, filter.PropertyType)
		query += fmt.Sprintf(" AND property_type = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	var properties []Property
	if err := s.db.SelectContext(ctx, &properties, query, args...); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to list properties", err)
	}
	return properties, nil
}

// MyProperties returns every listing the actor owns, regardless of
// moderation or availability. Admins manage listings through the moderation
// queue, not here.
func (s *service) MyProperties(ctx context.Context, actor auth.Identity) ([]Property, error) {
	if actor.Role != auth.RoleLandlord && actor.Role != auth.RoleTenant {
		return nil, fault.Forbidden("only landlord or tenant access allowed")
	}

	var properties []Property
	err := s.db.SelectContext(ctx, &properties, `
		SELECT id, landlord_id, title, description, location, rent, bedrooms, bathrooms,
		       property_type, amenities, available, approved, review_notes, version, created_at, updated_at
		FROM properties
		WHERE landlord_id = $1
		ORDER BY created_at DESC
	`, actor.ID)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to list properties", err)
	}
	return properties, nil
}

// SearchProperties queries the full-text index, falling back to a SQL
// substring match when no index is configured.
func (s *service) SearchProperties(ctx context.Context, query string) ([]Property, error) {
	if query == "" {
		return nil, fault.InvalidInput("missing search query")
	}

	if s.index != nil {
		properties, err := s.index.Search(ctx, query)
		if err != nil {
			return nil, fault.Wrap(fault.KindInternal, "search failed", err)
		}
		return properties, nil
	}

	var properties []Property
	err := s.db.SelectContext(ctx, &properties, `
		SELECT id, landlord_id, title, description, location, rent, bedrooms, bathrooms,
		       property_type, amenities, available, approved, review_notes, version, created_at, updated_at
		FROM properties
		WHERE approved = $1 AND available = TRUE
		AND (title ILIKE $2 OR description ILIKE $2 OR location ILIKE $2)
		ORDER BY created_at DESC
	`, ApprovalApproved, "%"+query+"%")
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "search failed", err)
	}
	return properties, nil
}

// SetAvailability toggles the landlord-controlled availability flag.
func (s *service) SetAvailability(ctx context.Context, actor auth.Identity, id uuid.UUID, available bool) (*Property, error) {
	property, err := s.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, property) {
		return nil, fault.Forbidden("cannot modify this property")
	}

	eventData, err := json.Marshal(PropertyAvailabilityChangedEvent{ID: id, Available: available})
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to marshal event data", err)
	}

	event := eventstore.Event{
		AggregateID:   id,
		AggregateType: "property",
		EventType:     "PropertyAvailabilityChanged",
		EventData:     eventData,
		Version:       property.Version + 1,
	}
	if err := s.eventStore.AppendEvents(ctx, id, "property", property.Version, []eventstore.Event{event}); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to append event", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE properties
		SET available = $1, version = $2, updated_at = NOW()
		WHERE id = $3
	`, available, property.Version+1, id)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to update read model", err)
	}

	property.Available = available
	property.Version++
	s.reindex(ctx, property)
	return property, nil
}

// Moderate records an admin ruling on a listing.
func (s *service) Moderate(ctx context.Context, actor auth.Identity, id uuid.UUID, status ApprovalStatus, notes string) (*Property, error) {
	if actor.Role != auth.RoleAdmin {
		return nil, fault.Forbidden("only admins can moderate properties")
	}

	property, err := s.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	eventData, err := json.Marshal(PropertyModeratedEvent{ID: id, Approved: status, Notes: notes})
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to marshal event data", err)
	}

	event := eventstore.Event{
		AggregateID:   id,
		AggregateType: "property",
		EventType:     "PropertyModerated",
		EventData:     eventData,
		Version:       property.Version + 1,
	}
	if err := s.eventStore.AppendEvents(ctx, id, "property", property.Version, []eventstore.Event{event}); err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to append event", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE properties
		SET approved = $1, review_notes = $2, version = $3, updated_at = NOW()
		WHERE id = $4
	`, status, notes, property.Version+1, id)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to update read model", err)
	}

	property.Approved = status
	property.ReviewNotes = notes
	property.Version++
	s.reindex(ctx, property)
	return property, nil
}

// AddReview records a tenant's rating of a property.
func (s *service) AddReview(ctx context.Context, actor auth.Identity, propertyID uuid.UUID, rating int, comment string) (*Review, error) {
	if actor.Role != auth.RoleTenant {
		return nil, fault.Forbidden("only tenants can review properties")
	}
	if rating < 1 || rating > 5 {
		return nil, fault.InvalidInput("rating must be between 1 and 5")
	}

	if _, err := s.GetProperty(ctx, propertyID); err != nil {
		return nil, err
	}

	review := &Review{
		ID:         uuid.New(),
		PropertyID: propertyID,
		TenantID:   actor.ID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, property_id, tenant_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, review.ID, review.PropertyID, review.TenantID, review.Rating, review.Comment, review.CreatedAt)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to insert review", err)
	}

	return review, nil
}

// ListReviews returns a property's reviews, most recent first.
func (s *service) ListReviews(ctx context.Context, propertyID uuid.UUID) ([]Review, error) {
	var reviews []Review
	err := s.db.SelectContext(ctx, &reviews, `
		SELECT id, property_id, tenant_id, rating, comment, created_at
		FROM reviews
		WHERE property_id = $1
		ORDER BY created_at DESC
	`, propertyID)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "failed to list reviews", err)
	}
	return reviews, nil
}

// reindex pushes the listing into the search index; indexing failures are
// logged, not surfaced, because the read model is authoritative.
func (s *service) reindex(ctx context.Context, p *Property) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexProperty(ctx, p); err != nil {
		log.Printf("failed to index property %s: %v", p.ID, err)
	}
}

func (s *service) deindex(ctx context.Context, id uuid.UUID) {
	if s.index == nil {
		return
	}
	if err := s.index.RemoveProperty(ctx, id); err != nil {
		log.Printf("failed to remove property %s from index: %v", id, err)
	}
}
