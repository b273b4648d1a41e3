// internal/booking/store.go
package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rentnexus/pkg/eventstore"
)

var (
	ErrNotFound         = errors.New("booking: not found")
	ErrDuplicatePending = errors.New("booking: duplicate pending request")
	ErrDatesUnavailable = errors.New("booking: dates unavailable")
	ErrNotPending       = errors.New("booking: not pending")
	ErrStaleBooking     = errors.New("booking: concurrent modification")
)

// ListScope narrows a listing query. Exactly one of TenantID/LandlordID is
// set by the service; the scope is not caller-controlled.
type ListScope struct {
	TenantID   *uuid.UUID
	LandlordID *uuid.UUID
	Status     *Status
}

// Store captures the persistence interactions needed by the engine. The
// mutating operations are atomic: Create and UpdateStatus re-validate the
// overlap and single-pending invariants inside the same transaction that
// writes, which is what closes the check-then-act race between concurrent
// requests.
type Store interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id uuid.UUID) (*Booking, error)
	HasPendingRequest(ctx context.Context, tenantID, propertyID uuid.UUID) (bool, error)
	HasBlockingOverlap(ctx context.Context, propertyID uuid.UUID, ival Interval, exclude uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, actorID uuid.UUID) (*Booking, error)
	Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error
	CompleteExpired(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, scope ListScope) ([]Booking, error)
}

// PostgresStore implements Store over the shared database, with the domain
// event log appended in the same transaction as each read-model write.
type PostgresStore struct {
	db     *sql.DB
	events *eventstore.EventStore
	tracer trace.Tracer
}

func NewPostgresStore(db *sql.DB, events *eventstore.EventStore) *PostgresStore {
	return &PostgresStore{
		db:     db,
		events: events,
		tracer: otel.Tracer("rentnexus/booking/store"),
	}
}

const bookingColumns = `id, property_id, tenant_id, landlord_id, start_date, end_date, status, message, version, created_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (*Booking, error) {
	b := &Booking{}
	var message sql.NullString
	err := row.Scan(
		&b.ID,
		&b.PropertyID,
		&b.TenantID,
		&b.LandlordID,
		&b.StartDate,
		&b.EndDate,
		&b.Status,
		&message,
		&b.Version,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Message = message.String
	return b, nil
}

// Create inserts a PENDING booking. The duplicate-pending and overlap
// invariants are re-checked inside a serializable transaction; the schema's
// partial unique index and exclusion constraint back them up, so a
// concurrent writer loses with a constraint violation rather than a
// double-booking.
func (s *PostgresStore) Create(ctx context.Context, b *Booking) error {
	ctx, span := s.tracer.Start(ctx, "booking.store.create",
		trace.WithAttributes(
			attribute.String("booking.id", b.ID.String()),
			attribute.String("property.id", b.PropertyID.String()),
		),
	)
	defer span.End()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE tenant_id = $1 AND property_id = $2 AND status = $3
		)
	`, b.TenantID, b.PropertyID, StatusPending).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check pending request: %w", err)
	}
	if exists {
		return ErrDuplicatePending
	}

	overlaps, err := blockingOverlapExists(ctx, tx, b.PropertyID, b.Interval(), uuid.Nil)
	if err != nil {
		return err
	}
	if overlaps {
		return ErrDatesUnavailable
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (id, property_id, tenant_id, landlord_id, start_date, end_date, status, message, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10)
	`, b.ID, b.PropertyID, b.TenantID, b.LandlordID, b.StartDate, b.EndDate, b.Status, b.Message, b.Version, b.CreatedAt)
	if err != nil {
		return mapCreateError(err)
	}

	eventData, err := json.Marshal(BookingRequestedEvent{
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		TenantID:   b.TenantID,
		StartDate:  b.StartDate,
		EndDate:    b.EndDate,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	event := eventstore.Event{
		AggregateID:   b.ID,
		AggregateType: "booking",
		EventType:     "BookingRequested",
		EventData:     eventData,
		Version:       1,
	}
	if err := s.events.AppendInTx(ctx, tx, b.ID, "booking", 0, []eventstore.Event{event}); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return mapCreateError(err)
	}
	return nil
}

// mapCreateError translates constraint and serialization failures into the
// store's sentinels. A serialization failure on create means a concurrent
// writer took the slot first, so the caller sees the same conflict it would
// have seen moments later.
func mapCreateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505" && pqErr.Constraint == "bookings_single_pending_idx":
			return ErrDuplicatePending
		case pqErr.Code == "23P01":
			return ErrDatesUnavailable
		case pqErr.Code == "40001":
			return ErrDatesUnavailable
		}
	}
	return fmt.Errorf("insert booking: %w", err)
}

// mapUpdateError classifies constraint and serialization failures during a
// status change. An exclusion violation is always a date conflict; a
// serialization failure only means that on the approval path — on any other
// transition it is a concurrent modification.
func mapUpdateError(err error, to Status) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23P01":
			return ErrDatesUnavailable
		case "40001":
			if to == StatusApproved {
				return ErrDatesUnavailable
			}
			return ErrStaleBooking
		}
	}
	return nil
}

func blockingOverlapExists(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}, propertyID uuid.UUID, ival Interval, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE property_id = $1
			AND status IN ($2, $3)
			AND id <> $4
			AND start_date <= $6
			AND $5 <= end_date
		)
	`, propertyID, StatusApproved, StatusCompleted, exclude, ival.Start, ival.End).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
	`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) HasPendingRequest(ctx context.Context, tenantID, propertyID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE tenant_id = $1 AND property_id = $2 AND status = $3
		)
	`, tenantID, propertyID, StatusPending).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending request: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) HasBlockingOverlap(ctx context.Context, propertyID uuid.UUID, ival Interval, exclude uuid.UUID) (bool, error) {
	return blockingOverlapExists(ctx, s.db, propertyID, ival, exclude)
}

// UpdateStatus applies one lifecycle transition. The row is locked, the
// expected current status is re-verified, and an approval re-runs the
// overlap check against the other blocking bookings before the write lands.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, actorID uuid.UUID) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.store.update_status",
		trace.WithAttributes(
			attribute.String("booking.id", id.String()),
			attribute.String("status.from", string(from)),
			attribute.String("status.to", string(to)),
		),
	)
	defer span.End()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock booking: %w", err)
	}

	if b.Status != from {
		return nil, ErrStaleBooking
	}

	if to == StatusApproved {
		overlaps, err := blockingOverlapExists(ctx, tx, b.PropertyID, b.Interval(), b.ID)
		if err != nil {
			return nil, err
		}
		if overlaps {
			return nil, ErrDatesUnavailable
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE bookings
		SET status = $1, version = version + 1
		WHERE id = $2
	`, to, id)
	if err != nil {
		if mapped := mapUpdateError(err, to); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	eventData, err := json.Marshal(BookingStatusChangedEvent{
		BookingID: b.ID,
		From:      from,
		To:        to,
		ActorID:   actorID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	event := eventstore.Event{
		AggregateID:   b.ID,
		AggregateType: "booking",
		EventType:     "BookingStatusChanged",
		EventData:     eventData,
		Version:       b.Version + 1,
	}
	if err := s.events.AppendInTx(ctx, tx, b.ID, "booking", b.Version, []eventstore.Event{event}); err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if mapped := mapUpdateError(err, to); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	b.Status = to
	b.Version++
	return b, nil
}

// Delete hard-deletes a pending booking. The pending precondition is
// re-verified under lock; the deletion event outlives the row.
func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id = $1
		FOR UPDATE
	`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock booking: %w", err)
	}

	if b.Status != StatusPending {
		return ErrNotPending
	}

	eventData, err := json.Marshal(BookingDeletedEvent{BookingID: b.ID, ActorID: actorID})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	event := eventstore.Event{
		AggregateID:   b.ID,
		AggregateType: "booking",
		EventType:     "BookingDeleted",
		EventData:     eventData,
		Version:       b.Version + 1,
	}
	if err := s.events.AppendInTx(ctx, tx, b.ID, "booking", b.Version, []eventstore.Event{event}); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	return tx.Commit()
}

// CompleteExpired flips every APPROVED booking whose end date has passed to
// COMPLETED, appending a status-changed event per flipped row in the same
// transaction. Running it twice with the same clock is a no-op the second
// time.
func (s *PostgresStore) CompleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "booking.store.complete_expired")
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		UPDATE bookings
		SET status = $1, version = version + 1
		WHERE status = $2 AND end_date < $3
		RETURNING id, version
	`, StatusCompleted, StatusApproved, now)
	if err != nil {
		return 0, fmt.Errorf("complete expired: %w", err)
	}

	type flipped struct {
		id      uuid.UUID
		version int
	}
	var completed []flipped
	for rows.Next() {
		var f flipped
		if err := rows.Scan(&f.id, &f.version); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan completed booking: %w", err)
		}
		completed = append(completed, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate completed bookings: %w", err)
	}

	for _, f := range completed {
		eventData, err := json.Marshal(BookingStatusChangedEvent{
			BookingID: f.id,
			From:      StatusApproved,
			To:        StatusCompleted,
		})
		if err != nil {
			return 0, fmt.Errorf("marshal event: %w", err)
		}
		event := eventstore.Event{
			AggregateID:   f.id,
			AggregateType: "booking",
			EventType:     "BookingStatusChanged",
			EventData:     eventData,
			Version:       f.version,
		}
		if err := s.events.AppendInTx(ctx, tx, f.id, "booking", f.version-1, []eventstore.Event{event}); err != nil {
			return 0, fmt.Errorf("append event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(attribute.Int("bookings.completed", len(completed)))
	return int64(len(completed)), nil
}

func (s *PostgresStore) List(ctx context.Context, scope ListScope) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []interface{}{}

	if scope.TenantID != nil {
		args = append(args, *scope.TenantID)
		query += fmt.Sprintf(" AND tenant_id = $%d", len(args))
	}
	if scope.LandlordID != nil {
		args = append(args, *scope.LandlordID)
		query += fmt.Sprintf(" AND landlord_id = $%d", len(args))
	}
	if scope.Status != nil {
		args = append(args, *scope.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}
