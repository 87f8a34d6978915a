package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/postgres"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

var bookingColumns = []any{
	"id", "client_id", "technician_id", "service_id", "booking_date", "booking_time",
	"status", "notes", "created_at", "updated_at",
}

// BookingAdapter implements the BookingRepository interface
type BookingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBookingAdapter creates a new booking adapter
func NewBookingAdapter(client *postgres.Client) repositories.BookingRepository {
	return &BookingAdapter{
		client: client,
		db:     dialect(client),
	}
}

// Create creates a new booking
func (a *BookingAdapter) Create(ctx context.Context, b *entities.Booking) error {
	record := goqu.Record{
		"id":            b.ID,
		"client_id":     b.ClientID,
		"technician_id": b.TechnicianID,
		"service_id":    b.ServiceID,
		"booking_date":  b.BookingDate,
		"booking_time":  b.BookingTime,
		"status":        b.Status,
		"notes":         nullable(b.Notes),
		"created_at":    b.CreatedAt,
		"updated_at":    b.UpdatedAt,
	}

	query, args, err := a.db.Insert("bookings").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err = conn(ctx, a.client).ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create booking", err)
	}
	return nil
}

// GetByID retrieves a booking by ID
func (a *BookingAdapter) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	query, args, err := a.db.Select(bookingColumns...).From("bookings").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	b, err := scanBooking(conn(ctx, a.client).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get booking", err)
	}
	return b, nil
}

// UpdateStatus sets the status of a booking
func (a *BookingAdapter) UpdateStatus(ctx context.Context, id string, status entities.BookingStatus) error {
	query, args, err := a.db.Update("bookings").
		Set(goqu.Record{
			"status":     status,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := conn(ctx, a.client).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update booking status", err)
	}
	return requireAffected(result, fmt.Sprintf("booking with id %s not found", id))
}

// ListByClient retrieves a client's bookings, newest date first
func (a *BookingAdapter) ListByClient(ctx context.Context, clientID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	return a.list(ctx, goqu.Ex{"client_id": clientID}, filter,
		goqu.C("booking_date").Desc(), goqu.C("booking_time").Desc())
}

// ListByTechnician retrieves a technician's bookings, oldest date first
func (a *BookingAdapter) ListByTechnician(ctx context.Context, technicianID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	return a.list(ctx, goqu.Ex{"technician_id": technicianID}, filter,
		goqu.C("booking_date").Asc(), goqu.C("booking_time").Asc())
}

func (a *BookingAdapter) list(ctx context.Context, where goqu.Ex, filter repositories.BookingFilter, order ...exp.OrderedExpression) ([]*entities.Booking, error) {
	ds := a.db.Select(bookingColumns...).From("bookings").Where(where)

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}

	ds = ds.Order(order...)

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := conn(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list bookings", err)
	}
	defer rows.Close()

	var bookings []*entities.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan booking", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// ExistsForSlot reports whether a non-cancelled booking holds the technician's slot
func (a *BookingAdapter) ExistsForSlot(ctx context.Context, technicianID, date, timeSlot string) (bool, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("bookings").
		Where(
			goqu.Ex{
				"technician_id": technicianID,
				"booking_date":  date,
				"booking_time":  timeSlot,
			},
			goqu.C("status").Neq(entities.BookingStatusCancelled),
		).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := conn(ctx, a.client).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, apperrors.NewInternalError("failed to check booking slot", err)
	}
	return count > 0, nil
}

func scanBooking(row rowScanner) (*entities.Booking, error) {
	b := &entities.Booking{}
	var notes sql.NullString
	err := row.Scan(
		&b.ID, &b.ClientID, &b.TechnicianID, &b.ServiceID, &b.BookingDate, &b.BookingTime,
		&b.Status, &notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Notes = notes.String
	return b, nil
}
