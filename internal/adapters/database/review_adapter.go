package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/postgres"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

var reviewColumns = []any{"id", "booking_id", "client_id", "technician_id", "rating", "comment", "created_at"}

// ReviewAdapter implements the ReviewRepository interface
type ReviewAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReviewAdapter creates a new review adapter
func NewReviewAdapter(client *postgres.Client) repositories.ReviewRepository {
	return &ReviewAdapter{
		client: client,
		db:     dialect(client),
	}
}

// Create inserts a review. A second review for the same booking is a conflict.
func (a *ReviewAdapter) Create(ctx context.Context, r *entities.Review) error {
	query, args, err := a.db.Insert("reviews").Rows(goqu.Record{
		"id":            r.ID,
		"booking_id":    r.BookingID,
		"client_id":     r.ClientID,
		"technician_id": r.TechnicianID,
		"rating":        r.Rating,
		"comment":       nullable(r.Comment),
		"created_at":    r.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := conn(ctx, a.client).ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("booking %s has already been reviewed", r.BookingID))
		}
		return apperrors.NewInternalError("failed to create review", err)
	}
	return nil
}

// GetByBookingID retrieves the review left for a booking
func (a *ReviewAdapter) GetByBookingID(ctx context.Context, bookingID string) (*entities.Review, error) {
	query, args, err := a.db.Select(reviewColumns...).From("reviews").Where(goqu.Ex{"booking_id": bookingID}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	r, err := scanReview(conn(ctx, a.client).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("review for booking %s not found", bookingID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get review", err)
	}
	return r, nil
}

// RatingsByTechnician returns every rating the technician received
func (a *ReviewAdapter) RatingsByTechnician(ctx context.Context, technicianID string) ([]int, error) {
	query, args, err := a.db.Select("rating").From("reviews").Where(goqu.Ex{"technician_id": technicianID}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := conn(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list ratings", err)
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, apperrors.NewInternalError("failed to scan rating", err)
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

// ListByTechnician retrieves the technician's reviews, newest first
func (a *ReviewAdapter) ListByTechnician(ctx context.Context, technicianID string) ([]*entities.Review, error) {
	query, args, err := a.db.Select(reviewColumns...).
		From("reviews").
		Where(goqu.Ex{"technician_id": technicianID}).
		Order(goqu.C("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := conn(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list reviews", err)
	}
	defer rows.Close()

	var reviews []*entities.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan review", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func scanReview(row rowScanner) (*entities.Review, error) {
	r := &entities.Review{}
	var comment sql.NullString
	if err := row.Scan(&r.ID, &r.BookingID, &r.ClientID, &r.TechnicianID, &r.Rating, &comment, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Comment = comment.String
	return r, nil
}
