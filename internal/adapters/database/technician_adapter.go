package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/postgres"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

var technicianColumns = []any{
	"id", "user_id", "full_name", "bio", "location", "experience",
	"rating", "review_count", "available", "next_available", "avatar",
	"created_at", "updated_at",
}

// TechnicianAdapter implements the TechnicianRepository interface
type TechnicianAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewTechnicianAdapter creates a new technician adapter
func NewTechnicianAdapter(client *postgres.Client) repositories.TechnicianRepository {
	return &TechnicianAdapter{
		client: client,
		db:     dialect(client),
	}
}

// Create creates a new technician profile
func (a *TechnicianAdapter) Create(ctx context.Context, t *entities.Technician) error {
	record := goqu.Record{
		"id":             t.ID,
		"user_id":        t.UserID,
		"full_name":      t.FullName,
		"bio":            nullable(t.Bio),
		"location":       nullable(t.Location),
		"experience":     nullable(t.Experience),
		"rating":         t.Rating,
		"review_count":   t.ReviewCount,
		"available":      t.Available,
		"next_available": nullable(t.NextAvailable),
		"avatar":         nullable(t.Avatar),
		"created_at":     t.CreatedAt,
		"updated_at":     t.UpdatedAt,
	}

	query, args, err := a.db.Insert("technicians").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err = conn(ctx, a.client).ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("technician for user %s already exists", t.UserID))
		}
		return apperrors.NewInternalError("failed to create technician", err)
	}
	return nil
}

// GetByID retrieves a technician by ID
func (a *TechnicianAdapter) GetByID(ctx context.Context, id string) (*entities.Technician, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("technician with id %s not found", id))
}

// GetByUserID retrieves the technician linked to an auth account
func (a *TechnicianAdapter) GetByUserID(ctx context.Context, userID string) (*entities.Technician, error) {
	return a.getOne(ctx, goqu.Ex{"user_id": userID}, fmt.Sprintf("technician for user %s not found", userID))
}

func (a *TechnicianAdapter) getOne(ctx context.Context, where goqu.Ex, notFound string) (*entities.Technician, error) {
	query, args, err := a.db.Select(technicianColumns...).From("technicians").Where(where).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	t, err := scanTechnician(conn(ctx, a.client).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get technician", err)
	}
	return t, nil
}

// GetByIDs retrieves technicians by ID in no particular order
func (a *TechnicianAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Technician, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return a.query(ctx, a.db.Select(technicianColumns...).From("technicians").Where(goqu.Ex{"id": ids}))
}

// List retrieves technicians ordered by rating, best first
func (a *TechnicianAdapter) List(ctx context.Context, filter repositories.TechnicianFilter) ([]*entities.Technician, error) {
	ds := a.db.Select(technicianColumns...).From("technicians")

	if filter.AvailableOnly {
		ds = ds.Where(goqu.Ex{"available": true})
	}
	if filter.MinRating > 0 {
		ds = ds.Where(goqu.C("rating").Gte(filter.MinRating))
	}

	ds = ds.Order(goqu.C("rating").Desc(), goqu.C("full_name").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	return a.query(ctx, ds)
}

func (a *TechnicianAdapter) query(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Technician, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := conn(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list technicians", err)
	}
	defer rows.Close()

	var technicians []*entities.Technician
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan technician", err)
		}
		technicians = append(technicians, t)
	}
	return technicians, rows.Err()
}

// Update updates the editable technician fields
func (a *TechnicianAdapter) Update(ctx context.Context, t *entities.Technician) error {
	t.UpdatedAt = time.Now()

	query, args, err := a.db.Update("technicians").
		Set(goqu.Record{
			"full_name":      t.FullName,
			"bio":            nullable(t.Bio),
			"location":       nullable(t.Location),
			"experience":     nullable(t.Experience),
			"available":      t.Available,
			"next_available": nullable(t.NextAvailable),
			"avatar":         nullable(t.Avatar),
			"updated_at":     t.UpdatedAt,
		}).
		Where(goqu.Ex{"id": t.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := conn(ctx, a.client).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update technician", err)
	}
	return requireAffected(result, fmt.Sprintf("technician with id %s not found", t.ID))
}

// UpdateRatingStats persists the derived rating and review count
func (a *TechnicianAdapter) UpdateRatingStats(ctx context.Context, id string, summary entities.RatingSummary) error {
	query, args, err := a.db.Update("technicians").
		Set(goqu.Record{
			"rating":       summary.Average,
			"review_count": summary.Count,
			"updated_at":   time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := conn(ctx, a.client).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update technician rating", err)
	}
	return requireAffected(result, fmt.Sprintf("technician with id %s not found", id))
}

func scanTechnician(row rowScanner) (*entities.Technician, error) {
	t := &entities.Technician{}
	var bio, location, experience, nextAvailable, avatar sql.NullString
	err := row.Scan(
		&t.ID, &t.UserID, &t.FullName, &bio, &location, &experience,
		&t.Rating, &t.ReviewCount, &t.Available, &nextAvailable, &avatar,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Bio = bio.String
	t.Location = location.String
	t.Experience = experience.String
	t.NextAvailable = nextAvailable.String
	t.Avatar = avatar.String
	return t, nil
}
