package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/postgres"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

var serviceColumns = []any{"id", "name", "description", "price", "duration", "created_at", "updated_at"}

// ServiceAdapter implements the ServiceRepository interface
type ServiceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewServiceAdapter creates a new service catalog adapter
func NewServiceAdapter(client *postgres.Client) repositories.ServiceRepository {
	return &ServiceAdapter{client: client, db: dialect(client)}
}

// Create inserts a catalog entry, leaving an existing entry of the same name untouched
func (a *ServiceAdapter) Create(ctx context.Context, s *entities.Service) error {
	query, args, err := a.db.Insert("services").Rows(goqu.Record{
		"id":          s.ID,
		"name":        s.Name,
		"description": nullable(s.Description),
		"price":       s.Price,
		"duration":    nullable(s.Duration),
		"created_at":  s.CreatedAt,
		"updated_at":  s.UpdatedAt,
	}).OnConflict(goqu.DoNothing()).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := conn(ctx, a.client).ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create service", err)
	}
	return nil
}

// GetByID retrieves a service by ID
func (a *ServiceAdapter) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	query, args, err := a.db.Select(serviceColumns...).From("services").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	s, err := scanService(conn(ctx, a.client).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get service", err)
	}
	return s, nil
}

// GetByIDs retrieves services by ID in no particular order
func (a *ServiceAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return a.query(ctx, a.db.Select(serviceColumns...).From("services").Where(goqu.Ex{"id": ids}))
}

// List retrieves every service ordered by name
func (a *ServiceAdapter) List(ctx context.Context) ([]*entities.Service, error) {
	return a.query(ctx, a.db.Select(serviceColumns...).From("services").Order(goqu.C("name").Asc()))
}

func (a *ServiceAdapter) query(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Service, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := conn(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list services", err)
	}
	defer rows.Close()

	var services []*entities.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan service", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func scanService(row rowScanner) (*entities.Service, error) {
	s := &entities.Service{}
	var description, duration sql.NullString
	if err := row.Scan(&s.ID, &s.Name, &description, &s.Price, &duration, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Description = description.String
	s.Duration = duration.String
	return s, nil
}

// SpecialtyAdapter implements the SpecialtyRepository interface
type SpecialtyAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSpecialtyAdapter creates a new specialty adapter
func NewSpecialtyAdapter(client *postgres.Client) repositories.SpecialtyRepository {
	return &SpecialtyAdapter{client: client, db: dialect(client)}
}

// Create inserts a specialty, leaving an existing one of the same name untouched
func (a *SpecialtyAdapter) Create(ctx context.Context, s *entities.Specialty) error {
	query, args, err := a.db.Insert("specialties").Rows(goqu.Record{
		"id":         s.ID,
		"name":       s.Name,
		"created_at": s.CreatedAt,
	}).OnConflict(goqu.DoNothing()).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := conn(ctx, a.client).ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create specialty", err)
	}
	return nil
}

// List retrieves every specialty ordered by name
func (a *SpecialtyAdapter) List(ctx context.Context) ([]*entities.Specialty, error) {
	query, args, err := a.db.Select("id", "name", "created_at").
		From("specialties").
		Order(goqu.C("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := conn(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list specialties", err)
	}
	defer rows.Close()

	var specialties []*entities.Specialty
	for rows.Next() {
		s := &entities.Specialty{}
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan specialty", err)
		}
		specialties = append(specialties, s)
	}
	return specialties, rows.Err()
}

// NamesByTechnician maps technician ids to their specialty names, sorted by name
func (a *SpecialtyAdapter) NamesByTechnician(ctx context.Context, technicianIDs []string) (map[string][]string, error) {
	names := make(map[string][]string, len(technicianIDs))
	if len(technicianIDs) == 0 {
		return names, nil
	}

	query, args, err := a.db.Select(goqu.I("ts.technician_id"), goqu.I("s.name")).
		From(goqu.T("technician_specialties").As("ts")).
		Join(goqu.T("specialties").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("ts.specialty_id")))).
		Where(goqu.I("ts.technician_id").In(technicianIDs)).
		Order(goqu.I("s.name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := conn(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list technician specialties", err)
	}
	defer rows.Close()

	for rows.Next() {
		var technicianID, name string
		if err := rows.Scan(&technicianID, &name); err != nil {
			return nil, apperrors.NewInternalError("failed to scan technician specialty", err)
		}
		names[technicianID] = append(names[technicianID], name)
	}
	return names, rows.Err()
}

// ReplaceForTechnician swaps the technician's specialty set. Callers should
// run it inside a transaction.
func (a *SpecialtyAdapter) ReplaceForTechnician(ctx context.Context, technicianID string, specialtyIDs []string) error {
	query, args, err := a.db.Delete("technician_specialties").
		Where(goqu.Ex{"technician_id": technicianID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}
	if _, err := conn(ctx, a.client).ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to clear technician specialties", err)
	}

	if len(specialtyIDs) == 0 {
		return nil
	}

	rows := make([]any, 0, len(specialtyIDs))
	for _, id := range specialtyIDs {
		rows = append(rows, goqu.Record{
			"id":            uuid.New().String(),
			"technician_id": technicianID,
			"specialty_id":  id,
		})
	}

	query, args, err = a.db.Insert("technician_specialties").Rows(rows...).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := conn(ctx, a.client).ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to assign technician specialties", err)
	}
	return nil
}
