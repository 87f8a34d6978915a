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

var clientColumns = []any{
	"id", "user_id", "full_name", "phone", "address", "avatar", "created_at", "updated_at",
}

// ClientAdapter implements the ClientRepository interface
type ClientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewClientAdapter creates a new client adapter
func NewClientAdapter(client *postgres.Client) repositories.ClientRepository {
	return &ClientAdapter{
		client: client,
		db:     dialect(client),
	}
}

// Create creates a new client profile
func (a *ClientAdapter) Create(ctx context.Context, c *entities.Client) error {
	record := goqu.Record{
		"id":         c.ID,
		"user_id":    c.UserID,
		"full_name":  c.FullName,
		"phone":      nullable(c.Phone),
		"address":    nullable(c.Address),
		"avatar":     nullable(c.Avatar),
		"created_at": c.CreatedAt,
		"updated_at": c.UpdatedAt,
	}

	query, args, err := a.db.Insert("clients").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err = conn(ctx, a.client).ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("client for user %s already exists", c.UserID))
		}
		return apperrors.NewInternalError("failed to create client", err)
	}
	return nil
}

// GetByID retrieves a client by ID
func (a *ClientAdapter) GetByID(ctx context.Context, id string) (*entities.Client, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("client with id %s not found", id))
}

// GetByUserID retrieves the client linked to an auth account
func (a *ClientAdapter) GetByUserID(ctx context.Context, userID string) (*entities.Client, error) {
	return a.getOne(ctx, goqu.Ex{"user_id": userID}, fmt.Sprintf("client for user %s not found", userID))
}

func (a *ClientAdapter) getOne(ctx context.Context, where goqu.Ex, notFound string) (*entities.Client, error) {
	query, args, err := a.db.Select(clientColumns...).From("clients").Where(where).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	c, err := scanClient(conn(ctx, a.client).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get client", err)
	}
	return c, nil
}

// GetByIDs retrieves clients by ID in no particular order
func (a *ClientAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Client, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := a.db.Select(clientColumns...).From("clients").Where(goqu.Ex{"id": ids}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := conn(ctx, a.client).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list clients", err)
	}
	defer rows.Close()

	var clients []*entities.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan client", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// Update updates the editable client fields
func (a *ClientAdapter) Update(ctx context.Context, c *entities.Client) error {
	c.UpdatedAt = time.Now()

	query, args, err := a.db.Update("clients").
		Set(goqu.Record{
			"full_name":  c.FullName,
			"phone":      nullable(c.Phone),
			"address":    nullable(c.Address),
			"avatar":     nullable(c.Avatar),
			"updated_at": c.UpdatedAt,
		}).
		Where(goqu.Ex{"id": c.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := conn(ctx, a.client).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update client", err)
	}
	return requireAffected(result, fmt.Sprintf("client with id %s not found", c.ID))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*entities.Client, error) {
	c := &entities.Client{}
	var phone, address, avatar sql.NullString
	if err := row.Scan(&c.ID, &c.UserID, &c.FullName, &phone, &address, &avatar, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Phone = phone.String
	c.Address = address.String
	c.Avatar = avatar.String
	return c, nil
}

// nullable stores empty optional text as NULL
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func requireAffected(result sql.Result, notFound string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get affected rows", err)
	}
	if rows == 0 {
		return apperrors.NewNotFoundError(notFound)
	}
	return nil
}
