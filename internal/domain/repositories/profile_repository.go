package repositories

import (
	"context"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

// ClientRepository defines the interface for client profile operations
type ClientRepository interface {
	Create(ctx context.Context, client *entities.Client) error
	GetByID(ctx context.Context, id string) (*entities.Client, error)
	GetByUserID(ctx context.Context, userID string) (*entities.Client, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Client, error)
	Update(ctx context.Context, client *entities.Client) error
}

// TechnicianRepository defines the interface for technician profile operations
type TechnicianRepository interface {
	Create(ctx context.Context, technician *entities.Technician) error
	GetByID(ctx context.Context, id string) (*entities.Technician, error)
	GetByUserID(ctx context.Context, userID string) (*entities.Technician, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Technician, error)

	// Update writes the editable profile fields
	Update(ctx context.Context, technician *entities.Technician) error

	// UpdateRatingStats persists the derived rating and review count
	UpdateRatingStats(ctx context.Context, id string, summary entities.RatingSummary) error

	// List retrieves technicians ordered by rating, best first
	List(ctx context.Context, filter TechnicianFilter) ([]*entities.Technician, error)
}

// TechnicianFilter defines filters for listing technicians
type TechnicianFilter struct {
	AvailableOnly bool
	MinRating     float64
	Limit         int
	Offset        int
}
