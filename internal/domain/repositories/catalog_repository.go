package repositories

import (
	"context"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

// ServiceRepository defines the interface for the service catalog
type ServiceRepository interface {
	Create(ctx context.Context, service *entities.Service) error
	GetByID(ctx context.Context, id string) (*entities.Service, error)
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Service, error)

	// List retrieves every service ordered by name
	List(ctx context.Context) ([]*entities.Service, error)
}

// SpecialtyRepository defines the interface for specialty tags and their
// technician assignments
type SpecialtyRepository interface {
	Create(ctx context.Context, specialty *entities.Specialty) error

	// List retrieves every specialty ordered by name
	List(ctx context.Context) ([]*entities.Specialty, error)

	// NamesByTechnician maps technician ids to their specialty names
	NamesByTechnician(ctx context.Context, technicianIDs []string) (map[string][]string, error)

	// ReplaceForTechnician swaps the technician's specialty set for specialtyIDs
	ReplaceForTechnician(ctx context.Context, technicianID string, specialtyIDs []string) error
}
