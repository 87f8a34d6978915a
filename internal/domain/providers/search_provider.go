package providers

import (
	"context"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

// TechnicianSearchProvider indexes and queries the technician directory
type TechnicianSearchProvider interface {
	// Index upserts a technician document
	Index(ctx context.Context, technician *entities.Technician) error

	// Search returns the ids of matching technicians in rank order
	Search(ctx context.Context, query entities.TechnicianSearchQuery) ([]string, error)
}
