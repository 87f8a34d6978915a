package loaders

import (
	"context"
	"fmt"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

type ctxKey string

const loadersKey ctxKey = "dataloaders"

// Loaders batch the lookups needed to render a page of bookings
type Loaders struct {
	ClientLoader     *dataloader.Loader[string, *entities.Client]
	TechnicianLoader *dataloader.Loader[string, *entities.Technician]
	ServiceLoader    *dataloader.Loader[string, *entities.Service]
}

// Factory builds a fresh set of loaders per request
type Factory struct {
	clients     repositories.ClientRepository
	technicians repositories.TechnicianRepository
	specialties repositories.SpecialtyRepository
	services    repositories.ServiceRepository
}

// NewFactory creates a loader factory
func NewFactory(
	clients repositories.ClientRepository,
	technicians repositories.TechnicianRepository,
	specialties repositories.SpecialtyRepository,
	services repositories.ServiceRepository,
) *Factory {
	return &Factory{
		clients:     clients,
		technicians: technicians,
		specialties: specialties,
		services:    services,
	}
}

// New creates a new instance of Loaders
func (f *Factory) New() *Loaders {
	return &Loaders{
		ClientLoader: dataloader.NewBatchedLoader(batchByID(
			f.clients.GetByIDs,
			func(c *entities.Client) string { return c.ID },
			"client",
		)),
		TechnicianLoader: dataloader.NewBatchedLoader(batchByID(
			f.technicianWithSpecialties,
			func(t *entities.Technician) string { return t.ID },
			"technician",
		)),
		ServiceLoader: dataloader.NewBatchedLoader(batchByID(
			f.services.GetByIDs,
			func(s *entities.Service) string { return s.ID },
			"service",
		)),
	}
}

func (f *Factory) technicianWithSpecialties(ctx context.Context, ids []string) ([]*entities.Technician, error) {
	technicians, err := f.technicians.GetByIDs(ctx, ids)
	if err != nil || f.specialties == nil {
		return technicians, err
	}

	names, err := f.specialties.NamesByTechnician(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range technicians {
		t.Specialties = names[t.ID]
	}
	return technicians, nil
}

// batchByID adapts a GetByIDs lookup to a batch function that answers keys in order
func batchByID[V any](
	fetch func(ctx context.Context, ids []string) ([]V, error),
	idOf func(V) string,
	kind string,
) dataloader.BatchFunc[string, V] {
	return func(ctx context.Context, keys []string) []*dataloader.Result[V] {
		results := make([]*dataloader.Result[V], len(keys))

		values, err := fetch(ctx, keys)
		if err != nil {
			for i := range keys {
				results[i] = &dataloader.Result[V]{Error: err}
			}
			return results
		}

		byID := make(map[string]V, len(values))
		for _, v := range values {
			byID[idOf(v)] = v
		}

		for i, key := range keys {
			if v, ok := byID[key]; ok {
				results[i] = &dataloader.Result[V]{Data: v}
			} else {
				results[i] = &dataloader.Result[V]{Error: apperrors.NewNotFoundError(fmt.Sprintf("%s %s not found", kind, key))}
			}
		}
		return results
	}
}

// For returns the loaders attached to ctx, or nil
func For(ctx context.Context) *Loaders {
	l, _ := ctx.Value(loadersKey).(*Loaders)
	return l
}

// WithLoaders returns a new context with the loaders attached
func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}
