package services

import (
	"context"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
)

const (
	defaultDirectoryLimit = 20
	maxDirectoryLimit     = 100
)

// TechnicianDetail is a technician profile with the reviews they received
type TechnicianDetail struct {
	*entities.Technician
	Reviews []*entities.ReviewView `json:"reviews"`
}

// CatalogService serves the service catalog and the technician directory
type CatalogService struct {
	services    repositories.ServiceRepository
	specialties repositories.SpecialtyRepository
	technicians repositories.TechnicianRepository
	reviews     repositories.ReviewRepository
	clients     repositories.ClientRepository
	search      providers.TechnicianSearchProvider
}

// NewCatalogService creates a new catalog service. search may be nil, in
// which case the directory is filtered from storage.
func NewCatalogService(
	services repositories.ServiceRepository,
	specialties repositories.SpecialtyRepository,
	technicians repositories.TechnicianRepository,
	reviews repositories.ReviewRepository,
	clients repositories.ClientRepository,
	search providers.TechnicianSearchProvider,
) *CatalogService {
	return &CatalogService{
		services:    services,
		specialties: specialties,
		technicians: technicians,
		reviews:     reviews,
		clients:     clients,
		search:      search,
	}
}

// ListServices returns every bookable service
func (s *CatalogService) ListServices(ctx context.Context) ([]*entities.Service, error) {
	return s.services.List(ctx)
}

// ListSpecialties returns every specialty tag
func (s *CatalogService) ListSpecialties(ctx context.Context) ([]*entities.Specialty, error) {
	return s.specialties.List(ctx)
}

// TimeSlots returns the slots offered when booking
func (s *CatalogService) TimeSlots() []string {
	return entities.DefaultTimeSlots()
}

// SearchTechnicians queries the directory. The search index ranks results
// when configured; storage is the fallback when it is absent or failing.
func (s *CatalogService) SearchTechnicians(ctx context.Context, query entities.TechnicianSearchQuery) ([]*entities.Technician, error) {
	if query.Limit <= 0 {
		query.Limit = defaultDirectoryLimit
	}
	if query.Limit > maxDirectoryLimit {
		query.Limit = maxDirectoryLimit
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	if s.search != nil {
		technicians, err := s.searchIndex(ctx, query)
		if err == nil {
			return technicians, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("query", query.Query).Msg("technician search index unavailable, falling back to storage")
	}
	return s.searchStorage(ctx, query)
}

func (s *CatalogService) searchIndex(ctx context.Context, query entities.TechnicianSearchQuery) ([]*entities.Technician, error) {
	ids, err := s.search.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*entities.Technician{}, nil
	}

	found, err := s.technicians.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := s.attachSpecialties(ctx, found); err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Technician, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	ranked := make([]*entities.Technician, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			ranked = append(ranked, t)
		}
	}
	return ranked, nil
}

func (s *CatalogService) searchStorage(ctx context.Context, query entities.TechnicianSearchQuery) ([]*entities.Technician, error) {
	all, err := s.technicians.List(ctx, repositories.TechnicianFilter{
		AvailableOnly: query.AvailableOnly,
		MinRating:     query.MinRating,
	})
	if err != nil {
		return nil, err
	}
	if err := s.attachSpecialties(ctx, all); err != nil {
		return nil, err
	}

	matched := make([]*entities.Technician, 0, len(all))
	for _, t := range all {
		if query.Accepts(t) {
			matched = append(matched, t)
		}
	}

	if query.Offset >= len(matched) {
		return []*entities.Technician{}, nil
	}
	end := min(query.Offset+query.Limit, len(matched))
	return matched[query.Offset:end], nil
}

// GetTechnician returns a technician with specialties and reviews, newest first
func (s *CatalogService) GetTechnician(ctx context.Context, id string) (*TechnicianDetail, error) {
	technician, err := s.technicians.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachSpecialties(ctx, []*entities.Technician{technician}); err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListByTechnician(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := reviewViews(ctx, s.clients, nil, nil, reviews)
	if err != nil {
		return nil, err
	}
	return &TechnicianDetail{Technician: technician, Reviews: views}, nil
}

func (s *CatalogService) attachSpecialties(ctx context.Context, technicians []*entities.Technician) error {
	if len(technicians) == 0 {
		return nil
	}
	ids := make([]string, len(technicians))
	for i, t := range technicians {
		ids[i] = t.ID
	}
	names, err := s.specialties.NamesByTechnician(ctx, ids)
	if err != nil {
		return err
	}
	for _, t := range technicians {
		t.Specialties = names[t.ID]
		if t.Specialties == nil {
			t.Specialties = []string{}
		}
	}
	return nil
}

// reviewViews decorates reviews with client names and, when bookings and
// services are given, the name of the reviewed service
func reviewViews(
	ctx context.Context,
	clients repositories.ClientRepository,
	bookings map[string]*entities.Booking,
	services repositories.ServiceRepository,
	reviews []*entities.Review,
) ([]*entities.ReviewView, error) {
	views := make([]*entities.ReviewView, 0, len(reviews))
	if len(reviews) == 0 {
		return views, nil
	}

	clientIDs := make([]string, 0, len(reviews))
	serviceIDs := make([]string, 0, len(reviews))
	for _, r := range reviews {
		clientIDs = append(clientIDs, r.ClientID)
		if b, ok := bookings[r.BookingID]; ok {
			serviceIDs = append(serviceIDs, b.ServiceID)
		}
	}

	found, err := clients.GetByIDs(ctx, clientIDs)
	if err != nil {
		return nil, err
	}
	clientByID := make(map[string]*entities.Client, len(found))
	for _, c := range found {
		clientByID[c.ID] = c
	}

	serviceNames := map[string]string{}
	if services != nil && len(serviceIDs) > 0 {
		svcs, err := services.GetByIDs(ctx, serviceIDs)
		if err != nil {
			return nil, err
		}
		for _, svc := range svcs {
			serviceNames[svc.ID] = svc.Name
		}
	}

	for _, r := range reviews {
		view := &entities.ReviewView{Review: r, ClientName: defaultClientName}
		if c, ok := clientByID[r.ClientID]; ok {
			view.ClientName = c.FullName
			view.ClientAvatar = c.Avatar
		}
		if b, ok := bookings[r.BookingID]; ok {
			view.ServiceName = serviceNames[b.ServiceID]
		}
		views = append(views, view)
	}
	return views, nil
}
