package services

import (
	"context"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
)

// ClientDashboard is the landing view of a client
type ClientDashboard struct {
	Client   *entities.Client        `json:"client"`
	Bookings []*entities.BookingView `json:"bookings"`
}

// TechnicianDashboard is the landing view of a technician
type TechnicianDashboard struct {
	Technician *entities.Technician     `json:"technician"`
	Bookings   []*entities.BookingView  `json:"bookings"`
	Reviews    []*entities.ReviewView   `json:"reviews"`
	Stats      entities.TechnicianStats `json:"stats"`
}

// DashboardService assembles the per-role dashboards
type DashboardService struct {
	profiles *ProfileService
	bookings *BookingService
	reviews  repositories.ReviewRepository
	clients  repositories.ClientRepository
	services repositories.ServiceRepository
	records  repositories.BookingRepository
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	profiles *ProfileService,
	bookings *BookingService,
	records repositories.BookingRepository,
	reviews repositories.ReviewRepository,
	clients repositories.ClientRepository,
	services repositories.ServiceRepository,
) *DashboardService {
	return &DashboardService{
		profiles: profiles,
		bookings: bookings,
		records:  records,
		reviews:  reviews,
		clients:  clients,
		services: services,
	}
}

// ClientDashboard returns the account's client profile, created on first
// visit, with the bookings of tab
func (s *DashboardService) ClientDashboard(ctx context.Context, account *entities.Account, tab entities.BookingTab) (*ClientDashboard, error) {
	client, err := s.profiles.EnsureClient(ctx, account)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.ListForClient(ctx, client.ID, tab)
	if err != nil {
		return nil, err
	}
	return &ClientDashboard{Client: client, Bookings: bookings}, nil
}

// TechnicianDashboard returns the account's technician profile, created on
// first visit, with the bookings of tab, every review and the figures
// derived from them. Stats always cover every booking regardless of tab.
func (s *DashboardService) TechnicianDashboard(ctx context.Context, account *entities.Account, tab entities.BookingTab) (*TechnicianDashboard, error) {
	technician, err := s.profiles.EnsureTechnician(ctx, account)
	if err != nil {
		return nil, err
	}

	all, err := s.records.ListByTechnician(ctx, technician.ID, repositories.BookingFilter{})
	if err != nil {
		return nil, err
	}

	views, err := s.bookings.view(ctx, all, entities.ViewerRoleTechnician, tab)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.ListByTechnician(ctx, technician.ID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Booking, len(all))
	for _, b := range all {
		byID[b.ID] = b
	}
	decorated, err := reviewViews(ctx, s.clients, byID, s.services, reviews)
	if err != nil {
		return nil, err
	}

	return &TechnicianDashboard{
		Technician: technician,
		Bookings:   views,
		Reviews:    decorated,
		Stats:      entities.NewTechnicianStats(all, reviews),
	}, nil
}
