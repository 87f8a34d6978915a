package handlers_test

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/hvacconnect/marketplace/internal/api/middleware"
	"github.com/hvacconnect/marketplace/internal/application/services"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
)

var testAccount = &entities.Account{ID: "user-1", Email: "jo@example.com", DisplayName: "Jo"}

const (
	bookingID        = "5a0c6a0e-3f4b-4c43-9d1e-0b7f2c9a6e11"
	otherBookingID   = "5a0c6a0e-3f4b-4c43-9d1e-0b7f2c9a6e12"
	technicianID     = "8e2d7f4a-1b6c-4d9e-a3f5-6c0b1e2d3f41"
	serviceID        = "c3b9e1d2-7a4f-4e6b-8d2c-1f0a9b8c7d51"
	specialtyID      = "f1e2d3c4-b5a6-4978-8a9b-0c1d2e3f4a61"
	otherSpecialtyID = "f1e2d3c4-b5a6-4978-8a9b-0c1d2e3f4a62"
)

// authenticated attaches a verified token for account to the request
func authenticated(req *http.Request, account *entities.Account) *http.Request {
	token := &providers.VerifiedToken{Account: account, TokenID: "tok-1", ExpiresAt: time.Now().Add(time.Hour)}
	return req.WithContext(middleware.WithToken(req.Context(), token))
}

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Create(ctx context.Context, account *entities.Account, input services.CreateBookingInput) (*entities.Booking, error) {
	args := m.Called(ctx, account, input)
	if b, ok := args.Get(0).(*entities.Booking); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, account *entities.Account, id string) (*entities.BookingView, error) {
	args := m.Called(ctx, account, id)
	if b, ok := args.Get(0).(*entities.BookingView); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingService) TransitionStatus(ctx context.Context, account *entities.Account, id string, status entities.BookingStatus) (*entities.Booking, error) {
	args := m.Called(ctx, account, id, status)
	if b, ok := args.Get(0).(*entities.Booking); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingService) ListBookings(ctx context.Context, account *entities.Account, role entities.ViewerRole, tab entities.BookingTab) ([]*entities.BookingView, error) {
	args := m.Called(ctx, account, role, tab)
	if b, ok := args.Get(0).([]*entities.BookingView); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) ReviewBooking(ctx context.Context, account *entities.Account, bookingID string, rating int, comment string) (*entities.Review, error) {
	args := m.Called(ctx, account, bookingID, rating, comment)
	if r, ok := args.Get(0).(*entities.Review); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetProfile(ctx context.Context, account *entities.Account) (*services.Profile, error) {
	args := m.Called(ctx, account)
	if p, ok := args.Get(0).(*services.Profile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) UpdateProfile(ctx context.Context, account *entities.Account, update services.ProfileUpdate) (*services.Profile, error) {
	args := m.Called(ctx, account, update)
	if p, ok := args.Get(0).(*services.Profile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) EnsureTechnician(ctx context.Context, account *entities.Account) (*entities.Technician, error) {
	args := m.Called(ctx, account)
	if t, ok := args.Get(0).(*entities.Technician); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) SetSpecialties(ctx context.Context, account *entities.Account, specialtyIDs []string) (*entities.Technician, error) {
	args := m.Called(ctx, account, specialtyIDs)
	if t, ok := args.Get(0).(*entities.Technician); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) FindClient(ctx context.Context, account *entities.Account) (*entities.Client, error) {
	args := m.Called(ctx, account)
	if c, ok := args.Get(0).(*entities.Client); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileService) FindTechnician(ctx context.Context, account *entities.Account) (*entities.Technician, error) {
	args := m.Called(ctx, account)
	if t, ok := args.Get(0).(*entities.Technician); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListServices(ctx context.Context) ([]*entities.Service, error) {
	args := m.Called(ctx)
	if s, ok := args.Get(0).([]*entities.Service); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalogService) ListSpecialties(ctx context.Context) ([]*entities.Specialty, error) {
	args := m.Called(ctx)
	if s, ok := args.Get(0).([]*entities.Specialty); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalogService) TimeSlots() []string {
	return m.Called().Get(0).([]string)
}

func (m *MockCatalogService) SearchTechnicians(ctx context.Context, query entities.TechnicianSearchQuery) ([]*entities.Technician, error) {
	args := m.Called(ctx, query)
	if t, ok := args.Get(0).([]*entities.Technician); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCatalogService) GetTechnician(ctx context.Context, id string) (*services.TechnicianDetail, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*services.TechnicianDetail); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) ClientDashboard(ctx context.Context, account *entities.Account, tab entities.BookingTab) (*services.ClientDashboard, error) {
	args := m.Called(ctx, account, tab)
	if d, ok := args.Get(0).(*services.ClientDashboard); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDashboardService) TechnicianDashboard(ctx context.Context, account *entities.Account, tab entities.BookingTab) (*services.TechnicianDashboard, error) {
	args := m.Called(ctx, account, tab)
	if d, ok := args.Get(0).(*services.TechnicianDashboard); ok {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

// memoryCache is an in-memory CacheProvider
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, providers.ErrCacheMiss
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) SetNX(ctx context.Context, key string, value []byte, expirationSeconds int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = value
	return true, nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

type memoryDenylist struct {
	revoked map[string]bool
}

func (d *memoryDenylist) Revoke(ctx context.Context, token *providers.VerifiedToken) error {
	d.revoked[token.TokenID] = true
	return nil
}

func (d *memoryDenylist) IsRevoked(ctx context.Context, token *providers.VerifiedToken) (bool, error) {
	return d.revoked[token.TokenID], nil
}
