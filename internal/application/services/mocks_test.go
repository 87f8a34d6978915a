package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *entities.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	args := m.Called(ctx, id)
	if b, ok := args.Get(0).(*entities.Booking); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, status entities.BookingStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockBookingRepository) ListByClient(ctx context.Context, clientID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	args := m.Called(ctx, clientID, filter)
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByTechnician(ctx context.Context, technicianID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	args := m.Called(ctx, technicianID, filter)
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) ExistsForSlot(ctx context.Context, technicianID, date, timeSlot string) (bool, error) {
	args := m.Called(ctx, technicianID, date, timeSlot)
	return args.Bool(0), args.Error(1)
}

type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *entities.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, id string) (*entities.Client, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*entities.Client); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClientRepository) GetByUserID(ctx context.Context, userID string) (*entities.Client, error) {
	args := m.Called(ctx, userID)
	if c, ok := args.Get(0).(*entities.Client); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockClientRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Client, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*entities.Client), args.Error(1)
}

func (m *MockClientRepository) Update(ctx context.Context, client *entities.Client) error {
	return m.Called(ctx, client).Error(0)
}

type MockTechnicianRepository struct {
	mock.Mock
}

func (m *MockTechnicianRepository) Create(ctx context.Context, technician *entities.Technician) error {
	return m.Called(ctx, technician).Error(0)
}

func (m *MockTechnicianRepository) GetByID(ctx context.Context, id string) (*entities.Technician, error) {
	args := m.Called(ctx, id)
	if t, ok := args.Get(0).(*entities.Technician); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTechnicianRepository) GetByUserID(ctx context.Context, userID string) (*entities.Technician, error) {
	args := m.Called(ctx, userID)
	if t, ok := args.Get(0).(*entities.Technician); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTechnicianRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Technician, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*entities.Technician), args.Error(1)
}

func (m *MockTechnicianRepository) Update(ctx context.Context, technician *entities.Technician) error {
	return m.Called(ctx, technician).Error(0)
}

func (m *MockTechnicianRepository) UpdateRatingStats(ctx context.Context, id string, summary entities.RatingSummary) error {
	return m.Called(ctx, id, summary).Error(0)
}

func (m *MockTechnicianRepository) List(ctx context.Context, filter repositories.TechnicianFilter) ([]*entities.Technician, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*entities.Technician), args.Error(1)
}

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) Create(ctx context.Context, service *entities.Service) error {
	return m.Called(ctx, service).Error(0)
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	args := m.Called(ctx, id)
	if s, ok := args.Get(0).(*entities.Service); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockServiceRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Service, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*entities.Service), args.Error(1)
}

func (m *MockServiceRepository) List(ctx context.Context) ([]*entities.Service, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*entities.Service), args.Error(1)
}

type MockSpecialtyRepository struct {
	mock.Mock
}

func (m *MockSpecialtyRepository) Create(ctx context.Context, specialty *entities.Specialty) error {
	return m.Called(ctx, specialty).Error(0)
}

func (m *MockSpecialtyRepository) List(ctx context.Context) ([]*entities.Specialty, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*entities.Specialty), args.Error(1)
}

func (m *MockSpecialtyRepository) NamesByTechnician(ctx context.Context, technicianIDs []string) (map[string][]string, error) {
	args := m.Called(ctx, technicianIDs)
	return args.Get(0).(map[string][]string), args.Error(1)
}

func (m *MockSpecialtyRepository) ReplaceForTechnician(ctx context.Context, technicianID string, specialtyIDs []string) error {
	return m.Called(ctx, technicianID, specialtyIDs).Error(0)
}

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *entities.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *MockReviewRepository) GetByBookingID(ctx context.Context, bookingID string) (*entities.Review, error) {
	args := m.Called(ctx, bookingID)
	if r, ok := args.Get(0).(*entities.Review); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReviewRepository) RatingsByTechnician(ctx context.Context, technicianID string) ([]int, error) {
	args := m.Called(ctx, technicianID)
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockReviewRepository) ListByTechnician(ctx context.Context, technicianID string) ([]*entities.Review, error) {
	args := m.Called(ctx, technicianID)
	return args.Get(0).([]*entities.Review), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishBookingEvent(ctx context.Context, event *entities.BookingEvent) error {
	return m.Called(ctx, event).Error(0)
}

// fakeTransactor runs the function inline and remembers whether it failed
type fakeTransactor struct {
	calls      int
	rolledBack bool
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if err := fn(ctx); err != nil {
		f.rolledBack = true
		return err
	}
	return nil
}

var _ repositories.Transactor = (*fakeTransactor)(nil)
