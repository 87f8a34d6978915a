package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hvacconnect/marketplace/internal/application/services"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

type MockSearchProvider struct {
	mock.Mock
}

func (m *MockSearchProvider) Index(ctx context.Context, technician *entities.Technician) error {
	return m.Called(ctx, technician).Error(0)
}

func (m *MockSearchProvider) Search(ctx context.Context, query entities.TechnicianSearchQuery) ([]string, error) {
	args := m.Called(ctx, query)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateTechnician(ctx context.Context, technicianID string) error {
	return m.Called(ctx, technicianID).Error(0)
}

type profileFixture struct {
	clients     *MockClientRepository
	technicians *MockTechnicianRepository
	specialties *MockSpecialtyRepository
	search      *MockSearchProvider
	invalidator *MockInvalidator
	tx          *fakeTransactor
	service     *services.ProfileService
}

func newProfileFixture() *profileFixture {
	f := &profileFixture{
		clients:     new(MockClientRepository),
		technicians: new(MockTechnicianRepository),
		specialties: new(MockSpecialtyRepository),
		search:      new(MockSearchProvider),
		invalidator: new(MockInvalidator),
		tx:          &fakeTransactor{},
	}
	f.service = services.NewProfileService(f.clients, f.technicians, f.specialties, f.tx, f.search)
	f.service.SetInvalidator(f.invalidator)
	return f
}

func notFound() error {
	return apperrors.NewNotFoundError("not found")
}

func TestProfileService_EnsureClient_DefaultName(t *testing.T) {
	f := newProfileFixture()
	f.clients.On("GetByUserID", mock.Anything, "u1").Return(nil, notFound())
	f.clients.On("Create", mock.Anything, mock.AnythingOfType("*entities.Client")).Return(nil)

	client, err := f.service.EnsureClient(context.Background(), &entities.Account{ID: "u1", Email: "a@b.co"})

	require.NoError(t, err)
	assert.Equal(t, "Client", client.FullName)
	assert.Equal(t, "u1", client.UserID)
	assert.Equal(t, entities.AvatarURL("a@b.co"), client.Avatar)
}

func TestProfileService_EnsureClient_ConcurrentCreate(t *testing.T) {
	f := newProfileFixture()
	existing := &entities.Client{ID: "c1", UserID: "u1"}
	f.clients.On("GetByUserID", mock.Anything, "u1").Return(nil, notFound()).Once()
	f.clients.On("Create", mock.Anything, mock.Anything).Return(apperrors.NewConflictError("client exists"))
	f.clients.On("GetByUserID", mock.Anything, "u1").Return(existing, nil).Once()

	client, err := f.service.EnsureClient(context.Background(), &entities.Account{ID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, "c1", client.ID)
}

func TestProfileService_EnsureTechnician_CreatesAvailableUnrated(t *testing.T) {
	f := newProfileFixture()
	f.technicians.On("GetByUserID", mock.Anything, "u2").Return(nil, notFound())
	f.technicians.On("Create", mock.Anything, mock.AnythingOfType("*entities.Technician")).Return(nil)
	f.search.On("Index", mock.Anything, mock.AnythingOfType("*entities.Technician")).Return(nil)

	technician, err := f.service.EnsureTechnician(context.Background(), &entities.Account{ID: "u2", DisplayName: "Sam"})

	require.NoError(t, err)
	assert.Equal(t, "Sam", technician.FullName)
	assert.True(t, technician.Available)
	assert.Zero(t, technician.Rating)
	assert.Zero(t, technician.ReviewCount)
	assert.Empty(t, technician.Specialties)
	f.search.AssertExpectations(t)
}

func TestProfileService_EnsureTechnician_IndexFailureIsNotFatal(t *testing.T) {
	f := newProfileFixture()
	f.technicians.On("GetByUserID", mock.Anything, "u2").Return(nil, notFound())
	f.technicians.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.search.On("Index", mock.Anything, mock.Anything).Return(assert.AnError)

	_, err := f.service.EnsureTechnician(context.Background(), &entities.Account{ID: "u2"})

	assert.NoError(t, err)
}

func TestProfileService_GetProfile_PrefersClient(t *testing.T) {
	f := newProfileFixture()
	f.clients.On("GetByUserID", mock.Anything, "u1").Return(&entities.Client{ID: "c1"}, nil)

	profile, err := f.service.GetProfile(context.Background(), &entities.Account{ID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, entities.ViewerRoleClient, profile.Role)
	assert.Equal(t, "c1", profile.Client.ID)
	f.technicians.AssertNotCalled(t, "GetByUserID", mock.Anything, mock.Anything)
}

func TestProfileService_GetProfile_Technician(t *testing.T) {
	f := newProfileFixture()
	f.clients.On("GetByUserID", mock.Anything, "u2").Return(nil, notFound())
	f.technicians.On("GetByUserID", mock.Anything, "u2").Return(&entities.Technician{ID: "t1"}, nil)
	f.specialties.On("NamesByTechnician", mock.Anything, []string{"t1"}).Return(map[string][]string{"t1": {"Cooling"}}, nil)

	profile, err := f.service.GetProfile(context.Background(), &entities.Account{ID: "u2"})

	require.NoError(t, err)
	assert.Equal(t, entities.ViewerRoleTechnician, profile.Role)
	assert.Equal(t, []string{"Cooling"}, profile.Technician.Specialties)
}

func TestProfileService_GetProfile_CreatesClientWhenNeither(t *testing.T) {
	f := newProfileFixture()
	f.clients.On("GetByUserID", mock.Anything, "u3").Return(nil, notFound())
	f.technicians.On("GetByUserID", mock.Anything, "u3").Return(nil, notFound())
	f.clients.On("Create", mock.Anything, mock.Anything).Return(nil)

	profile, err := f.service.GetProfile(context.Background(), &entities.Account{ID: "u3"})

	require.NoError(t, err)
	assert.Equal(t, entities.ViewerRoleClient, profile.Role)
	f.clients.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProfileService_UpdateProfile_Client(t *testing.T) {
	f := newProfileFixture()
	f.clients.On("GetByUserID", mock.Anything, "u1").Return(&entities.Client{ID: "c1", FullName: "Old", Phone: "1"}, nil)
	f.clients.On("Update", mock.Anything, mock.MatchedBy(func(c *entities.Client) bool {
		return c.FullName == "New Name" && c.Phone == "1" && c.Address == "12 Elm St"
	})).Return(nil)

	name, address := " New Name ", "12 Elm St"
	profile, err := f.service.UpdateProfile(context.Background(), &entities.Account{ID: "u1"}, services.ProfileUpdate{
		FullName: &name,
		Address:  &address,
	})

	require.NoError(t, err)
	assert.Equal(t, "New Name", profile.Client.FullName)
	f.clients.AssertExpectations(t)
}

func TestProfileService_UpdateProfile_TechnicianReindexes(t *testing.T) {
	f := newProfileFixture()
	f.clients.On("GetByUserID", mock.Anything, "u2").Return(nil, notFound())
	f.technicians.On("GetByUserID", mock.Anything, "u2").Return(&entities.Technician{ID: "t1", Available: true}, nil)
	f.specialties.On("NamesByTechnician", mock.Anything, []string{"t1"}).Return(map[string][]string{}, nil)
	f.technicians.On("Update", mock.Anything, mock.MatchedBy(func(t *entities.Technician) bool {
		return !t.Available && t.Bio == "20 years"
	})).Return(nil)
	f.search.On("Index", mock.Anything, mock.Anything).Return(nil)
	f.invalidator.On("InvalidateTechnician", mock.Anything, "t1").Return(nil)

	available, bio := false, "20 years"
	_, err := f.service.UpdateProfile(context.Background(), &entities.Account{ID: "u2"}, services.ProfileUpdate{
		Available: &available,
		Bio:       &bio,
	})

	require.NoError(t, err)
	f.technicians.AssertExpectations(t)
	f.search.AssertExpectations(t)
	f.invalidator.AssertExpectations(t)
}

func TestProfileService_UpdateProfile_ClientLeavesDirectoryCache(t *testing.T) {
	f := newProfileFixture()
	f.clients.On("GetByUserID", mock.Anything, "u1").Return(&entities.Client{ID: "c1"}, nil)
	f.clients.On("Update", mock.Anything, mock.Anything).Return(nil)

	phone := "555-0100"
	_, err := f.service.UpdateProfile(context.Background(), &entities.Account{ID: "u1"}, services.ProfileUpdate{Phone: &phone})

	require.NoError(t, err)
	f.invalidator.AssertNotCalled(t, "InvalidateTechnician", mock.Anything, mock.Anything)
	f.search.AssertNotCalled(t, "Index", mock.Anything, mock.Anything)
}

func TestProfileService_UpdateProfile_EmptyName(t *testing.T) {
	f := newProfileFixture()
	blank := "  "

	_, err := f.service.UpdateProfile(context.Background(), &entities.Account{ID: "u1"}, services.ProfileUpdate{FullName: &blank})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestProfileService_SetSpecialties(t *testing.T) {
	f := newProfileFixture()
	f.technicians.On("GetByUserID", mock.Anything, "u2").Return(&entities.Technician{ID: "t1"}, nil)
	f.specialties.On("List", mock.Anything).Return([]*entities.Specialty{
		{ID: "sp1", Name: "Heating"},
		{ID: "sp2", Name: "Cooling"},
	}, nil)
	f.specialties.On("ReplaceForTechnician", mock.Anything, "t1", []string{"sp1", "sp2"}).Return(nil)
	f.specialties.On("NamesByTechnician", mock.Anything, []string{"t1"}).Return(map[string][]string{"t1": {"Cooling", "Heating"}}, nil)
	f.search.On("Index", mock.Anything, mock.Anything).Return(nil)
	f.invalidator.On("InvalidateTechnician", mock.Anything, "t1").Return(assert.AnError)

	technician, err := f.service.SetSpecialties(context.Background(), &entities.Account{ID: "u2"}, []string{"sp1", "sp2", "sp1"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Cooling", "Heating"}, technician.Specialties)
	assert.Equal(t, 1, f.tx.calls)
	f.invalidator.AssertExpectations(t)
}

func TestProfileService_SetSpecialties_Unknown(t *testing.T) {
	f := newProfileFixture()
	f.technicians.On("GetByUserID", mock.Anything, "u2").Return(&entities.Technician{ID: "t1"}, nil)
	f.specialties.On("List", mock.Anything).Return([]*entities.Specialty{{ID: "sp1", Name: "Heating"}}, nil)

	_, err := f.service.SetSpecialties(context.Background(), &entities.Account{ID: "u2"}, []string{"nope"})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	f.specialties.AssertNotCalled(t, "ReplaceForTechnician", mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileService_SetSpecialties_NotTechnician(t *testing.T) {
	f := newProfileFixture()
	f.technicians.On("GetByUserID", mock.Anything, "u1").Return(nil, notFound())

	_, err := f.service.SetSpecialties(context.Background(), &entities.Account{ID: "u1"}, []string{"sp1"})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
}
