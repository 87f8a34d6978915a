package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

const (
	defaultClientName     = "Client"
	defaultTechnicianName = "Technician"
)

// Profile is the marketplace identity of an account
type Profile struct {
	Role       entities.ViewerRole  `json:"role"`
	Client     *entities.Client     `json:"client,omitempty"`
	Technician *entities.Technician `json:"technician,omitempty"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FullName      *string
	Phone         *string
	Address       *string
	Bio           *string
	Location      *string
	Experience    *string
	Available     *bool
	NextAvailable *string
}

// TechnicianInvalidator drops cached copies of a technician's public data
type TechnicianInvalidator interface {
	InvalidateTechnician(ctx context.Context, technicianID string) error
}

// ProfileService resolves accounts to client and technician profiles
type ProfileService struct {
	clients     repositories.ClientRepository
	technicians repositories.TechnicianRepository
	specialties repositories.SpecialtyRepository
	tx          repositories.Transactor
	search      providers.TechnicianSearchProvider
	invalidator TechnicianInvalidator
	now         func() time.Time
}

// NewProfileService creates a new profile service. search may be nil.
func NewProfileService(
	clients repositories.ClientRepository,
	technicians repositories.TechnicianRepository,
	specialties repositories.SpecialtyRepository,
	tx repositories.Transactor,
	search providers.TechnicianSearchProvider,
) *ProfileService {
	return &ProfileService{
		clients:     clients,
		technicians: technicians,
		specialties: specialties,
		tx:          tx,
		search:      search,
		now:         time.Now,
	}
}

// SetInvalidator registers the cache that holds technician pages. It is
// called once during wiring, before requests are served.
func (s *ProfileService) SetInvalidator(invalidator TechnicianInvalidator) {
	s.invalidator = invalidator
}

// FindClient returns the account's client profile without creating one
func (s *ProfileService) FindClient(ctx context.Context, account *entities.Account) (*entities.Client, error) {
	return s.clients.GetByUserID(ctx, account.ID)
}

// FindTechnician returns the account's technician profile without creating one
func (s *ProfileService) FindTechnician(ctx context.Context, account *entities.Account) (*entities.Technician, error) {
	return s.technicians.GetByUserID(ctx, account.ID)
}

// EnsureClient returns the account's client profile, creating it on first use
// from the display name and an avatar seeded by email
func (s *ProfileService) EnsureClient(ctx context.Context, account *entities.Account) (*entities.Client, error) {
	client, err := s.clients.GetByUserID(ctx, account.ID)
	if err == nil {
		return client, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	now := s.now()
	client = &entities.Client{
		ID:        uuid.New().String(),
		UserID:    account.ID,
		FullName:  account.NameOr(defaultClientName),
		Avatar:    account.AvatarURL(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.clients.Create(ctx, client); err != nil {
		// A concurrent request created it first.
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			return s.clients.GetByUserID(ctx, account.ID)
		}
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("client_id", client.ID).Str("user_id", account.ID).Msg("created client profile")
	return client, nil
}

// EnsureTechnician returns the account's technician profile, creating an
// available, unrated one on first use
func (s *ProfileService) EnsureTechnician(ctx context.Context, account *entities.Account) (*entities.Technician, error) {
	technician, err := s.technicians.GetByUserID(ctx, account.ID)
	if err == nil {
		return s.withSpecialties(ctx, technician)
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	now := s.now()
	technician = &entities.Technician{
		ID:          uuid.New().String(),
		UserID:      account.ID,
		FullName:    account.NameOr(defaultTechnicianName),
		Avatar:      account.AvatarURL(),
		Rating:      0,
		ReviewCount: 0,
		Available:   true,
		Specialties: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.technicians.Create(ctx, technician); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			return s.technicians.GetByUserID(ctx, account.ID)
		}
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("technician_id", technician.ID).Str("user_id", account.ID).Msg("created technician profile")
	s.index(ctx, technician)
	return technician, nil
}

// GetProfile looks for a client profile, then a technician profile, and
// creates a client profile when the account has neither
func (s *ProfileService) GetProfile(ctx context.Context, account *entities.Account) (*Profile, error) {
	client, err := s.clients.GetByUserID(ctx, account.ID)
	if err == nil {
		return &Profile{Role: entities.ViewerRoleClient, Client: client}, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	technician, err := s.technicians.GetByUserID(ctx, account.ID)
	if err == nil {
		technician, err = s.withSpecialties(ctx, technician)
		if err != nil {
			return nil, err
		}
		return &Profile{Role: entities.ViewerRoleTechnician, Technician: technician}, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	client, err = s.EnsureClient(ctx, account)
	if err != nil {
		return nil, err
	}
	return &Profile{Role: entities.ViewerRoleClient, Client: client}, nil
}

// UpdateProfile applies update to whichever profile the account has
func (s *ProfileService) UpdateProfile(ctx context.Context, account *entities.Account, update ProfileUpdate) (*Profile, error) {
	if update.FullName != nil && strings.TrimSpace(*update.FullName) == "" {
		return nil, apperrors.NewValidationError("full_name cannot be empty")
	}

	profile, err := s.GetProfile(ctx, account)
	if err != nil {
		return nil, err
	}

	switch profile.Role {
	case entities.ViewerRoleTechnician:
		t := profile.Technician
		assign(&t.FullName, update.FullName)
		assign(&t.Bio, update.Bio)
		assign(&t.Location, update.Location)
		assign(&t.Experience, update.Experience)
		assign(&t.NextAvailable, update.NextAvailable)
		if update.Available != nil {
			t.Available = *update.Available
		}
		if err := s.technicians.Update(ctx, t); err != nil {
			return nil, err
		}
		s.publishTechnician(ctx, t)
	default:
		c := profile.Client
		assign(&c.FullName, update.FullName)
		assign(&c.Phone, update.Phone)
		assign(&c.Address, update.Address)
		if err := s.clients.Update(ctx, c); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// SetSpecialties replaces the technician's specialties with the given ids
func (s *ProfileService) SetSpecialties(ctx context.Context, account *entities.Account, specialtyIDs []string) (*entities.Technician, error) {
	technician, err := s.technicians.GetByUserID(ctx, account.ID)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NewForbiddenError("only technicians have specialties")
	}
	if err != nil {
		return nil, err
	}

	known, err := s.specialties.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(known))
	for _, sp := range known {
		names[sp.ID] = sp.Name
	}

	unique := make([]string, 0, len(specialtyIDs))
	seen := make(map[string]bool, len(specialtyIDs))
	for _, id := range specialtyIDs {
		if _, ok := names[id]; !ok {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown specialty %s", id))
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.specialties.ReplaceForTechnician(ctx, technician.ID, unique)
	})
	if err != nil {
		return nil, err
	}

	technician, err = s.withSpecialties(ctx, technician)
	if err != nil {
		return nil, err
	}
	s.publishTechnician(ctx, technician)
	return technician, nil
}

// RefreshRating republishes a technician after a committed rating change.
// The committed summary wins over whatever the reload returns.
func (s *ProfileService) RefreshRating(ctx context.Context, technicianID string, summary entities.RatingSummary) {
	technician, err := s.technicians.GetByID(ctx, technicianID)
	if err == nil {
		technician, err = s.withSpecialties(ctx, technician)
	}
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("technician_id", technicianID).Msg("failed to reload technician for reindex")
		return
	}
	technician.Rating = summary.Average
	technician.ReviewCount = summary.Count
	s.publishTechnician(ctx, technician)
}

func (s *ProfileService) withSpecialties(ctx context.Context, technician *entities.Technician) (*entities.Technician, error) {
	names, err := s.specialties.NamesByTechnician(ctx, []string{technician.ID})
	if err != nil {
		return nil, err
	}
	technician.Specialties = names[technician.ID]
	if technician.Specialties == nil {
		technician.Specialties = []string{}
	}
	return technician, nil
}

// index keeps the directory in step with profile edits. Failures only delay search freshness.
func (s *ProfileService) index(ctx context.Context, technician *entities.Technician) {
	if s.search == nil {
		return
	}
	if err := s.search.Index(ctx, technician); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("technician_id", technician.ID).Msg("failed to index technician")
	}
}

// publishTechnician pushes public profile changes to search and drops stale directory pages
func (s *ProfileService) publishTechnician(ctx context.Context, technician *entities.Technician) {
	s.index(ctx, technician)
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateTechnician(ctx, technician.ID); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("technician_id", technician.ID).Msg("failed to invalidate technician cache")
	}
}

func assign(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
