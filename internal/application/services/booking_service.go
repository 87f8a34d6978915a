package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hvacconnect/marketplace/internal/application/loaders"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

// BookingPolicy toggles the lifecycle checks applied at the write boundary
type BookingPolicy struct {
	// EnforceTransitions rejects status changes the lifecycle does not allow
	EnforceTransitions bool
	// PreventDoubleBooking rejects a booking for a technician slot already held
	PreventDoubleBooking bool
	// Location decides what "today" is when splitting bookings into tabs
	Location *time.Location
}

// CreateBookingInput is a client's request for a visit
type CreateBookingInput struct {
	TechnicianID string
	ServiceID    string
	Date         string
	TimeSlot     string
	Notes        string
}

// Validate checks the input before any storage call
func (in CreateBookingInput) Validate() error {
	if strings.TrimSpace(in.TechnicianID) == "" {
		return apperrors.NewValidationError("technician_id is required")
	}
	if strings.TrimSpace(in.ServiceID) == "" {
		return apperrors.NewValidationError("service_id is required")
	}
	if _, err := time.Parse(entities.DateLayout, in.Date); err != nil {
		return apperrors.NewValidationError("date must be formatted as YYYY-MM-DD")
	}
	if !slices.Contains(entities.DefaultTimeSlots(), in.TimeSlot) {
		return apperrors.NewValidationError(fmt.Sprintf("unknown time slot %q", in.TimeSlot))
	}
	return nil
}

// BookingService drives bookings through their lifecycle
type BookingService struct {
	bookings    repositories.BookingRepository
	technicians repositories.TechnicianRepository
	services    repositories.ServiceRepository
	profiles    *ProfileService
	publisher   providers.EventPublisher
	loaders     *loaders.Factory
	policy      BookingPolicy
	now         func() time.Time
}

// NewBookingService creates a new booking service. publisher may be nil.
func NewBookingService(
	bookings repositories.BookingRepository,
	technicians repositories.TechnicianRepository,
	services repositories.ServiceRepository,
	profiles *ProfileService,
	publisher providers.EventPublisher,
	loaderFactory *loaders.Factory,
	policy BookingPolicy,
) *BookingService {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &BookingService{
		bookings:    bookings,
		technicians: technicians,
		services:    services,
		profiles:    profiles,
		publisher:   publisher,
		loaders:     loaderFactory,
		policy:      policy,
		now:         time.Now,
	}
}

// Create books a visit for the account's client profile, creating the
// profile on first use. New bookings always start pending.
func (s *BookingService) Create(ctx context.Context, account *entities.Account, input CreateBookingInput) (*entities.Booking, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	client, err := s.profiles.EnsureClient(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve client: %w", err)
	}

	if _, err := s.technicians.GetByID(ctx, input.TechnicianID); err != nil {
		return nil, err
	}
	if _, err := s.services.GetByID(ctx, input.ServiceID); err != nil {
		return nil, err
	}

	if s.policy.PreventDoubleBooking {
		taken, err := s.bookings.ExistsForSlot(ctx, input.TechnicianID, input.Date, input.TimeSlot)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperrors.NewConflictError("technician is already booked for this slot")
		}
	}

	now := s.now()
	booking := &entities.Booking{
		ID:           uuid.New().String(),
		ClientID:     client.ID,
		TechnicianID: input.TechnicianID,
		ServiceID:    input.ServiceID,
		BookingDate:  input.Date,
		BookingTime:  input.TimeSlot,
		Status:       entities.BookingStatusPending,
		Notes:        strings.TrimSpace(input.Notes),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("technician_id", booking.TechnicianID).
		Str("date", booking.BookingDate).
		Msg("booking created")
	observability.RecordBookingEvent(ctx, string(entities.BookingEventCreated))

	s.publish(ctx, entities.NewBookingEvent(entities.BookingEventCreated, booking, ""))
	return booking, nil
}

// GetBooking returns a hydrated booking visible to the account
func (s *BookingService) GetBooking(ctx context.Context, account *entities.Account, id string) (*entities.BookingView, error) {
	booking, err := s.authorize(ctx, account, id)
	if err != nil {
		return nil, err
	}
	views, err := s.hydrate(ctx, []*entities.Booking{booking})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// TransitionStatus moves a booking to status on behalf of one of its parties
func (s *BookingService) TransitionStatus(ctx context.Context, account *entities.Account, id string, status entities.BookingStatus) (*entities.Booking, error) {
	if !status.IsValid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid status %q", status))
	}

	booking, err := s.authorize(ctx, account, id)
	if err != nil {
		return nil, err
	}

	if s.policy.EnforceTransitions {
		if err := s.checkTransition(ctx, account, booking, status); err != nil {
			return nil, err
		}
	}

	previous := booking.Status
	if err := s.bookings.UpdateStatus(ctx, booking.ID, status); err != nil {
		return nil, err
	}
	booking.Status = status
	booking.UpdatedAt = s.now()

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("booking status changed")
	observability.RecordBookingEvent(ctx, string(entities.BookingEventStatusChanged))

	s.publish(ctx, entities.NewBookingEvent(entities.BookingEventStatusChanged, booking, previous))
	return booking, nil
}

func (s *BookingService) checkTransition(ctx context.Context, account *entities.Account, booking *entities.Booking, status entities.BookingStatus) error {
	if status == entities.BookingStatusReviewed {
		return apperrors.NewValidationError("bookings become reviewed by submitting a review")
	}
	if !entities.CanTransition(booking.Status, status) {
		return apperrors.NewConflictError(fmt.Sprintf("cannot move booking from %s to %s", booking.Status, status))
	}
	if status == entities.BookingStatusConfirmed || status == entities.BookingStatusCompleted {
		technician, err := s.profiles.FindTechnician(ctx, account)
		if err != nil && !apperrors.IsNotFound(err) {
			return err
		}
		if technician == nil || technician.ID != booking.TechnicianID {
			return apperrors.NewForbiddenError(fmt.Sprintf("only the technician can mark a booking %s", status))
		}
	}
	return nil
}

// authorize loads a booking and checks the account takes part in it
func (s *BookingService) authorize(ctx context.Context, account *entities.Account, id string) (*entities.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var clientID, technicianID string
	if client, err := s.profiles.FindClient(ctx, account); err == nil {
		clientID = client.ID
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}
	if technician, err := s.profiles.FindTechnician(ctx, account); err == nil {
		technicianID = technician.ID
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	if !booking.HasParty(clientID, technicianID) {
		return nil, apperrors.NewForbiddenError("booking belongs to another account")
	}
	return booking, nil
}

// ListForClient returns a client's bookings in tab, newest date first
func (s *BookingService) ListForClient(ctx context.Context, clientID string, tab entities.BookingTab) ([]*entities.BookingView, error) {
	bookings, err := s.bookings.ListByClient(ctx, clientID, repositories.BookingFilter{})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, bookings, entities.ViewerRoleClient, tab)
}

// ListForTechnician returns a technician's bookings in tab, oldest date first
func (s *BookingService) ListForTechnician(ctx context.Context, technicianID string, tab entities.BookingTab) ([]*entities.BookingView, error) {
	bookings, err := s.bookings.ListByTechnician(ctx, technicianID, repositories.BookingFilter{})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, bookings, entities.ViewerRoleTechnician, tab)
}

// ListBookings lists the account's bookings for role. Accounts without a
// profile for that role have no bookings.
func (s *BookingService) ListBookings(ctx context.Context, account *entities.Account, role entities.ViewerRole, tab entities.BookingTab) ([]*entities.BookingView, error) {
	switch role {
	case entities.ViewerRoleTechnician:
		technician, err := s.profiles.FindTechnician(ctx, account)
		if apperrors.IsNotFound(err) {
			return []*entities.BookingView{}, nil
		}
		if err != nil {
			return nil, err
		}
		return s.ListForTechnician(ctx, technician.ID, tab)
	default:
		client, err := s.profiles.FindClient(ctx, account)
		if apperrors.IsNotFound(err) {
			return []*entities.BookingView{}, nil
		}
		if err != nil {
			return nil, err
		}
		return s.ListForClient(ctx, client.ID, tab)
	}
}

// Today returns the current date in the booking timezone
func (s *BookingService) Today() string {
	return s.now().In(s.policy.Location).Format(entities.DateLayout)
}

func (s *BookingService) view(ctx context.Context, bookings []*entities.Booking, role entities.ViewerRole, tab entities.BookingTab) ([]*entities.BookingView, error) {
	selected := slices.Collect(tab.Filter(bookings, role, s.Today()))
	return s.hydrate(ctx, selected)
}

func (s *BookingService) hydrate(ctx context.Context, bookings []*entities.Booking) ([]*entities.BookingView, error) {
	if len(bookings) == 0 {
		return []*entities.BookingView{}, nil
	}
	l := loaders.For(ctx)
	if l == nil {
		l = s.loaders.New()
	}
	return l.HydrateBookings(ctx, bookings)
}

func (s *BookingService) publish(ctx context.Context, event *entities.BookingEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBookingEvent(ctx, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("booking_id", event.BookingID).
			Str("event_type", string(event.Type)).
			Msg("failed to publish booking event")
	}
}
