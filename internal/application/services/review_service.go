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

// SubmitReviewInput is a client's rating of a completed booking
type SubmitReviewInput struct {
	BookingID    string
	TechnicianID string
	ClientID     string
	Rating       int
	Comment      string
}

// Validate checks the input before any storage call
func (in SubmitReviewInput) Validate() error {
	if in.BookingID == "" || in.TechnicianID == "" || in.ClientID == "" {
		return apperrors.NewValidationError("booking, technician and client are required")
	}
	if in.Rating < entities.MinRating || in.Rating > entities.MaxRating {
		return apperrors.NewValidationError(fmt.Sprintf("rating must be between %d and %d", entities.MinRating, entities.MaxRating))
	}
	return nil
}

// ReviewService records reviews and keeps technician ratings in step
type ReviewService struct {
	reviews     repositories.ReviewRepository
	bookings    repositories.BookingRepository
	technicians repositories.TechnicianRepository
	profiles    *ProfileService
	tx          repositories.Transactor
	publisher   providers.EventPublisher
	now         func() time.Time
}

// NewReviewService creates a new review service. publisher may be nil.
func NewReviewService(
	reviews repositories.ReviewRepository,
	bookings repositories.BookingRepository,
	technicians repositories.TechnicianRepository,
	profiles *ProfileService,
	tx repositories.Transactor,
	publisher providers.EventPublisher,
) *ReviewService {
	return &ReviewService{
		reviews:     reviews,
		bookings:    bookings,
		technicians: technicians,
		profiles:    profiles,
		tx:          tx,
		publisher:   publisher,
		now:         time.Now,
	}
}

// ReviewBooking submits the account's review of one of its completed bookings
func (s *ReviewService) ReviewBooking(ctx context.Context, account *entities.Account, bookingID string, rating int, comment string) (*entities.Review, error) {
	if rating < entities.MinRating || rating > entities.MaxRating {
		return nil, apperrors.NewValidationError(fmt.Sprintf("rating must be between %d and %d", entities.MinRating, entities.MaxRating))
	}

	client, err := s.profiles.FindClient(ctx, account)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NewForbiddenError("only clients can review bookings")
	}
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != client.ID {
		return nil, apperrors.NewForbiddenError("booking belongs to another client")
	}

	return s.SubmitReview(ctx, SubmitReviewInput{
		BookingID:    booking.ID,
		TechnicianID: booking.TechnicianID,
		ClientID:     client.ID,
		Rating:       rating,
		Comment:      comment,
	})
}

// SubmitReview inserts the review, recomputes the technician's rating from
// every review they received and marks the booking reviewed. The three
// writes commit together or not at all.
func (s *ReviewService) SubmitReview(ctx context.Context, input SubmitReviewInput) (*entities.Review, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.ClientID != input.ClientID || booking.TechnicianID != input.TechnicianID {
		return nil, apperrors.NewValidationError("review does not match the booking's parties")
	}
	if booking.Status != entities.BookingStatusCompleted {
		return nil, apperrors.NewConflictError(fmt.Sprintf("only completed bookings can be reviewed, booking is %s", booking.Status))
	}

	review := &entities.Review{
		ID:           uuid.New().String(),
		BookingID:    booking.ID,
		ClientID:     input.ClientID,
		TechnicianID: input.TechnicianID,
		Rating:       input.Rating,
		Comment:      strings.TrimSpace(input.Comment),
		CreatedAt:    s.now(),
	}

	var summary entities.RatingSummary
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.reviews.Create(ctx, review); err != nil {
			return err
		}

		ratings, err := s.reviews.RatingsByTechnician(ctx, review.TechnicianID)
		if err != nil {
			return fmt.Errorf("failed to load ratings: %w", err)
		}
		summary = entities.SummarizeRatings(ratings)
		if err := s.technicians.UpdateRatingStats(ctx, review.TechnicianID, summary); err != nil {
			return fmt.Errorf("failed to update technician rating: %w", err)
		}

		return s.bookings.UpdateStatus(ctx, booking.ID, entities.BookingStatusReviewed)
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Str("booking_id", booking.ID).Msg("review submission rolled back")
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("technician_id", review.TechnicianID).
		Int("rating", review.Rating).
		Float64("technician_rating", summary.Average).
		Int("review_count", summary.Count).
		Msg("review submitted")
	observability.RecordBookingEvent(ctx, string(entities.BookingEventReviewed))
	s.profiles.RefreshRating(ctx, review.TechnicianID, summary)

	if s.publisher != nil {
		previous := booking.Status
		booking.Status = entities.BookingStatusReviewed
		event := entities.NewBookingEvent(entities.BookingEventReviewed, booking, previous)
		event.Rating = review.Rating
		if err := s.publisher.PublishBookingEvent(ctx, event); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).
				Str("booking_id", booking.ID).Msg("failed to publish review event")
		}
	}
	return review, nil
}
