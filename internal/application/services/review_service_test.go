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

type reviewFixture struct {
	reviews     *MockReviewRepository
	bookings    *MockBookingRepository
	clients     *MockClientRepository
	technicians *MockTechnicianRepository
	specialties *MockSpecialtyRepository
	search      *MockSearchProvider
	publisher   *MockPublisher
	tx          *fakeTransactor
	service     *services.ReviewService
}

func newReviewFixture() *reviewFixture {
	f := &reviewFixture{
		reviews:     new(MockReviewRepository),
		bookings:    new(MockBookingRepository),
		clients:     new(MockClientRepository),
		technicians: new(MockTechnicianRepository),
		specialties: new(MockSpecialtyRepository),
		search:      new(MockSearchProvider),
		publisher:   new(MockPublisher),
		tx:          &fakeTransactor{},
	}
	profiles := services.NewProfileService(f.clients, f.technicians, f.specialties, f.tx, f.search)
	f.service = services.NewReviewService(f.reviews, f.bookings, f.technicians, profiles, f.tx, f.publisher)
	return f
}

// expectReindex serves the technician row as it was before the review
func (f *reviewFixture) expectReindex() {
	f.technicians.On("GetByID", mock.Anything, "t1").Return(&entities.Technician{ID: "t1", FullName: "Dana"}, nil)
	f.specialties.On("NamesByTechnician", mock.Anything, []string{"t1"}).
		Return(map[string][]string{"t1": {"Heating"}}, nil)
	f.search.On("Index", mock.Anything, mock.Anything).Return(nil)
}

func completedBooking() *entities.Booking {
	return &entities.Booking{ID: "b1", ClientID: "c1", TechnicianID: "t1", ServiceID: "s1", Status: entities.BookingStatusCompleted}
}

func TestReviewService_SubmitReview_RecomputesMean(t *testing.T) {
	f := newReviewFixture()
	f.bookings.On("GetByID", mock.Anything, "b1").Return(completedBooking(), nil)
	f.reviews.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.Review) bool {
		return r.BookingID == "b1" && r.Rating == 5 && r.Comment == "Quick and tidy"
	})).Return(nil)
	f.reviews.On("RatingsByTechnician", mock.Anything, "t1").Return([]int{5, 4, 5}, nil)
	f.technicians.On("UpdateRatingStats", mock.Anything, "t1", mock.MatchedBy(func(s entities.RatingSummary) bool {
		return s.Count == 3 && s.Average > 4.666 && s.Average < 4.667
	})).Return(nil)
	f.bookings.On("UpdateStatus", mock.Anything, "b1", entities.BookingStatusReviewed).Return(nil)
	f.publisher.On("PublishBookingEvent", mock.Anything, mock.MatchedBy(func(e *entities.BookingEvent) bool {
		return e.Type == entities.BookingEventReviewed && e.Rating == 5 && e.Status == entities.BookingStatusReviewed
	})).Return(nil)
	f.expectReindex()

	review, err := f.service.SubmitReview(context.Background(), services.SubmitReviewInput{
		BookingID: "b1", TechnicianID: "t1", ClientID: "c1", Rating: 5, Comment: " Quick and tidy ",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, 1, f.tx.calls)
	assert.False(t, f.tx.rolledBack)
	assert.Equal(t, "4.7", entities.FormatRating(entities.SummarizeRatings([]int{5, 4, 5}).Average))
	f.technicians.AssertExpectations(t)
	f.bookings.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestReviewService_SubmitReview_ReindexesCommittedRating(t *testing.T) {
	f := newReviewFixture()
	f.bookings.On("GetByID", mock.Anything, "b1").Return(completedBooking(), nil)
	f.reviews.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.reviews.On("RatingsByTechnician", mock.Anything, "t1").Return([]int{5}, nil)
	f.technicians.On("UpdateRatingStats", mock.Anything, "t1", entities.RatingSummary{Average: 5, Count: 1}).Return(nil)
	f.bookings.On("UpdateStatus", mock.Anything, "b1", entities.BookingStatusReviewed).Return(nil)
	f.publisher.On("PublishBookingEvent", mock.Anything, mock.Anything).Return(nil)
	f.expectReindex()

	_, err := f.service.SubmitReview(context.Background(), services.SubmitReviewInput{
		BookingID: "b1", TechnicianID: "t1", ClientID: "c1", Rating: 5,
	})

	require.NoError(t, err)
	f.search.AssertCalled(t, "Index", mock.Anything, mock.MatchedBy(func(tech *entities.Technician) bool {
		return tech.ID == "t1" && tech.Rating == 5 && tech.ReviewCount == 1 &&
			len(tech.Specialties) == 1 && tech.Specialties[0] == "Heating"
	}))
}

func TestReviewService_SubmitReview_InsertFailureKeepsStatus(t *testing.T) {
	f := newReviewFixture()
	f.bookings.On("GetByID", mock.Anything, "b1").Return(completedBooking(), nil)
	f.reviews.On("Create", mock.Anything, mock.Anything).Return(apperrors.NewConflictError("booking already reviewed"))

	_, err := f.service.SubmitReview(context.Background(), services.SubmitReviewInput{
		BookingID: "b1", TechnicianID: "t1", ClientID: "c1", Rating: 4,
	})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	assert.True(t, f.tx.rolledBack)
	f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	f.technicians.AssertNotCalled(t, "UpdateRatingStats", mock.Anything, mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishBookingEvent", mock.Anything, mock.Anything)
	f.search.AssertNotCalled(t, "Index", mock.Anything, mock.Anything)
}

func TestReviewService_SubmitReview_RatingUpdateFailureRollsBack(t *testing.T) {
	f := newReviewFixture()
	f.bookings.On("GetByID", mock.Anything, "b1").Return(completedBooking(), nil)
	f.reviews.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.reviews.On("RatingsByTechnician", mock.Anything, "t1").Return([]int{3}, nil)
	f.technicians.On("UpdateRatingStats", mock.Anything, "t1", mock.Anything).Return(assert.AnError)

	_, err := f.service.SubmitReview(context.Background(), services.SubmitReviewInput{
		BookingID: "b1", TechnicianID: "t1", ClientID: "c1", Rating: 3,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.True(t, f.tx.rolledBack)
	f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_SubmitReview_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		booking  *entities.Booking
		input    services.SubmitReviewInput
		expected apperrors.ErrorType
	}{
		{
			name:     "rating too high",
			input:    services.SubmitReviewInput{BookingID: "b1", TechnicianID: "t1", ClientID: "c1", Rating: 6},
			expected: apperrors.ErrorTypeValidation,
		},
		{
			name:     "rating too low",
			input:    services.SubmitReviewInput{BookingID: "b1", TechnicianID: "t1", ClientID: "c1", Rating: 0},
			expected: apperrors.ErrorTypeValidation,
		},
		{
			name:     "wrong parties",
			booking:  completedBooking(),
			input:    services.SubmitReviewInput{BookingID: "b1", TechnicianID: "t2", ClientID: "c1", Rating: 5},
			expected: apperrors.ErrorTypeValidation,
		},
		{
			name:     "not completed",
			booking:  &entities.Booking{ID: "b1", ClientID: "c1", TechnicianID: "t1", Status: entities.BookingStatusConfirmed},
			input:    services.SubmitReviewInput{BookingID: "b1", TechnicianID: "t1", ClientID: "c1", Rating: 5},
			expected: apperrors.ErrorTypeConflict,
		},
		{
			name:     "already reviewed",
			booking:  &entities.Booking{ID: "b1", ClientID: "c1", TechnicianID: "t1", Status: entities.BookingStatusReviewed},
			input:    services.SubmitReviewInput{BookingID: "b1", TechnicianID: "t1", ClientID: "c1", Rating: 5},
			expected: apperrors.ErrorTypeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReviewFixture()
			if tt.booking != nil {
				f.bookings.On("GetByID", mock.Anything, "b1").Return(tt.booking, nil)
			}

			_, err := f.service.SubmitReview(context.Background(), tt.input)

			assert.True(t, apperrors.IsType(err, tt.expected), "got %v", err)
			assert.Equal(t, 0, f.tx.calls)
			f.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestReviewService_ReviewBooking_ResolvesParties(t *testing.T) {
	f := newReviewFixture()
	f.clients.On("GetByUserID", mock.Anything, "u1").Return(&entities.Client{ID: "c1", UserID: "u1"}, nil)
	f.bookings.On("GetByID", mock.Anything, "b1").Return(completedBooking(), nil)
	f.reviews.On("Create", mock.Anything, mock.MatchedBy(func(r *entities.Review) bool {
		return r.ClientID == "c1" && r.TechnicianID == "t1"
	})).Return(nil)
	f.reviews.On("RatingsByTechnician", mock.Anything, "t1").Return([]int{4}, nil)
	f.technicians.On("UpdateRatingStats", mock.Anything, "t1", entities.RatingSummary{Average: 4, Count: 1}).Return(nil)
	f.bookings.On("UpdateStatus", mock.Anything, "b1", entities.BookingStatusReviewed).Return(nil)
	f.publisher.On("PublishBookingEvent", mock.Anything, mock.Anything).Return(nil)
	f.expectReindex()

	review, err := f.service.ReviewBooking(context.Background(), &entities.Account{ID: "u1"}, "b1", 4, "")

	require.NoError(t, err)
	assert.Equal(t, 4, review.Rating)
	f.reviews.AssertExpectations(t)
}

func TestReviewService_ReviewBooking_OtherClient(t *testing.T) {
	f := newReviewFixture()
	f.clients.On("GetByUserID", mock.Anything, "u9").Return(&entities.Client{ID: "c9", UserID: "u9"}, nil)
	f.bookings.On("GetByID", mock.Anything, "b1").Return(completedBooking(), nil)

	_, err := f.service.ReviewBooking(context.Background(), &entities.Account{ID: "u9"}, "b1", 5, "")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
}

func TestReviewService_ReviewBooking_NoClientProfile(t *testing.T) {
	f := newReviewFixture()
	f.clients.On("GetByUserID", mock.Anything, "u2").Return(nil, apperrors.NewNotFoundError("client not found"))

	_, err := f.service.ReviewBooking(context.Background(), &entities.Account{ID: "u2"}, "b1", 5, "")

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeForbidden))
	f.bookings.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
