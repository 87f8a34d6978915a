package repositories

import (
	"context"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

// ReviewRepository defines the interface for review data operations
type ReviewRepository interface {
	// Create inserts a review
	Create(ctx context.Context, review *entities.Review) error

	// GetByBookingID retrieves the review left for a booking
	GetByBookingID(ctx context.Context, bookingID string) (*entities.Review, error)

	// RatingsByTechnician returns every rating the technician received
	RatingsByTechnician(ctx context.Context, technicianID string) ([]int, error)

	// ListByTechnician retrieves the technician's reviews, newest first
	ListByTechnician(ctx context.Context, technicianID string) ([]*entities.Review, error)
}
