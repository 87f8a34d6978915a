package repositories

import (
	"context"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

// BookingRepository defines the interface for booking data operations
type BookingRepository interface {
	// Create inserts a new booking
	Create(ctx context.Context, booking *entities.Booking) error

	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id string) (*entities.Booking, error)

	// UpdateStatus sets the status of a booking
	UpdateStatus(ctx context.Context, id string, status entities.BookingStatus) error

	// ListByClient retrieves a client's bookings, newest date first
	ListByClient(ctx context.Context, clientID string, filter BookingFilter) ([]*entities.Booking, error)

	// ListByTechnician retrieves a technician's bookings, oldest date first
	ListByTechnician(ctx context.Context, technicianID string, filter BookingFilter) ([]*entities.Booking, error)

	// ExistsForSlot reports whether a non-cancelled booking holds the technician's slot
	ExistsForSlot(ctx context.Context, technicianID, date, timeSlot string) (bool, error)
}

// BookingFilter defines filters for listing bookings
type BookingFilter struct {
	Status entities.BookingStatus
	Limit  int
	Offset int
}

// Transactor runs a function inside a single storage transaction. Repository
// calls made with the context passed to fn take part in that transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
