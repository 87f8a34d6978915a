package providers

import (
	"context"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.BookingEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventPublisher delivers a booking event to every interested channel
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, event *entities.BookingEvent) error
}

// EventChannel constants for different event types
const (
	// EventChannelBookingUpdates carries every booking event
	EventChannelBookingUpdates = "bookings:updates"

	// EventChannelClientPrefix is the prefix for client-specific channels
	EventChannelClientPrefix = "bookings:client:"

	// EventChannelTechnicianPrefix is the prefix for technician-specific channels
	EventChannelTechnicianPrefix = "bookings:technician:"
)

// GetClientChannel returns the channel name for a specific client
func GetClientChannel(clientID string) string {
	return EventChannelClientPrefix + clientID
}

// GetTechnicianChannel returns the channel name for a specific technician
func GetTechnicianChannel(technicianID string) string {
	return EventChannelTechnicianPrefix + technicianID
}
