package events

import (
	"context"
	"errors"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
)

// Dispatcher fans a booking event out to the pub/sub channels watched by the
// affected client and technician, and to any external brokers
type Dispatcher struct {
	bus     providers.EventBus
	brokers []providers.EventPublisher
}

// NewDispatcher creates a dispatcher. bus may be nil when live updates are off.
func NewDispatcher(bus providers.EventBus, brokers ...providers.EventPublisher) *Dispatcher {
	return &Dispatcher{bus: bus, brokers: brokers}
}

// PublishBookingEvent delivers event everywhere and reports every failure
func (d *Dispatcher) PublishBookingEvent(ctx context.Context, event *entities.BookingEvent) error {
	var errs []error

	if d.bus != nil {
		channels := []string{
			providers.EventChannelBookingUpdates,
			providers.GetClientChannel(event.ClientID),
			providers.GetTechnicianChannel(event.TechnicianID),
		}
		for _, channel := range channels {
			if err := d.bus.Publish(ctx, channel, event); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, broker := range d.brokers {
		if err := broker.PublishBookingEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
