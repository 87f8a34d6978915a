package loaders

import (
	"context"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

// HydrateBookings attaches client, technician and service records to each
// booking. Related records that no longer exist are left empty.
func (l *Loaders) HydrateBookings(ctx context.Context, bookings []*entities.Booking) ([]*entities.BookingView, error) {
	type pending struct {
		client     func() (*entities.Client, error)
		technician func() (*entities.Technician, error)
		service    func() (*entities.Service, error)
	}

	thunks := make([]pending, len(bookings))
	for i, b := range bookings {
		thunks[i] = pending{
			client:     l.ClientLoader.Load(ctx, b.ClientID),
			technician: l.TechnicianLoader.Load(ctx, b.TechnicianID),
			service:    l.ServiceLoader.Load(ctx, b.ServiceID),
		}
	}

	views := make([]*entities.BookingView, len(bookings))
	for i, b := range bookings {
		view := &entities.BookingView{Booking: b}

		client, err := thunks[i].client()
		if err = tolerateMissing(err); err != nil {
			return nil, err
		}
		technician, err := thunks[i].technician()
		if err = tolerateMissing(err); err != nil {
			return nil, err
		}
		service, err := thunks[i].service()
		if err = tolerateMissing(err); err != nil {
			return nil, err
		}

		view.Client, view.Technician, view.Service = client, technician, service
		views[i] = view
	}
	return views, nil
}

func tolerateMissing(err error) error {
	if apperrors.IsNotFound(err) {
		return nil
	}
	return err
}
