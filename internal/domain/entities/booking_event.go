package entities

import (
	"time"

	"github.com/google/uuid"
)

// BookingEventType names a booking lifecycle change
type BookingEventType string

const (
	BookingEventCreated       BookingEventType = "booking.created"
	BookingEventStatusChanged BookingEventType = "booking.status_changed"
	BookingEventReviewed      BookingEventType = "review.submitted"
)

// BookingEvent is published whenever a booking changes
type BookingEvent struct {
	ID             string           `json:"id"`
	Type           BookingEventType `json:"type"`
	BookingID      string           `json:"booking_id"`
	ClientID       string           `json:"client_id"`
	TechnicianID   string           `json:"technician_id"`
	Status         BookingStatus    `json:"status"`
	PreviousStatus BookingStatus    `json:"previous_status,omitempty"`
	Rating         int              `json:"rating,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// NewBookingEvent creates an event describing booking's current state
func NewBookingEvent(eventType BookingEventType, booking *Booking, previous BookingStatus) *BookingEvent {
	return &BookingEvent{
		ID:             uuid.New().String(),
		Type:           eventType,
		BookingID:      booking.ID,
		ClientID:       booking.ClientID,
		TechnicianID:   booking.TechnicianID,
		Status:         booking.Status,
		PreviousStatus: previous,
		Timestamp:      time.Now().UTC(),
	}
}
