package entities

import (
	"fmt"
	"iter"
	"slices"
	"time"
)

// DateLayout is the wire and storage format of a booking date
const DateLayout = "2006-01-02"

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusReviewed  BookingStatus = "reviewed"
)

// bookingTransitions lists, per target status, the states it may be entered from.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusConfirmed: {BookingStatusPending},
	BookingStatusCompleted: {BookingStatusConfirmed},
	BookingStatusCancelled: {BookingStatusPending, BookingStatusConfirmed},
	BookingStatusReviewed:  {BookingStatusCompleted},
}

// IsValid reports whether s is one of the known booking states
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted,
		BookingStatusCancelled, BookingStatusReviewed:
		return true
	}
	return false
}

// IsFinished reports whether the work behind the booking has been done
func (s BookingStatus) IsFinished() bool {
	return s == BookingStatusCompleted || s == BookingStatusReviewed
}

// CanTransition reports whether the lifecycle allows moving from one status to another
func CanTransition(from, to BookingStatus) bool {
	return slices.Contains(bookingTransitions[to], from)
}

// Booking represents a scheduled home-service visit
type Booking struct {
	ID           string        `json:"id" db:"id"`
	ClientID     string        `json:"client_id" db:"client_id"`
	TechnicianID string        `json:"technician_id" db:"technician_id"`
	ServiceID    string        `json:"service_id" db:"service_id"`
	BookingDate  string        `json:"booking_date" db:"booking_date"`
	BookingTime  string        `json:"booking_time" db:"booking_time"`
	Status       BookingStatus `json:"status" db:"status"`
	Notes        string        `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// HasParty reports whether the client or technician id takes part in the booking
func (b *Booking) HasParty(clientID, technicianID string) bool {
	return (clientID != "" && b.ClientID == clientID) ||
		(technicianID != "" && b.TechnicianID == technicianID)
}

// BookingView is a booking hydrated with its related records
type BookingView struct {
	*Booking
	Client     *Client     `json:"client,omitempty"`
	Technician *Technician `json:"technician,omitempty"`
	Service    *Service    `json:"service,omitempty"`
}

// ViewerRole identifies which side of a booking is looking at it
type ViewerRole string

const (
	ViewerRoleClient     ViewerRole = "client"
	ViewerRoleTechnician ViewerRole = "technician"
)

// DescendingDates reports whether the role sees bookings newest first
func (r ViewerRole) DescendingDates() bool {
	return r == ViewerRoleClient
}

// BookingTab partitions a party's bookings for display
type BookingTab string

const (
	BookingTabAll      BookingTab = "all"
	BookingTabUpcoming BookingTab = "upcoming"
	BookingTabPast     BookingTab = "past"
)

// ParseBookingTab maps a query value to a tab. "completed" is the
// technician-facing name for the history tab.
func ParseBookingTab(value string) (BookingTab, error) {
	switch value {
	case "", "all":
		return BookingTabAll, nil
	case "upcoming":
		return BookingTabUpcoming, nil
	case "past", "completed":
		return BookingTabPast, nil
	}
	return "", fmt.Errorf("unknown booking filter %q", value)
}

// Includes reports whether booking b belongs in the tab for the given role.
// today must be formatted with DateLayout.
func (t BookingTab) Includes(b *Booking, role ViewerRole, today string) bool {
	switch t {
	case BookingTabUpcoming:
		if b.BookingDate < today || b.Status == BookingStatusCancelled {
			return false
		}
		if role == ViewerRoleTechnician && b.Status.IsFinished() {
			return false
		}
		return true
	case BookingTabPast:
		return b.BookingDate < today || b.Status.IsFinished()
	default:
		return true
	}
}

// Filter lazily yields the bookings that belong in the tab, preserving order
func (t BookingTab) Filter(bookings []*Booking, role ViewerRole, today string) iter.Seq[*Booking] {
	return func(yield func(*Booking) bool) {
		for _, b := range bookings {
			if !t.Includes(b, role, today) {
				continue
			}
			if !yield(b) {
				return
			}
		}
	}
}

// DefaultTimeSlots returns the hourly slots offered when booking, 08:00 to 17:00
func DefaultTimeSlots() []string {
	slots := make([]string, 0, 10)
	for hour := 8; hour <= 17; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour))
	}
	return slots
}
