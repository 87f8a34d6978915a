package entities

import (
	"math"
	"strconv"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is post-completion feedback, one per booking
type Review struct {
	ID           string    `json:"id" db:"id"`
	BookingID    string    `json:"booking_id" db:"booking_id"`
	ClientID     string    `json:"client_id" db:"client_id"`
	TechnicianID string    `json:"technician_id" db:"technician_id"`
	Rating       int       `json:"rating" db:"rating"`
	Comment      string    `json:"comment,omitempty" db:"comment"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ReviewView is a review with the names shown next to it
type ReviewView struct {
	*Review
	ClientName   string `json:"client_name,omitempty"`
	ClientAvatar string `json:"client_avatar,omitempty"`
	ServiceName  string `json:"service_name,omitempty"`
}

// RatingSummary is the aggregate of every rating a technician received
type RatingSummary struct {
	Average float64
	Count   int
}

// SummarizeRatings computes the arithmetic mean and count of ratings
func SummarizeRatings(ratings []int) RatingSummary {
	if len(ratings) == 0 {
		return RatingSummary{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return RatingSummary{
		Average: float64(sum) / float64(len(ratings)),
		Count:   len(ratings),
	}
}

// TechnicianStats are the figures shown on a technician dashboard
type TechnicianStats struct {
	TotalBookings        int     `json:"total_bookings"`
	CompletedBookings    int     `json:"completed_bookings"`
	PendingBookings      int     `json:"pending_bookings"`
	AverageRating        float64 `json:"average_rating"`
	AverageRatingDisplay string  `json:"average_rating_display"`
	ReviewCount          int     `json:"review_count"`
}

// NewTechnicianStats derives dashboard figures from bookings and reviews
func NewTechnicianStats(bookings []*Booking, reviews []*Review) TechnicianStats {
	stats := TechnicianStats{TotalBookings: len(bookings)}
	for _, b := range bookings {
		switch {
		case b.Status.IsFinished():
			stats.CompletedBookings++
		case b.Status == BookingStatusPending:
			stats.PendingBookings++
		}
	}

	ratings := make([]int, 0, len(reviews))
	for _, r := range reviews {
		ratings = append(ratings, r.Rating)
	}
	summary := SummarizeRatings(ratings)
	stats.AverageRating = summary.Average
	stats.ReviewCount = summary.Count
	stats.AverageRatingDisplay = FormatRating(summary.Average)
	return stats
}

// FormatRating renders a rating rounded to one decimal
func FormatRating(rating float64) string {
	return strconv.FormatFloat(math.Round(rating*10)/10, 'f', 1, 64)
}
