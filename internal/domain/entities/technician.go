package entities

import (
	"strings"
	"time"
)

// Technician is the service-provider profile of an account. Rating and
// ReviewCount are derived from the technician's reviews.
type Technician struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	FullName      string    `json:"full_name" db:"full_name"`
	Bio           string    `json:"bio,omitempty" db:"bio"`
	Location      string    `json:"location,omitempty" db:"location"`
	Experience    string    `json:"experience,omitempty" db:"experience"`
	Rating        float64   `json:"rating" db:"rating"`
	ReviewCount   int       `json:"review_count" db:"review_count"`
	Available     bool      `json:"available" db:"available"`
	NextAvailable string    `json:"next_available,omitempty" db:"next_available"`
	Avatar        string    `json:"avatar,omitempty" db:"avatar"`
	Specialties   []string  `json:"specialties" db:"-"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// HasSpecialty reports whether the technician carries the named specialty
func (t *Technician) HasSpecialty(name string) bool {
	for _, s := range t.Specialties {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// Matches reports whether the lowercase query occurs in the technician's
// name, location or any specialty
func (t *Technician) Matches(query string) bool {
	if query == "" {
		return true
	}
	query = strings.ToLower(query)
	if strings.Contains(strings.ToLower(t.FullName), query) ||
		strings.Contains(strings.ToLower(t.Location), query) {
		return true
	}
	for _, s := range t.Specialties {
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

// Specialty is a tag describing a technician's service categories
type Specialty struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TechnicianSpecialty joins a technician to a specialty
type TechnicianSpecialty struct {
	ID           string `json:"id" db:"id"`
	TechnicianID string `json:"technician_id" db:"technician_id"`
	SpecialtyID  string `json:"specialty_id" db:"specialty_id"`
}

// TechnicianSearchQuery filters the technician directory
type TechnicianSearchQuery struct {
	Query         string
	MinRating     float64
	Specialty     string
	AvailableOnly bool
	Limit         int
	Offset        int
}

// Accepts reports whether the technician satisfies every filter of q
func (q TechnicianSearchQuery) Accepts(t *Technician) bool {
	if !t.Matches(q.Query) {
		return false
	}
	if q.MinRating > 0 && t.Rating < q.MinRating {
		return false
	}
	if q.Specialty != "" && !t.HasSpecialty(q.Specialty) {
		return false
	}
	if q.AvailableOnly && !t.Available {
		return false
	}
	return true
}
