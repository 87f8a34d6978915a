package graphql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/hvacconnect/marketplace/internal/application/services"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

// CatalogReader is the catalog and directory surface the resolvers read
type CatalogReader interface {
	ListServices(ctx context.Context) ([]*entities.Service, error)
	ListSpecialties(ctx context.Context) ([]*entities.Specialty, error)
	TimeSlots() []string
	SearchTechnicians(ctx context.Context, query entities.TechnicianSearchQuery) ([]*entities.Technician, error)
	GetTechnician(ctx context.Context, id string) (*services.TechnicianDetail, error)
}

// BookingReader lists the viewer's bookings
type BookingReader interface {
	ListBookings(ctx context.Context, account *entities.Account, role entities.ViewerRole, tab entities.BookingTab) ([]*entities.BookingView, error)
}

// Resolver resolves the root Query fields
type Resolver struct {
	catalog  CatalogReader
	bookings BookingReader
}

// NewResolver creates a new resolver with dependencies
func NewResolver(catalog CatalogReader, bookings BookingReader) *Resolver {
	return &Resolver{catalog: catalog, bookings: bookings}
}

func (r *Resolver) resolveQuery(ctx context.Context, viewer *entities.Account, field string, args map[string]any) (any, error) {
	switch field {
	case "services":
		return r.catalog.ListServices(ctx)
	case "specialties":
		return r.catalog.ListSpecialties(ctx)
	case "timeSlots":
		return r.catalog.TimeSlots(), nil
	case "technicians":
		query, err := technicianQuery(args)
		if err != nil {
			return nil, err
		}
		return r.catalog.SearchTechnicians(ctx, query)
	case "technician":
		id, _ := args["id"].(string)
		if _, err := uuid.Parse(id); err != nil {
			return nil, nil
		}
		detail, err := r.catalog.GetTechnician(ctx, id)
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return detail, err
	case "myBookings":
		if viewer == nil {
			return nil, apperrors.NewUnauthorizedError("authentication required")
		}
		role := entities.ViewerRole(argString(args, "role"))
		tab, err := entities.ParseBookingTab(argString(args, "tab"))
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
		return r.bookings.ListBookings(ctx, viewer, role, tab)
	}
	return nil, fmt.Errorf("no resolver for Query.%s", field)
}

func technicianQuery(args map[string]any) (entities.TechnicianSearchQuery, error) {
	query := entities.TechnicianSearchQuery{
		Query:     argString(args, "query"),
		Specialty: argString(args, "specialty"),
	}
	if v, ok := argFloat(args, "minRating"); ok {
		if v < 0 || v > entities.MaxRating {
			return query, apperrors.NewValidationError("minRating must be between 0 and 5")
		}
		query.MinRating = v
	}
	if v, ok := args["available"].(bool); ok {
		query.AvailableOnly = v
	}
	if v, ok := argFloat(args, "limit"); ok {
		if v <= 0 {
			return query, apperrors.NewValidationError("limit must be positive")
		}
		query.Limit = int(v)
	}
	if v, ok := argFloat(args, "offset"); ok {
		if v < 0 {
			return query, apperrors.NewValidationError("offset cannot be negative")
		}
		query.Offset = int(v)
	}
	return query, nil
}

func argString(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}

// argFloat reads a numeric argument given inline (int64, float64) or as a
// JSON variable (float64, json.Number)
func argFloat(args map[string]any, name string) (float64, bool) {
	switch v := args[name].(type) {
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
