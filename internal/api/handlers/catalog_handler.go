package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/hvacconnect/marketplace/internal/application/services"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

// CatalogService defines the catalog and directory operations used by the handler
type CatalogService interface {
	ListServices(ctx context.Context) ([]*entities.Service, error)
	ListSpecialties(ctx context.Context) ([]*entities.Specialty, error)
	TimeSlots() []string
	SearchTechnicians(ctx context.Context, query entities.TechnicianSearchQuery) ([]*entities.Technician, error)
	GetTechnician(ctx context.Context, id string) (*services.TechnicianDetail, error)
}

// CatalogHandler handles the public catalog and technician directory
type CatalogHandler struct {
	service CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(service CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListServices handles GET /api/services
func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	svcs, err := h.service.ListServices(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"services": svcs,
		"count":    len(svcs),
	})
}

// ListSpecialties handles GET /api/specialties
func (h *CatalogHandler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.service.ListSpecialties(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"specialties": specialties,
		"count":       len(specialties),
	})
}

// ListTimeSlots handles GET /api/time-slots
func (h *CatalogHandler) ListTimeSlots(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"time_slots": h.service.TimeSlots(),
	})
}

// SearchTechnicians handles GET /api/technicians?q=&min_rating=&specialty=&available=&limit=&offset=
func (h *CatalogHandler) SearchTechnicians(w http.ResponseWriter, r *http.Request) {
	query, err := parseTechnicianQuery(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	technicians, err := h.service.SearchTechnicians(r.Context(), query)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"technicians": technicians,
		"count":       len(technicians),
	})
}

// GetTechnician handles GET /api/technicians/{id}
func (h *CatalogHandler) GetTechnician(w http.ResponseWriter, r *http.Request) {
	technicianID, ok := pathID(w, r, "technician", http.StatusNotFound)
	if !ok {
		return
	}

	detail, err := h.service.GetTechnician(r.Context(), technicianID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

func parseTechnicianQuery(r *http.Request) (entities.TechnicianSearchQuery, error) {
	values := r.URL.Query()
	query := entities.TechnicianSearchQuery{
		Query:     strings.TrimSpace(values.Get("q")),
		Specialty: strings.TrimSpace(values.Get("specialty")),
	}

	if raw := values.Get("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil || rating < 0 || rating > entities.MaxRating {
			return query, errors.New("invalid min_rating parameter")
		}
		query.MinRating = rating
	}

	if raw := values.Get("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return query, errors.New("invalid available parameter")
		}
		query.AvailableOnly = available
	}

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return query, errors.New("invalid limit parameter")
		}
		query.Limit = limit
	}

	if raw := values.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return query, errors.New("invalid offset parameter")
		}
		query.Offset = offset
	}

	return query, nil
}
