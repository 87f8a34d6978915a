package handlers

import (
	"context"
	"net/http"

	"github.com/hvacconnect/marketplace/internal/application/services"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

// ProfileService defines the profile operations used by the handler
type ProfileService interface {
	GetProfile(ctx context.Context, account *entities.Account) (*services.Profile, error)
	UpdateProfile(ctx context.Context, account *entities.Account, update services.ProfileUpdate) (*services.Profile, error)
	EnsureTechnician(ctx context.Context, account *entities.Account) (*entities.Technician, error)
	SetSpecialties(ctx context.Context, account *entities.Account, specialtyIDs []string) (*entities.Technician, error)
}

// ProfileHandler handles the caller's own profile
type ProfileHandler struct {
	service ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

type updateProfileRequest struct {
	FullName      *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Phone         *string `json:"phone" validate:"omitempty,max=40"`
	Address       *string `json:"address" validate:"omitempty,max=300"`
	Bio           *string `json:"bio" validate:"omitempty,max=2000"`
	Location      *string `json:"location" validate:"omitempty,max=200"`
	Experience    *string `json:"experience" validate:"omitempty,max=200"`
	Available     *bool   `json:"available"`
	NextAvailable *string `json:"next_available" validate:"omitempty,max=100"`
}

type setSpecialtiesRequest struct {
	SpecialtyIDs []string `json:"specialty_ids" validate:"max=50,dive,required,uuid"`
}

// GetProfile handles GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), account)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var payload updateProfileRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		respondWithDetails(w, http.StatusBadRequest, "validation failed", validationDetails(err))
		return
	}

	profile, err := h.service.UpdateProfile(r.Context(), account, services.ProfileUpdate{
		FullName:      payload.FullName,
		Phone:         payload.Phone,
		Address:       payload.Address,
		Bio:           payload.Bio,
		Location:      payload.Location,
		Experience:    payload.Experience,
		Available:     payload.Available,
		NextAvailable: payload.NextAvailable,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// RegisterTechnician handles POST /api/profile/technician
func (h *ProfileHandler) RegisterTechnician(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}

	technician, err := h.service.EnsureTechnician(r.Context(), account)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, technician)
}

// SetSpecialties handles PUT /api/profile/specialties
func (h *ProfileHandler) SetSpecialties(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var payload setSpecialtiesRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		respondWithDetails(w, http.StatusBadRequest, "validation failed", validationDetails(err))
		return
	}

	technician, err := h.service.SetSpecialties(r.Context(), account, payload.SpecialtyIDs)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, technician)
}
