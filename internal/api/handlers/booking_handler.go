package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hvacconnect/marketplace/internal/api/middleware"
	"github.com/hvacconnect/marketplace/internal/application/services"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
)

// BookingService defines the booking operations used by the handler
type BookingService interface {
	Create(ctx context.Context, account *entities.Account, input services.CreateBookingInput) (*entities.Booking, error)
	GetBooking(ctx context.Context, account *entities.Account, id string) (*entities.BookingView, error)
	TransitionStatus(ctx context.Context, account *entities.Account, id string, status entities.BookingStatus) (*entities.Booking, error)
	ListBookings(ctx context.Context, account *entities.Account, role entities.ViewerRole, tab entities.BookingTab) ([]*entities.BookingView, error)
}

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	service      BookingService
	cache        providers.CacheProvider
	dedupeWindow time.Duration
	deduper      *localDeduper
}

// NewBookingHandler creates a new booking handler. Without a cache, duplicate
// submissions are detected per process.
func NewBookingHandler(service BookingService, cache providers.CacheProvider, dedupeWindow time.Duration) *BookingHandler {
	return &BookingHandler{
		service:      service,
		cache:        cache,
		dedupeWindow: dedupeWindow,
		deduper:      newLocalDeduper(),
	}
}

type createBookingRequest struct {
	TechnicianID string `json:"technician_id" validate:"required,uuid"`
	ServiceID    string `json:"service_id" validate:"required,uuid"`
	BookingDate  string `json:"booking_date" validate:"required,date"`
	BookingTime  string `json:"booking_time" validate:"required,timeslot"`
	Notes        string `json:"notes" validate:"max=1000"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,booking_status"`
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}

	var payload createBookingRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		respondWithDetails(w, http.StatusBadRequest, "validation failed", validationDetails(err))
		return
	}

	key := "booking:dedupe:" + bookingFingerprint(account.ID, payload)
	if !h.claim(r.Context(), key) {
		respondWithError(w, http.StatusConflict, "an identical booking request is already being processed")
		return
	}

	booking, err := h.service.Create(r.Context(), account, services.CreateBookingInput{
		TechnicianID: payload.TechnicianID,
		ServiceID:    payload.ServiceID,
		Date:         payload.BookingDate,
		TimeSlot:     payload.BookingTime,
		Notes:        payload.Notes,
	})
	if err != nil {
		// A failed attempt may be retried straight away.
		h.release(r.Context(), key)
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, booking)
}

// ListBookings handles GET /api/bookings?role=client|technician&filter=all|upcoming|past
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}

	role, ok := parseRole(w, r.URL.Query().Get("role"))
	if !ok {
		return
	}
	tab, err := entities.ParseBookingTab(r.URL.Query().Get("filter"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	bookings, err := h.service.ListBookings(r.Context(), account, role, tab)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}

	bookingID, ok := pathID(w, r, "booking", http.StatusNotFound)
	if !ok {
		return
	}

	booking, err := h.service.GetBooking(r.Context(), account, bookingID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// UpdateStatus handles PATCH /api/bookings/{id}/status
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}

	bookingID, ok := pathID(w, r, "booking", http.StatusBadRequest)
	if !ok {
		return
	}

	var payload updateStatusRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		respondWithDetails(w, http.StatusBadRequest, "validation failed", validationDetails(err))
		return
	}

	booking, err := h.service.TransitionStatus(r.Context(), account, bookingID, entities.BookingStatus(payload.Status))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// claim reserves key for the dedupe window and reports whether it was free
func (h *BookingHandler) claim(ctx context.Context, key string) bool {
	if h.dedupeWindow <= 0 {
		return true
	}
	if h.cache == nil {
		return !h.deduper.seen(key, h.dedupeWindow)
	}

	claimed, err := h.cache.SetNX(ctx, key, []byte("1"), int(h.dedupeWindow.Seconds()))
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("duplicate submission gate unavailable")
		return true
	}
	return claimed
}

func (h *BookingHandler) release(ctx context.Context, key string) {
	if h.dedupeWindow <= 0 {
		return
	}
	if h.cache == nil {
		h.deduper.forget(key)
		return
	}
	if err := h.cache.Delete(ctx, key); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("failed to release duplicate submission gate")
	}
}

func bookingFingerprint(accountID string, payload createBookingRequest) string {
	normalized := []string{
		accountID,
		payload.TechnicianID,
		payload.ServiceID,
		payload.BookingDate,
		payload.BookingTime,
		strings.Join(strings.Fields(strings.ToLower(payload.Notes)), " "),
	}
	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}

func requireAccount(w http.ResponseWriter, r *http.Request) (*entities.Account, bool) {
	account := middleware.AccountFromContext(r.Context())
	if account == nil {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return account, true
}

func parseRole(w http.ResponseWriter, value string) (entities.ViewerRole, bool) {
	switch value {
	case "", string(entities.ViewerRoleClient):
		return entities.ViewerRoleClient, true
	case string(entities.ViewerRoleTechnician):
		return entities.ViewerRoleTechnician, true
	}
	respondWithError(w, http.StatusBadRequest, "role must be client or technician")
	return "", false
}

type localDeduper struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	nextSweep time.Time
}

func newLocalDeduper() *localDeduper {
	return &localDeduper{
		entries: make(map[string]time.Time),
	}
}

func (d *localDeduper) seen(key string, window time.Duration) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	// Expired claims are swept at most once per window
	if !now.Before(d.nextSweep) {
		for k, expiresAt := range d.entries {
			if !now.Before(expiresAt) {
				delete(d.entries, k)
			}
		}
		d.nextSweep = now.Add(window)
	}

	if expiresAt, ok := d.entries[key]; ok && now.Before(expiresAt) {
		return true
	}

	d.entries[key] = now.Add(window)
	return false
}

func (d *localDeduper) forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, key)
}
