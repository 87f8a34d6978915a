package handlers

import (
	"context"
	"net/http"

	"github.com/hvacconnect/marketplace/internal/application/services"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

// DashboardService defines the dashboard operations used by the handler
type DashboardService interface {
	ClientDashboard(ctx context.Context, account *entities.Account, tab entities.BookingTab) (*services.ClientDashboard, error)
	TechnicianDashboard(ctx context.Context, account *entities.Account, tab entities.BookingTab) (*services.TechnicianDashboard, error)
}

// DashboardHandler serves the per-role landing pages
type DashboardHandler struct {
	service DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// ClientDashboard handles GET /api/dashboard/client?filter=
func (h *DashboardHandler) ClientDashboard(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	tab, err := entities.ParseBookingTab(r.URL.Query().Get("filter"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	dashboard, err := h.service.ClientDashboard(r.Context(), account, tab)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dashboard)
}

// TechnicianDashboard handles GET /api/dashboard/technician?filter=
func (h *DashboardHandler) TechnicianDashboard(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}
	tab, err := entities.ParseBookingTab(r.URL.Query().Get("filter"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	dashboard, err := h.service.TechnicianDashboard(r.Context(), account, tab)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, dashboard)
}
