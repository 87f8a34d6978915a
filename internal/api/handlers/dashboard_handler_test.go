package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hvacconnect/marketplace/internal/api/handlers"
	"github.com/hvacconnect/marketplace/internal/application/services"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

func TestDashboardHandler_ClientDashboard(t *testing.T) {
	service := new(MockDashboardService)
	handler := handlers.NewDashboardHandler(service)

	service.On("ClientDashboard", mock.Anything, testAccount, entities.BookingTabUpcoming).Return(&services.ClientDashboard{
		Client:   &entities.Client{ID: "c1"},
		Bookings: []*entities.BookingView{},
	}, nil)

	w := httptest.NewRecorder()
	handler.ClientDashboard(w, authenticated(httptest.NewRequest("GET", "/api/dashboard/client?filter=upcoming", nil), testAccount))

	assert.Equal(t, http.StatusOK, w.Code)
	service.AssertExpectations(t)
}

func TestDashboardHandler_TechnicianDashboard(t *testing.T) {
	service := new(MockDashboardService)
	handler := handlers.NewDashboardHandler(service)

	service.On("TechnicianDashboard", mock.Anything, testAccount, entities.BookingTabAll).Return(&services.TechnicianDashboard{
		Technician: &entities.Technician{ID: "t1"},
		Bookings:   []*entities.BookingView{},
		Reviews:    []*entities.ReviewView{},
		Stats: entities.NewTechnicianStats(nil, []*entities.Review{
			{Rating: 5}, {Rating: 4}, {Rating: 5},
		}),
	}, nil)

	w := httptest.NewRecorder()
	handler.TechnicianDashboard(w, authenticated(httptest.NewRequest("GET", "/api/dashboard/technician", nil), testAccount))

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Stats entities.TechnicianStats `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "4.7", response.Stats.AverageRatingDisplay)
	assert.InDelta(t, 4.6667, response.Stats.AverageRating, 0.001)
	assert.Equal(t, 3, response.Stats.ReviewCount)
}

func TestDashboardHandler_BadFilter(t *testing.T) {
	service := new(MockDashboardService)
	handler := handlers.NewDashboardHandler(service)

	w := httptest.NewRecorder()
	handler.TechnicianDashboard(w, authenticated(httptest.NewRequest("GET", "/api/dashboard/technician?filter=soon", nil), testAccount))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "TechnicianDashboard", mock.Anything, mock.Anything, mock.Anything)
}
