package handlers

import (
	"context"
	"net/http"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

// ReviewService defines the review operations used by the handler
type ReviewService interface {
	ReviewBooking(ctx context.Context, account *entities.Account, bookingID string, rating int, comment string) (*entities.Review, error)
}

// ReviewHandler handles review submissions
type ReviewHandler struct {
	service ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

type submitReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// SubmitReview handles POST /api/bookings/{id}/review
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}

	bookingID, ok := pathID(w, r, "booking", http.StatusBadRequest)
	if !ok {
		return
	}

	var payload submitReviewRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := validate.Struct(payload); err != nil {
		respondWithDetails(w, http.StatusBadRequest, "validation failed", validationDetails(err))
		return
	}

	review, err := h.service.ReviewBooking(r.Context(), account, bookingID, payload.Rating, payload.Comment)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, review)
}
