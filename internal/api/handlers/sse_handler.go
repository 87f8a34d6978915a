package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
	"github.com/hvacconnect/marketplace/internal/infrastructure/observability"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

const heartbeatInterval = 30 * time.Second

// StreamProfiles resolves the booking parties an account acts as
type StreamProfiles interface {
	FindClient(ctx context.Context, account *entities.Account) (*entities.Client, error)
	FindTechnician(ctx context.Context, account *entities.Account) (*entities.Technician, error)
}

// SSEHandler streams booking events to the parties of each booking
type SSEHandler struct {
	eventBus  providers.EventBus
	profiles  StreamProfiles
	heartbeat time.Duration
	clients   map[string]map[chan *entities.BookingEvent]bool // channel -> clients
	mu        sync.RWMutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(eventBus providers.EventBus, profiles StreamProfiles) *SSEHandler {
	return &SSEHandler{
		eventBus:  eventBus,
		profiles:  profiles,
		heartbeat: heartbeatInterval,
		clients:   make(map[string]map[chan *entities.BookingEvent]bool),
		done:      make(chan struct{}),
	}
}

// Close ends every open stream so server shutdown is not held up by them
func (h *SSEHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// StreamBookings handles GET /api/stream/bookings. Events for the caller's
// client and technician channels are merged into one stream.
func (h *SSEHandler) StreamBookings(w http.ResponseWriter, r *http.Request) {
	account, ok := requireAccount(w, r)
	if !ok {
		return
	}

	channels, err := h.channelsFor(r.Context(), account)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if len(channels) == 0 {
		respondWithError(w, http.StatusNotFound, "account has no client or technician profile")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	logger := observability.LoggerFromContext(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan *entities.BookingEvent, 16)
	for _, channel := range channels {
		h.registerClient(channel, clientChan)
		defer h.unregisterClient(channel, clientChan)

		eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
		if err != nil {
			logger.Error().Err(err).Str("channel", channel).Msg("failed to subscribe to channel")
			return
		}
		go h.forwardEvents(r.Context(), eventChan, clientChan)
	}

	h.sendEvent(w, "connected", map[string]interface{}{
		"channels":  channels,
		"timestamp": time.Now(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug().Str("account_id", account.ID).Msg("booking stream closed")
			return
		case <-h.done:
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.Type), event)
			flusher.Flush()
		}
	}
}

func (h *SSEHandler) channelsFor(ctx context.Context, account *entities.Account) ([]string, error) {
	var channels []string

	client, err := h.profiles.FindClient(ctx, account)
	switch {
	case err == nil:
		channels = append(channels, providers.GetClientChannel(client.ID))
	case !apperrors.IsNotFound(err):
		return nil, err
	}

	technician, err := h.profiles.FindTechnician(ctx, account)
	switch {
	case err == nil:
		channels = append(channels, providers.GetTechnicianChannel(technician.ID))
	case !apperrors.IsNotFound(err):
		return nil, err
	}
	return channels, nil
}

// forwardEvents forwards events from the event bus to a client channel
func (h *SSEHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.BookingEvent, clientChan chan<- *entities.BookingEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			select {
			case clientChan <- event:
			default:
				// Client channel full, skip event
			}
		}
	}
}

func (h *SSEHandler) registerClient(channel string, clientChan chan *entities.BookingEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.BookingEvent]bool)
	}
	h.clients[channel][clientChan] = true
}

func (h *SSEHandler) unregisterClient(channel string, clientChan chan *entities.BookingEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of open streams per channel, summed
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
