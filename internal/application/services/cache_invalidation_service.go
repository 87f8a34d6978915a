package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
)

// CacheInvalidationService drops cached technician data when booking events
// change it
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for booking events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelBookingUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to booking updates: %w", err)
	}

	s.started = true
	go s.processEvents(eventChan)
	log.Info().Msg("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service and waits for it to drain
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started {
		<-s.done
	}
	log.Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.BookingEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event != nil {
				s.HandleEvent(event)
			}
		}
	}
}

// HandleEvent invalidates whatever the event made stale. Only reviews move a
// technician's public figures; status changes are private to the parties.
func (s *CacheInvalidationService) HandleEvent(event *entities.BookingEvent) {
	if event.Type != entities.BookingEventReviewed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.InvalidateTechnician(ctx, event.TechnicianID); err != nil {
		log.Warn().Err(err).Str("technician_id", event.TechnicianID).Msg("failed to invalidate technician cache")
		return
	}
	log.Debug().Str("technician_id", event.TechnicianID).Str("event_id", event.ID).
		Msg("invalidated technician cache")
}

// InvalidateTechnician drops the technician record and every cached directory response
func (s *CacheInvalidationService) InvalidateTechnician(ctx context.Context, technicianID string) error {
	if err := s.cache.Delete(ctx, providers.TechnicianCacheKey(technicianID)); err != nil {
		return err
	}
	return s.cache.DeletePattern(ctx, providers.HTTPCachePattern("/api/technicians"))
}
