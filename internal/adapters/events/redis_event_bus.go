package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/providers"
	redisclient "github.com/hvacconnect/marketplace/internal/infrastructure/clients/redis"
)

const subscriberBuffer = 64

// channelFeed is one Redis subscription shared by every local subscriber of a channel
type channelFeed struct {
	pubsub      *redis.PubSub
	subscribers map[chan *entities.BookingEvent]struct{}
}

// RedisEventBus implements the EventBus interface using Redis Pub/Sub
type RedisEventBus struct {
	client *redisclient.Client
	feeds  map[string]*channelFeed
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		feeds:  make(map[string]*channelFeed),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.BookingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Str("type", string(event.Type)).
		Msg("published booking event")
	return nil
}

// Subscribe returns a buffered stream of events on channel. The stream is
// closed when ctx is done or the channel is unsubscribed.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error) {
	b.mu.Lock()
	feed, ok := b.feeds[channel]
	if !ok {
		feed = &channelFeed{
			pubsub:      b.client.Client().Subscribe(b.ctx, channel),
			subscribers: make(map[chan *entities.BookingEvent]struct{}),
		}
		b.feeds[channel] = feed
		go b.pump(channel, feed)
	}

	stream := make(chan *entities.BookingEvent, subscriberBuffer)
	feed.subscribers[stream] = struct{}{}
	count := len(feed.subscribers)
	b.mu.Unlock()

	log.Debug().Str("channel", channel).Int("subscribers", count).Msg("subscribed to channel")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.detach(channel, stream)
	}()

	return stream, nil
}

// pump decodes Redis messages and fans them out without blocking on slow readers
func (b *RedisEventBus) pump(channel string, feed *channelFeed) {
	messages := feed.pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event entities.BookingEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("dropping unreadable event")
				continue
			}

			b.mu.RLock()
			for stream := range feed.subscribers {
				select {
				case stream <- &event:
				default:
					log.Warn().Str("channel", channel).Str("event_id", event.ID).
						Msg("subscriber buffer full, event skipped")
				}
			}
			b.mu.RUnlock()
		}
	}
}

// detach removes one subscriber and drops the Redis subscription with the last one
func (b *RedisEventBus) detach(channel string, stream chan *entities.BookingEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	feed, ok := b.feeds[channel]
	if !ok {
		return
	}
	if _, ok := feed.subscribers[stream]; !ok {
		return
	}

	delete(feed.subscribers, stream)
	close(stream)

	if len(feed.subscribers) == 0 {
		_ = feed.pubsub.Close()
		delete(b.feeds, channel)
		log.Debug().Str("channel", channel).Msg("closed subscription")
	}
}

// drop closes every subscriber of channel and its Redis subscription
func (b *RedisEventBus) drop(channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	feed, ok := b.feeds[channel]
	if !ok {
		return nil
	}
	for stream := range feed.subscribers {
		close(stream)
	}
	delete(b.feeds, channel)

	if err := feed.pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	return nil
}

// Unsubscribe unsubscribes from a channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return b.drop(channel)
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.RLock()
	channels := make([]string, 0, len(b.feeds))
	for channel := range b.feeds {
		channels = append(channels, channel)
	}
	b.mu.RUnlock()

	var errs []error
	for _, channel := range channels {
		if err := b.drop(channel); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
