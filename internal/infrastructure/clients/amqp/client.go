package amqp

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/hvacconnect/marketplace/pkg/config"
	"github.com/hvacconnect/marketplace/pkg/retry"
)

// Client holds a broker connection and a channel bound to a topic exchange
type Client struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewClient dials the broker and declares the durable topic exchange
func NewClient(cfg *config.AMQPConfig) (*Client, error) {
	var conn *amqp.Connection
	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = 5
	err := retry.DoWithLog(
		context.Background(),
		retryConfig,
		"AMQP",
		func() error {
			var err error
			conn, err = amqp.Dial(cfg.URL)
			var amqpErr *amqp.Error
			if errors.As(err, &amqpErr) && amqpErr.Code == amqp.AccessRefused {
				return retry.Permanent(err)
			}
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).
				Msg("AMQP connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info().Str("exchange", cfg.Exchange).Msg("Connected to AMQP broker")
	return &Client{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

// Channel returns the open channel
func (c *Client) Channel() *amqp.Channel {
	return c.ch
}

// Exchange returns the declared exchange name
func (c *Client) Exchange() string {
	return c.exchange
}

// Close closes the channel and the connection
func (c *Client) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
