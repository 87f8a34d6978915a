package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hvacconnect/marketplace/internal/adapters/events"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
)

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.BookingEvent) error {
	return m.Called(ctx, channel, event).Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.BookingEvent, error) {
	args := m.Called(ctx, channel)
	return args.Get(0).(<-chan *entities.BookingEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *MockEventBus) Close() error {
	return m.Called().Error(0)
}

type recordingChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
}

func (c *recordingChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

func sampleEvent() *entities.BookingEvent {
	return entities.NewBookingEvent(entities.BookingEventCreated, &entities.Booking{
		ID:           "b1",
		ClientID:     "c1",
		TechnicianID: "t1",
		Status:       entities.BookingStatusPending,
	}, "")
}

func TestAMQPPublisher_PublishBookingEvent(t *testing.T) {
	ch := &recordingChannel{}
	publisher := events.NewAMQPPublisher(ch, "bookings")
	event := sampleEvent()

	require.NoError(t, publisher.PublishBookingEvent(context.Background(), event))

	assert.Equal(t, "bookings", ch.exchange)
	assert.Equal(t, "booking.created", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, event.ID, ch.msg.MessageId)

	var decoded entities.BookingEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, "b1", decoded.BookingID)
	assert.Equal(t, entities.BookingStatusPending, decoded.Status)
}

func TestAMQPPublisher_WrapsBrokerError(t *testing.T) {
	brokerErr := errors.New("channel closed")
	publisher := events.NewAMQPPublisher(&recordingChannel{err: brokerErr}, "bookings")

	err := publisher.PublishBookingEvent(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, brokerErr)
}

func TestDispatcher_PublishBookingEvent(t *testing.T) {
	ctx := context.Background()
	event := sampleEvent()

	t.Run("fans out to the shared, client and technician channels", func(t *testing.T) {
		bus := new(MockEventBus)
		ch := &recordingChannel{}
		dispatcher := events.NewDispatcher(bus, events.NewAMQPPublisher(ch, "bookings"))

		bus.On("Publish", ctx, "bookings:updates", event).Return(nil)
		bus.On("Publish", ctx, "bookings:client:c1", event).Return(nil)
		bus.On("Publish", ctx, "bookings:technician:t1", event).Return(nil)

		require.NoError(t, dispatcher.PublishBookingEvent(ctx, event))
		bus.AssertExpectations(t)
		assert.Equal(t, "booking.created", ch.key)
	})

	t.Run("keeps delivering after a failure and reports it", func(t *testing.T) {
		bus := new(MockEventBus)
		ch := &recordingChannel{}
		dispatcher := events.NewDispatcher(bus, events.NewAMQPPublisher(ch, "bookings"))

		bus.On("Publish", ctx, "bookings:updates", event).Return(errors.New("redis down"))
		bus.On("Publish", ctx, mock.Anything, event).Return(nil)

		err := dispatcher.PublishBookingEvent(ctx, event)
		assert.ErrorContains(t, err, "redis down")
		assert.Equal(t, "booking.created", ch.key)
	})

	t.Run("works without a bus", func(t *testing.T) {
		dispatcher := events.NewDispatcher(nil)
		assert.NoError(t, dispatcher.PublishBookingEvent(ctx, event))
	})
}

func TestNewBookingEvent(t *testing.T) {
	before := time.Now().UTC()
	event := entities.NewBookingEvent(entities.BookingEventStatusChanged, &entities.Booking{
		ID: "b1", ClientID: "c1", TechnicianID: "t1", Status: entities.BookingStatusConfirmed,
	}, entities.BookingStatusPending)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, entities.BookingStatusConfirmed, event.Status)
	assert.Equal(t, entities.BookingStatusPending, event.PreviousStatus)
	assert.False(t, event.Timestamp.Before(before))
}
