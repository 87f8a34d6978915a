package database_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvacconnect/marketplace/internal/adapters/database"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/domain/repositories"
	"github.com/hvacconnect/marketplace/internal/infrastructure/clients/postgres"
	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

func newMockClient(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewFromDB(db), mock
}

var bookingRowColumns = []string{
	"id", "client_id", "technician_id", "service_id", "booking_date", "booking_time",
	"status", "notes", "created_at", "updated_at",
}

func TestBookingAdapter_Create(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := database.NewBookingAdapter(client)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "bookings"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Create(context.Background(), &entities.Booking{
		ID:           "b1",
		ClientID:     "c1",
		TechnicianID: "t1",
		ServiceID:    "s1",
		BookingDate:  "2024-06-01",
		BookingTime:  "09:00",
		Status:       entities.BookingStatusPending,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingAdapter_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		client, mock := newMockClient(t)
		adapter := database.NewBookingAdapter(client)
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta(`FROM "bookings" WHERE ("id" = 'b1')`)).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns).
				AddRow("b1", "c1", "t1", "s1", "2024-06-01", "09:00", "confirmed", nil, now, now))

		booking, err := adapter.GetByID(context.Background(), "b1")

		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusConfirmed, booking.Status)
		assert.Equal(t, "2024-06-01", booking.BookingDate)
		assert.Empty(t, booking.Notes)
	})

	t.Run("not found", func(t *testing.T) {
		client, mock := newMockClient(t)
		adapter := database.NewBookingAdapter(client)

		mock.ExpectQuery(`FROM "bookings"`).WillReturnRows(sqlmock.NewRows(bookingRowColumns))

		booking, err := adapter.GetByID(context.Background(), "missing")

		assert.Nil(t, booking)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestBookingAdapter_UpdateStatus(t *testing.T) {
	t.Run("accepts any known status", func(t *testing.T) {
		client, mock := newMockClient(t)
		adapter := database.NewBookingAdapter(client)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "bookings" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, adapter.UpdateStatus(context.Background(), "b1", entities.BookingStatusCancelled))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing booking", func(t *testing.T) {
		client, mock := newMockClient(t)
		adapter := database.NewBookingAdapter(client)

		mock.ExpectExec(`UPDATE "bookings"`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := adapter.UpdateStatus(context.Background(), "missing", entities.BookingStatusConfirmed)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestBookingAdapter_ListOrdering(t *testing.T) {
	t.Run("client sees newest first", func(t *testing.T) {
		client, mock := newMockClient(t)
		adapter := database.NewBookingAdapter(client)

		mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY "booking_date" DESC, "booking_time" DESC`)).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns))

		_, err := adapter.ListByClient(context.Background(), "c1", repositories.BookingFilter{})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("technician sees oldest first", func(t *testing.T) {
		client, mock := newMockClient(t)
		adapter := database.NewBookingAdapter(client)
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY "booking_date" ASC, "booking_time" ASC`)).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns).
				AddRow("b1", "c1", "t1", "s1", "2024-06-01", "09:00", "pending", "gate code 4411", now, now).
				AddRow("b2", "c2", "t1", "s1", "2024-06-02", "10:00", "confirmed", nil, now, now))

		bookings, err := adapter.ListByTechnician(context.Background(), "t1", repositories.BookingFilter{Limit: 10})
		require.NoError(t, err)
		require.Len(t, bookings, 2)
		assert.Equal(t, "gate code 4411", bookings[0].Notes)
		assert.Equal(t, "b2", bookings[1].ID)
	})
}

func TestBookingAdapter_ExistsForSlot(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := database.NewBookingAdapter(client)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "bookings"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := adapter.ExistsForSlot(context.Background(), "t1", "2024-06-01", "09:00")
	require.NoError(t, err)
	assert.True(t, exists)
}
