package errors_test

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/hvacconnect/marketplace/pkg/errors"
)

func TestAppError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := apperrors.NewNotFoundError("booking not found")
		assert.Equal(t, "NOT_FOUND: booking not found", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		err := apperrors.NewInternalError("failed to insert review", sql.ErrConnDone)
		assert.Contains(t, err.Error(), "INTERNAL: failed to insert review")
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("submit review: %w", apperrors.NewConflictError("already reviewed"))

	appErr, ok := apperrors.As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeConflict, appErr.Type)

	_, ok = apperrors.As(sql.ErrNoRows)
	assert.False(t, ok)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, apperrors.IsNotFound(fmt.Errorf("x: %w", apperrors.NewNotFoundError("client"))))
	assert.False(t, apperrors.IsNotFound(apperrors.NewForbiddenError("not a party")))
	assert.False(t, apperrors.IsNotFound(nil))
}
