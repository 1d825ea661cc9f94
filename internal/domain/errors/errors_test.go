package errors

import (
	"net/http"
	"testing"

	"conduit/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseError_WrappedSentinelKeepsIdentity(t *testing.T) {
	err := ErrDuplicateCredential.WrapMessage("user already connected openai")

	assert.True(t, errors.Is(err, ErrDuplicateCredential))
	assert.False(t, errors.Is(err, ErrAppNotFound))

	appErr, ok := errors.AsType[AppError](err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.HTTPCode())
	assert.Equal(t, "DUPLICATE_CREDENTIAL", appErr.ErrorCode())
}

func TestBaseError_WithDetails(t *testing.T) {
	err := ErrValidationFailed.WithDetails("apiKey is required")

	assert.Equal(t, "apiKey is required", err.Details())
	assert.Equal(t, ErrValidationFailed.Message(), err.Message())
	assert.Empty(t, ErrValidationFailed.Details())
}

func TestDatabaseExecuteError(t *testing.T) {
	err := NewDatabaseExecuteError(errors.New("connection reset"), "failed to create credential")

	assert.Equal(t, http.StatusInternalServerError, err.HTTPCode())
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", err.ErrorCode())
	assert.Contains(t, err.Error(), "connection reset")
}
