package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrInvalidInput, ErrUnauthorized,
		ErrServiceUnavail,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j])
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	wrapped := &AppError{Code: "INTERNAL_ERROR", Message: "boom", Err: fmt.Errorf("redis down")}
	assert.Equal(t, "INTERNAL_ERROR: boom: redis down", wrapped.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "dialog not found"}
	assert.Equal(t, "NOT_FOUND: dialog not found", bare.Error())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("product", "p-1"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"invalid input", InvalidInput("bad lang"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"unauthorized", Unauthorized("no token"), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
		{"unavailable", Unavailable("redis", errors.New("dial tcp")), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.ErrorIs(t, tt.err, tt.sentinel)
		})
	}
}

func TestNotFound_Message(t *testing.T) {
	err := NotFound("dialog", "d-42")
	assert.Equal(t, "dialog with id d-42 not found", err.Message)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", InvalidInput("x"), http.StatusBadRequest},
		{"wrapped app error", fmt.Errorf("list: %w", NotFound("product", "1")), http.StatusNotFound},
		{"bare sentinel", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"unavailable sentinel", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", errors.New("whatever"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
