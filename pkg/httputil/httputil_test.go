package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/catalogadmin/pkg/errors"
	"github.com/utafrali/catalogadmin/pkg/logger"
	"github.com/utafrali/catalogadmin/pkg/pagination"
	"github.com/utafrali/catalogadmin/pkg/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusOK, map[string]string{"mode": "grid"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := decode(t, rec)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"mode": "grid"}, resp.Data)
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/x", nil)
	req = req.WithContext(logger.WithCorrelationID(req.Context(), "corr-1"))

	WriteError(rec, req, fmt.Errorf("get: %w", apperrors.NotFound("product", "x")), testLogger())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "product with id x not found", resp.Error.Message)
	assert.Equal(t, "corr-1", resp.Error.RequestID)
}

func TestWriteError_Sentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"invalid input", fmt.Errorf("list: %w", apperrors.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT"},
		{"unavailable", fmt.Errorf("x: %w", apperrors.ErrServiceUnavail), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			WriteError(rec, req, tt.err, testLogger())

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode(t, rec).Error.Code)
		})
	}
}

func TestWriteValidationError(t *testing.T) {
	type body struct {
		Mode string `json:"mode" validate:"required,oneof=grid list"`
	}
	err := validator.Validate(body{Mode: "table"})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "must be one of: grid list", resp.Error.Fields["Mode"])
}

func TestNewPaginatedResponse(t *testing.T) {
	resp := NewPaginatedResponse([]int{1, 2}, 45, pagination.Params{PageIndex: 1, PageSize: 20})
	assert.Equal(t, 3, resp.TotalPages)
	assert.True(t, resp.HasNext)

	last := NewPaginatedResponse([]int{1}, 41, pagination.Params{PageIndex: 2, PageSize: 20})
	assert.False(t, last.HasNext)

	empty := NewPaginatedResponse[int](nil, 0, pagination.Params{PageSize: 20})
	assert.NotNil(t, empty.Data)
	assert.Zero(t, empty.TotalPages)
	assert.False(t, empty.HasNext)
}

func TestParseUUID(t *testing.T) {
	rec := httptest.NewRecorder()
	_, ok := ParseUUID(rec, "not-a-uuid")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	id, ok := ParseUUID(rec, "6f1c1f5e-7a43-4c0e-9f8e-2f5e3d1b9a10")
	assert.True(t, ok)
	assert.Equal(t, "6f1c1f5e-7a43-4c0e-9f8e-2f5e3d1b9a10", id.String())
}
