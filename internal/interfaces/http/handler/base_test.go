package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/sellout/backend/internal/domain/shared"
	"github.com/sellout/backend/internal/interfaces/http/dto"
	"github.com/sellout/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*gin.Context)
		expected string
	}{
		{
			name: "from middleware",
			setup: func(c *gin.Context) {
				c.Set("request_id", "ctx-request-id")
			},
			expected: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(middleware.RequestIDHeader, "header-request-id")
			},
			expected: "header-request-id",
		},
		{
			name:     "empty when not set",
			setup:    func(*gin.Context) {},
			expected: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set("request_id", "ctx-id")
				c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
			},
			expected: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext()
			tt.setup(c)
			assert.Equal(t, tt.expected, getRequestID(c))
		})
	}
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.Success(c, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, w.Body.String())
}

func TestBaseHandler_Created(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.Created(c, map[string]int{"rows": 3})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"rows":3}}`, w.Body.String())
}

func TestBaseHandler_ErrorWithCode(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()
	c.Set("request_id", "req-1")

	h.ErrorWithCode(c, dto.ErrCodeUnknownReport, "no such report")

	assert.Equal(t, http.StatusNotFound, w.Code)
	info := decodeError(t, w)
	assert.Equal(t, dto.ErrCodeUnknownReport, info.Code)
	assert.Equal(t, "no such report", info.Message)
	assert.Equal(t, "req-1", info.RequestID)
}

func TestBaseHandler_NotFoundAndInternal(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext()
	h.NotFound(c, "missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeError(t, w).Code)

	c, w = newTestContext()
	h.InternalError(c, "boom")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInternal, decodeError(t, w).Code)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "invalid range",
			err:         sellout.ErrInvalidRange,
			wantStatus:  http.StatusBadRequest,
			wantCode:    "INVALID_RANGE",
			wantMessage: sellout.ErrInvalidRange.Message,
		},
		{
			name:        "malformed date with specific message",
			err:         sellout.ErrMalformedDate.WithMessage(`invalid date "2024-13-01"`),
			wantStatus:  http.StatusBadRequest,
			wantCode:    "MALFORMED_DATE",
			wantMessage: `invalid date "2024-13-01"`,
		},
		{
			name:        "unknown report",
			err:         sellout.ErrUnknownReport,
			wantStatus:  http.StatusNotFound,
			wantCode:    "UNKNOWN_REPORT",
			wantMessage: sellout.ErrUnknownReport.Message,
		},
		{
			name:        "wrapped reference failure",
			err:         fmt.Errorf("load references: %w", sellout.ErrReferenceUnavailable),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    "REFERENCE_UNAVAILABLE",
			wantMessage: sellout.ErrReferenceUnavailable.Message,
		},
		{
			name:        "legacy invalid state",
			err:         shared.ErrInvalidState.WithMessage("report export is not configured"),
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    dto.ErrCodeInvalidState,
			wantMessage: "report export is not configured",
		},
		{
			name:        "opaque error",
			err:         errors.New("pq: connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrCodeInternal,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext()

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			info := decodeError(t, w)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.Equal(t, tt.wantMessage, info.Message)
			assert.Len(t, c.Errors, 1)
		})
	}
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.String())
	assert.Empty(t, c.Errors)
}
