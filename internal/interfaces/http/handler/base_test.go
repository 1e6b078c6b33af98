package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sharehub/backend/internal/domain/shared"
	"github.com/sharehub/backend/internal/interfaces/http/dto"
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

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name:       "from middleware value",
			setup:      func(c *gin.Context) { c.Set("request_id", "ctx-request-id") },
			expectedID: "ctx-request-id",
		},
		{
			name:       "from header when context empty",
			setup:      func(c *gin.Context) { c.Request.Header.Set(RequestIDKey, "header-request-id") },
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set("request_id", "ctx-id")
				c.Request.Header.Set(RequestIDKey, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext()
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		storageStatus int
		wantStatus    int
		wantCode      string
		wantMessage   string
	}{
		{
			name:        "validation",
			err:         shared.NewValidationError("fullName is required"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrCodeValidation,
			wantMessage: "fullName is required",
		},
		{
			name:        "not found",
			err:         shared.NewDomainError(shared.CodeNotFound, "Donation not found"),
			wantStatus:  http.StatusNotFound,
			wantCode:    dto.ErrCodeNotFound,
			wantMessage: "Donation not found",
		},
		{
			name:        "wrapped domain error",
			err:         fmt.Errorf("outer: %w", shared.NewValidationError("bad")),
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrCodeValidation,
			wantMessage: "bad",
		},
		{
			name:        "storage error default status",
			err:         shared.NewStorageError("disk full"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrCodeStorage,
			wantMessage: "disk full",
		},
		{
			name:          "storage error overridden status",
			err:           shared.NewStorageError("disk full"),
			storageStatus: http.StatusInternalServerError,
			wantStatus:    http.StatusInternalServerError,
			wantCode:      dto.ErrCodeStorage,
			wantMessage:   "disk full",
		},
		{
			name:          "override does not touch other codes",
			err:           shared.NewValidationError("bad"),
			storageStatus: http.StatusInternalServerError,
			wantStatus:    http.StatusBadRequest,
			wantCode:      dto.ErrCodeValidation,
			wantMessage:   "bad",
		},
		{
			name:        "request too large",
			err:         &http.MaxBytesError{Limit: 10},
			wantStatus:  http.StatusRequestEntityTooLarge,
			wantCode:    dto.ErrCodeRequestTooLarge,
			wantMessage: "Request body exceeds maximum allowed size",
		},
		{
			name:        "unknown error hides details",
			err:         errors.New("pq: password authentication failed"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrCodeInternal,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			c.Set("request_id", "req-1")

			h := &BaseHandler{}
			h.HandleError(c, tt.err, tt.storageStatus)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Equal(t, tt.wantMessage, body.Error)
			assert.Equal(t, "req-1", body.RequestID)
		})
	}
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	c, w := newTestContext()
	(&BaseHandler{}).HandleError(c, nil, 0)
	assert.Equal(t, 0, w.Body.Len())
}
