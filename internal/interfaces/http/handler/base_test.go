package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	importapp "github.com/storefront/backend/internal/application/import"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Set(middleware.RequestIDKey, "req-test")
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_SuccessAndCreated(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext()
	h.Success(c, map[string]string{"key": "value"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResponse(t, w).Success)

	c, w = newTestContext()
	h.Created(c, map[string]string{"id": "123"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails int
	}{
		{
			name:        "invalid url",
			err:         fmt.Errorf("gate: %w", &importapp.ImportError{Code: importapp.CodeInvalidURL, Message: "only https URLs can be imported"}),
			wantStatus:  http.StatusBadRequest,
			wantCode:    importapp.CodeInvalidURL,
			wantMessage: "only https URLs can be imported",
		},
		{
			name: "validation failure carries details",
			err: &importapp.ImportError{
				Code:    importapp.CodeValidationFailed,
				Message: "listing has 2 invalid field(s)",
				Details: []importapp.FieldError{
					{Path: "images[1]", Message: "must be an absolute http(s) URL"},
					{Path: "stockQuantity", Message: "must be at least 0"},
				},
			},
			wantStatus:  http.StatusBadRequest,
			wantCode:    importapp.CodeValidationFailed,
			wantMessage: "listing has 2 invalid field(s)",
			wantDetails: 2,
		},
		{
			name:       "marketplace auth",
			err:        &importapp.ImportError{Code: importapp.CodeMarketplaceAuthRequired, Message: "re-authorize"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   importapp.CodeMarketplaceAuthRequired,
		},
		{
			name:       "listing not found",
			err:        &importapp.ImportError{Code: importapp.CodeListingNotFound, Message: "gone"},
			wantStatus: http.StatusNotFound,
			wantCode:   importapp.CodeListingNotFound,
		},
		{
			name:       "persistence failure",
			err:        &importapp.ImportError{Code: importapp.CodePersistenceFailed, Message: "write failed", Err: errors.New("pq: boom")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   importapp.CodePersistenceFailed,
		},
		{
			name:       "deadline",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   dto.ErrCodeTimeout,
		},
		{
			name:       "domain error",
			err:        shared.NewDomainError("INVALID_SLUG", "Slug is invalid"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
		},
		{
			name:        "unknown error hides its text",
			err:         errors.New("secret connection string"),
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
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-test", resp.Error.RequestID)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, resp.Error.Message)
			}
			assert.Len(t, resp.Error.Details, tt.wantDetails)
			assert.NotContains(t, w.Body.String(), "secret connection string")
		})
	}
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()
	h.HandleError(c, nil)
	assert.Zero(t, w.Body.Len())
}
