package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	importapp "github.com/storefront/backend/internal/application/import"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response, deriving the status code from the error code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ValidationError sends an error response listing invalid fields
func (h *BaseHandler) ValidationError(c *gin.Context, code, message string, details []dto.ValidationDetail) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewValidationErrorResponse(code, message, middleware.GetRequestID(c), details))
}

// BindingError answers a request whose body could not be bound
func (h *BaseHandler) BindingError(c *gin.Context, err error) {
	if details := middleware.BindingErrorDetails(err); details != nil {
		h.ValidationError(c, dto.ErrCodeValidation, "Request validation failed", details)
		return
	}
	h.Error(c, dto.ErrCodeInvalidJSON, "Request body must be a valid JSON object")
}

// HandleError converts service errors to HTTP responses.
// Import errors keep their code; context errors become timeouts;
// anything else is reported as an internal error without its text.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var importErr *importapp.ImportError
	if errors.As(err, &importErr) {
		if len(importErr.Details) > 0 {
			h.ValidationError(c, importErr.Code, importErr.Message, dto.ToValidationDetails(importErr.Details))
			return
		}
		h.Error(c, importErr.Code, importErr.Message)
		return
	}

	var domainErr *shared.DomainError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		h.Error(c, dto.ErrCodeTimeout, "The request took too long to complete")
	case errors.Is(err, context.Canceled):
		h.Error(c, dto.ErrCodeCanceled, "The request was canceled")
	case errors.As(err, &domainErr):
		h.Error(c, dto.ErrCodeInternal, domainErr.Message)
	default:
		logger.FromContext(c.Request.Context()).Error("unhandled handler error", zap.Error(err))
		h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
