package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sharehub/backend/internal/domain/shared"
	"github.com/sharehub/backend/internal/infrastructure/logger"
	"github.com/sharehub/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RequestIDKey is the header carrying the request ID
const RequestIDKey = "X-Request-ID"

const unexpectedErrorMessage = "An unexpected error occurred"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID set by the RequestID middleware,
// falling back to the incoming header
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Error sends an error response with the given status
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message, getRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts err to an HTTP response. Domain errors keep their
// message and take the status mapped from their code; storageStatus, when
// non-zero, overrides the status for storage failures. Anything else is
// logged and reported as a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error, storageStatus int) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		if code == dto.ErrCodeStorage && storageStatus != 0 {
			status = storageStatus
		}
		if status >= http.StatusInternalServerError || code == dto.ErrCodeStorage {
			logger.GetGinLogger(c).Error("Request failed", zap.String("code", code), zap.Error(err))
		}
		h.Error(c, status, code, domainErr.Message)
		return
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return
	}

	logger.GetGinLogger(c).Error("Unexpected error", zap.Error(err))
	h.InternalError(c, unexpectedErrorMessage)
}
