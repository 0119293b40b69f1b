package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sellout/backend/internal/domain/shared"
	"github.com/sellout/backend/internal/infrastructure/logger"
	"github.com/sellout/backend/internal/interfaces/http/dto"
	"github.com/sellout/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID assigned by the RequestID middleware,
// falling back to the inbound header
func getRequestID(c *gin.Context) string {
	if id := middleware.GetRequestID(c); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError converts an error into an HTTP response. Domain errors keep
// their code and message; anything else becomes an opaque 500. Server-side
// failures are logged with the request logger.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		status := dto.GetHTTPStatus(code)
		if status >= http.StatusInternalServerError {
			logger.GetGinLogger(c).Error("Request failed", zap.String("code", code), zap.Error(err))
		}
		h.Error(c, status, code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unexpected error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}
