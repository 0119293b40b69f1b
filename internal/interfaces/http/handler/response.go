package handler

import (
	"github.com/sellout/backend/internal/application/report"
	"github.com/sellout/backend/internal/interfaces/http/dto"
)

// APIResponse represents a generic API response for OpenAPI documentation
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ErrorResponse represents an error API response for OpenAPI documentation
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ExportResponse is the documented body of an export
// @Description Archived CSV export with a download link
type ExportResponse = APIResponse[report.ExportResult]
