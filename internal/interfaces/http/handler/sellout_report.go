package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sellout/backend/internal/application/report"
	"github.com/sellout/backend/internal/domain/sellout"
	"github.com/sellout/backend/internal/infrastructure/logger"
	"github.com/sellout/backend/internal/interfaces/http/dto"
	"github.com/sellout/backend/internal/interfaces/http/middleware"
)

// SelloutReportService is the application service behind the report endpoints
type SelloutReportService interface {
	Types() []string
	Generate(ctx context.Context, req report.Request) (*report.Result, error)
	RenderCSV(ctx context.Context, req report.Request) ([]byte, *report.Result, error)
	Export(ctx context.Context, req report.Request) (*report.ExportResult, error)
}

// SelloutReportHandler serves the sell-out report catalogue
type SelloutReportHandler struct {
	BaseHandler
	service  SelloutReportService
	location *time.Location
}

// NewSelloutReportHandler creates a handler. Query dates are read in loc.
func NewSelloutReportHandler(service SelloutReportService, loc *time.Location) *SelloutReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SelloutReportHandler{service: service, location: loc}
}

// ListTypes godoc
// @Summary      List sell-out report types
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse[dto.ReportTypesResponse]
// @Router       /reports/sellout [get]
func (h *SelloutReportHandler) ListTypes(c *gin.Context) {
	h.Success(c, dto.ReportTypesResponse{Types: h.service.Types()})
}

// GetReport godoc
// @Summary      Generate a sell-out report
// @Description  Aggregates the internal sales log and the distributor feed for the requested window
// @Tags         reports
// @Produce      json,text/csv
// @Param        type path string true "Report type"
// @Param        startDate query string false "Start date (YYYY-MM-DD), defaults to the first of the current month"
// @Param        endDate query string false "End date (YYYY-MM-DD), defaults to today"
// @Param        valueVolume query string false "value or volume"
// @Param        showShare query bool false "Render shares instead of raw values"
// @Param        comparison query string false "shift or calendar"
// @Param        format query string false "json or csv"
// @Success      200 {object} APIResponse[report.Result]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /reports/sellout/{type} [get]
func (h *SelloutReportHandler) GetReport(c *gin.Context) {
	req, format, ok := h.bindRequest(c)
	if !ok {
		return
	}
	ctx := logger.WithReportType(c.Request.Context(), req.Type)

	if format == dto.FormatCSV {
		body, result, err := h.service.RenderCSV(ctx, req)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, csvFilename(result)))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
		return
	}

	result, err := h.service.Generate(ctx, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ExportReport godoc
// @Summary      Export a sell-out report to object storage
// @Description  Renders the report as CSV, archives it and returns a time-limited download link
// @Tags         reports
// @Produce      json
// @Param        type path string true "Report type"
// @Success      201 {object} ExportResponse
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /reports/sellout/{type}/export [post]
func (h *SelloutReportHandler) ExportReport(c *gin.Context) {
	req, _, ok := h.bindRequest(c)
	if !ok {
		return
	}
	ctx := logger.WithReportType(c.Request.Context(), req.Type)

	result, err := h.service.Export(ctx, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// bindRequest reads the path, scalar query parameters and dimension filters.
// It writes the error response itself and returns ok=false on failure.
func (h *SelloutReportHandler) bindRequest(c *gin.Context) (report.Request, string, bool) {
	var q dto.SelloutReportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return report.Request{}, "", false
	}

	req, err := q.Params(c.Param("type"), queryFilters(c)).Parse(h.location)
	if err != nil {
		h.HandleError(c, err)
		return report.Request{}, "", false
	}

	format := q.Format
	if format == "" {
		format = dto.FormatJSON
	}
	return req, format, true
}

// queryFilters collects repeated or bracketed filter parameters
// (brand=A&brand=B, brand[]=A, brand=A,B).
func queryFilters(c *gin.Context) map[string][]string {
	return filterValues(c.Request.URL.Query())
}

// filterValues copies the filter values out of query; the result never
// shares storage with query
func filterValues(query url.Values) map[string][]string {
	filters := make(map[string][]string)
	for _, dim := range sellout.FilterDimensions {
		name := dim.String()
		values := append(append([]string(nil), query[name]...), query[name+"[]"]...)
		if len(values) > 0 {
			filters[name] = values
		}
	}
	return filters
}

func csvFilename(result *report.Result) string {
	return fmt.Sprintf("%s_%s_%s.csv",
		result.Type,
		result.Windows.Current.Start.Format("20060102"),
		result.Windows.Current.End.Format("20060102"),
	)
}
