package dto

import (
	"time"

	"github.com/sellout/backend/internal/application/report"
)

// Output formats of the report endpoint
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// SelloutReportQuery binds the scalar query parameters of a report request.
// Dimension filters are repeated or comma separated and read separately.
type SelloutReportQuery struct {
	StartDate   string `form:"startDate"`
	EndDate     string `form:"endDate"`
	ValueVolume string `form:"valueVolume" binding:"omitempty,oneof=value volume"`
	ShowShare   bool   `form:"showShare"`
	Comparison  string `form:"comparison" binding:"omitempty,oneof=shift calendar"`
	Role        string `form:"role" binding:"omitempty,max=32"`
	Layout      string `form:"layout" binding:"omitempty,oneof=keyed positional"`
	Format      string `form:"format" binding:"omitempty,oneof=json csv"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	Limit       int    `form:"limit" binding:"omitempty,min=1"`
}

// Params combines the query with the path report type and the filters
func (q SelloutReportQuery) Params(reportType string, filters map[string][]string) report.RequestParams {
	return report.RequestParams{
		Type:        reportType,
		StartDate:   q.StartDate,
		EndDate:     q.EndDate,
		ValueVolume: q.ValueVolume,
		ShowShare:   q.ShowShare,
		Comparison:  q.Comparison,
		Role:        q.Role,
		Layout:      q.Layout,
		Page:        q.Page,
		Limit:       q.Limit,
		Filters:     filters,
	}
}

// ReportTypesResponse lists the available report types
type ReportTypesResponse struct {
	Types []string `json:"types"`
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Database  string    `json:"database"`
	CheckedAt time.Time `json:"checked_at"`
}
