package sellout

import "github.com/sellout/backend/internal/domain/shared"

// Sell-out reporting errors. Per-record anomalies never surface as errors;
// they are counted in Diagnostics instead.
var (
	ErrInvalidRange         = shared.NewDomainError("INVALID_RANGE", "Start date must not be after end date")
	ErrMalformedDate        = shared.NewDomainError("MALFORMED_DATE", "Date must be formatted as YYYY-MM-DD")
	ErrInvalidParameter     = shared.NewDomainError("INVALID_PARAMETER", "Invalid report parameter")
	ErrMalformedRecord      = shared.NewDomainError("MALFORMED_RECORD", "Source record is structurally malformed")
	ErrReferenceUnavailable = shared.NewDomainError("REFERENCE_UNAVAILABLE", "Reference data could not be loaded")
	ErrUnknownReport        = shared.NewDomainError("UNKNOWN_REPORT", "Unknown report type")
)
