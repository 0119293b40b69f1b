package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so that a
// sentinel matches copies produced by WithMessage
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of the error with a more specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: message,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
