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

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared by every bounded context
const (
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidInput = "INVALID_INPUT"
	CodeValidation   = "VALIDATION_ERROR"
	CodeStorage      = "STORAGE_ERROR"
)

// Common domain errors
var (
	ErrNotFound     = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput = NewDomainError(CodeInvalidInput, "Invalid input provided")
)

// NewValidationError reports input rejected before any mutation happened.
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewStorageError reports a persistence or file storage failure.
// Only the message is kept; callers must not pass stack traces.
func NewStorageError(message string) *DomainError {
	return NewDomainError(CodeStorage, message)
}
