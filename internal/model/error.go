package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON        = "INVALID_JSON"
	ErrCodeMissingField       = "MISSING_FIELD"
	ErrCodeSessionNotFound    = "SESSION_NOT_FOUND"
	ErrCodeItemNotFound       = "ITEM_NOT_FOUND"
	ErrCodeAuditNotFound      = "AUDIT_NOT_FOUND"
	ErrCodeStorageDisabled    = "STORAGE_DISABLED"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeIdentifyFailed     = "IDENTIFY_FAILED"
	ErrCodeInvalidParameter   = "INVALID_PARAMETER"
	ErrCodeRequestTooLarge    = "REQUEST_TOO_LARGE"
	ErrCodeCaptureUnavailable = "CAPTURE_UNAVAILABLE"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

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

// Common domain errors
var (
	ErrSessionNotFound = NewDomainError(ErrCodeSessionNotFound, "Shopping session not found")
	ErrItemNotFound    = NewDomainError(ErrCodeItemNotFound, "Cart item not found")
	ErrAuditNotFound   = NewDomainError(ErrCodeAuditNotFound, "Audit not found")
	ErrStorageDisabled = NewDomainError(ErrCodeStorageDisabled, "Audit storage is not configured")
	ErrMissingInput    = NewDomainError(ErrCodeMissingField, "Either text or an image is required")
)

// Failure taxonomy for scans and audits. None of these reach the shopper as
// raw errors; they select the fallback that is shown instead.
var (
	ErrCaptureUnavailable = errors.New("image capture unavailable")
	ErrExtractionEmpty    = errors.New("extracted text is empty")
	ErrExtractionFailed   = errors.New("text extraction failed")
	ErrOracleMalformed    = errors.New("oracle returned a malformed response")
	ErrOracleUnavailable  = errors.New("oracle unavailable")
	ErrPersistence        = errors.New("audit persistence failed")
)
