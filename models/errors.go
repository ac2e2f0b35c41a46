package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeNavTimeout      = "NAV_TIMEOUT"
	ErrCodeBrowserCrash    = "BROWSER_CRASH"
	ErrCodeExtraction      = "EXTRACTION_FAILED"
	ErrCodeNoSections      = "NO_SECTIONS"
	ErrCodeMissingArtifact = "MISSING_ARTIFACT"
	ErrCodeBadAssetRef     = "BAD_ASSET_REF"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeServiceFailure  = "SERVICE_UNAVAILABLE"
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PipelineError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type PipelineError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(code, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *PipelineError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
