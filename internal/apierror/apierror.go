// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// Stable reason codes. Clients and the channel gateway branch on these,
// so they are part of the API contract and must not be renamed.
const (
	CodeValidationFailed  = "validation_failed"
	CodeQuotaExceeded     = "quota_exceeded"
	CodeNotFound          = "not_found"
	CodeUnauthorized      = "unauthorized"
	CodeConflict          = "conflict"
	CodeRenderUnavailable = "render_unavailable"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

func New(code, msg string) *APIError {
	return &APIError{Code: code, Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Code   string            `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Code: CodeValidationFailed, Detail: "validation failed", Fields: fields}
}
