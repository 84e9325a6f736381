// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// Kind carries the lifecycle error classification so scanner UIs can decide
// between a blocking dialog and a form reset without parsing the message.
type APIError struct {
	Detail string `json:"detail"`
	Kind   string `json:"kind,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func NewKind(kind, msg string) *APIError {
	return &APIError{Detail: msg, Kind: kind}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation error", Fields: fields}
}
