package models

import pkgerrors "github.com/reviewbridge/reviewbridge-api/pkg/errors"

// SuccessResponse is the envelope of every successful response
type SuccessResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the envelope of every failed response. Detail carries the
// underlying error outside production.
type ErrorResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Errors  []pkgerrors.FieldError `json:"errors,omitempty"`
	Detail  string                 `json:"detail,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
