// Package dto defines the request and response payloads of the HTTP API.
package dto

// APIResponse is the envelope every JSON endpoint wraps its payload in.
// Redirect and export endpoints are the only ones that bypass it.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail carries the machine-readable error code plus optional context
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}
