// Package dto provides data transfer objects for the HTTP API.
package dto

import (
	"github.com/enxxi/v-board/internal/core/id"
)

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates an ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// DeleteResponse reports the outcome of a cascading delete.
type DeleteResponse struct {
	// AlreadyDeleted is true when the target was gone before the call.
	AlreadyDeleted bool `json:"alreadyDeleted"`

	// Affected counts rows tombstoned by this call.
	Affected int64 `json:"affected"`
}
