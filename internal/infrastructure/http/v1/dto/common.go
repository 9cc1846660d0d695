// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"orgstruct/internal/core/apperror"
	"orgstruct/internal/core/id"
	"orgstruct/internal/domain/orgstructure/version"
)

// --- List Response ---

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

// NewListResponse creates a list response; nil input renders as [].
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, TotalCount: len(items)}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Helpers ---

// ParseID parses a required id (path parameter or body field).
func ParseID(field, raw string) (id.ID, error) {
	v, err := id.Parse(raw)
	if err != nil {
		return id.ID{}, apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return v, nil
}

// parseOptionalID parses an optional id field; nil or "" yields nil.
func parseOptionalID(field string, raw *string) (*id.ID, error) {
	v, err := id.ParseOptional(raw)
	if err != nil {
		return nil, apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithDetail("value", *raw)
	}
	return v, nil
}

// parseDate parses a required YYYY-MM-DD field.
func parseDate(field, raw string) (time.Time, error) {
	t, err := version.ParseDate(raw)
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok {
			return time.Time{}, appErr.WithDetail("field", field)
		}
		return time.Time{}, err
	}
	return t, nil
}

// parseOptionalDate parses an optional YYYY-MM-DD field.
func parseOptionalDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := parseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t time.Time) string {
	return t.Format(version.DateLayout)
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatDate(*t)
	return &s
}
