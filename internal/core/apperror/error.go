// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Every error kind raised by the organization structure engine is an AppError
// with a stable Code, so callers can tell kinds apart without string matching.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Version-level errors
	CodeVersionNotFound      = "VERSION_NOT_FOUND"
	CodeVersionCodeDuplicate = "VERSION_CODE_DUPLICATE"
	CodeVersionDateOverlap   = "VERSION_DATE_OVERLAP"

	// Department-level errors
	CodeDepartmentNotFound        = "DEPARTMENT_NOT_FOUND"
	CodeDepartmentCodeDuplicate   = "DEPARTMENT_CODE_DUPLICATE"
	CodeParentDepartmentNotFound  = "PARENT_DEPARTMENT_NOT_FOUND"
	CodeCircularHierarchy         = "CIRCULAR_HIERARCHY_DETECTED"
	CodeDepartmentAlreadyInactive = "DEPARTMENT_ALREADY_INACTIVE"
	CodeDepartmentAlreadyActive   = "DEPARTMENT_ALREADY_ACTIVE"
	CodeDepartmentHasChildren     = "DEPARTMENT_HAS_CHILDREN"

	// Concurrency (409)
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Authorization / scope (400, 403)
	CodeForbidden = "FORBIDDEN"
)

const dateLayout = "2006-01-02"

// AppError is the standard error type for the service.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (offending code, id, date range)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func newError(code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// --- Generic ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return newError(CodeValidation, http.StatusBadRequest, message)
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return newError(CodeInternal, http.StatusInternalServerError, "Internal server error").WithCause(err)
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return newError(CodeForbidden, http.StatusForbidden, message)
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return newError(CodeConcurrentModification, http.StatusConflict,
		"Record was modified by another user. Please refresh and try again.").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// --- Versions ---

// NewVersionNotFound is returned when a version id (or as-of date) resolves to nothing.
func NewVersionNotFound(id any) *AppError {
	return newError(CodeVersionNotFound, http.StatusNotFound, "Version not found").
		WithDetail("id", id)
}

// NewVersionNotFoundAsOf is the as-of flavour of NewVersionNotFound.
func NewVersionNotFoundAsOf(scopeID string, date time.Time) *AppError {
	return newError(CodeVersionNotFound, http.StatusNotFound,
		fmt.Sprintf("No version is effective on %s", date.Format(dateLayout))).
		WithDetail("scope_id", scopeID).
		WithDetail("as_of", date.Format(dateLayout))
}

// NewVersionCodeDuplicate reports a version code already taken in the scope.
func NewVersionCodeDuplicate(code string) *AppError {
	return newError(CodeVersionCodeDuplicate, http.StatusConflict,
		fmt.Sprintf("Version code %q already exists", code)).
		WithDetail("version_code", code)
}

// NewVersionDateOverlap reports that [effective, expiry) intersects another version's interval.
// A nil expiry is rendered as an open end.
func NewVersionDateOverlap(effective time.Time, expiry *time.Time, conflictCode string) *AppError {
	return newError(CodeVersionDateOverlap, http.StatusConflict,
		fmt.Sprintf("Validity period overlaps version %q", conflictCode)).
		WithDetail("effective_date", effective.Format(dateLayout)).
		WithDetail("expiry_date", formatOpenDate(expiry)).
		WithDetail("conflicting_version_code", conflictCode)
}

func formatOpenDate(d *time.Time) any {
	if d == nil {
		return nil
	}
	return d.Format(dateLayout)
}

// --- Departments ---

// NewDepartmentNotFound reports an unknown department id (or stable id) in a version.
func NewDepartmentNotFound(id any) *AppError {
	return newError(CodeDepartmentNotFound, http.StatusNotFound, "Department not found").
		WithDetail("id", id)
}

// NewDepartmentCodeDuplicate reports a department code already used in the version.
func NewDepartmentCodeDuplicate(code string) *AppError {
	return newError(CodeDepartmentCodeDuplicate, http.StatusConflict,
		fmt.Sprintf("Department code %q already exists in this version", code)).
		WithDetail("department_code", code)
}

// NewParentDepartmentNotFound reports a parentId that does not exist in the same version.
func NewParentDepartmentNotFound(parentID any) *AppError {
	return newError(CodeParentDepartmentNotFound, http.StatusUnprocessableEntity, "Parent department not found").
		WithDetail("parent_id", parentID)
}

// NewCircularHierarchy reports a move that would make a node its own ancestor.
func NewCircularHierarchy(id, parentID any) *AppError {
	return newError(CodeCircularHierarchy, http.StatusUnprocessableEntity,
		"Department cannot be placed under itself or one of its descendants").
		WithDetail("id", id).
		WithDetail("parent_id", parentID)
}

// NewDepartmentAlreadyInactive is returned by deactivate on an inactive node.
func NewDepartmentAlreadyInactive(id any) *AppError {
	return newError(CodeDepartmentAlreadyInactive, http.StatusConflict, "Department is already inactive").
		WithDetail("id", id)
}

// NewDepartmentAlreadyActive is returned by reactivate on an active node.
func NewDepartmentAlreadyActive(id any) *AppError {
	return newError(CodeDepartmentAlreadyActive, http.StatusConflict, "Department is already active").
		WithDetail("id", id)
}

// NewDepartmentHasChildren is reserved for a hard-delete operation.
func NewDepartmentHasChildren(id any, children int) *AppError {
	return newError(CodeDepartmentHasChildren, http.StatusConflict, "Department has child departments").
		WithDetail("id", id).
		WithDetail("children", children)
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks for either not-found kind.
func IsNotFound(err error) bool {
	return HasCode(err, CodeVersionNotFound) || HasCode(err, CodeDepartmentNotFound)
}
