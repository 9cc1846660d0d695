package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasCode_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("move department: %w", NewCircularHierarchy("a", "b"))

	assert.True(t, HasCode(err, CodeCircularHierarchy))
	assert.False(t, HasCode(err, CodeDepartmentNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(err))
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
}

func TestNewVersionDateOverlap_Details(t *testing.T) {
	eff := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	err := NewVersionDateOverlap(eff, nil, "2025-04")

	assert.Equal(t, CodeVersionDateOverlap, err.Code)
	assert.Equal(t, "2025-10-01", err.Details["effective_date"])
	assert.Nil(t, err.Details["expiry_date"])
	assert.Equal(t, "2025-04", err.Details["conflicting_version_code"])
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewVersionNotFound("x")))
	assert.True(t, IsNotFound(NewDepartmentNotFound("x")))
	assert.False(t, IsNotFound(NewValidation("bad")))
}

func TestInternal_HidesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal(cause)

	assert.Equal(t, "Internal server error", err.Message)
	assert.ErrorIs(t, err, cause)
}
