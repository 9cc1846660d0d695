// Package entity holds building blocks shared by persisted domain entities.
package entity

import (
	"context"
	"time"
)

// Validatable is implemented by entities and inputs that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Timestamps contains audit timestamps stored on every row.
type Timestamps struct {
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewTimestamps returns timestamps with both fields set to now (UTC).
func NewTimestamps(now time.Time) Timestamps {
	now = now.UTC()
	return Timestamps{CreatedAt: now, UpdatedAt: now}
}

// Touch updates the UpdatedAt timestamp.
func (t *Timestamps) Touch(now time.Time) {
	t.UpdatedAt = now.UTC()
}
