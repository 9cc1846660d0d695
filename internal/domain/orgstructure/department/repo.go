package department

import (
	"context"

	"orgstruct/internal/core/id"
)

// Repository defines department persistence.
// Writes are expected to run inside the caller's transaction.
type Repository interface {
	// ListByVersion loads every department of a version.
	ListByVersion(ctx context.Context, versionID id.ID) ([]*Department, error)

	// GetByID returns DepartmentNotFound if the row is missing.
	GetByID(ctx context.Context, versionID, deptID id.ID) (*Department, error)

	// InsertBatch inserts rows in the given order (parents first).
	InsertBatch(ctx context.Context, rows []*Department) error

	// UpdateBatch writes every mutable column of the given rows.
	UpdateBatch(ctx context.Context, rows []*Department) error
}

// VersionLookup lets the department service check versions without importing them.
// Both methods resolve the scope from ctx and return VersionNotFound for a
// version outside it.
type VersionLookup interface {
	CheckVersion(ctx context.Context, versionID id.ID) error

	// LockVersion also takes a row lock held until the transaction ends.
	LockVersion(ctx context.Context, versionID id.ID) error
}
