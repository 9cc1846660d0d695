package version

import (
	"context"
	"time"

	"orgstruct/internal/core/id"
	"orgstruct/internal/domain/orgstructure/department"
)

// Repository defines version persistence. Every lookup is confined to a scope.
type Repository interface {
	// ListByScope returns all versions of the scope.
	ListByScope(ctx context.Context, scopeID string) ([]*Version, error)

	// GetByID returns VersionNotFound if the version is missing or belongs to another scope.
	GetByID(ctx context.Context, scopeID string, versionID id.ID) (*Version, error)

	// GetForUpdate is GetByID with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, scopeID string, versionID id.ID) (*Version, error)

	// LockScope serializes version writes within a scope for the current transaction.
	LockScope(ctx context.Context, scopeID string) error

	Insert(ctx context.Context, v *Version) error
	Update(ctx context.Context, v *Version) error
}

// DepartmentStore is the part of department persistence a version copy needs.
type DepartmentStore interface {
	ListByVersion(ctx context.Context, versionID id.ID) ([]*department.Department, error)
	InsertBatch(ctx context.Context, rows []*department.Department) error
}

// AsOfCache memoizes as-of resolution per scope.
//
// Entries are keyed by a per-scope generation that Invalidate bumps after a
// write commits. A reader racing that commit can still store or read an entry
// of the old generation, so the service re-reads every hit by id and checks
// that its interval still contains the date before returning it.
type AsOfCache interface {
	Generation(ctx context.Context, scopeID string) (int64, error)
	Get(ctx context.Context, scopeID string, gen int64, date time.Time) (id.ID, bool, error)
	Set(ctx context.Context, scopeID string, gen int64, date time.Time, versionID id.ID) error
	Invalidate(ctx context.Context, scopeID string) error
}
