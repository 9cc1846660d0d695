package orgstructure_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"orgstruct/internal/core/apperror"
	"orgstruct/internal/core/id"
	"orgstruct/internal/domain/orgstructure/version"
	"orgstruct/internal/infrastructure/storage/postgres"
)

var _ version.Repository = (*VersionRepo)(nil)

// VersionRepo stores versions in org_versions.
type VersionRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
	updateCols []string
}

// NewVersionRepo creates a version repository.
func NewVersionRepo(txManager *postgres.TxManager) *VersionRepo {
	cols := postgres.ExtractDBColumns[version.Version]()
	return &VersionRepo{
		txManager:  txManager,
		selectCols: cols,
		updateCols: withoutColumns(cols, "id", "scope_id", "created_at"),
	}
}

func (r *VersionRepo) baseSelect(scopeID string) squirrel.SelectBuilder {
	return builder().
		Select(r.selectCols...).
		From(versionsTable).
		Where(squirrel.Eq{"scope_id": scopeID})
}

// ListByScope returns all versions of the scope ordered by effective date.
func (r *VersionRepo) ListByScope(ctx context.Context, scopeID string) ([]*version.Version, error) {
	q := r.baseSelect(scopeID).OrderBy("effective_date", "version_code")

	var out []*version.Version
	if err := selectAll(ctx, r.txManager.GetQuerier(ctx), &out, q); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return out, nil
}

// GetByID returns a version of the scope.
func (r *VersionRepo) GetByID(ctx context.Context, scopeID string, versionID id.ID) (*version.Version, error) {
	return r.get(ctx, versionID, r.byID(scopeID, versionID))
}

// GetForUpdate returns a version and row-locks it until the transaction ends.
func (r *VersionRepo) GetForUpdate(ctx context.Context, scopeID string, versionID id.ID) (*version.Version, error) {
	return r.get(ctx, versionID, r.byID(scopeID, versionID).Suffix("FOR UPDATE"))
}

func (r *VersionRepo) byID(scopeID string, versionID id.ID) squirrel.SelectBuilder {
	return r.baseSelect(scopeID).
		Where(squirrel.Eq{"id": versionID}).
		Limit(1)
}

func (r *VersionRepo) get(ctx context.Context, versionID id.ID, q squirrel.SelectBuilder) (*version.Version, error) {
	var v version.Version
	if err := selectOne(ctx, r.txManager.GetQuerier(ctx), &v, q); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewVersionNotFound(versionID)
		}
		return nil, fmt.Errorf("get version: %w", err)
	}
	return &v, nil
}

// LockScope takes a transaction-scoped advisory lock on the scope.
func (r *VersionRepo) LockScope(ctx context.Context, scopeID string) error {
	if r.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("LockScope requires transaction context")
	}
	_, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		"SELECT pg_advisory_xact_lock(hashtext($1))", versionsTable+":"+scopeID)
	return err
}

// Insert adds a version.
func (r *VersionRepo) Insert(ctx context.Context, v *version.Version) error {
	q := builder().
		Insert(versionsTable).
		Columns(r.selectCols...).
		Values(postgres.StructValues(v, r.selectCols)...)

	return r.exec(ctx, q, v.Code)
}

// Update writes every mutable column of v.
func (r *VersionRepo) Update(ctx context.Context, v *version.Version) error {
	data := postgres.StructToMap(v)
	set := make(map[string]any, len(r.updateCols))
	for _, col := range r.updateCols {
		set[col] = data[col]
	}

	q := builder().
		Update(versionsTable).
		SetMap(set).
		Where(squirrel.Eq{"id": v.ID, "scope_id": v.ScopeID})

	return r.exec(ctx, q, v.Code)
}

func (r *VersionRepo) exec(ctx context.Context, q squirrel.Sqlizer, code string) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if constraint, ok := postgres.UniqueViolation(err); ok && constraint == constraintVersionCode {
			return apperror.NewVersionCodeDuplicate(code)
		}
		return fmt.Errorf("write %s: %w", versionsTable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("write %s: no rows affected", versionsTable)
	}
	return nil
}
