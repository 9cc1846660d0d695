package orgstructure_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"orgstruct/internal/core/apperror"
	"orgstruct/internal/core/id"
	"orgstruct/internal/domain/orgstructure/department"
	"orgstruct/internal/infrastructure/storage/postgres"
)

var (
	_ department.Repository = (*DepartmentRepo)(nil)
)

// copyThreshold is the batch size above which inserts switch to COPY.
const copyThreshold = 64

// DepartmentRepo stores departments in org_departments.
type DepartmentRepo struct {
	txManager  *postgres.TxManager
	inserter   *postgres.BatchInserter
	executor   *postgres.BatchExecutor
	selectCols []string
	updateCols []string
}

// NewDepartmentRepo creates a department repository.
func NewDepartmentRepo(txManager *postgres.TxManager) *DepartmentRepo {
	cols := postgres.ExtractDBColumns[department.Department]()
	return &DepartmentRepo{
		txManager:  txManager,
		inserter:   postgres.NewBatchInserter(txManager),
		executor:   postgres.NewBatchExecutor(txManager),
		selectCols: cols,
		updateCols: withoutColumns(cols, "id", "version_id", "stable_id", "created_at"),
	}
}

func (r *DepartmentRepo) baseSelect(versionID id.ID) squirrel.SelectBuilder {
	return builder().
		Select(r.selectCols...).
		From(departmentsTable).
		Where(squirrel.Eq{"version_id": versionID})
}

// ListByVersion loads every department of the version, parents before children.
func (r *DepartmentRepo) ListByVersion(ctx context.Context, versionID id.ID) ([]*department.Department, error) {
	q := r.baseSelect(versionID).OrderBy("hierarchy_level", "sort_order", "department_code")

	var out []*department.Department
	if err := selectAll(ctx, r.txManager.GetQuerier(ctx), &out, q); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return out, nil
}

// GetByID returns a department of the version.
func (r *DepartmentRepo) GetByID(ctx context.Context, versionID, deptID id.ID) (*department.Department, error) {
	q := r.baseSelect(versionID).
		Where(squirrel.Eq{"id": deptID}).
		Limit(1)

	var d department.Department
	if err := selectOne(ctx, r.txManager.GetQuerier(ctx), &d, q); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewDepartmentNotFound(deptID)
		}
		return nil, fmt.Errorf("get department: %w", err)
	}
	return &d, nil
}

// InsertBatch inserts rows in order. Large batches (version copies) use COPY.
func (r *DepartmentRepo) InsertBatch(ctx context.Context, rows []*department.Department) error {
	if len(rows) == 0 {
		return nil
	}

	var err error
	if len(rows) > copyThreshold {
		err = r.copyRows(ctx, rows)
	} else {
		err = r.insertRows(ctx, rows)
	}
	return r.translate(err, rows)
}

func (r *DepartmentRepo) insertRows(ctx context.Context, rows []*department.Department) error {
	sql, args, err := r.insertQuery(rows).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", departmentsTable, err)
	}
	return nil
}

func (r *DepartmentRepo) insertQuery(rows []*department.Department) squirrel.InsertBuilder {
	q := builder().
		Insert(departmentsTable).
		Columns(r.selectCols...)
	for _, d := range rows {
		q = q.Values(postgres.StructValues(d, r.selectCols)...)
	}
	return q
}

func (r *DepartmentRepo) copyRows(ctx context.Context, rows []*department.Department) error {
	values := make([][]any, len(rows))
	for i, d := range rows {
		values[i] = postgres.StructValues(d, r.selectCols)
	}
	n, err := r.inserter.CopyFromSlice(ctx, departmentsTable, r.selectCols, values)
	if err != nil {
		return fmt.Errorf("copy %s: %w", departmentsTable, err)
	}
	if n != int64(len(rows)) {
		return fmt.Errorf("copy %s: inserted %d of %d rows", departmentsTable, n, len(rows))
	}
	return nil
}

// UpdateBatch writes every mutable column of rows in one round-trip.
func (r *DepartmentRepo) UpdateBatch(ctx context.Context, rows []*department.Department) error {
	if len(rows) == 0 {
		return nil
	}

	queries := make([]postgres.BatchQuery, 0, len(rows))
	for _, d := range rows {
		sql, args, err := r.updateQuery(d).ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args})
	}

	err := r.executor.ExecuteBatch(ctx, queries, true)
	var rowErr *postgres.RowCountError
	if errors.As(err, &rowErr) {
		return apperror.NewConcurrentModification("department", rows[rowErr.Index].ID)
	}
	return r.translate(err, rows)
}

func (r *DepartmentRepo) updateQuery(d *department.Department) squirrel.UpdateBuilder {
	data := postgres.StructToMap(d)
	set := make(map[string]any, len(r.updateCols))
	for _, col := range r.updateCols {
		set[col] = data[col]
	}
	return builder().
		Update(departmentsTable).
		SetMap(set).
		Where(squirrel.Eq{"id": d.ID, "version_id": d.VersionID})
}

// translate maps constraint violations onto domain errors. The service checks
// codes against the loaded tree first, so these only fire on stale state.
func (r *DepartmentRepo) translate(err error, rows []*department.Department) error {
	if err == nil {
		return nil
	}
	if constraint, ok := postgres.UniqueViolation(err); ok && constraint == constraintDepartmentCode {
		code := ""
		if len(rows) == 1 {
			code = rows[0].Code
		}
		return apperror.NewDepartmentCodeDuplicate(code)
	}
	if postgres.IsForeignKeyViolation(err) {
		return apperror.NewInternal(err)
	}
	return err
}
