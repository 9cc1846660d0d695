// Package orgstructure_repo provides PostgreSQL implementations of the
// version and department repositories.
package orgstructure_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"orgstruct/internal/infrastructure/storage/postgres"
)

const (
	versionsTable    = "org_versions"
	departmentsTable = "org_departments"

	constraintVersionCode    = "uq_org_versions_scope_code"
	constraintDepartmentCode = "uq_org_departments_version_code"
)

// builder returns a squirrel builder with PostgreSQL placeholders.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// selectAll runs a SELECT built by q and scans every row into dst.
func selectAll(ctx context.Context, db postgres.Querier, dst any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, db, dst, sql, args...)
}

// selectOne runs a SELECT built by q and scans a single row into dst.
// A missing row is reported through pgxscan.NotFound.
func selectOne(ctx context.Context, db postgres.Querier, dst any, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Get(ctx, db, dst, sql, args...)
}

// withoutColumns returns cols minus the excluded names, preserving order.
func withoutColumns(cols []string, excluded ...string) []string {
	skip := make(map[string]bool, len(excluded))
	for _, c := range excluded {
		skip[c] = true
	}
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}
