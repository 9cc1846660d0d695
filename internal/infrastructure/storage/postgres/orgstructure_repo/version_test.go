package orgstructure_repo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgstruct/internal/core/id"
)

func TestVersionRepo_SelectQueries(t *testing.T) {
	repo := NewVersionRepo(nil)
	versionID := id.New()

	sql, args, err := repo.byID("scope-1", versionID).ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "SELECT id, scope_id, version_code, version_name, effective_date, expiry_date, description, created_at, updated_at FROM org_versions"))
	assert.True(t, strings.HasSuffix(sql, "WHERE scope_id = $1 AND id = $2 LIMIT 1"))
	assert.Equal(t, []any{"scope-1", versionID.String()}, args)

	sql, _, err = repo.byID("scope-1", versionID).Suffix("FOR UPDATE").ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(sql, "LIMIT 1 FOR UPDATE"))
}

func TestVersionRepo_UpdateColumns(t *testing.T) {
	repo := NewVersionRepo(nil)

	assert.NotContains(t, repo.updateCols, "id")
	assert.NotContains(t, repo.updateCols, "scope_id")
	assert.NotContains(t, repo.updateCols, "created_at")
	assert.Contains(t, repo.updateCols, "expiry_date")
}
