package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"orgstruct/internal/core/entity"
	"orgstruct/internal/core/id"
)

type mockRow struct {
	ID      id.ID   `db:"id"`
	Code    string  `db:"code"`
	Note    *string `db:"note"`
	Ignored string  `db:"-"`
	Plain   string
	entity.Timestamps
}

func TestExtractDBColumns_IncludesEmbedded(t *testing.T) {
	cols := ExtractDBColumns[mockRow]()

	assert.Equal(t, []string{"id", "code", "note", "created_at", "updated_at"}, cols)
}

func TestExtractDBColumns_Pointer(t *testing.T) {
	assert.Equal(t, ExtractDBColumns[mockRow](), ExtractDBColumns[*mockRow]())
}

func TestStructToMap(t *testing.T) {
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	row := &mockRow{
		ID:         id.New(),
		Code:       "CORP",
		Ignored:    "x",
		Plain:      "y",
		Timestamps: entity.NewTimestamps(now),
	}

	m := StructToMap(row)

	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, "CORP", m["code"])
	assert.Equal(t, (*string)(nil), m["note"])
	assert.Equal(t, now, m["created_at"])
	assert.NotContains(t, m, "Ignored")
	assert.NotContains(t, m, "Plain")
	assert.Len(t, m, 5)
}

func TestStructValues_FollowsColumnOrder(t *testing.T) {
	row := mockRow{ID: id.New(), Code: "HR"}

	vals := StructValues(row, []string{"code", "id", "missing"})

	assert.Equal(t, []any{"HR", row.ID, nil}, vals)
}
