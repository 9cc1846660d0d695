package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgstruct/internal/core/apperror"
	"orgstruct/internal/core/id"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func mkVersion(code, effective string, expiry *time.Time) *Version {
	return &Version{
		ID:            id.New(),
		ScopeID:       "scope",
		Code:          code,
		Name:          code,
		EffectiveDate: day(effective),
		ExpiryDate:    expiry,
	}
}

func TestRegistry_OverlapExample(t *testing.T) {
	v1 := mkVersion("2025-04", "2025-04-01", dayPtr("2026-04-01"))
	reg := NewRegistry([]*Version{v1})

	err := reg.CheckCreate(mkVersion("2025-10", "2025-10-01", nil))
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeVersionDateOverlap))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "2025-04", appErr.Details["conflicting_version_code"])

	assert.NoError(t, reg.CheckCreate(mkVersion("2026-04", "2026-04-01", nil)),
		"intervals touching at the boundary do not overlap")
}

func TestRegistry_CheckCreate(t *testing.T) {
	existing := []*Version{
		mkVersion("A", "2024-01-01", dayPtr("2024-07-01")),
		mkVersion("B", "2024-07-01", dayPtr("2025-01-01")),
	}

	tests := []struct {
		name      string
		candidate *Version
		code      string
	}{
		{name: "duplicate code", candidate: mkVersion("A", "2030-01-01", nil), code: apperror.CodeVersionCodeDuplicate},
		{name: "inside", candidate: mkVersion("C", "2024-02-01", dayPtr("2024-03-01")), code: apperror.CodeVersionDateOverlap},
		{name: "covers all", candidate: mkVersion("C", "2023-01-01", nil), code: apperror.CodeVersionDateOverlap},
		{name: "open ended starting before end", candidate: mkVersion("C", "2024-12-31", nil), code: apperror.CodeVersionDateOverlap},
		{name: "before everything", candidate: mkVersion("C", "2023-01-01", dayPtr("2024-01-01"))},
		{name: "after everything", candidate: mkVersion("C", "2025-01-01", nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry(existing).CheckCreate(tt.candidate)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestRegistry_OpenEndedVersionsAlwaysOverlap(t *testing.T) {
	reg := NewRegistry([]*Version{mkVersion("OPEN", "2030-01-01", nil)})

	err := reg.CheckCreate(mkVersion("LATER", "2031-01-01", nil))
	assert.True(t, apperror.HasCode(err, apperror.CodeVersionDateOverlap))

	err = reg.CheckCreate(mkVersion("EARLIER", "2020-01-01", nil))
	assert.True(t, apperror.HasCode(err, apperror.CodeVersionDateOverlap))
}

func TestRegistry_CheckUpdateExcludesSelf(t *testing.T) {
	a := mkVersion("A", "2024-01-01", dayPtr("2024-07-01"))
	b := mkVersion("B", "2024-07-01", nil)
	reg := NewRegistry([]*Version{a, b})

	extended := *a
	extended.ExpiryDate = dayPtr("2024-06-01")
	assert.NoError(t, reg.CheckUpdate(&extended))

	overlapping := *a
	overlapping.ExpiryDate = dayPtr("2024-08-01")
	assert.True(t, apperror.HasCode(reg.CheckUpdate(&overlapping), apperror.CodeVersionDateOverlap))

	renamed := *a
	renamed.Code = "B"
	assert.True(t, apperror.HasCode(reg.CheckUpdate(&renamed), apperror.CodeVersionCodeDuplicate))
}

func TestRegistry_ResolveAsOf(t *testing.T) {
	a := mkVersion("A", "2025-04-01", dayPtr("2026-04-01"))
	b := mkVersion("B", "2026-04-01", nil)
	reg := NewRegistry([]*Version{a, b})

	tests := []struct {
		date string
		want *Version
	}{
		{date: "2025-03-31"},
		{date: "2025-04-01", want: a},
		{date: "2026-03-31", want: a},
		{date: "2026-04-01", want: b},
		{date: "2099-12-31", want: b},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got, ok := reg.ResolveAsOf(day(tt.date))
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want.Code, got.Code)
		})
	}
}

func TestRegistry_ResolveAsOfIgnoresTimeOfDay(t *testing.T) {
	a := mkVersion("A", "2025-04-01", dayPtr("2025-05-01"))
	reg := NewRegistry([]*Version{a})

	_, ok := reg.ResolveAsOf(time.Date(2025, 4, 30, 23, 59, 0, 0, time.UTC))
	assert.True(t, ok)
}

func TestRegistry_Sort(t *testing.T) {
	a := mkVersion("B-CODE", "2024-01-01", dayPtr("2025-01-01"))
	a.Name = "Zeta"
	b := mkVersion("A-CODE", "2025-01-01", nil)
	b.Name = "Alpha"
	reg := NewRegistry([]*Version{a, b})

	byCode := func(vs []*Version) []string {
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			out = append(out, v.Code)
		}
		return out
	}

	tests := []struct {
		orderBy string
		want    []string
	}{
		{orderBy: "", want: []string{"A-CODE", "B-CODE"}},
		{orderBy: "effectiveDate", want: []string{"B-CODE", "A-CODE"}},
		{orderBy: "versionCode", want: []string{"A-CODE", "B-CODE"}},
		{orderBy: "-versionCode", want: []string{"B-CODE", "A-CODE"}},
		{orderBy: "versionName", want: []string{"A-CODE", "B-CODE"}},
		{orderBy: "-versionName", want: []string{"B-CODE", "A-CODE"}},
	}
	for _, tt := range tests {
		t.Run(tt.orderBy, func(t *testing.T) {
			got, err := reg.Sort(tt.orderBy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, byCode(got))
		})
	}

	_, err := reg.Sort("createdAt")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestVersion_Validate(t *testing.T) {
	_, err := CreateInput{Code: "X", Name: "X", EffectiveDate: day("2025-01-01"), ExpiryDate: dayPtr("2025-01-01")}.
		build("scope", id.New(), time.Now())
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = CreateInput{Name: "X", EffectiveDate: day("2025-01-01")}.build("scope", id.New(), time.Now())
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = CreateInput{Code: "X", Name: "X"}.build("scope", id.New(), time.Now())
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	v, err := CreateInput{
		Code:          " X ",
		Name:          "Version X",
		EffectiveDate: time.Date(2025, 1, 1, 15, 30, 0, 0, time.UTC),
	}.build("scope", id.New(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "X", v.Code)
	assert.Equal(t, day("2025-01-01"), v.EffectiveDate)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, day("2025-04-01"), d)

	_, err = ParseDate("04/01/2025")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
