// Package version manages time-bound organization structure versions:
// interval rules, as-of resolution and copying a version's department tree.
package version

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"orgstruct/internal/core/apperror"
	"orgstruct/internal/core/entity"
	"orgstruct/internal/core/id"
)

// DateLayout is the wire format of effective/expiry dates.
const DateLayout = "2006-01-02"

const (
	maxCodeLength = 64
	maxNameLength = 255
)

// Version is a named snapshot of the organization valid on [EffectiveDate, ExpiryDate).
type Version struct {
	ID      id.ID  `db:"id" json:"id"`
	ScopeID string `db:"scope_id" json:"scopeId"`

	Code string `db:"version_code" json:"versionCode"`
	Name string `db:"version_name" json:"versionName"`

	EffectiveDate time.Time `db:"effective_date" json:"effectiveDate"`
	// ExpiryDate is exclusive; nil means open-ended
	ExpiryDate *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`

	Description *string `db:"description" json:"description,omitempty"`

	entity.Timestamps
}

// Contains reports whether date falls in [EffectiveDate, ExpiryDate).
func (v *Version) Contains(date time.Time) bool {
	date = NormalizeDate(date)
	if date.Before(v.EffectiveDate) {
		return false
	}
	return v.ExpiryDate == nil || date.Before(*v.ExpiryDate)
}

// Overlaps reports whether v's interval intersects [effective, expiry).
// Half-open intervals touching at a boundary do not overlap.
func (v *Version) Overlaps(effective time.Time, expiry *time.Time) bool {
	// a.start < b.end && b.start < a.end, with nil end = +inf
	startsBeforeOtherEnds := expiry == nil || v.EffectiveDate.Before(*expiry)
	otherStartsBeforeEnd := v.ExpiryDate == nil || effective.Before(*v.ExpiryDate)
	return startsBeforeOtherEnds && otherStartsBeforeEnd
}

// Validate implements entity.Validatable.
func (v *Version) Validate(_ context.Context) error {
	if v.ScopeID == "" {
		return apperror.NewValidation("scope is required").WithDetail("field", "scopeId")
	}
	if v.Code == "" {
		return apperror.NewValidation("version code is required").WithDetail("field", "versionCode")
	}
	if utf8.RuneCountInString(v.Code) > maxCodeLength {
		return apperror.NewValidation("version code is too long").
			WithDetail("field", "versionCode").
			WithDetail("max", maxCodeLength)
	}
	if v.Name == "" {
		return apperror.NewValidation("version name is required").WithDetail("field", "versionName")
	}
	if utf8.RuneCountInString(v.Name) > maxNameLength {
		return apperror.NewValidation("version name is too long").
			WithDetail("field", "versionName").
			WithDetail("max", maxNameLength)
	}
	if v.EffectiveDate.IsZero() {
		return apperror.NewValidation("effective date is required").WithDetail("field", "effectiveDate")
	}
	if v.ExpiryDate != nil && !v.ExpiryDate.After(v.EffectiveDate) {
		return apperror.NewValidation("expiry date must be after effective date").
			WithDetail("field", "expiryDate").
			WithDetail("effective_date", v.EffectiveDate.Format(DateLayout)).
			WithDetail("expiry_date", v.ExpiryDate.Format(DateLayout))
	}
	return nil
}

// CreateInput describes a new version (or the target of a copy).
type CreateInput struct {
	Code          string
	Name          string
	EffectiveDate time.Time
	ExpiryDate    *time.Time
	Description   *string
}

// build turns the input into a normalized, validated Version.
func (in CreateInput) build(scopeID string, versionID id.ID, now time.Time) (*Version, error) {
	v := &Version{
		ID:            versionID,
		ScopeID:       scopeID,
		Code:          strings.TrimSpace(in.Code),
		Name:          strings.TrimSpace(in.Name),
		EffectiveDate: NormalizeDate(in.EffectiveDate),
		ExpiryDate:    normalizeOptionalDate(in.ExpiryDate),
		Description:   trimOptional(in.Description),
		Timestamps:    entity.NewTimestamps(now),
	}
	if err := v.Validate(context.Background()); err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateInput is a partial version patch. Nil fields are left unchanged.
type UpdateInput struct {
	Code          *string
	Name          *string
	EffectiveDate *time.Time
	ExpiryDate    *time.Time
	// ClearExpiryDate makes the version open-ended; it wins over ExpiryDate
	ClearExpiryDate bool
	Description     *string
}

// apply returns a patched copy of v; v itself is not modified.
func (in UpdateInput) apply(v *Version, now time.Time) (*Version, error) {
	out := *v
	if in.Code != nil {
		out.Code = strings.TrimSpace(*in.Code)
	}
	if in.Name != nil {
		out.Name = strings.TrimSpace(*in.Name)
	}
	if in.EffectiveDate != nil {
		out.EffectiveDate = NormalizeDate(*in.EffectiveDate)
	}
	switch {
	case in.ClearExpiryDate:
		out.ExpiryDate = nil
	case in.ExpiryDate != nil:
		out.ExpiryDate = normalizeOptionalDate(in.ExpiryDate)
	}
	if in.Description != nil {
		out.Description = trimOptional(in.Description)
	}
	out.Touch(now)

	if err := out.Validate(context.Background()); err != nil {
		return nil, err
	}
	return &out, nil
}

// NormalizeDate truncates t to its calendar day in UTC.
func NormalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date, expected YYYY-MM-DD").
			WithDetail("value", s)
	}
	return t, nil
}

func normalizeOptionalDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := NormalizeDate(*t)
	return &n
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
