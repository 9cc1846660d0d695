package version

import (
	"slices"
	"strings"
	"time"

	"orgstruct/internal/core/apperror"
)

// OrderBy values accepted by Sort. A leading "-" sorts descending.
const (
	OrderEffectiveDate = "effectiveDate"
	OrderVersionCode   = "versionCode"
	OrderVersionName   = "versionName"

	DefaultOrderBy = "-" + OrderEffectiveDate
)

// Registry applies the scope-wide version rules to a snapshot of a scope's
// versions. It performs no I/O; the service loads the snapshot under a scope
// lock so the checks and the following write are not interleaved.
type Registry struct {
	versions []*Version
}

// NewRegistry wraps the versions of one scope.
func NewRegistry(versions []*Version) *Registry {
	return &Registry{versions: versions}
}

// CheckCreate validates a new version against every existing one.
func (r *Registry) CheckCreate(candidate *Version) error {
	return r.check(candidate, nil)
}

// CheckUpdate validates a patched version against every other version.
func (r *Registry) CheckUpdate(candidate *Version) error {
	return r.check(candidate, candidate)
}

func (r *Registry) check(candidate, self *Version) error {
	for _, v := range r.versions {
		if self != nil && v.ID == self.ID {
			continue
		}
		if v.Code == candidate.Code {
			return apperror.NewVersionCodeDuplicate(candidate.Code)
		}
	}
	for _, v := range r.versions {
		if self != nil && v.ID == self.ID {
			continue
		}
		if v.Overlaps(candidate.EffectiveDate, candidate.ExpiryDate) {
			return apperror.NewVersionDateOverlap(candidate.EffectiveDate, candidate.ExpiryDate, v.Code)
		}
	}
	return nil
}

// ResolveAsOf returns the version whose interval contains date.
// The non-overlap rule guarantees at most one match.
func (r *Registry) ResolveAsOf(date time.Time) (*Version, bool) {
	for _, v := range r.versions {
		if v.Contains(date) {
			return v, true
		}
	}
	return nil, false
}

// Sort returns the versions ordered by orderBy (empty means DefaultOrderBy).
// Ties fall back to the version code so the order is total.
func (r *Registry) Sort(orderBy string) ([]*Version, error) {
	if orderBy == "" {
		orderBy = DefaultOrderBy
	}
	field, desc := strings.CutPrefix(orderBy, "-")

	var cmp func(a, b *Version) int
	switch field {
	case OrderEffectiveDate:
		cmp = func(a, b *Version) int { return a.EffectiveDate.Compare(b.EffectiveDate) }
	case OrderVersionCode:
		cmp = func(a, b *Version) int { return strings.Compare(a.Code, b.Code) }
	case OrderVersionName:
		cmp = func(a, b *Version) int { return strings.Compare(a.Name, b.Name) }
	default:
		return nil, apperror.NewValidation("invalid orderBy").
			WithDetail("field", "orderBy").
			WithDetail("value", orderBy)
	}

	out := slices.Clone(r.versions)
	slices.SortStableFunc(out, func(a, b *Version) int {
		c := cmp(a, b)
		if c == 0 {
			c = strings.Compare(a.Code, b.Code)
		}
		if desc {
			return -c
		}
		return c
	})
	return out, nil
}
