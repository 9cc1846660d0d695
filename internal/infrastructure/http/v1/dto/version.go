package dto

import (
	"time"

	"orgstruct/internal/domain/orgstructure/version"
)

// VersionResponse is the wire form of a version.
type VersionResponse struct {
	ID            string    `json:"id"`
	VersionCode   string    `json:"versionCode"`
	VersionName   string    `json:"versionName"`
	EffectiveDate string    `json:"effectiveDate"`
	ExpiryDate    *string   `json:"expiryDate"`
	Description   *string   `json:"description,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// FromVersion creates VersionResponse from version.Version.
func FromVersion(v *version.Version) VersionResponse {
	return VersionResponse{
		ID:            v.ID.String(),
		VersionCode:   v.Code,
		VersionName:   v.Name,
		EffectiveDate: formatDate(v.EffectiveDate),
		ExpiryDate:    formatOptionalDate(v.ExpiryDate),
		Description:   v.Description,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

// FromVersions maps a slice of versions.
func FromVersions(vs []*version.Version) []VersionResponse {
	out := make([]VersionResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, FromVersion(v))
	}
	return out
}

// CreateVersionRequest creates a version (or the target of a copy).
type CreateVersionRequest struct {
	VersionCode   string  `json:"versionCode" binding:"required"`
	VersionName   string  `json:"versionName" binding:"required"`
	EffectiveDate string  `json:"effectiveDate" binding:"required"`
	ExpiryDate    *string `json:"expiryDate"`
	Description   *string `json:"description"`
}

// ToInput converts the request to the domain input.
func (r *CreateVersionRequest) ToInput() (version.CreateInput, error) {
	effective, err := parseDate("effectiveDate", r.EffectiveDate)
	if err != nil {
		return version.CreateInput{}, err
	}
	expiry, err := parseOptionalDate("expiryDate", r.ExpiryDate)
	if err != nil {
		return version.CreateInput{}, err
	}
	return version.CreateInput{
		Code:          r.VersionCode,
		Name:          r.VersionName,
		EffectiveDate: effective,
		ExpiryDate:    expiry,
		Description:   r.Description,
	}, nil
}

// UpdateVersionRequest is a partial update. An explicit empty expiryDate
// (or clearExpiryDate) makes the version open-ended.
type UpdateVersionRequest struct {
	VersionCode     *string `json:"versionCode"`
	VersionName     *string `json:"versionName"`
	EffectiveDate   *string `json:"effectiveDate"`
	ExpiryDate      *string `json:"expiryDate"`
	ClearExpiryDate bool    `json:"clearExpiryDate"`
	Description     *string `json:"description"`
}

// ToInput converts the request to the domain input.
func (r *UpdateVersionRequest) ToInput() (version.UpdateInput, error) {
	in := version.UpdateInput{
		Code:            r.VersionCode,
		Name:            r.VersionName,
		ClearExpiryDate: r.ClearExpiryDate || (r.ExpiryDate != nil && *r.ExpiryDate == ""),
		Description:     r.Description,
	}
	var err error
	if in.EffectiveDate, err = parseOptionalDate("effectiveDate", r.EffectiveDate); err != nil {
		return in, err
	}
	if in.ExpiryDate, err = parseOptionalDate("expiryDate", r.ExpiryDate); err != nil {
		return in, err
	}
	return in, nil
}

// ListVersionsQuery holds list parameters.
type ListVersionsQuery struct {
	OrderBy string `form:"orderBy"`
}

// AsOfQuery holds the as-of resolution date.
type AsOfQuery struct {
	Date string `form:"date" binding:"required"`
}

// CopyVersionResponse describes a finished copy.
type CopyVersionResponse struct {
	Version     VersionResponse `json:"version"`
	Departments int             `json:"departmentsCopied"`
}

// FromCopyResult creates CopyVersionResponse from version.CopyResult.
func FromCopyResult(r *version.CopyResult) CopyVersionResponse {
	return CopyVersionResponse{
		Version:     FromVersion(r.Version),
		Departments: r.Departments,
	}
}
