// Package department implements a version's department forest: the node model,
// hierarchy derivation, stable identity, the in-memory tree and its mutator.
package department

import (
	"context"
	"strings"
	"unicode/utf8"

	"orgstruct/internal/core/apperror"
	"orgstruct/internal/core/entity"
	"orgstruct/internal/core/id"
)

// MaxCodeLength bounds department codes (and therefore path segments).
const MaxCodeLength = 64

// MaxNameLength bounds department names.
const MaxNameLength = 255

// OrgUnitType classifies a department within the organization.
type OrgUnitType string

const (
	UnitCompany      OrgUnitType = "company"
	UnitHeadquarters OrgUnitType = "headquarters"
	UnitDivision     OrgUnitType = "division"
	UnitDepartment   OrgUnitType = "department"
	UnitSection      OrgUnitType = "section"
	UnitTeam         OrgUnitType = "team"
)

// IsValid reports whether t is a known unit type.
func (t OrgUnitType) IsValid() bool {
	switch t {
	case UnitCompany, UnitHeadquarters, UnitDivision, UnitDepartment, UnitSection, UnitTeam:
		return true
	}
	return false
}

// ResponsibilityType is the management-accounting role of a department.
type ResponsibilityType string

const (
	ProfitCenter     ResponsibilityType = "profit_center"
	CostCenter       ResponsibilityType = "cost_center"
	InvestmentCenter ResponsibilityType = "investment_center"
	RevenueCenter    ResponsibilityType = "revenue_center"
)

// IsValid reports whether t is a known responsibility type.
func (t ResponsibilityType) IsValid() bool {
	switch t {
	case ProfitCenter, CostCenter, InvestmentCenter, RevenueCenter:
		return true
	}
	return false
}

// ParseOrgUnitType validates a raw value. Empty input yields nil.
func ParseOrgUnitType(s string) (*OrgUnitType, error) {
	if s == "" {
		return nil, nil
	}
	t := OrgUnitType(s)
	if !t.IsValid() {
		return nil, apperror.NewValidation("invalid org unit type").
			WithDetail("field", "orgUnitType").
			WithDetail("value", s)
	}
	return &t, nil
}

// ParseResponsibilityType validates a raw value. Empty input yields nil.
func ParseResponsibilityType(s string) (*ResponsibilityType, error) {
	if s == "" {
		return nil, nil
	}
	t := ResponsibilityType(s)
	if !t.IsValid() {
		return nil, apperror.NewValidation("invalid responsibility type").
			WithDetail("field", "responsibilityType").
			WithDetail("value", s)
	}
	return &t, nil
}

// Department is one node of a version's forest.
//
// HierarchyLevel and HierarchyPath are derived from the parent chain and are
// only ever written by the hierarchy calculator.
type Department struct {
	// ID is unique within the version
	ID id.ID `db:"id" json:"id"`

	// VersionID is the owning version
	VersionID id.ID `db:"version_id" json:"versionId"`

	// StableID identifies the same organizational unit across versions
	StableID id.ID `db:"stable_id" json:"stableId"`

	Code      string  `db:"department_code" json:"departmentCode"`
	Name      string  `db:"department_name" json:"departmentName"`
	NameShort *string `db:"department_name_short" json:"departmentNameShort,omitempty"`

	// ParentID is nil for roots
	ParentID *id.ID `db:"parent_id" json:"parentId,omitempty"`

	SortOrder int `db:"sort_order" json:"sortOrder"`

	HierarchyLevel int    `db:"hierarchy_level" json:"hierarchyLevel"`
	HierarchyPath  string `db:"hierarchy_path" json:"hierarchyPath"`

	OrgUnitType        *OrgUnitType        `db:"org_unit_type" json:"orgUnitType,omitempty"`
	ResponsibilityType *ResponsibilityType `db:"responsibility_type" json:"responsibilityType,omitempty"`
	ExternalCenterCode *string             `db:"external_center_code" json:"externalCenterCode,omitempty"`
	Notes              *string             `db:"notes" json:"notes,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`

	entity.Timestamps
}

// IsRoot returns true if the department has no parent.
func (d *Department) IsRoot() bool {
	return d.ParentID == nil
}

// Clone returns a deep copy, so staged edits never leak into the original.
func (d *Department) Clone() *Department {
	c := *d
	c.NameShort = cloneString(d.NameShort)
	c.ExternalCenterCode = cloneString(d.ExternalCenterCode)
	c.Notes = cloneString(d.Notes)
	if d.ParentID != nil {
		c.ParentID = id.Ptr(*d.ParentID)
	}
	if d.OrgUnitType != nil {
		t := *d.OrgUnitType
		c.OrgUnitType = &t
	}
	if d.ResponsibilityType != nil {
		t := *d.ResponsibilityType
		c.ResponsibilityType = &t
	}
	return &c
}

// Validate implements entity.Validatable.
func (d *Department) Validate(_ context.Context) error {
	if err := validateCode(d.Code); err != nil {
		return err
	}
	if err := validateName(d.Name); err != nil {
		return err
	}
	if d.OrgUnitType != nil && !d.OrgUnitType.IsValid() {
		return apperror.NewValidation("invalid org unit type").
			WithDetail("field", "orgUnitType").
			WithDetail("value", string(*d.OrgUnitType))
	}
	if d.ResponsibilityType != nil && !d.ResponsibilityType.IsValid() {
		return apperror.NewValidation("invalid responsibility type").
			WithDetail("field", "responsibilityType").
			WithDetail("value", string(*d.ResponsibilityType))
	}
	return nil
}

// CreateInput carries the caller-settable fields of a new department.
// Level and path are deliberately absent.
type CreateInput struct {
	Code               string
	Name               string
	NameShort          *string
	ParentID           *id.ID
	SortOrder          int
	OrgUnitType        *OrgUnitType
	ResponsibilityType *ResponsibilityType
	ExternalCenterCode *string
	Notes              *string
}

// Normalize trims text fields in place and validates the result.
func (in *CreateInput) Normalize() error {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.NameShort = trimOptional(in.NameShort)
	in.ExternalCenterCode = trimOptional(in.ExternalCenterCode)
	in.Notes = trimOptional(in.Notes)

	probe := Department{
		Code:               in.Code,
		Name:               in.Name,
		OrgUnitType:        in.OrgUnitType,
		ResponsibilityType: in.ResponsibilityType,
	}
	return probe.Validate(context.Background())
}

// UpdateInput is a metadata-only patch. Nil fields are left unchanged; an empty
// string clears an optional text field.
type UpdateInput struct {
	Name               *string
	NameShort          *string
	OrgUnitType        *OrgUnitType
	ResponsibilityType *ResponsibilityType
	ExternalCenterCode *string
	Notes              *string
	SortOrder          *int
}

// IsEmpty reports whether the patch changes nothing.
func (in *UpdateInput) IsEmpty() bool {
	return in.Name == nil && in.NameShort == nil && in.OrgUnitType == nil &&
		in.ResponsibilityType == nil && in.ExternalCenterCode == nil &&
		in.Notes == nil && in.SortOrder == nil
}

// Validate implements entity.Validatable.
func (in *UpdateInput) Validate(_ context.Context) error {
	if in.Name != nil {
		if err := validateName(strings.TrimSpace(*in.Name)); err != nil {
			return err
		}
	}
	if in.OrgUnitType != nil && *in.OrgUnitType != "" && !in.OrgUnitType.IsValid() {
		return apperror.NewValidation("invalid org unit type").
			WithDetail("field", "orgUnitType").
			WithDetail("value", string(*in.OrgUnitType))
	}
	if in.ResponsibilityType != nil && *in.ResponsibilityType != "" && !in.ResponsibilityType.IsValid() {
		return apperror.NewValidation("invalid responsibility type").
			WithDetail("field", "responsibilityType").
			WithDetail("value", string(*in.ResponsibilityType))
	}
	return nil
}

// apply writes the patch onto d. It assumes the patch was validated.
func (in *UpdateInput) apply(d *Department) {
	if in.Name != nil {
		d.Name = strings.TrimSpace(*in.Name)
	}
	if in.NameShort != nil {
		d.NameShort = trimOptional(in.NameShort)
	}
	if in.OrgUnitType != nil {
		d.OrgUnitType = clearableEnum(in.OrgUnitType)
	}
	if in.ResponsibilityType != nil {
		d.ResponsibilityType = clearableEnum(in.ResponsibilityType)
	}
	if in.ExternalCenterCode != nil {
		d.ExternalCenterCode = trimOptional(in.ExternalCenterCode)
	}
	if in.Notes != nil {
		d.Notes = trimOptional(in.Notes)
	}
	if in.SortOrder != nil {
		d.SortOrder = *in.SortOrder
	}
}

func validateCode(code string) error {
	switch {
	case code == "":
		return apperror.NewValidation("department code is required").
			WithDetail("field", "departmentCode")
	case utf8.RuneCountInString(code) > MaxCodeLength:
		return apperror.NewValidation("department code is too long").
			WithDetail("field", "departmentCode").
			WithDetail("max", MaxCodeLength)
	case strings.Contains(code, PathSeparator):
		return apperror.NewValidation("department code must not contain '/'").
			WithDetail("field", "departmentCode").
			WithDetail("value", code)
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperror.NewValidation("department name is required").
			WithDetail("field", "departmentName")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return apperror.NewValidation("department name is too long").
			WithDetail("field", "departmentName").
			WithDetail("max", MaxNameLength)
	}
	return nil
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

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// clearableEnum maps the empty value to nil.
func clearableEnum[T ~string](v *T) *T {
	if v == nil || *v == "" {
		return nil
	}
	c := *v
	return &c
}
