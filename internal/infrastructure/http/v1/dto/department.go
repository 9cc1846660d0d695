package dto

import (
	"time"

	"orgstruct/internal/core/id"
	"orgstruct/internal/domain/orgstructure/department"
)

// DepartmentResponse is the wire form of a department.
type DepartmentResponse struct {
	ID                  string    `json:"id"`
	VersionID           string    `json:"versionId"`
	StableID            string    `json:"stableId"`
	DepartmentCode      string    `json:"departmentCode"`
	DepartmentName      string    `json:"departmentName"`
	DepartmentNameShort *string   `json:"departmentNameShort,omitempty"`
	ParentID            *string   `json:"parentId"`
	SortOrder           int       `json:"sortOrder"`
	HierarchyLevel      int       `json:"hierarchyLevel"`
	HierarchyPath       string    `json:"hierarchyPath"`
	OrgUnitType         *string   `json:"orgUnitType,omitempty"`
	ResponsibilityType  *string   `json:"responsibilityType,omitempty"`
	ExternalCenterCode  *string   `json:"externalCenterCode,omitempty"`
	Notes               *string   `json:"notes,omitempty"`
	IsActive            bool      `json:"isActive"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// FromDepartment creates DepartmentResponse from department.Department.
func FromDepartment(d *department.Department) DepartmentResponse {
	resp := DepartmentResponse{
		ID:                  d.ID.String(),
		VersionID:           d.VersionID.String(),
		StableID:            d.StableID.String(),
		DepartmentCode:      d.Code,
		DepartmentName:      d.Name,
		DepartmentNameShort: d.NameShort,
		SortOrder:           d.SortOrder,
		HierarchyLevel:      d.HierarchyLevel,
		HierarchyPath:       d.HierarchyPath,
		ExternalCenterCode:  d.ExternalCenterCode,
		Notes:               d.Notes,
		IsActive:            d.IsActive,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
	if d.ParentID != nil {
		s := d.ParentID.String()
		resp.ParentID = &s
	}
	if d.OrgUnitType != nil {
		s := string(*d.OrgUnitType)
		resp.OrgUnitType = &s
	}
	if d.ResponsibilityType != nil {
		s := string(*d.ResponsibilityType)
		resp.ResponsibilityType = &s
	}
	return resp
}

// FromDepartments maps a slice of departments.
func FromDepartments(ds []*department.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, FromDepartment(d))
	}
	return out
}

// TreeNodeResponse is a department with its visible children.
type TreeNodeResponse struct {
	DepartmentResponse
	// Matched is false for ancestors kept only to connect a match to its root
	Matched  bool               `json:"matched"`
	Children []TreeNodeResponse `json:"children"`
}

// FromTree maps a filtered forest.
func FromTree(nodes []*department.TreeNode) []TreeNodeResponse {
	out := make([]TreeNodeResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, TreeNodeResponse{
			DepartmentResponse: FromDepartment(n.Department),
			Matched:            n.Matched,
			Children:           FromTree(n.Children),
		})
	}
	return out
}

// TreeQuery holds tree filter parameters.
type TreeQuery struct {
	Keyword     string `form:"keyword"`
	IsActive    *bool  `form:"isActive"`
	OrgUnitType string `form:"orgUnitType"`
}

// ToFilter converts the query to the domain filter.
func (q *TreeQuery) ToFilter() (department.TreeFilter, error) {
	unitType, err := department.ParseOrgUnitType(q.OrgUnitType)
	if err != nil {
		return department.TreeFilter{}, err
	}
	return department.TreeFilter{
		Keyword:     q.Keyword,
		IsActive:    q.IsActive,
		OrgUnitType: unitType,
	}, nil
}

// SubtreeQuery holds subtree parameters.
type SubtreeQuery struct {
	IncludeDescendants *bool `form:"includeDescendants"`
}

// Include returns the flag, defaulting to true.
func (q *SubtreeQuery) Include() bool {
	return q.IncludeDescendants == nil || *q.IncludeDescendants
}

// CreateDepartmentRequest creates a department. Level and path are derived
// and cannot be supplied.
type CreateDepartmentRequest struct {
	DepartmentCode      string  `json:"departmentCode" binding:"required"`
	DepartmentName      string  `json:"departmentName" binding:"required"`
	DepartmentNameShort *string `json:"departmentNameShort"`
	ParentID            *string `json:"parentId"`
	SortOrder           int     `json:"sortOrder"`
	OrgUnitType         *string `json:"orgUnitType"`
	ResponsibilityType  *string `json:"responsibilityType"`
	ExternalCenterCode  *string `json:"externalCenterCode"`
	Notes               *string `json:"notes"`
}

// ToInput converts the request to the domain input.
func (r *CreateDepartmentRequest) ToInput() (department.CreateInput, error) {
	parentID, err := parseOptionalID("parentId", r.ParentID)
	if err != nil {
		return department.CreateInput{}, err
	}
	unitType, err := department.ParseOrgUnitType(deref(r.OrgUnitType))
	if err != nil {
		return department.CreateInput{}, err
	}
	respType, err := department.ParseResponsibilityType(deref(r.ResponsibilityType))
	if err != nil {
		return department.CreateInput{}, err
	}
	return department.CreateInput{
		Code:               r.DepartmentCode,
		Name:               r.DepartmentName,
		NameShort:          r.DepartmentNameShort,
		ParentID:           parentID,
		SortOrder:          r.SortOrder,
		OrgUnitType:        unitType,
		ResponsibilityType: respType,
		ExternalCenterCode: r.ExternalCenterCode,
		Notes:              r.Notes,
	}, nil
}

// UpdateDepartmentRequest patches metadata. Omitted fields are unchanged;
// an empty string clears an optional field.
type UpdateDepartmentRequest struct {
	DepartmentName      *string `json:"departmentName"`
	DepartmentNameShort *string `json:"departmentNameShort"`
	SortOrder           *int    `json:"sortOrder"`
	OrgUnitType         *string `json:"orgUnitType"`
	ResponsibilityType  *string `json:"responsibilityType"`
	ExternalCenterCode  *string `json:"externalCenterCode"`
	Notes               *string `json:"notes"`
}

// ToInput converts the request to the domain input.
func (r *UpdateDepartmentRequest) ToInput() (department.UpdateInput, error) {
	in := department.UpdateInput{
		Name:               r.DepartmentName,
		NameShort:          r.DepartmentNameShort,
		SortOrder:          r.SortOrder,
		ExternalCenterCode: r.ExternalCenterCode,
		Notes:              r.Notes,
	}
	if r.OrgUnitType != nil {
		t := department.OrgUnitType(*r.OrgUnitType)
		if t != "" && !t.IsValid() {
			_, err := department.ParseOrgUnitType(*r.OrgUnitType)
			return in, err
		}
		in.OrgUnitType = &t
	}
	if r.ResponsibilityType != nil {
		t := department.ResponsibilityType(*r.ResponsibilityType)
		if t != "" && !t.IsValid() {
			_, err := department.ParseResponsibilityType(*r.ResponsibilityType)
			return in, err
		}
		in.ResponsibilityType = &t
	}
	return in, nil
}

// MoveDepartmentRequest reparents a department; a null parentId makes it a root.
type MoveDepartmentRequest struct {
	ParentID *string `json:"parentId"`
}

// ToParentID parses the target parent.
func (r *MoveDepartmentRequest) ToParentID() (*id.ID, error) {
	return parseOptionalID("parentId", r.ParentID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
