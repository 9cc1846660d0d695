package department

import (
	"strings"

	"orgstruct/internal/core/id"
)

// TreeFilter narrows the tree view. Zero value matches everything.
type TreeFilter struct {
	// Keyword matches code or name, case-insensitively
	Keyword     string
	IsActive    *bool
	OrgUnitType *OrgUnitType
}

// IsEmpty reports whether the filter matches every node.
func (f TreeFilter) IsEmpty() bool {
	return strings.TrimSpace(f.Keyword) == "" && f.IsActive == nil && f.OrgUnitType == nil
}

// Matches reports whether d satisfies every set criterion.
func (f TreeFilter) Matches(d *Department) bool {
	if f.IsActive != nil && d.IsActive != *f.IsActive {
		return false
	}
	if f.OrgUnitType != nil && (d.OrgUnitType == nil || *d.OrgUnitType != *f.OrgUnitType) {
		return false
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		if !strings.Contains(strings.ToLower(d.Code), kw) && !strings.Contains(strings.ToLower(d.Name), kw) {
			return false
		}
	}
	return true
}

// TreeNode is a nested view of a department and its visible children.
type TreeNode struct {
	*Department
	// Matched is false for ancestors kept only to connect a match to its root
	Matched  bool
	Children []*TreeNode
}

// FilterTree returns the forest restricted to matching nodes and their
// ancestors, in sibling order.
func FilterTree(t *Tree, f TreeFilter) []*TreeNode {
	keep := make(map[id.ID]bool, t.Len())
	t.Walk(func(d *Department) bool {
		if !f.Matches(d) {
			return true
		}
		keep[d.ID] = true
		for p := t.Parent(d); p != nil; p = t.Parent(p) {
			if _, seen := keep[p.ID]; seen {
				break
			}
			keep[p.ID] = false
		}
		return true
	})

	views := make(map[id.ID]*TreeNode, len(keep))
	var roots []*TreeNode
	// Breadth-first order guarantees the parent's view exists before the child's.
	t.Walk(func(d *Department) bool {
		matched, ok := keep[d.ID]
		if !ok {
			return true
		}
		view := &TreeNode{Department: d, Matched: matched}
		views[d.ID] = view
		if d.ParentID == nil {
			roots = append(roots, view)
		} else {
			parent := views[*d.ParentID]
			parent.Children = append(parent.Children, view)
		}
		return true
	})
	return roots
}
