package department

import (
	"fmt"
	"slices"
	"strings"

	"orgstruct/internal/core/apperror"
	"orgstruct/internal/core/id"
)

// Tree is the in-memory forest of one version.
//
// Nodes live in an arena keyed by id; parent edges are ids, and the children
// index is maintained incrementally on attach/detach. All traversals are
// iterative. A Tree is not safe for concurrent mutation; callers serialize
// writers per version.
type Tree struct {
	versionID id.ID
	nodes     map[id.ID]*Department
	byStable  map[id.ID]id.ID
	byCode    map[string]id.ID
	children  map[id.ID][]id.ID
	roots     []id.ID
}

// NewEmptyTree returns a tree with no departments.
func NewEmptyTree(versionID id.ID) *Tree {
	return &Tree{
		versionID: versionID,
		nodes:     make(map[id.ID]*Department),
		byStable:  make(map[id.ID]id.ID),
		byCode:    make(map[string]id.ID),
		children:  make(map[id.ID][]id.ID),
	}
}

// NewTree builds a tree from persisted rows.
// Rows must all belong to versionID; dangling parents, duplicate codes or
// stable ids, and cycles are rejected so a corrupt load is never served.
func NewTree(versionID id.ID, rows []*Department) (*Tree, error) {
	t := NewEmptyTree(versionID)

	for _, d := range rows {
		if d.VersionID != versionID {
			return nil, fmt.Errorf("department %s belongs to version %s, not %s", d.ID, d.VersionID, versionID)
		}
		if _, dup := t.nodes[d.ID]; dup {
			return nil, fmt.Errorf("duplicate department id %s", d.ID)
		}
		if _, dup := t.byCode[d.Code]; dup {
			return nil, apperror.NewDepartmentCodeDuplicate(d.Code)
		}
		if _, dup := t.byStable[d.StableID]; dup {
			return nil, fmt.Errorf("duplicate stable id %s in version %s", d.StableID, versionID)
		}
		t.nodes[d.ID] = d
		t.byCode[d.Code] = d.ID
		t.byStable[d.StableID] = d.ID
	}

	for _, d := range rows {
		if d.ParentID == nil {
			t.roots = append(t.roots, d.ID)
			continue
		}
		if _, ok := t.nodes[*d.ParentID]; !ok {
			return nil, apperror.NewParentDepartmentNotFound(*d.ParentID).
				WithDetail("department_id", d.ID)
		}
		t.children[*d.ParentID] = append(t.children[*d.ParentID], d.ID)
	}

	// Every node of a forest is reachable from a root; anything left over
	// hangs off a cycle.
	reached := make(map[id.ID]struct{}, len(t.nodes))
	t.walkFrom(t.roots, func(d *Department) bool {
		reached[d.ID] = struct{}{}
		return true
	})
	if len(reached) != len(t.nodes) {
		for _, d := range rows {
			if _, ok := reached[d.ID]; !ok {
				return nil, apperror.NewCircularHierarchy(d.ID, d.ParentID)
			}
		}
	}

	return t, nil
}

// VersionID returns the version owning this tree.
func (t *Tree) VersionID() id.ID { return t.versionID }

// Len returns the number of departments.
func (t *Tree) Len() int { return len(t.nodes) }

// FindByID returns the department or DepartmentNotFound.
func (t *Tree) FindByID(deptID id.ID) (*Department, error) {
	if d, ok := t.nodes[deptID]; ok {
		return d, nil
	}
	return nil, apperror.NewDepartmentNotFound(deptID)
}

// FindByStableID returns the department carrying stableID or DepartmentNotFound.
func (t *Tree) FindByStableID(stableID id.ID) (*Department, error) {
	if deptID, ok := t.byStable[stableID]; ok {
		return t.nodes[deptID], nil
	}
	return nil, apperror.NewDepartmentNotFound(stableID).WithDetail("stable_id", stableID)
}

// FindByCode looks up a department by its code.
func (t *Tree) FindByCode(code string) (*Department, bool) {
	deptID, ok := t.byCode[code]
	if !ok {
		return nil, false
	}
	return t.nodes[deptID], true
}

// Roots returns the departments without a parent, in sibling order.
func (t *Tree) Roots() []*Department {
	return t.sorted(t.roots)
}

// Children returns the direct children of deptID in sibling order.
func (t *Tree) Children(deptID id.ID) []*Department {
	return t.sorted(t.children[deptID])
}

// Parent returns the parent of d, or nil for a root.
func (t *Tree) Parent(d *Department) *Department {
	if d.ParentID == nil {
		return nil
	}
	return t.nodes[*d.ParentID]
}

// IsDescendantOf reports whether candidateID lies strictly below ancestorID.
// The ancestor walk is bounded by the node count, so a malformed chain
// terminates instead of looping.
func (t *Tree) IsDescendantOf(candidateID, ancestorID id.ID) bool {
	node, ok := t.nodes[candidateID]
	if !ok {
		return false
	}
	for steps := 0; node.ParentID != nil && steps < len(t.nodes); steps++ {
		if *node.ParentID == ancestorID {
			return true
		}
		node, ok = t.nodes[*node.ParentID]
		if !ok {
			return false
		}
	}
	return false
}

// Descendants returns every department below deptID, breadth-first.
func (t *Tree) Descendants(deptID id.ID) []*Department {
	var out []*Department
	t.walkFrom(t.sortedIDs(t.children[deptID]), func(d *Department) bool {
		out = append(out, d)
		return true
	})
	return out
}

// Walk visits every department breadth-first from the roots until fn returns false.
func (t *Tree) Walk(fn func(d *Department) bool) {
	t.walkFrom(t.sortedIDs(t.roots), fn)
}

// Nodes returns all departments in breadth-first order (parents before children).
func (t *Tree) Nodes() []*Department {
	out := make([]*Department, 0, len(t.nodes))
	t.Walk(func(d *Department) bool {
		out = append(out, d)
		return true
	})
	return out
}

// Subtree returns the department identified by stableID, followed by all of
// its descendants when includeDescendants is set. Downstream data-scope
// resolution uses this to expand "self and descendants".
func (t *Tree) Subtree(stableID id.ID, includeDescendants bool) ([]*Department, error) {
	root, err := t.FindByStableID(stableID)
	if err != nil {
		return nil, err
	}
	out := []*Department{root}
	if includeDescendants {
		out = append(out, t.Descendants(root.ID)...)
	}
	return out, nil
}

// Clone returns a deep copy of the tree; mutations on the copy leave t untouched.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		versionID: t.versionID,
		nodes:     make(map[id.ID]*Department, len(t.nodes)),
		byStable:  make(map[id.ID]id.ID, len(t.byStable)),
		byCode:    make(map[string]id.ID, len(t.byCode)),
		children:  make(map[id.ID][]id.ID, len(t.children)),
		roots:     slices.Clone(t.roots),
	}
	for k, v := range t.nodes {
		c.nodes[k] = v.Clone()
	}
	for k, v := range t.byStable {
		c.byStable[k] = v
	}
	for k, v := range t.byCode {
		c.byCode[k] = v
	}
	for k, v := range t.children {
		c.children[k] = slices.Clone(v)
	}
	return c
}

// --- mutation primitives (used by Mutator and IdentityMapper) ---

// insert adds a node whose parent, if any, is already present.
func (t *Tree) insert(d *Department) {
	t.nodes[d.ID] = d
	t.byCode[d.Code] = d.ID
	t.byStable[d.StableID] = d.ID
	t.attach(d.ID, d.ParentID)
}

// reparent moves d under newParentID (nil makes it a root).
func (t *Tree) reparent(d *Department, newParentID *id.ID) {
	t.detach(d.ID, d.ParentID)
	if newParentID != nil {
		d.ParentID = id.Ptr(*newParentID)
	} else {
		d.ParentID = nil
	}
	t.attach(d.ID, d.ParentID)
}

func (t *Tree) attach(deptID id.ID, parentID *id.ID) {
	if parentID == nil {
		t.roots = append(t.roots, deptID)
		return
	}
	t.children[*parentID] = append(t.children[*parentID], deptID)
}

func (t *Tree) detach(deptID id.ID, parentID *id.ID) {
	if parentID == nil {
		t.roots = slices.DeleteFunc(t.roots, func(v id.ID) bool { return v == deptID })
		return
	}
	siblings := slices.DeleteFunc(t.children[*parentID], func(v id.ID) bool { return v == deptID })
	if len(siblings) == 0 {
		delete(t.children, *parentID)
		return
	}
	t.children[*parentID] = siblings
}

// adopt replaces t's contents with staged's.
func (t *Tree) adopt(staged *Tree) {
	*t = *staged
}

// --- traversal helpers ---

func (t *Tree) walkFrom(start []id.ID, fn func(d *Department) bool) {
	queue := slices.Clone(start)
	for len(queue) > 0 {
		d := t.nodes[queue[0]]
		queue = queue[1:]
		if !fn(d) {
			return
		}
		queue = append(queue, t.sortedIDs(t.children[d.ID])...)
	}
}

func (t *Tree) sorted(ids []id.ID) []*Department {
	out := make([]*Department, 0, len(ids))
	for _, v := range t.sortedIDs(ids) {
		out = append(out, t.nodes[v])
	}
	return out
}

// sortedIDs orders siblings by sortOrder, name, code, then id.
func (t *Tree) sortedIDs(ids []id.ID) []id.ID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b id.ID) int {
		return compareSiblings(t.nodes[a], t.nodes[b])
	})
	return out
}

func compareSiblings(a, b *Department) int {
	if a.SortOrder != b.SortOrder {
		if a.SortOrder < b.SortOrder {
			return -1
		}
		return 1
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := strings.Compare(a.Code, b.Code); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}
