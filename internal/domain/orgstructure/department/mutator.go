package department

import (
	"context"
	"fmt"
	"time"

	"orgstruct/internal/core/apperror"
	"orgstruct/internal/core/entity"
	"orgstruct/internal/core/id"
)

// Changeset lists the rows a successful mutation produced.
type Changeset struct {
	Inserted []*Department
	Updated  []*Department
}

// IsEmpty reports whether nothing needs to be persisted.
func (c Changeset) IsEmpty() bool {
	return len(c.Inserted) == 0 && len(c.Updated) == 0
}

// Size returns the number of touched rows.
func (c Changeset) Size() int {
	return len(c.Inserted) + len(c.Updated)
}

// Mutator applies structural edits to a Tree.
//
// Each operation validates first and stages its edits on a clone of the tree;
// the tree is replaced by the clone only when the whole operation succeeded,
// so a failed call leaves it untouched.
type Mutator struct {
	identity *IdentityMapper
	now      func() time.Time
}

// NewMutator creates a Mutator.
func NewMutator(identity *IdentityMapper) *Mutator {
	return &Mutator{identity: identity, now: time.Now}
}

// Create adds a department under in.ParentID, or as a root.
func (m *Mutator) Create(t *Tree, in CreateInput) (*Department, Changeset, error) {
	if err := in.Normalize(); err != nil {
		return nil, Changeset{}, err
	}
	if _, exists := t.FindByCode(in.Code); exists {
		return nil, Changeset{}, apperror.NewDepartmentCodeDuplicate(in.Code)
	}

	var created *Department
	cs, err := m.stage(t, func(staged *Tree) (Changeset, error) {
		var parent *Department
		if in.ParentID != nil {
			p, ok := staged.nodes[*in.ParentID]
			if !ok {
				return Changeset{}, apperror.NewParentDepartmentNotFound(*in.ParentID)
			}
			parent = p
		}

		created = &Department{
			ID:                 m.identity.Mint(),
			VersionID:          staged.versionID,
			StableID:           m.identity.Mint(),
			Code:               in.Code,
			Name:               in.Name,
			NameShort:          in.NameShort,
			SortOrder:          in.SortOrder,
			HierarchyLevel:     Level(parent),
			HierarchyPath:      Path(parent, in.Code),
			OrgUnitType:        clearableEnum(in.OrgUnitType),
			ResponsibilityType: clearableEnum(in.ResponsibilityType),
			ExternalCenterCode: in.ExternalCenterCode,
			Notes:              in.Notes,
			IsActive:           true,
			Timestamps:         entity.NewTimestamps(m.now()),
		}
		if parent != nil {
			created.ParentID = id.Ptr(parent.ID)
		}
		staged.insert(created)

		return Changeset{Inserted: []*Department{created}}, nil
	})
	if err != nil {
		return nil, Changeset{}, err
	}
	return created, cs, nil
}

// Update patches metadata. Parent and code are not reachable from here, so
// level and path never change.
func (m *Mutator) Update(t *Tree, deptID id.ID, in UpdateInput) (*Department, Changeset, error) {
	if _, err := t.FindByID(deptID); err != nil {
		return nil, Changeset{}, err
	}
	if err := in.Validate(context.Background()); err != nil {
		return nil, Changeset{}, err
	}
	if in.IsEmpty() {
		d, _ := t.FindByID(deptID)
		return d, Changeset{}, nil
	}

	var updated *Department
	cs, err := m.stage(t, func(staged *Tree) (Changeset, error) {
		updated = staged.nodes[deptID]
		in.apply(updated)
		updated.Touch(m.now())
		return Changeset{Updated: []*Department{updated}}, nil
	})
	if err != nil {
		return nil, Changeset{}, err
	}
	return updated, cs, nil
}

// Move reattaches deptID under newParentID (nil makes it a root) and
// recomputes level and path for the node and its whole subtree.
func (m *Mutator) Move(t *Tree, deptID id.ID, newParentID *id.ID) (*Department, Changeset, error) {
	node, err := t.FindByID(deptID)
	if err != nil {
		return nil, Changeset{}, err
	}
	if newParentID != nil {
		if _, ok := t.nodes[*newParentID]; !ok {
			return nil, Changeset{}, apperror.NewParentDepartmentNotFound(*newParentID)
		}
		if *newParentID == deptID || t.IsDescendantOf(*newParentID, deptID) {
			return nil, Changeset{}, apperror.NewCircularHierarchy(deptID, *newParentID)
		}
	}
	if id.Equal(node.ParentID, newParentID) {
		return node, Changeset{}, nil
	}

	var moved *Department
	cs, err := m.stage(t, func(staged *Tree) (Changeset, error) {
		moved = staged.nodes[deptID]
		staged.reparent(moved, newParentID)

		changed, err := RecomputeSubtree(staged, deptID)
		if err != nil {
			return Changeset{}, fmt.Errorf("move department: %w", err)
		}

		now := m.now()
		updated := make([]*Department, 0, len(changed)+1)
		updated = append(updated, moved)
		for _, d := range changed {
			d.Touch(now)
			if d.ID != moved.ID {
				updated = append(updated, d)
			}
		}
		moved.Touch(now)
		return Changeset{Updated: updated}, nil
	})
	if err != nil {
		return nil, Changeset{}, err
	}
	return moved, cs, nil
}

// Deactivate marks the department inactive. Children are left as they are.
func (m *Mutator) Deactivate(t *Tree, deptID id.ID) (*Department, Changeset, error) {
	return m.setActive(t, deptID, false)
}

// Reactivate marks an inactive department active again.
func (m *Mutator) Reactivate(t *Tree, deptID id.ID) (*Department, Changeset, error) {
	return m.setActive(t, deptID, true)
}

func (m *Mutator) setActive(t *Tree, deptID id.ID, active bool) (*Department, Changeset, error) {
	node, err := t.FindByID(deptID)
	if err != nil {
		return nil, Changeset{}, err
	}
	if node.IsActive == active {
		if active {
			return nil, Changeset{}, apperror.NewDepartmentAlreadyActive(deptID)
		}
		return nil, Changeset{}, apperror.NewDepartmentAlreadyInactive(deptID)
	}

	var updated *Department
	cs, err := m.stage(t, func(staged *Tree) (Changeset, error) {
		updated = staged.nodes[deptID]
		updated.IsActive = active
		updated.Touch(m.now())
		return Changeset{Updated: []*Department{updated}}, nil
	})
	if err != nil {
		return nil, Changeset{}, err
	}
	return updated, cs, nil
}

// stage runs fn against a clone of t and swaps the clone in on success.
func (m *Mutator) stage(t *Tree, fn func(staged *Tree) (Changeset, error)) (Changeset, error) {
	staged := t.Clone()
	cs, err := fn(staged)
	if err != nil {
		return Changeset{}, err
	}
	t.adopt(staged)
	return cs, nil
}
