package department

import (
	"fmt"
	"time"

	"orgstruct/internal/core/entity"
	"orgstruct/internal/core/id"
)

// IDMap maps source department ids to the ids of their copies.
type IDMap map[id.ID]id.ID

// IdentityMapper hands out stable ids and carries them across version copies.
type IdentityMapper struct {
	newID func() id.ID
	now   func() time.Time
}

// NewIdentityMapper creates a mapper minting UUIDv7 ids.
func NewIdentityMapper() *IdentityMapper {
	return &IdentityMapper{newID: id.New, now: time.Now}
}

// Mint returns a fresh id. Used for both version-scoped ids and new stable ids.
func (m *IdentityMapper) Mint() id.ID {
	return m.newID()
}

// CloneTree copies src into a new tree owned by targetVersionID.
// Every copy gets a new id and keeps its stableId; parent edges are remapped to
// the new ids and level/path are recomputed rather than copied.
func (m *IdentityMapper) CloneTree(src *Tree, targetVersionID id.ID) (*Tree, IDMap, error) {
	now := m.now()
	dst := NewEmptyTree(targetVersionID)
	idMap := make(IDMap, src.Len())

	// Nodes() is breadth-first, so a parent is always copied before its children.
	for _, node := range src.Nodes() {
		cp := node.Clone()
		cp.ID = m.newID()
		cp.VersionID = targetVersionID
		cp.Timestamps = entity.NewTimestamps(now)

		if node.ParentID != nil {
			newParent, ok := idMap[*node.ParentID]
			if !ok {
				return nil, nil, fmt.Errorf("clone tree: parent of %s not copied yet", node.ID)
			}
			cp.ParentID = id.Ptr(newParent)
		}

		idMap[node.ID] = cp.ID
		dst.insert(cp)
	}

	for _, root := range dst.Roots() {
		if _, err := RecomputeSubtree(dst, root.ID); err != nil {
			return nil, nil, fmt.Errorf("clone tree: %w", err)
		}
	}

	return dst, idMap, nil
}
