package department

import (
	"fmt"

	"orgstruct/internal/core/id"
)

// PathSeparator joins codes in a materialized hierarchy path.
const PathSeparator = "/"

// Level returns the hierarchy level of a node under parent (nil for a root).
func Level(parent *Department) int {
	if parent == nil {
		return 1
	}
	return parent.HierarchyLevel + 1
}

// Path returns the materialized path of a node with the given code under parent.
func Path(parent *Department, code string) string {
	if parent == nil {
		return PathSeparator + code
	}
	return parent.HierarchyPath + PathSeparator + code
}

// RecomputeSubtree rewrites level and path for rootID and every descendant,
// breadth-first so each parent is settled before its children are visited.
// It returns the nodes whose derived fields actually changed.
func RecomputeSubtree(t *Tree, rootID id.ID) ([]*Department, error) {
	root, ok := t.nodes[rootID]
	if !ok {
		return nil, fmt.Errorf("recompute subtree: node %s not in tree", rootID)
	}

	var changed []*Department
	visited := 0
	queue := []*Department{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		visited++
		if visited > len(t.nodes) {
			return nil, fmt.Errorf("recompute subtree: cycle below %s", rootID)
		}

		var parent *Department
		if node.ParentID != nil {
			parent = t.nodes[*node.ParentID]
		}
		level, path := Level(parent), Path(parent, node.Code)
		if node.HierarchyLevel != level || node.HierarchyPath != path {
			node.HierarchyLevel = level
			node.HierarchyPath = path
			changed = append(changed, node)
		}

		for _, childID := range t.children[node.ID] {
			queue = append(queue, t.nodes[childID])
		}
	}
	return changed, nil
}

// VerifyHierarchy checks that every node's level and path agree with its parent.
func VerifyHierarchy(t *Tree) error {
	for _, node := range t.nodes {
		var parent *Department
		if node.ParentID != nil {
			p, ok := t.nodes[*node.ParentID]
			if !ok {
				return fmt.Errorf("department %s: parent %s missing", node.ID, *node.ParentID)
			}
			parent = p
		}
		if want := Level(parent); node.HierarchyLevel != want {
			return fmt.Errorf("department %s: level %d, want %d", node.Code, node.HierarchyLevel, want)
		}
		if want := Path(parent, node.Code); node.HierarchyPath != want {
			return fmt.Errorf("department %s: path %q, want %q", node.Code, node.HierarchyPath, want)
		}
	}
	return nil
}
