package department

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgstruct/internal/core/id"
)

func TestLevelAndPath(t *testing.T) {
	assert.Equal(t, 1, Level(nil))
	assert.Equal(t, "/CORP", Path(nil, "CORP"))

	parent := &Department{HierarchyLevel: 2, HierarchyPath: "/CORP/SALES"}
	assert.Equal(t, 3, Level(parent))
	assert.Equal(t, "/CORP/SALES/SALES-1", Path(parent, "SALES-1"))
}

func TestRecomputeSubtree_RepairsStaleValues(t *testing.T) {
	tree, _, d := sampleTree(t)

	sales := tree.nodes[d["SALES"].ID]
	leaf := tree.nodes[d["SALES-1"].ID]
	sales.HierarchyLevel, sales.HierarchyPath = 9, "/stale"
	leaf.HierarchyLevel, leaf.HierarchyPath = 9, "/stale/SALES-1"

	changed, err := RecomputeSubtree(tree, d["CORP"].ID)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"SALES", "SALES-1"}, deptCodes(changed))
	assert.Equal(t, 2, sales.HierarchyLevel)
	assert.Equal(t, "/CORP/SALES/SALES-1", leaf.HierarchyPath)
	assert.NoError(t, VerifyHierarchy(tree))
}

func TestRecomputeSubtree_NothingToChange(t *testing.T) {
	tree, _, d := sampleTree(t)

	changed, err := RecomputeSubtree(tree, d["CORP"].ID)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestRecomputeSubtree_UnknownRoot(t *testing.T) {
	tree, _, _ := sampleTree(t)

	_, err := RecomputeSubtree(tree, id.New())
	assert.Error(t, err)
}

func TestVerifyHierarchy_DetectsDrift(t *testing.T) {
	tree, _, d := sampleTree(t)
	require.NoError(t, VerifyHierarchy(tree))

	tree.nodes[d["HR"].ID].HierarchyPath = "/HR"
	assert.Error(t, VerifyHierarchy(tree))
}
