package department

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatten(nodes []*TreeNode) map[string]bool {
	out := make(map[string]bool)
	stack := append([]*TreeNode(nil), nodes...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out[n.Code] = n.Matched
		stack = append(stack, n.Children...)
	}
	return out
}

func TestFilterTree_EmptyFilterKeepsEverything(t *testing.T) {
	tree, _, _ := sampleTree(t)

	roots := FilterTree(tree, TreeFilter{})
	require.Len(t, roots, 1)
	assert.Equal(t, "CORP", roots[0].Code)
	assert.Len(t, roots[0].Children, 2)
	assert.Equal(t, map[string]bool{"CORP": true, "SALES": true, "SALES-1": true, "HR": true}, flatten(roots))
}

func TestFilterTree_KeywordKeepsAncestors(t *testing.T) {
	tree, _, _ := sampleTree(t)

	roots := FilterTree(tree, TreeFilter{Keyword: "sales one"})
	assert.Equal(t, map[string]bool{"CORP": false, "SALES": false, "SALES-1": true}, flatten(roots))

	byCode := FilterTree(tree, TreeFilter{Keyword: "hr"})
	assert.Equal(t, map[string]bool{"CORP": false, "HR": true}, flatten(byCode))
}

func TestFilterTree_ActiveAndUnitType(t *testing.T) {
	tree, m, d := sampleTree(t)
	unit := UnitTeam
	_, _, err := m.Update(tree, d["SALES-1"].ID, UpdateInput{OrgUnitType: &unit})
	require.NoError(t, err)
	_, _, err = m.Deactivate(tree, d["HR"].ID)
	require.NoError(t, err)

	inactive := false
	assert.Equal(t, map[string]bool{"CORP": false, "HR": true},
		flatten(FilterTree(tree, TreeFilter{IsActive: &inactive})))

	assert.Equal(t, map[string]bool{"CORP": false, "SALES": false, "SALES-1": true},
		flatten(FilterTree(tree, TreeFilter{OrgUnitType: &unit})))

	assert.Empty(t, FilterTree(tree, TreeFilter{Keyword: "nothing matches"}))
}

func TestTreeFilter_IsEmpty(t *testing.T) {
	assert.True(t, TreeFilter{Keyword: "  "}.IsEmpty())
	active := true
	assert.False(t, TreeFilter{IsActive: &active}.IsEmpty())
}
