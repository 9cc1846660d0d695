package department

import (
	"testing"

	"github.com/stretchr/testify/require"

	"orgstruct/internal/core/id"
)

// sampleTree builds version "2025-04":
//
//	CORP
//	├── SALES
//	│   └── SALES-1
//	└── HR
func sampleTree(t *testing.T) (*Tree, *Mutator, map[string]*Department) {
	t.Helper()

	tree := NewEmptyTree(id.New())
	m := NewMutator(NewIdentityMapper())
	byCode := make(map[string]*Department)

	create := func(code, name string, parent string) {
		in := CreateInput{Code: code, Name: name}
		if parent != "" {
			in.ParentID = id.Ptr(byCode[parent].ID)
		}
		d, _, err := m.Create(tree, in)
		require.NoError(t, err)
		byCode[code] = d
	}

	create("CORP", "Corporation", "")
	create("SALES", "Sales", "CORP")
	create("SALES-1", "Sales One", "SALES")
	create("HR", "Human Resources", "CORP")

	return tree, m, byCode
}

// node re-reads a department from the tree; pointers captured before a
// mutation refer to the pre-mutation snapshot.
func node(t *testing.T, tree *Tree, code string) *Department {
	t.Helper()
	d, ok := tree.FindByCode(code)
	require.True(t, ok, "department %s not in tree", code)
	return d
}

func deptCodes(nodes []*Department) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Code)
	}
	return out
}
