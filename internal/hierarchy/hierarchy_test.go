package hierarchy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/revops-cli/internal/model"
)

func dir(entries ...model.RepEntry) []model.RepEntry { return entries }

func TestBuildIndex_ParentsAndChildren(t *testing.T) {
	idx, err := BuildIndex(dir(
		model.RepEntry{ID: "vp1", Active: true},
		model.RepEntry{ID: "mgr1", ParentID: "vp1", Active: true},
		model.RepEntry{ID: "mgr2", ParentID: "vp1", Active: true},
		model.RepEntry{ID: "rep1", ParentID: "mgr1", Active: true},
		model.RepEntry{ID: "rep2", ParentID: "mgr1", Active: false},
		model.RepEntry{ID: "rep3", ParentID: "mgr2", Active: true},
	))
	require.NoError(t, err)

	assert.Equal(t, "mgr1", idx.ParentOf("rep1"))
	assert.Equal(t, "", idx.ParentOf("vp1"))
	assert.Equal(t, []string{"rep1", "rep2"}, idx.ChildrenOf("mgr1"))
	assert.Equal(t, []string{"mgr1", "mgr2"}, idx.ChildrenOf("vp1"))

	// Inactive reps stay in the index; filtering is the caller's job.
	e, ok := idx.Entry("rep2")
	require.True(t, ok)
	assert.False(t, e.Active)
}

func TestAncestorChain(t *testing.T) {
	idx, err := BuildIndex(dir(
		model.RepEntry{ID: "vp1"},
		model.RepEntry{ID: "mgr1", ParentID: "vp1"},
		model.RepEntry{ID: "rep1", ParentID: "mgr1"},
	))
	require.NoError(t, err)

	chain, err := idx.AncestorChain("rep1")
	require.NoError(t, err)
	assert.Equal(t, []string{"mgr1", "vp1"}, chain)

	chain, err = idx.AncestorChain("vp1")
	require.NoError(t, err)
	assert.Empty(t, chain)

	assert.Equal(t, "vp1", idx.Root("rep1"))
	assert.Equal(t, "vp1", idx.Root("vp1"))
}

func TestBuildIndex_Forest(t *testing.T) {
	idx, err := BuildIndex(dir(
		model.RepEntry{ID: "vp1"},
		model.RepEntry{ID: "vp2"},
		model.RepEntry{ID: "rep1", ParentID: "vp1"},
		model.RepEntry{ID: "rep2", ParentID: "vp2"},
	))
	require.NoError(t, err)
	assert.Equal(t, "vp1", idx.Root("rep1"))
	assert.Equal(t, "vp2", idx.Root("rep2"))
}

func TestBuildIndex_DetectsCycle(t *testing.T) {
	idx, err := BuildIndex(dir(
		model.RepEntry{ID: "a", ParentID: "b"},
		model.RepEntry{ID: "b", ParentID: "a"},
		model.RepEntry{ID: "clean", ParentID: ""},
		model.RepEntry{ID: "rep1", ParentID: "clean"},
	))
	require.Error(t, err)

	var ce *CycleError
	require.True(t, errors.As(err, &ce))
	assert.ElementsMatch(t, []string{"a", "b"}, ce.RepIDs)

	// Cyclic reps are unresolvable...
	assert.True(t, idx.Cyclic("a"))
	_, chainErr := idx.AncestorChain("a")
	assert.Error(t, chainErr)

	// ...but the rest of the forest is unaffected.
	assert.False(t, idx.Cyclic("rep1"))
	chain, chainErr := idx.AncestorChain("rep1")
	require.NoError(t, chainErr)
	assert.Equal(t, []string{"clean"}, chain)
}

func TestBuildIndex_SelfParent(t *testing.T) {
	idx, err := BuildIndex(dir(model.RepEntry{ID: "a", ParentID: "a"}))
	require.Error(t, err)
	assert.True(t, idx.Cyclic("a"))
	assert.Equal(t, "", idx.ParentOf("a"))
}

func TestBuildIndex_DanglingParentTerminates(t *testing.T) {
	// Chains that run into an unknown rep id terminate normally.
	idx, err := BuildIndex(dir(model.RepEntry{ID: "rep1", ParentID: "ghost"}))
	require.NoError(t, err)
	chain, err := idx.AncestorChain("rep1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, chain)
	assert.False(t, idx.Known("ghost"))
}
