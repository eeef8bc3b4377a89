// Package hierarchy builds parent/children indexes over the flat rep
// directory. The directory is externally supplied and not guaranteed
// acyclic, so every walk is guarded by a visited set and cycles surface as a
// distinct error instead of an infinite loop.
package hierarchy

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revops-cli/internal/model"
)

// Index is the derived parent-of / children-of lookup over a rep directory.
// Active-only filtering is the caller's concern; historical rollups need
// inactive reps too.
type Index struct {
	entries  map[string]model.RepEntry
	parent   map[string]string
	children map[string][]string
	cyclic   map[string]bool
}

// CycleError reports reps whose ancestor chain loops back on itself.
type CycleError struct {
	RepIDs []string
}

func (e *CycleError) Error() string {
	return "hierarchy: cycle detected involving reps: " + strings.Join(e.RepIDs, ", ")
}

// BuildIndex constructs the index from the flat directory. When cycles
// exist the index is still returned and usable: cyclic reps are detached
// from their parents (they roll up as unassigned) and the returned error is
// a *CycleError naming them. Reps outside any cycle are unaffected.
func BuildIndex(entries []model.RepEntry) (*Index, error) {
	idx := &Index{
		entries:  make(map[string]model.RepEntry, len(entries)),
		parent:   make(map[string]string, len(entries)),
		children: make(map[string][]string),
		cyclic:   make(map[string]bool),
	}

	for _, e := range entries {
		if e.ID == "" {
			continue
		}
		idx.entries[e.ID] = e
		if e.ParentID != "" && e.ParentID != e.ID {
			idx.parent[e.ID] = e.ParentID
		}
	}

	// Mark every rep whose parent chain revisits a node. Chains that run
	// into a rep missing from the directory terminate normally.
	for id := range idx.entries {
		if idx.onCycle(id) {
			idx.cyclic[id] = true
		}
	}
	// Self-parent entries are degenerate cycles.
	for _, e := range entries {
		if e.ID != "" && e.ParentID == e.ID {
			idx.cyclic[e.ID] = true
		}
	}

	// Detach cyclic reps so downstream walks are safe.
	for id := range idx.cyclic {
		delete(idx.parent, id)
	}

	for child, parent := range idx.parent {
		idx.children[parent] = append(idx.children[parent], child)
	}
	for _, kids := range idx.children {
		sort.Strings(kids)
	}

	if len(idx.cyclic) > 0 {
		ids := make([]string, 0, len(idx.cyclic))
		for id := range idx.cyclic {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return idx, eris.Wrap(&CycleError{RepIDs: ids}, "hierarchy: build index")
	}
	return idx, nil
}

// onCycle walks the parent chain from id with a visited set.
func (x *Index) onCycle(id string) bool {
	seen := map[string]bool{}
	for cur := id; cur != ""; cur = x.parent[cur] {
		if seen[cur] {
			return true
		}
		seen[cur] = true
	}
	return false
}

// ParentOf returns the manager rep id, or "" when the rep is a root, cyclic,
// or unknown.
func (x *Index) ParentOf(repID string) string {
	return x.parent[repID]
}

// ChildrenOf returns the direct reports of repID, sorted by id.
func (x *Index) ChildrenOf(repID string) []string {
	return x.children[repID]
}

// Entry returns the directory entry for repID.
func (x *Index) Entry(repID string) (model.RepEntry, bool) {
	e, ok := x.entries[repID]
	return e, ok
}

// Known reports whether repID appears in the directory.
func (x *Index) Known(repID string) bool {
	_, ok := x.entries[repID]
	return ok
}

// Cyclic reports whether repID was part of a detected cycle.
func (x *Index) Cyclic(repID string) bool {
	return x.cyclic[repID]
}

// AncestorChain returns the chain of manager ids from repID's direct parent
// up to the root, exclusive of repID itself. Returns a *CycleError when the
// rep was part of a cycle: its true chain is unresolvable.
func (x *Index) AncestorChain(repID string) ([]string, error) {
	if x.cyclic[repID] {
		return nil, &CycleError{RepIDs: []string{repID}}
	}
	var chain []string
	for cur := x.parent[repID]; cur != ""; cur = x.parent[cur] {
		chain = append(chain, cur)
	}
	return chain, nil
}

// Root returns the topmost ancestor of repID, or repID itself when it has no
// parent. Cyclic reps have no resolvable root and return "".
func (x *Index) Root(repID string) string {
	chain, err := x.AncestorChain(repID)
	if err != nil {
		return ""
	}
	if len(chain) == 0 {
		return repID
	}
	return chain[len(chain)-1]
}
