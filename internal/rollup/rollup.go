// Package rollup folds normalized facts into per-entity totals at every
// hierarchy level: rep, manager, VP (top of each rep's chain), and company.
// Accumulation is a commutative fold over sums and counts only, so results
// are identical regardless of fact ordering.
package rollup

import (
	"sort"
	"strings"

	"github.com/sells-group/revops-cli/internal/hierarchy"
	"github.com/sells-group/revops-cli/internal/model"
)

// Scope limits aggregation to a set of rep ids. A nil RepIDs means all reps.
type Scope struct {
	RepIDs []string
}

// All is the unrestricted scope.
var All = Scope{}

// String renders the scope for run history.
func (s Scope) String() string {
	if s.RepIDs == nil {
		return "all"
	}
	return strings.Join(s.RepIDs, ",")
}

// Admits reports whether a rep's facts fall inside the scope.
func (s Scope) Admits(repID string) bool {
	if s.RepIDs == nil {
		return true
	}
	for _, id := range s.RepIDs {
		if id == repID {
			return true
		}
	}
	return false
}

// Filter returns the facts admitted by the scope. The unrestricted scope
// returns the input slice unchanged.
func (s Scope) Filter(facts []model.Fact) []model.Fact {
	if s.RepIDs == nil {
		return facts
	}
	out := make([]model.Fact, 0, len(facts))
	for _, f := range facts {
		if s.Admits(f.RepID) {
			out = append(out, f)
		}
	}
	return out
}

// Aggregate groups facts at all four levels for one period. Facts whose rep
// is missing from the directory are kept at the rep level so totals are
// never silently dropped, and fold into the synthetic "(unassigned)" group
// at manager and VP level. The same applies to reps caught in a hierarchy
// cycle: their chain is unresolvable.
func Aggregate(facts []model.Fact, idx *hierarchy.Index, periodKey string, scope Scope) []model.RollupGroup {
	groups := make(map[groupKey]*model.RollupGroup)

	for i := range facts {
		f := &facts[i]
		if !scope.Admits(f.RepID) {
			continue
		}

		fold(groups, periodKey, model.LevelRep, f.RepID, f)
		fold(groups, periodKey, model.LevelManager, managerEntity(idx, f.RepID), f)
		fold(groups, periodKey, model.LevelVP, vpEntity(idx, f.RepID), f)
		fold(groups, periodKey, model.LevelCompany, model.CompanyEntity, f)
	}

	out := make([]model.RollupGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	// Stable output order for rendering; sums are order-independent already.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return levelRank(out[i].Level) < levelRank(out[j].Level)
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

type groupKey struct {
	level  model.Level
	entity string
}

func fold(groups map[groupKey]*model.RollupGroup, periodKey string, level model.Level, entity string, f *model.Fact) {
	k := groupKey{level: level, entity: entity}
	g, ok := groups[k]
	if !ok {
		g = model.NewRollupGroup(periodKey, level, entity)
		groups[k] = g
	}

	g.Amounts[f.Bucket] += f.Amount
	g.Counts[f.Bucket]++

	if f.Bucket.Closed() {
		if f.IsPartner {
			g.PartnerClosedAmount += f.Amount
			g.PartnerClosedCount++
			if f.Bucket == model.BucketWon {
				g.PartnerWonAmount += f.Amount
				g.PartnerWonCount++
			}
		}
		if f.AgeDays != nil {
			g.CycleDaySum[f.Bucket] += float64(*f.AgeDays)
			g.CycleDayCount[f.Bucket]++
		}
	}
}

// managerEntity resolves the manager-level group for a rep's facts. Roots,
// unknown reps and cyclic reps all land in "(unassigned)": a manager group
// contains exactly its direct reports' totals, never the manager's own.
func managerEntity(idx *hierarchy.Index, repID string) string {
	if idx == nil || !idx.Known(repID) || idx.Cyclic(repID) {
		return model.UnassignedEntity
	}
	if p := idx.ParentOf(repID); p != "" {
		return p
	}
	return model.UnassignedEntity
}

// vpEntity resolves the top-of-chain group for a rep's facts.
func vpEntity(idx *hierarchy.Index, repID string) string {
	if idx == nil || !idx.Known(repID) || idx.Cyclic(repID) {
		return model.UnassignedEntity
	}
	return idx.Root(repID)
}

func levelRank(l model.Level) int {
	switch l {
	case model.LevelRep:
		return 0
	case model.LevelManager:
		return 1
	case model.LevelVP:
		return 2
	default:
		return 3
	}
}

// Find returns the group for (level, entity), if present.
func Find(groups []model.RollupGroup, level model.Level, entity string) (model.RollupGroup, bool) {
	for _, g := range groups {
		if g.Level == level && g.EntityID == entity {
			return g, true
		}
	}
	return model.RollupGroup{}, false
}
