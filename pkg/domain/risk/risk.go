// Package risk scores requirements for audit priority.
package risk

import (
	"math"

	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

// Normalisation ceilings and weights of the scoring model.
const (
	MaxSiblings     = 50
	MaxDepth        = 8
	MaxDependencies = 15
	MaxCycles       = 20

	ImportanceWeight   = 0.50
	SiblingsWeight     = 0.20
	DepthWeight        = 0.20
	DependenciesWeight = 0.10

	FreshnessPerCycle = 0.15
	AuditPenalty      = 0.5
)

// Inputs are the signals a single score is computed from.
type Inputs struct {
	Important       int
	SiblingCount    int
	Depth           int
	Dependencies    int
	NAudit          int
	LastAuditSprint *int
	CurrentSprint   int
	IsContainer     bool
}

// Score returns the risk of one requirement in [0, 100]. Containers score 0.
func Score(in Inputs) float64 {
	if in.IsContainer {
		return 0
	}

	normImportance := float64(in.Important) / 100
	normSiblings := math.Min(float64(in.SiblingCount)/MaxSiblings, 1)
	normDepth := math.Min(float64(in.Depth)/MaxDepth, 1)
	normDependencies := math.Min(float64(in.Dependencies)/MaxDependencies, 1)

	structural := ImportanceWeight*normImportance +
		SiblingsWeight*math.Log10(normSiblings*99+1) +
		DepthWeight*math.Pow(normDepth, 1.5) +
		DependenciesWeight*normDependencies

	raw := structural * Freshness(in.CurrentSprint, in.LastAuditSprint)
	if in.NAudit > 0 {
		raw *= AuditPenalty
	}
	return clamp(raw*100, 0, 100)
}

// CyclesSinceAudit returns the number of sprints since the last audit,
// clamped to [0, MaxCycles]. A never-audited requirement counts from sprint 0.
func CyclesSinceAudit(currentSprint int, lastAuditSprint *int) int {
	last := 0
	if lastAuditSprint != nil {
		last = *lastAuditSprint
	}
	cycles := currentSprint - last
	if cycles < 0 {
		return 0
	}
	if cycles > MaxCycles {
		return MaxCycles
	}
	return cycles
}

// Freshness returns the multiplier that re-inflates risk the longer a
// requirement goes unaudited.
func Freshness(currentSprint int, lastAuditSprint *int) float64 {
	return 1 + FreshnessPerCycle*float64(CyclesSinceAudit(currentSprint, lastAuditSprint))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Depths returns the scoring depth of every requirement. Roots are at 0 and
// each non-container level adds one; a child of a container sits at its
// container's depth. Requirements unreachable from a root are reported at 0.
func Depths(reqs []catalog.Requirement) map[string]int {
	children := catalog.ChildIndex(reqs)
	container := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		container[r.ID] = r.IsContainer
	}

	depths := make(map[string]int, len(reqs))
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		if _, seen := depths[id]; seen {
			return
		}
		depths[id] = depth
		next := depth + 1
		if container[id] {
			next = depth
		}
		for _, c := range children[id] {
			walk(c, next)
		}
	}
	for _, root := range catalog.Roots(reqs) {
		walk(root, 0)
	}
	for _, r := range reqs {
		if _, seen := depths[r.ID]; !seen {
			depths[r.ID] = 0
		}
	}
	return depths
}

// Recalculate performs a full risk pass over a catalog at currentSprint and
// returns a copy with Risk, SiblingCount and Descendants refreshed together.
func Recalculate(reqs []catalog.Requirement, currentSprint int) []catalog.Requirement {
	out := catalog.CloneAll(reqs)
	siblings := catalog.SiblingCounts(out)
	descendants := catalog.DescendantCounts(out)
	depths := Depths(out)

	for i := range out {
		r := &out[i]
		r.SiblingCount = siblings[r.ID]
		r.Descendants = descendants[r.ID]
		r.Risk = Score(Inputs{
			Important:       r.Important,
			SiblingCount:    r.SiblingCount,
			Depth:           depths[r.ID],
			Dependencies:    len(r.Dependencies),
			NAudit:          r.NAudit,
			LastAuditSprint: r.LastAuditSprint,
			CurrentSprint:   currentSprint,
			IsContainer:     r.IsContainer,
		})
	}
	return out
}
