// Package eligibility decides which requirements may enter the next audit
// cycle and ranks them into a proposal.
package eligibility

import (
	"sort"

	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

// DefaultProposalSize is the number of requirements proposed per selection.
const DefaultProposalSize = 10

// Proposal is the ranked outcome of a selection.
type Proposal struct {
	Selected []catalog.Requirement `json:"selected_requirements"`
	// TotalEligible counts eligible requirements before the avoid list and
	// truncation are applied.
	TotalEligible int `json:"total_requirements"`
}

// Index resolves requirement ids within one flat list.
type Index map[string]*catalog.Requirement

// NewIndex indexes reqs by id. The first occurrence of a repeated id wins.
func NewIndex(reqs []catalog.Requirement) Index {
	idx := make(Index, len(reqs))
	for i := range reqs {
		if _, dup := idx[reqs[i].ID]; !dup {
			idx[reqs[i].ID] = &reqs[i]
		}
	}
	return idx
}

// behindBy reports whether every id resolves to a requirement exactly one
// audit cycle behind nAudit. An absent id is never satisfied.
func (idx Index) behindBy(ids []string, nAudit int) bool {
	for _, id := range ids {
		other, ok := idx[id]
		if !ok || other.NAudit != nAudit-1 {
			return false
		}
	}
	return true
}

// IsEligible applies the audit ordering rules to r.
//
//   - Containers are never eligible.
//   - A leaf is always eligible.
//   - Once r has been audited, each declared dependency must be exactly one
//     cycle behind it. Dependencies are not consulted before the first audit.
//   - Each child must be exactly one cycle behind r.
func IsEligible(r catalog.Requirement, idx Index) bool {
	if r.IsContainer {
		return false
	}
	if r.IsLeaf() {
		return true
	}
	if r.NAudit > 0 && len(r.Dependencies) > 0 && !idx.behindBy(r.Dependencies, r.NAudit) {
		return false
	}
	return idx.behindBy(r.ChildrenIDs, r.NAudit)
}

// Eligible returns the eligible requirements of reqs in flat order.
func Eligible(reqs []catalog.Requirement) []catalog.Requirement {
	idx := NewIndex(reqs)
	out := make([]catalog.Requirement, 0)
	for _, r := range reqs {
		if IsEligible(r, idx) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Propose ranks the eligible requirements of one catalog by descending risk,
// drops those in avoid and keeps the top limit. A limit below one uses
// DefaultProposalSize.
func Propose(reqs []catalog.Requirement, avoid catalog.IDSet, limit int) Proposal {
	eligible := Eligible(reqs)
	return Proposal{
		Selected:      rank(eligible, avoid, limit),
		TotalEligible: len(eligible),
	}
}

// RankAcross pools requirements from any number of catalogs with positive
// risk and ranks them without applying the ordering rules.
func RankAcross(reqs []catalog.Requirement, avoid catalog.IDSet, limit int) []catalog.Requirement {
	pool := make([]catalog.Requirement, 0, len(reqs))
	for _, r := range reqs {
		if r.Risk > 0 {
			pool = append(pool, r.Clone())
		}
	}
	return rank(pool, avoid, limit)
}

func rank(reqs []catalog.Requirement, avoid catalog.IDSet, limit int) []catalog.Requirement {
	if limit < 1 {
		limit = DefaultProposalSize
	}
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].Risk > reqs[j].Risk
	})

	out := make([]catalog.Requirement, 0, limit)
	for _, r := range reqs {
		if avoid.Has(r.ID) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out
}
