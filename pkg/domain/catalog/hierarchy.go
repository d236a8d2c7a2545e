package catalog

// Flatten converts a nested import tree into the flat storage form.
//
// Ordering contract: the output is a depth-first pre-order walk. Each node is
// emitted before its descendants and siblings keep their input order, so the
// first node of the input is always the first element of the output. Every
// input node appears exactly once.
//
// Flattened requirements start unaudited with zero risk and carry
// catalogTitle for provenance.
func Flatten(nodes []Node, catalogTitle string) []Requirement {
	out := make([]Requirement, 0, CountNodes(nodes))
	return flattenInto(out, nodes, "", catalogTitle)
}

func flattenInto(out []Requirement, nodes []Node, parentID, catalogTitle string) []Requirement {
	for _, n := range nodes {
		childIDs := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			childIDs = append(childIDs, c.ID)
		}

		var effort *int
		if n.Effort != nil {
			v := *n.Effort
			effort = &v
		}

		out = append(out, Requirement{
			ID:           n.ID,
			Section:      n.Section,
			Heading:      n.Heading,
			Text:         n.Text,
			ParentID:     parentID,
			ChildrenIDs:  childIDs,
			IsContainer:  IsBlank(n.Text),
			Important:    n.Important,
			Dependencies: append([]string{}, n.Dependencies...),
			Effort:       effort,
			CatalogTitle: catalogTitle,
		})
		out = flattenInto(out, n.Children, n.ID, catalogTitle)
	}
	return out
}

// Rebuild reconstructs the nested view of a flat list for display.
//
// Roots are requirements whose section has a single segment, in flat order.
// Children of a node follow its ChildrenIDs order. Ids in ChildrenIDs without
// a matching requirement are skipped, as are repeated ids and ids that would
// close a cycle.
func Rebuild(reqs []Requirement) []*TreeNode {
	byID := make(map[string]int, len(reqs))
	for i, r := range reqs {
		if _, dup := byID[r.ID]; !dup {
			byID[r.ID] = i
		}
	}

	roots := make([]*TreeNode, 0)
	for _, r := range reqs {
		if SegmentCount(r.Section) != 1 {
			continue
		}
		roots = append(roots, buildNode(reqs, byID, r, map[string]bool{}))
	}
	return roots
}

func buildNode(reqs []Requirement, byID map[string]int, r Requirement, onPath map[string]bool) *TreeNode {
	node := &TreeNode{Requirement: r.Clone(), Children: []*TreeNode{}}
	onPath[r.ID] = true
	defer delete(onPath, r.ID)

	seen := make(map[string]bool, len(r.ChildrenIDs))
	for _, childID := range r.ChildrenIDs {
		i, ok := byID[childID]
		if !ok || seen[childID] || onPath[childID] {
			continue
		}
		seen[childID] = true
		node.Children = append(node.Children, buildNode(reqs, byID, reqs[i], onPath))
	}
	return node
}
