package catalog

// ChildIndex groups requirement ids under their parent id, in flat order.
// It is derived from ParentID backlinks, the authoritative link.
func ChildIndex(reqs []Requirement) map[string][]string {
	index := make(map[string][]string)
	for _, r := range reqs {
		if r.ParentID != "" {
			index[r.ParentID] = append(index[r.ParentID], r.ID)
		}
	}
	return index
}

// Roots returns the ids of requirements with no parent, or whose parent is
// absent from the list, in flat order.
func Roots(reqs []Requirement) []string {
	present := make(IDSet, len(reqs))
	for _, r := range reqs {
		present[r.ID] = struct{}{}
	}
	roots := make([]string, 0)
	for _, r := range reqs {
		if r.ParentID == "" || !present.Has(r.ParentID) {
			roots = append(roots, r.ID)
		}
	}
	return roots
}

// SiblingCounts returns, per requirement id, the number of other requirements
// sharing the same non-container parent. Requirements without a parent, with
// an absent parent, or under a container get 0.
func SiblingCounts(reqs []Requirement) map[string]int {
	container := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		container[r.ID] = r.IsContainer
	}

	children := make(map[string]int)
	for _, r := range reqs {
		if isContainer, ok := container[r.ParentID]; ok && r.ParentID != "" && !isContainer {
			children[r.ParentID]++
		}
	}

	counts := make(map[string]int, len(reqs))
	for _, r := range reqs {
		n := children[r.ParentID]
		if r.ParentID == "" || n == 0 {
			counts[r.ID] = 0
			continue
		}
		counts[r.ID] = n - 1
	}
	return counts
}

// DescendantCounts returns the total number of descendants of every
// requirement. A node's count is the number of its direct children plus the
// sum of their counts; containers are counted like any other node.
func DescendantCounts(reqs []Requirement) map[string]int {
	children := ChildIndex(reqs)
	counts := make(map[string]int, len(reqs))
	visiting := make(map[string]bool)

	var count func(id string) int
	count = func(id string) int {
		if v, ok := counts[id]; ok {
			return v
		}
		if visiting[id] {
			return 0
		}
		visiting[id] = true
		total := 0
		for _, c := range children[id] {
			total += 1 + count(c)
		}
		visiting[id] = false
		counts[id] = total
		return total
	}

	for _, root := range Roots(reqs) {
		count(root)
	}
	for _, r := range reqs {
		count(r.ID)
	}
	return counts
}

// Descendants returns every descendant id of id in pre-order.
func Descendants(reqs []Requirement, id string) []string {
	children := ChildIndex(reqs)
	out := make([]string, 0)
	seen := NewIDSet(id)

	var walk func(string)
	walk = func(parent string) {
		for _, c := range children[parent] {
			if seen.Has(c) {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}
