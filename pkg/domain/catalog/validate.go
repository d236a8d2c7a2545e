package catalog

import (
	"fmt"
	"strings"
)

// Validate checks an import tree for the integrity flattening relies on and
// returns the nodes that survive together with every problem found.
//
// A node is rejected with its whole subtree when its section is blank, when
// its id repeats an earlier id, or when its section depth disagrees with its
// nesting (top-level nodes have one segment, nested nodes more than one).
// Importance outside the valid range on a non-container is clamped and
// reported. Negative effort is dropped and reported. Blank ids are filled
// with newID.
func Validate(nodes []Node, newID func() string) ([]Node, []ValidationError) {
	v := &validator{seen: make(IDSet), newID: newID}
	kept := v.walk(nodes, "requirements", true)
	return kept, v.errs
}

type validator struct {
	seen  IDSet
	newID func() string
	errs  []ValidationError
}

func (v *validator) reject(path, msg string, n Node) {
	if dropped := CountNodes(n.Children); dropped > 0 {
		msg = fmt.Sprintf("%s (%d descendants skipped)", msg, dropped)
	}
	v.errs = append(v.errs, ValidationError{Path: path, Message: msg})
}

func (v *validator) walk(nodes []Node, prefix string, topLevel bool) []Node {
	kept := make([]Node, 0, len(nodes))
	for i, n := range nodes {
		path := fmt.Sprintf("%s[%d]", prefix, i)
		n.Section = strings.TrimSpace(n.Section)
		n.ID = strings.TrimSpace(n.ID)

		if n.Section == "" {
			v.reject(path, "section is required", n)
			continue
		}
		segments := SegmentCount(n.Section)
		if topLevel && segments != 1 {
			v.reject(path, fmt.Sprintf("top-level section %q must have a single segment", n.Section), n)
			continue
		}
		if !topLevel && segments == 1 {
			v.reject(path, fmt.Sprintf("nested section %q must have more than one segment", n.Section), n)
			continue
		}

		if n.ID == "" && v.newID != nil {
			n.ID = v.newID()
		}
		if n.ID == "" {
			v.reject(path, "id is required", n)
			continue
		}
		if v.seen.Has(n.ID) {
			v.reject(path, fmt.Sprintf("duplicate id %q", n.ID), n)
			continue
		}
		v.seen[n.ID] = struct{}{}

		if !IsBlank(n.Text) {
			if clamped := clampImportance(n.Important); clamped != n.Important {
				v.errs = append(v.errs, ValidationError{
					Path:    path,
					Message: fmt.Sprintf("importance %d out of range, clamped to %d", n.Important, clamped),
				})
				n.Important = clamped
			}
		}
		if n.Effort != nil && *n.Effort < 0 {
			v.errs = append(v.errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("negative effort %d ignored", *n.Effort),
			})
			n.Effort = nil
		}

		n.Children = v.walk(n.Children, path+".children", false)
		kept = append(kept, n)
	}
	return kept
}

func clampImportance(v int) int {
	switch {
	case v < MinImportance:
		return MinImportance
	case v > MaxImportance:
		return MaxImportance
	default:
		return v
	}
}
