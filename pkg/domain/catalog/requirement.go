// Package catalog models a catalog of hierarchical audit requirements.
//
// A catalog is a forest stored flat: every Requirement carries an explicit
// ParentID and a derived ChildrenIDs list. ParentID is authoritative;
// ChildrenIDs is rebuilt at import time and never hand-edited.
package catalog

import "strings"

// Importance bounds.
const (
	MinImportance = 1
	MaxImportance = 100
)

// Requirement is one node of a catalog forest.
type Requirement struct {
	ID              string   `json:"id" yaml:"id"`
	Section         string   `json:"section" yaml:"section"`
	Heading         string   `json:"heading" yaml:"heading"`
	Text            string   `json:"text" yaml:"text"`
	ParentID        string   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	ChildrenIDs     []string `json:"children_ids" yaml:"children_ids"`
	IsContainer     bool     `json:"is_container" yaml:"is_container"`
	Important       int      `json:"important" yaml:"important"`
	Dependencies    []string `json:"dependencies" yaml:"dependencies"`
	NAudit          int      `json:"n_audit" yaml:"n_audit"`
	LastAuditSprint *int     `json:"last_audit_sprint,omitempty" yaml:"last_audit_sprint,omitempty"`
	Effort          *int     `json:"effort,omitempty" yaml:"effort,omitempty"`
	CatalogTitle    string   `json:"catalog_title,omitempty" yaml:"catalog_title,omitempty"`

	// Derived values, recomputed together by a risk pass.
	Risk         float64 `json:"risk" yaml:"risk"`
	SiblingCount int     `json:"sibling_count" yaml:"sibling_count"`
	Descendants  int     `json:"descendants" yaml:"descendants"`
}

// SegmentCount returns the number of dot-separated segments of a section.
func SegmentCount(section string) int {
	return len(strings.Split(strings.TrimSpace(section), "."))
}

// Depth is the number of section segments minus one; roots have depth 0.
func (r Requirement) Depth() int {
	return SegmentCount(r.Section) - 1
}

// IsLeaf reports whether the requirement has no children.
func (r Requirement) IsLeaf() bool {
	return len(r.ChildrenIDs) == 0
}

// EffortOr returns the story-point override, or fallback when none is set.
func (r Requirement) EffortOr(fallback int) int {
	if r.Effort != nil {
		return *r.Effort
	}
	return fallback
}

// Clone returns a deep copy so callers never share slices or pointers.
func (r Requirement) Clone() Requirement {
	out := r
	out.ChildrenIDs = append([]string{}, r.ChildrenIDs...)
	out.Dependencies = append([]string{}, r.Dependencies...)
	if r.LastAuditSprint != nil {
		v := *r.LastAuditSprint
		out.LastAuditSprint = &v
	}
	if r.Effort != nil {
		v := *r.Effort
		out.Effort = &v
	}
	return out
}

// CloneAll deep-copies a flat requirement list.
func CloneAll(reqs []Requirement) []Requirement {
	out := make([]Requirement, len(reqs))
	for i, r := range reqs {
		out[i] = r.Clone()
	}
	return out
}

// IsBlank reports whether requirement text is empty after trimming.
// Requirements with blank text are containers.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Node is the nested import representation of a requirement.
type Node struct {
	ID           string   `json:"id,omitempty" yaml:"id,omitempty"`
	Section      string   `json:"section" yaml:"section"`
	Heading      string   `json:"heading,omitempty" yaml:"heading,omitempty"`
	Text         string   `json:"text,omitempty" yaml:"text,omitempty"`
	Important    int      `json:"important,omitempty" yaml:"important,omitempty"`
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Effort       *int     `json:"effort,omitempty" yaml:"effort,omitempty"`
	Children     []Node   `json:"children,omitempty" yaml:"children,omitempty"`
}

// CountNodes returns the number of nodes at every depth.
func CountNodes(nodes []Node) int {
	total := 0
	for _, n := range nodes {
		total += 1 + CountNodes(n.Children)
	}
	return total
}

// TreeNode is the rebuilt nested view of a stored requirement.
type TreeNode struct {
	Requirement
	Children []*TreeNode `json:"children" yaml:"children"`
}

// Size returns the number of nodes in the subtree rooted at t.
func (t *TreeNode) Size() int {
	total := 1
	for _, c := range t.Children {
		total += c.Size()
	}
	return total
}
