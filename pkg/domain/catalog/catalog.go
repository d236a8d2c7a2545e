package catalog

import (
	"fmt"
	"time"
)

// Catalog owns an ordered flat list of requirements.
type Catalog struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id,omitempty"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Prefix       string        `json:"prefix"`
	Requirements []Requirement `json:"requirements"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewCatalog creates an empty catalog.
func NewCatalog(id, userID, title, description, prefix string) *Catalog {
	now := time.Now()
	return &Catalog{
		ID:           id,
		UserID:       userID,
		Title:        title,
		Description:  description,
		Prefix:       prefix,
		Requirements: []Requirement{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Summary is the list view of a catalog.
type Summary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Prefix           string    `json:"prefix"`
	RequirementCount int       `json:"requirement_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Summary returns the list view of the catalog.
func (c *Catalog) Summary() Summary {
	return Summary{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		Prefix:           c.Prefix,
		RequirementCount: len(c.Requirements),
		UpdatedAt:        c.UpdatedAt,
	}
}

// indexOf returns the position of id in the flat list, or -1.
func (c *Catalog) indexOf(id string) int {
	for i := range c.Requirements {
		if c.Requirements[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the requirement with the given id.
func (c *Catalog) Find(id string) (*Requirement, bool) {
	if i := c.indexOf(id); i >= 0 {
		return &c.Requirements[i], true
	}
	return nil, false
}

// Contains reports whether the catalog holds id.
func (c *Catalog) Contains(id string) bool {
	return c.indexOf(id) >= 0
}

// UpdateContent rewrites the free-text fields and importance of a requirement.
// Container status follows the new text, and a requirement that becomes a
// container drops its risk.
func (c *Catalog) UpdateContent(id, heading, text string, important int) error {
	if important < MinImportance || important > MaxImportance {
		return fmt.Errorf("requirement %s: %w", id, ErrImportanceOutOfRange)
	}
	req, ok := c.Find(id)
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrRequirementNotFound)
	}
	req.Heading = heading
	req.Text = text
	req.Important = important
	req.IsContainer = IsBlank(text)
	if req.IsContainer {
		req.Risk = 0
	}
	return nil
}

// SetEffort overrides the story points of a requirement.
func (c *Catalog) SetEffort(id string, points int) bool {
	req, ok := c.Find(id)
	if !ok {
		return false
	}
	req.Effort = &points
	return true
}

// RemoveRequirement deletes a requirement together with its descendants and
// severs it from its parent's ChildrenIDs. Dependencies held by other
// requirements are left untouched. It returns the removed ids in flat order.
func (c *Catalog) RemoveRequirement(id string) ([]string, error) {
	target, ok := c.Find(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrRequirementNotFound)
	}
	parentID := target.ParentID

	doomed := NewIDSet(id)
	for _, d := range Descendants(c.Requirements, id) {
		doomed[d] = struct{}{}
	}

	kept := make([]Requirement, 0, len(c.Requirements)-len(doomed))
	removed := make([]string, 0, len(doomed))
	for _, r := range c.Requirements {
		if doomed.Has(r.ID) {
			removed = append(removed, r.ID)
			continue
		}
		if r.ID == parentID {
			r.ChildrenIDs = without(r.ChildrenIDs, id)
		}
		kept = append(kept, r)
	}
	c.Requirements = kept
	return removed, nil
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Repository persists catalogs under catalog-<id> keys.
type Repository interface {
	LoadCatalog(id string) (*Catalog, error)
	SaveCatalog(c *Catalog) error
	DeleteCatalog(id string) error
	ListCatalogs() ([]*Catalog, error)
}
