// Package tracker defines the issue tracker pass-through that receives
// requirements as they join a sprint.
package tracker

import "context"

// IssueRequest describes the ticket to open for a sprint entry.
type IssueRequest struct {
	RequirementID string
	CatalogID     string
	SprintNumber  int
	Summary       string
	Description   string
	Effort        int
	Risk          float64
}

// IssueRef identifies a created ticket.
type IssueRef struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// IssueTracker opens tickets in an external system. Failures must never
// block sprint writes.
type IssueTracker interface {
	CreateIssue(ctx context.Context, req IssueRequest) (IssueRef, error)
}

// Noop is the tracker used when no integration is configured.
type Noop struct{}

// CreateIssue returns an empty reference.
func (Noop) CreateIssue(context.Context, IssueRequest) (IssueRef, error) {
	return IssueRef{}, nil
}
