package mcp

import "context"

type VerifyJournalResult struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

func (s *Server) handleGetJournal(ctx context.Context, args struct{}) (any, error) {
	events, err := s.journalSvc.Timeline()
	if err != nil {
		return nil, mcpErr("Failed to read the operation journal.", err)
	}
	return events, nil
}

func (s *Server) handleVerifyJournal(ctx context.Context, args struct{}) (any, error) {
	violations, err := s.journalSvc.VerifyIntegrity()
	if err != nil {
		return nil, mcpErr("Failed to verify the operation journal.", err)
	}
	if violations == nil {
		violations = []string{}
	}
	return VerifyJournalResult{Valid: len(violations) == 0, Violations: violations}, nil
}
