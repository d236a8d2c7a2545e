package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/riskaudit/pkg/application"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/sprint"
)

type SprintConfigArgs struct {
	SprintNumber         int `json:"sprintNumber" jsonschema:"description=Last sprint number already used"`
	Capacity             int `json:"capacity" jsonschema:"description=Default capacity in story points"`
	PointsPerRequirement int `json:"pointsPerRequirement" jsonschema:"description=Default story points of a requirement"`
	TeamSize             int `json:"teamSize" jsonschema:"description=Default team size"`
	Duration             int `json:"duration" jsonschema:"description=Default sprint duration in days"`
}

type SprintParamsArgs struct {
	Capacity             int    `json:"capacity,omitempty" jsonschema:"description=Capacity in story points; 0 uses the configured default"`
	PointsPerRequirement int    `json:"pointsPerRequirement,omitempty" jsonschema:"description=Story points per requirement; 0 uses the configured default"`
	TeamSize             int    `json:"teamSize,omitempty" jsonschema:"description=Team size; 0 uses the configured default"`
	Duration             int    `json:"duration,omitempty" jsonschema:"description=Duration in days; 0 uses the configured default"`
	ProjectName          string `json:"projectName,omitempty" jsonschema:"description=Project the sprint belongs to"`
}

func (a SprintParamsArgs) params() sprint.Params {
	return sprint.Params{
		Capacity:             a.Capacity,
		PointsPerRequirement: a.PointsPerRequirement,
		TeamSize:             a.TeamSize,
		Duration:             a.Duration,
		ProjectName:          a.ProjectName,
	}
}

type SprintNumberArgs struct {
	SprintNumber int `json:"sprintNumber" jsonschema:"description=The sprint number"`
}

type AddToSprintArgs struct {
	SprintNumber   int      `json:"sprintNumber" jsonschema:"description=The active sprint"`
	RequirementIDs []string `json:"requirementIds" jsonschema:"description=Requirements to snapshot into the sprint"`
}

type RemoveFromSprintArgs struct {
	SprintNumber  int    `json:"sprintNumber" jsonschema:"description=The active sprint"`
	RequirementID string `json:"requirementId" jsonschema:"description=Requirement to remove from the snapshot"`
}

type ModifySprintArgs struct {
	SprintNumber         int     `json:"sprintNumber" jsonschema:"description=The active sprint"`
	Capacity             *int    `json:"capacity,omitempty" jsonschema:"description=New capacity"`
	PointsPerRequirement *int    `json:"pointsPerRequirement,omitempty" jsonschema:"description=New story points per requirement"`
	TeamSize             *int    `json:"teamSize,omitempty" jsonschema:"description=New team size"`
	Duration             *int    `json:"duration,omitempty" jsonschema:"description=New duration in days"`
	ProjectName          *string `json:"projectName,omitempty" jsonschema:"description=New project name"`
}

type UpdateStoryPointsArgs struct {
	RequirementID  string `json:"requirementId" jsonschema:"description=The requirement id"`
	NewStoryPoints int    `json:"newStoryPoints" jsonschema:"description=Story points override (>= 0)"`
}

type DeleteAllSprintsResult struct {
	Success bool `json:"success"`
	Deleted int  `json:"deleted"`
}

func (s *Server) handleGetSprintConfig(ctx context.Context, args struct{}) (any, error) {
	cfg, err := s.sprintSvc.Config(ctx)
	if err != nil {
		return nil, mcpErr("Failed to load sprint configuration.", err)
	}
	return cfg, nil
}

func (s *Server) handleSaveSprintConfig(ctx context.Context, args SprintConfigArgs) (any, error) {
	cfg := sprint.Config{
		SprintNumber:         args.SprintNumber,
		Capacity:             args.Capacity,
		PointsPerRequirement: args.PointsPerRequirement,
		TeamSize:             args.TeamSize,
		Duration:             args.Duration,
	}
	if err := s.sprintSvc.SaveConfig(ctx, cfg); err != nil {
		return nil, mcpErr("Failed to save sprint configuration.", err)
	}
	return SuccessResult{Success: true}, nil
}

func (s *Server) handleStartSprint(ctx context.Context, args SprintParamsArgs) (any, error) {
	sp, err := s.sprintSvc.Start(ctx, args.params())
	if err != nil {
		return nil, mcpErr("Failed to start sprint. Close the active sprint first.", err)
	}
	return application.ViewOf(sp), nil
}

func (s *Server) handleEndSprint(ctx context.Context, args SprintNumberArgs) (any, error) {
	sp, err := s.sprintSvc.Close(ctx, args.SprintNumber)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to close sprint %d.", args.SprintNumber), err)
	}
	return application.ViewOf(sp), nil
}

func (s *Server) handleNextSprint(ctx context.Context, args SprintParamsArgs) (any, error) {
	sp, err := s.sprintSvc.Next(ctx, args.params())
	if err != nil {
		return nil, mcpErr("Failed to advance to the next sprint.", err)
	}
	return application.ViewOf(sp), nil
}

func (s *Server) handleGetSprint(ctx context.Context, args SprintNumberArgs) (any, error) {
	sp, err := s.sprintSvc.Get(ctx, args.SprintNumber)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to load sprint %d.", args.SprintNumber), err)
	}
	return application.ViewOf(sp), nil
}

func (s *Server) handleGetActiveSprint(ctx context.Context, args struct{}) (any, error) {
	sp, err := s.sprintSvc.Active(ctx)
	if err != nil {
		return nil, mcpErr("No active sprint. Start one with startSprint.", err)
	}
	return application.ViewOf(sp), nil
}

func (s *Server) handleGetAllSprints(ctx context.Context, args struct{}) (any, error) {
	all, err := s.sprintSvc.List(ctx)
	if err != nil {
		return nil, mcpErr("Failed to list sprints.", err)
	}
	views := make([]application.SprintView, 0, len(all))
	for _, sp := range all {
		views = append(views, application.ViewOf(sp))
	}
	return views, nil
}

func (s *Server) handleAddToSprint(ctx context.Context, args AddToSprintArgs) (any, error) {
	res, err := s.sprintSvc.AddRequirements(ctx, args.SprintNumber, args.RequirementIDs)
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to add requirements to sprint %d.", args.SprintNumber), err)
	}
	return res, nil
}

func (s *Server) handleRemoveFromSprint(ctx context.Context, args RemoveFromSprintArgs) (any, error) {
	if err := s.sprintSvc.RemoveRequirement(ctx, args.SprintNumber, args.RequirementID); err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to remove requirement '%s' from sprint %d.", args.RequirementID, args.SprintNumber), err)
	}
	return SuccessResult{Success: true}, nil
}

func (s *Server) handleModifySprint(ctx context.Context, args ModifySprintArgs) (any, error) {
	sp, err := s.sprintSvc.Modify(ctx, args.SprintNumber, sprint.Updates{
		Capacity:             args.Capacity,
		PointsPerRequirement: args.PointsPerRequirement,
		TeamSize:             args.TeamSize,
		Duration:             args.Duration,
		ProjectName:          args.ProjectName,
	})
	if err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to modify sprint %d.", args.SprintNumber), err)
	}
	return application.ViewOf(sp), nil
}

func (s *Server) handleUpdateStoryPoints(ctx context.Context, args UpdateStoryPointsArgs) (any, error) {
	if err := s.sprintSvc.UpdateStoryPoints(ctx, args.RequirementID, args.NewStoryPoints); err != nil {
		return nil, mcpErr(fmt.Sprintf("Failed to update story points of '%s'.", args.RequirementID), err)
	}
	return SuccessResult{Success: true}, nil
}

func (s *Server) handleDeleteAllSprints(ctx context.Context, args struct{}) (any, error) {
	n, err := s.sprintSvc.DeleteAll(ctx)
	if err != nil {
		return nil, mcpErr("Failed to delete sprints.", err)
	}
	return DeleteAllSprintsResult{Success: true, Deleted: n}, nil
}
