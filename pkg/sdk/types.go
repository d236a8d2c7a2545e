package sdk

import (
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/sprint"
)

// SchemaInfo is the riskaudit://schema resource.
type SchemaInfo struct {
	SchemaVersion string   `json:"schema_version"`
	ServerVersion string   `json:"server_version"`
	Tools         []string `json:"tools"`
	RiskModel     struct {
		Weights           map[string]float64 `json:"weights"`
		Caps              map[string]int     `json:"caps"`
		FreshnessPerCycle float64            `json:"freshness_per_cycle"`
		AuditPenalty      float64            `json:"audit_penalty"`
	} `json:"risk_model"`
}

// ImportResult reports an import call.
type ImportResult struct {
	CatalogID string                    `json:"catalog_id"`
	Total     int                       `json:"total"`
	Success   int                       `json:"success"`
	Errors    []catalog.ValidationError `json:"errors"`
}

// RiskResult is the catalog returned by calculateRisksByCatalog.
type RiskResult struct {
	Success bool             `json:"success"`
	Catalog *catalog.Catalog `json:"catalog"`
}

// RiskAllResult reports a risk pass over every catalog.
type RiskAllResult struct {
	Success         bool     `json:"success"`
	UpdatedCatalogs []string `json:"updatedCatalogs"`
	FailedCatalog   string   `json:"failedCatalog,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// Proposal is the audit proposal of selectRequirementsForAudit.
type Proposal struct {
	SelectedRequirements []catalog.Requirement `json:"selectedRequirements"`
	TotalRequirements    int                   `json:"totalRequirements"`
}

type markResult struct {
	Success      bool `json:"success"`
	UpdatedCount int  `json:"updatedCount"`
}

// Sprint is a sprint together with its capacity figures.
type Sprint struct {
	sprint.Sprint
	PointsUsed    int     `json:"points_used"`
	CapacityUsage float64 `json:"capacity_usage"`
	OverCapacity  bool    `json:"over_capacity"`
}

// AddResult reports addRequirementsToSprint.
type AddResult struct {
	Sprint        Sprint            `json:"sprint"`
	Added         []sprint.Entry    `json:"added"`
	TrackerErrors map[string]string `json:"tracker_errors,omitempty"`
}

// SprintParams are the optional parameters of startSprint and nextSprint.
// Zero values take the configured defaults.
type SprintParams struct {
	Capacity             int    `json:"capacity,omitempty"`
	PointsPerRequirement int    `json:"pointsPerRequirement,omitempty"`
	TeamSize             int    `json:"teamSize,omitempty"`
	Duration             int    `json:"duration,omitempty"`
	ProjectName          string `json:"projectName,omitempty"`
}

func (p SprintParams) args() map[string]any {
	args := map[string]any{}
	if p.Capacity > 0 {
		args["capacity"] = p.Capacity
	}
	if p.PointsPerRequirement > 0 {
		args["pointsPerRequirement"] = p.PointsPerRequirement
	}
	if p.TeamSize > 0 {
		args["teamSize"] = p.TeamSize
	}
	if p.Duration > 0 {
		args["duration"] = p.Duration
	}
	if p.ProjectName != "" {
		args["projectName"] = p.ProjectName
	}
	return args
}
