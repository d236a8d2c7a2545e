package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/risk"
)

// SchemaVersion is the current MCP tool schema version (semver).
const SchemaVersion = "1.0.0"

const schemaURI = "riskaudit://schema"

// riskModel documents the constants behind the risk score so clients can
// explain a ranking without reimplementing it.
type riskModel struct {
	Weights           map[string]float64 `json:"weights"`
	Caps              map[string]int     `json:"caps"`
	FreshnessPerCycle float64            `json:"freshness_per_cycle"`
	AuditPenalty      float64            `json:"audit_penalty"`
}

type schemaResponse struct {
	SchemaVersion string    `json:"schema_version"`
	ServerVersion string    `json:"server_version"`
	Tools         []string  `json:"tools"`
	RiskModel     riskModel `json:"risk_model"`
}

func currentRiskModel() riskModel {
	return riskModel{
		Weights: map[string]float64{
			"importance":   risk.ImportanceWeight,
			"siblings":     risk.SiblingsWeight,
			"depth":        risk.DepthWeight,
			"dependencies": risk.DependenciesWeight,
		},
		Caps: map[string]int{
			"siblings":     risk.MaxSiblings,
			"depth":        risk.MaxDepth,
			"dependencies": risk.MaxDependencies,
			"cycles":       risk.MaxCycles,
		},
		FreshnessPerCycle: risk.FreshnessPerCycle,
		AuditPenalty:      risk.AuditPenalty,
	}
}

func (s *Server) schema() schemaResponse {
	tools := s.mcpServer.Tools()
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return schemaResponse{
		SchemaVersion: SchemaVersion,
		ServerVersion: Version,
		Tools:         names,
		RiskModel:     currentRiskModel(),
	}
}

func (s *Server) registerSchemaResource() {
	s.mcpServer.Resource(schemaURI).
		Name(schemaURI).
		Description("MCP tool schema version, tool list and risk model constants").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			data, err := json.Marshal(s.schema())
			if err != nil {
				return nil, err
			}
			return &mcplib.ResourceContent{
				URI:      schemaURI,
				MimeType: "application/json",
				Text:     string(data),
			}, nil
		})
}
