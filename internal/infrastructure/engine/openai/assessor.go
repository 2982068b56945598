package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
	"github.com/dkozyrev/reg-radar/internal/core/ports"
	"github.com/dkozyrev/reg-radar/internal/infrastructure/resilience"
)

// Assessor implements the gap-analysis engine port.
type Assessor struct {
	client *Client
	exec   *resilience.Executor
}

func NewAssessor(client *Client, exec *resilience.Executor) *Assessor {
	return &Assessor{client: client, exec: exec}
}

type assessPayload struct {
	AffectedControls []struct {
		ControlID   string `json:"control_id"`
		Description string `json:"description"`
		Remediation string `json:"remediation"`
		Effort      string `json:"effort"`
	} `json:"affected_controls"`
	Severity        string   `json:"severity"`
	EffortHours     *int     `json:"effort_hours"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

func (a *Assessor) Assess(ctx context.Context, input ports.AssessmentInput) (ports.AssessmentResult, error) {
	var raw string
	err := a.exec.Execute(ctx, "engine.assess", func(ctx context.Context) error {
		var callErr error
		raw, callErr = a.client.completeJSON(ctx, a.client.assessModel,
			assessSystemPrompt, buildAssessPrompt(input), "assess")
		return callErr
	}, classifyEngineError)
	if err != nil {
		return ports.AssessmentResult{}, wrapTemporaryIfNeeded("assess", err)
	}

	var payload assessPayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return ports.AssessmentResult{}, fmt.Errorf("parse assessment json: %w", err)
	}

	gaps := make([]domain.ControlGap, 0, len(payload.AffectedControls))
	for _, g := range payload.AffectedControls {
		gaps = append(gaps, domain.ControlGap{
			ControlID:   g.ControlID,
			Description: g.Description,
			Remediation: g.Remediation,
			Effort:      domain.EffortLevel(g.Effort),
		})
	}
	recommendations := payload.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}

	return ports.AssessmentResult{
		AffectedControls: gaps,
		Severity:         domain.GapSeverity(payload.Severity),
		EffortHours:      payload.EffortHours,
		Summary:          payload.Summary,
		Recommendations:  recommendations,
		ModelID:          a.client.assessModel,
	}, nil
}
