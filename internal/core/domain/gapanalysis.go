package domain

import (
	"fmt"
	"time"
)

// GapSeverity is the ordinal urgency of a control gap.
type GapSeverity string

const (
	SeverityLow      GapSeverity = "low"
	SeverityMedium   GapSeverity = "medium"
	SeverityHigh     GapSeverity = "high"
	SeverityCritical GapSeverity = "critical"
)

func (s GapSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// EffortLevel is the estimated remediation effort for a single control gap.
type EffortLevel string

const (
	EffortLow    EffortLevel = "low"
	EffortMedium EffortLevel = "medium"
	EffortHigh   EffortLevel = "high"
)

func (e EffortLevel) Valid() bool {
	switch e {
	case EffortLow, EffortMedium, EffortHigh:
		return true
	}
	return false
}

// ControlGap describes one affected control inside a gap analysis.
type ControlGap struct {
	ControlID   string      `json:"control_id"`
	Description string      `json:"description"`
	Remediation string      `json:"remediation"`
	Effort      EffortLevel `json:"effort"`
}

// FlagStructuralWarning is set on analyses whose severity is high/critical
// while the affected-control list came back empty. Advisory, never a rejection.
const FlagStructuralWarning = "structural_warning"

// GapAnalysis is the control-gap assessment for a document. At most one per
// document; created only when the classification passes the relevance gate;
// immutable after creation.
type GapAnalysis struct {
	ID                 string       `json:"id"`
	DocumentID         string       `json:"document_id"`
	AffectedControls   []ControlGap `json:"affected_controls"`
	Severity           GapSeverity  `json:"severity"`
	EffortHours        *int         `json:"effort_hours,omitempty"`
	SimilarDocumentIDs []string     `json:"similar_document_ids,omitempty"`
	Summary            string       `json:"summary"`
	Recommendations    []string     `json:"recommendations,omitempty"`
	Flags              []string     `json:"flags,omitempty"`
	ModelID            string       `json:"model_id,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
}

// Validate checks structural shape of engine output. An empty control list
// with high/critical severity is not rejected here; the analyzer flags it.
func (g *GapAnalysis) Validate() error {
	if !g.Severity.Valid() {
		return WrapError(ErrValidation, "validate gap analysis",
			fmt.Errorf("unknown severity %q", g.Severity))
	}
	if g.EffortHours != nil && *g.EffortHours <= 0 {
		return WrapError(ErrValidation, "validate gap analysis",
			fmt.Errorf("effort hours must be positive, got %d", *g.EffortHours))
	}
	for i, cg := range g.AffectedControls {
		if cg.ControlID == "" {
			return WrapError(ErrValidation, "validate gap analysis",
				fmt.Errorf("affected control %d has empty control id", i))
		}
		if !cg.Effort.Valid() {
			return WrapError(ErrValidation, "validate gap analysis",
				fmt.Errorf("affected control %s has unknown effort %q", cg.ControlID, cg.Effort))
		}
	}
	return nil
}

// NeedsStructuralWarning reports the high/critical-with-no-controls condition.
func (g *GapAnalysis) NeedsStructuralWarning() bool {
	return (g.Severity == SeverityHigh || g.Severity == SeverityCritical) && len(g.AffectedControls) == 0
}
