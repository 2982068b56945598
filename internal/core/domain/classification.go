package domain

import (
	"fmt"
	"time"
)

// Pillar is one of the five control-framework pillars.
type Pillar string

const (
	PillarInternalControls     Pillar = "internal_controls"
	PillarBSAOfficer           Pillar = "bsa_officer"
	PillarTraining             Pillar = "training"
	PillarIndependentTesting   Pillar = "independent_testing"
	PillarCustomerDueDiligence Pillar = "customer_due_diligence"
)

func (p Pillar) Valid() bool {
	switch p {
	case PillarInternalControls, PillarBSAOfficer, PillarTraining,
		PillarIndependentTesting, PillarCustomerDueDiligence:
		return true
	}
	return false
}

const (
	MinRelevanceScore = 0
	MaxRelevanceScore = 5
)

// Classification is the relevance-scoring output for a document. At most one
// per document; immutable after creation. Re-classification is an explicit
// delete-then-recreate, never an overwrite.
type Classification struct {
	ID             string    `json:"id"`
	DocumentID     string    `json:"document_id"`
	RelevanceScore int       `json:"relevance_score"`
	Confidence     float64   `json:"confidence"`
	Pillars        []Pillar  `json:"pillars"`
	Categories     []string  `json:"categories,omitempty"`
	Reasoning      string    `json:"reasoning,omitempty"`
	ModelID        string    `json:"model_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Validate rejects out-of-range engine output instead of clamping it, so data
// quality issues surface rather than hide.
func (c *Classification) Validate() error {
	if c.RelevanceScore < MinRelevanceScore || c.RelevanceScore > MaxRelevanceScore {
		return WrapError(ErrValidation, "validate classification",
			fmt.Errorf("relevance score %d outside [%d,%d]", c.RelevanceScore, MinRelevanceScore, MaxRelevanceScore))
	}
	if c.Confidence < 0.0 || c.Confidence > 1.0 {
		return WrapError(ErrValidation, "validate classification",
			fmt.Errorf("confidence %g outside [0.0,1.0]", c.Confidence))
	}
	for _, p := range c.Pillars {
		if !p.Valid() {
			return WrapError(ErrValidation, "validate classification",
				fmt.Errorf("unknown pillar %q", p))
		}
	}
	return nil
}

// RelevanceGateScore and RelevanceGateConfidence define the gap-analysis
// eligibility gate: relevance_score >= 3 AND confidence >= 0.8.
const (
	RelevanceGateScore      = 3
	RelevanceGateConfidence = 0.8
)

// PassesRelevanceGate reports whether this classification qualifies the
// document for gap analysis.
func (c *Classification) PassesRelevanceGate() bool {
	return c.RelevanceScore >= RelevanceGateScore && c.Confidence >= RelevanceGateConfidence
}
