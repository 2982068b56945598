package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
	"github.com/dkozyrev/reg-radar/internal/core/ports"
)

// PipelineUseCase chains classify → analyze → generate for one admitted
// document. Stage ordering is enforced by data dependency; already-exists
// outcomes are success, a failed relevance gate ends the pipeline cleanly.
type PipelineUseCase struct {
	classifier ports.RelevanceClassifier
	analyzer   ports.GapAnalyzer
	generator  ports.TaskGenerator
}

func NewPipelineUseCase(
	classifier ports.RelevanceClassifier,
	analyzer ports.GapAnalyzer,
	generator ports.TaskGenerator,
) *PipelineUseCase {
	return &PipelineUseCase{classifier: classifier, analyzer: analyzer, generator: generator}
}

func (uc *PipelineUseCase) Run(ctx context.Context, documentID string) error {
	cls, err := uc.classifier.Classify(ctx, documentID)
	if err != nil && !domain.IsKind(err, domain.ErrAlreadyClassified) {
		return fmt.Errorf("classify stage: %w", err)
	}

	ga, err := uc.analyzer.Analyze(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotRelevant) {
			slog.Info("document below relevance gate",
				"document_id", documentID,
				"relevance_score", cls.RelevanceScore,
				"confidence", cls.Confidence)
			return nil
		}
		if !domain.IsKind(err, domain.ErrAlreadyAnalyzed) {
			return fmt.Errorf("analyze stage: %w", err)
		}
	}

	result, err := uc.generator.Generate(ctx, ga.ID)
	if err != nil {
		return fmt.Errorf("generate stage: %w", err)
	}
	slog.Info("pipeline completed",
		"document_id", documentID,
		"gap_analysis_id", ga.ID,
		"tasks_created", result.CreatedCount,
		"tasks_total", len(result.Tasks))
	return nil
}
