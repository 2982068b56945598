package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
	"github.com/dkozyrev/reg-radar/internal/core/ports"
)

// GapAnalyzerUseCase produces exactly one gap analysis per document that
// passes the relevance gate. Retrieval from the similarity index seeds the
// assessment engine and degrades gracefully on a cold or unreachable index.
type GapAnalyzerUseCase struct {
	docs            ports.DocumentRepository
	classifications ports.ClassificationRepository
	analyses        ports.GapAnalysisRepository
	engine          ports.AssessmentEngine
	embedder        ports.Embedder
	index           ports.SimilarityIndex
	topK            int
	engineTimeout   time.Duration
}

func NewGapAnalyzerUseCase(
	docs ports.DocumentRepository,
	classifications ports.ClassificationRepository,
	analyses ports.GapAnalysisRepository,
	engine ports.AssessmentEngine,
	embedder ports.Embedder,
	index ports.SimilarityIndex,
	topK int,
	engineTimeout time.Duration,
) *GapAnalyzerUseCase {
	if topK <= 0 {
		topK = 5
	}
	if engineTimeout <= 0 {
		engineTimeout = 3 * time.Minute
	}
	return &GapAnalyzerUseCase{
		docs:            docs,
		classifications: classifications,
		analyses:        analyses,
		engine:          engine,
		embedder:        embedder,
		index:           index,
		topK:            topK,
		engineTimeout:   engineTimeout,
	}
}

func (uc *GapAnalyzerUseCase) Analyze(ctx context.Context, documentID string) (*domain.GapAnalysis, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	if existing, err := uc.analyses.GetByDocumentID(ctx, documentID); err == nil {
		return existing, domain.WrapError(domain.ErrAlreadyAnalyzed, "analyze document",
			fmt.Errorf("document %s", documentID))
	}

	cls, err := uc.classifications.GetByDocumentID(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) || domain.IsKind(err, domain.ErrClassificationMissing) {
			return nil, domain.WrapError(domain.ErrClassificationMissing, "analyze document",
				fmt.Errorf("document %s has not been classified", documentID))
		}
		return nil, fmt.Errorf("fetch classification: %w", err)
	}

	if !cls.PassesRelevanceGate() && !doc.Escalated() {
		return nil, domain.WrapError(domain.ErrNotRelevant, "analyze document",
			fmt.Errorf("score=%d confidence=%.2f below gate", cls.RelevanceScore, cls.Confidence))
	}

	if !doc.HasContent() {
		return nil, domain.WrapError(domain.ErrContentMissing, "analyze document",
			fmt.Errorf("document %s has no text content", documentID))
	}

	similar := uc.retrieveSimilar(ctx, doc)

	engineCtx, cancel := context.WithTimeout(ctx, uc.engineTimeout)
	defer cancel()
	result, err := uc.engine.Assess(engineCtx, ports.AssessmentInput{
		Title:          doc.Title,
		Source:         doc.Source,
		Content:        doc.Content,
		Reasoning:      cls.Reasoning,
		RelevanceScore: cls.RelevanceScore,
		Pillars:        cls.Pillars,
		Categories:     cls.Categories,
		Similar:        similar,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrEngine, "analyze document", err)
	}

	ga := &domain.GapAnalysis{
		ID:                 uuid.NewString(),
		DocumentID:         doc.ID,
		AffectedControls:   result.AffectedControls,
		Severity:           result.Severity,
		EffortHours:        result.EffortHours,
		SimilarDocumentIDs: similarIDs(similar),
		Summary:            result.Summary,
		Recommendations:    result.Recommendations,
		ModelID:            result.ModelID,
		CreatedAt:          time.Now().UTC(),
	}
	if err := ga.Validate(); err != nil {
		return nil, err
	}
	if ga.NeedsStructuralWarning() {
		ga.Flags = append(ga.Flags, domain.FlagStructuralWarning)
		slog.Warn("gap analysis has no affected controls despite severity",
			"document_id", doc.ID, "severity", ga.Severity)
	}

	if err := uc.analyses.Create(ctx, ga); err != nil {
		if domain.IsKind(err, domain.ErrAlreadyAnalyzed) {
			existing, getErr := uc.analyses.GetByDocumentID(ctx, documentID)
			if getErr != nil {
				return nil, fmt.Errorf("fetch gap analysis after lost insert race: %w", getErr)
			}
			return existing, domain.WrapError(domain.ErrAlreadyAnalyzed, "analyze document",
				fmt.Errorf("document %s", documentID))
		}
		return nil, fmt.Errorf("persist gap analysis: %w", err)
	}
	return ga, nil
}

// retrieveSimilar collects up to topK prior analyzed documents by embedding
// distance. Every failure path degrades to "no context": a cold index or a
// missing embedding must never block the analysis itself.
func (uc *GapAnalyzerUseCase) retrieveSimilar(ctx context.Context, doc *domain.Document) []ports.SimilarAnalysis {
	embedding, err := uc.embedder.Embed(ctx, doc.Content)
	if err != nil {
		slog.Warn("embed for retrieval failed", "document_id", doc.ID, "error", err)
		return nil
	}

	neighbors, err := uc.index.Query(ctx, embedding, uc.topK+1)
	if err != nil {
		slog.Warn("similarity query failed", "document_id", doc.ID, "error", err)
		return nil
	}

	var out []ports.SimilarAnalysis
	for _, n := range neighbors {
		if n.DocumentID == doc.ID || len(out) >= uc.topK {
			continue
		}
		prior, err := uc.analyses.GetByDocumentID(ctx, n.DocumentID)
		if err != nil {
			continue // neighbor was embedded but never analyzed
		}
		title := n.DocumentID
		if neighborDoc, err := uc.docs.GetByID(ctx, n.DocumentID); err == nil {
			title = neighborDoc.Title
		}
		out = append(out, ports.SimilarAnalysis{
			DocumentID: n.DocumentID,
			Title:      title,
			Severity:   prior.Severity,
			Summary:    prior.Summary,
		})
	}
	return out
}

func similarIDs(similar []ports.SimilarAnalysis) []string {
	if len(similar) == 0 {
		return nil
	}
	ids := make([]string, 0, len(similar))
	for _, s := range similar {
		ids = append(ids, s.DocumentID)
	}
	return ids
}
