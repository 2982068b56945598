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

// RelevanceClassifierUseCase produces exactly one classification per
// document. The document-uniqueness constraint in the classification
// repository is the commit guard; the pre-read below only spares the engine
// call on obvious retries.
type RelevanceClassifierUseCase struct {
	docs            ports.DocumentRepository
	classifications ports.ClassificationRepository
	engine          ports.ClassificationEngine
	embedder        ports.Embedder
	index           ports.SimilarityIndex
	engineTimeout   time.Duration
}

func NewRelevanceClassifierUseCase(
	docs ports.DocumentRepository,
	classifications ports.ClassificationRepository,
	engine ports.ClassificationEngine,
	embedder ports.Embedder,
	index ports.SimilarityIndex,
	engineTimeout time.Duration,
) *RelevanceClassifierUseCase {
	if engineTimeout <= 0 {
		engineTimeout = 2 * time.Minute
	}
	return &RelevanceClassifierUseCase{
		docs:            docs,
		classifications: classifications,
		engine:          engine,
		embedder:        embedder,
		index:           index,
		engineTimeout:   engineTimeout,
	}
}

func (uc *RelevanceClassifierUseCase) Classify(ctx context.Context, documentID string) (*domain.Classification, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	if existing, err := uc.classifications.GetByDocumentID(ctx, documentID); err == nil {
		return existing, domain.WrapError(domain.ErrAlreadyClassified, "classify document",
			fmt.Errorf("document %s", documentID))
	}

	if !doc.HasContent() {
		return nil, domain.WrapError(domain.ErrContentMissing, "classify document",
			fmt.Errorf("document %s has no text content", documentID))
	}

	engineCtx, cancel := context.WithTimeout(ctx, uc.engineTimeout)
	defer cancel()
	result, err := uc.engine.Classify(engineCtx, ports.ClassificationInput{
		Title:       doc.Title,
		Source:      doc.Source,
		PublishedAt: formatPublished(doc.PublishedAt),
		Content:     doc.Content,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrEngine, "classify document", err)
	}

	cls := &domain.Classification{
		ID:             uuid.NewString(),
		DocumentID:     doc.ID,
		RelevanceScore: result.RelevanceScore,
		Confidence:     result.Confidence,
		Pillars:        result.Pillars,
		Categories:     result.Categories,
		Reasoning:      result.Reasoning,
		ModelID:        result.ModelID,
		CreatedAt:      time.Now().UTC(),
	}
	if err := cls.Validate(); err != nil {
		return nil, err
	}

	if err := uc.classifications.Create(ctx, cls); err != nil {
		if domain.IsKind(err, domain.ErrAlreadyClassified) {
			// Lost the insert race; the winner's row is the result.
			existing, getErr := uc.classifications.GetByDocumentID(ctx, documentID)
			if getErr != nil {
				return nil, fmt.Errorf("fetch classification after lost insert race: %w", getErr)
			}
			return existing, domain.WrapError(domain.ErrAlreadyClassified, "classify document",
				fmt.Errorf("document %s", documentID))
		}
		return nil, fmt.Errorf("persist classification: %w", err)
	}

	uc.backfillEmbedding(ctx, doc)
	return cls, nil
}

// backfillEmbedding computes and indexes the document vector. Best effort:
// the classification is already committed, so failures only cost similarity
// recall, not correctness.
func (uc *RelevanceClassifierUseCase) backfillEmbedding(ctx context.Context, doc *domain.Document) {
	embedding, err := uc.embedder.Embed(ctx, doc.Content)
	if err != nil {
		slog.Warn("embed document failed", "document_id", doc.ID, "error", err)
		return
	}
	if err := uc.index.Upsert(ctx, doc.ID, embedding); err != nil {
		slog.Warn("index embedding failed", "document_id", doc.ID, "error", err)
	}
}

func formatPublished(t *time.Time) string {
	if t == nil {
		return "unknown"
	}
	return t.Format("2006-01-02")
}
