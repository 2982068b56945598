package ports

import (
	"context"
	"time"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
)

// AdmitRequest is the tuple source connectors hand to the dedup gateway.
type AdmitRequest struct {
	Source      domain.DocumentSource
	ExternalID  string
	Title       string
	URL         string
	Content     string
	PublishedAt *time.Time
	Metadata    map[string]any
}

// AdmitResult reports the admitted document and whether this call created it.
type AdmitResult struct {
	Document *domain.Document
	Created  bool
}

// DedupGateway admits scraped documents, idempotent by natural key.
type DedupGateway interface {
	Admit(ctx context.Context, req AdmitRequest) (AdmitResult, error)
}

// RelevanceClassifier produces exactly one classification per document.
// When a classification exists it returns the existing record together with a
// domain.ErrAlreadyClassified-kinded error; retrying callers treat that as
// success.
type RelevanceClassifier interface {
	Classify(ctx context.Context, documentID string) (*domain.Classification, error)
}

// GapAnalyzer produces exactly one gap analysis per relevant document, with
// the same already-exists convention as the classifier.
type GapAnalyzer interface {
	Analyze(ctx context.Context, documentID string) (*domain.GapAnalysis, error)
}

// GenerateResult reports all tasks of a gap analysis and how many this
// invocation created.
type GenerateResult struct {
	Tasks        []domain.Task
	CreatedCount int
}

// TaskGenerator derives one task per affected control and manages lifecycle
// updates. Generate is safely re-runnable without duplicating tasks.
type TaskGenerator interface {
	Generate(ctx context.Context, gapAnalysisID string) (GenerateResult, error)
	Update(ctx context.Context, taskID string, update domain.TaskUpdate) (*domain.Task, error)
}

// PriorityRanker is the derived urgency ordering; restartable, never infinite.
type PriorityRanker interface {
	Rank(ctx context.Context) ([]domain.DocumentSummary, error)
}

// DocumentReader exposes read accessors for the presentation layer.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
}

// PipelineRunner drives classify → analyze → generate for one document,
// treating idempotent no-ops as success.
type PipelineRunner interface {
	Run(ctx context.Context, documentID string) error
}
