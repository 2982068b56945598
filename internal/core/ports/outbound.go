package ports

import (
	"context"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
)

// DocumentRepository persists ingested documents. Create must rely on the
// (source, external_id) uniqueness constraint as the sole concurrency guard
// and surface domain.ErrAlreadyExists when the natural key is taken.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetByNaturalKey(ctx context.Context, source domain.DocumentSource, externalID string) (*domain.Document, error)
	// FindByContentHash returns documents sharing a content hash, used as the
	// cross-source duplicate signal. The excluded id keeps a fresh row from
	// matching itself.
	FindByContentHash(ctx context.Context, hash, excludeID string) ([]domain.Document, error)
	// BackfillContent sets content and hash on a document created without
	// text. It never overwrites existing content.
	BackfillContent(ctx context.Context, id, content, hash string) error
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
}

// ClassificationRepository persists classifications. Create must use the
// document-id uniqueness constraint as the exactly-once commit guard and
// surface domain.ErrAlreadyClassified on conflict.
type ClassificationRepository interface {
	Create(ctx context.Context, cls *domain.Classification) error
	GetByDocumentID(ctx context.Context, documentID string) (*domain.Classification, error)
	// DeleteByDocumentID supports the explicit delete-then-recreate
	// re-classification path.
	DeleteByDocumentID(ctx context.Context, documentID string) error
}

// GapAnalysisRepository persists gap analyses with the same exactly-once
// guard; Create surfaces domain.ErrAlreadyAnalyzed on conflict.
type GapAnalysisRepository interface {
	Create(ctx context.Context, ga *domain.GapAnalysis) error
	GetByID(ctx context.Context, id string) (*domain.GapAnalysis, error)
	GetByDocumentID(ctx context.Context, documentID string) (*domain.GapAnalysis, error)
}

// TaskRepository persists remediation tasks. Create reports created=false
// when a task for the (gap_analysis_id, control_id) pair already exists, so
// generation re-runs never duplicate tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByGapAnalysisID(ctx context.Context, gapAnalysisID string) ([]domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	List(ctx context.Context, filter domain.TaskFilter) ([]domain.Task, error)
}

// PriorityView is the derived, read-only ranking over documents,
// classifications and gap analyses.
type PriorityView interface {
	Rank(ctx context.Context) ([]domain.DocumentSummary, error)
}

// Neighbor is one similarity-index hit; smaller distance is more similar.
type Neighbor struct {
	DocumentID string
	Distance   float32
}

// SimilarityIndex stores and retrieves document embeddings by cosine
// distance. Upsert is idempotent per document id, last write wins.
type SimilarityIndex interface {
	Upsert(ctx context.Context, documentID string, embedding []float32) error
	Query(ctx context.Context, embedding []float32, k int) ([]Neighbor, error)
}

// ClassificationInput carries document context to the reasoning engine.
type ClassificationInput struct {
	Title       string
	Source      domain.DocumentSource
	PublishedAt string
	Content     string
}

// ClassificationResult is the raw engine output, validated by the caller.
type ClassificationResult struct {
	RelevanceScore int
	Confidence     float64
	Pillars        []domain.Pillar
	Categories     []string
	Reasoning      string
	ModelID        string
}

// ClassificationEngine scores a document's relevance. Out-of-range output is
// rejected by the Relevance Classifier, not here.
type ClassificationEngine interface {
	Classify(ctx context.Context, input ClassificationInput) (ClassificationResult, error)
}

// SimilarAnalysis seeds the assessment engine with a prior analysis.
type SimilarAnalysis struct {
	DocumentID string
	Title      string
	Severity   domain.GapSeverity
	Summary    string
}

// AssessmentInput carries document, classification and retrieval context.
type AssessmentInput struct {
	Title          string
	Source         domain.DocumentSource
	Content        string
	Reasoning      string
	RelevanceScore int
	Pillars        []domain.Pillar
	Categories     []string
	Similar        []SimilarAnalysis
}

// AssessmentResult is the raw gap-analysis engine output.
type AssessmentResult struct {
	AffectedControls []domain.ControlGap
	Severity         domain.GapSeverity
	EffortHours      *int
	Summary          string
	Recommendations  []string
	ModelID          string
}

// AssessmentEngine performs the gap-analysis reasoning step.
type AssessmentEngine interface {
	Assess(ctx context.Context, input AssessmentInput) (AssessmentResult, error)
}

// Embedder produces fixed-dimension vectors for document text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// MessageQueue publishes/consumes admitted-document events.
type MessageQueue interface {
	PublishDocumentAdmitted(ctx context.Context, documentID string) error
	SubscribeDocumentAdmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// TeamRouter maps control id + effort level to an owning team. The mapping is
// total: unmapped control ids resolve to a default team.
type TeamRouter interface {
	Route(controlID string, effort domain.EffortLevel) string
}
