package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
	"github.com/dkozyrev/reg-radar/internal/core/ports"
)

// DedupGatewayUseCase admits scraped documents into the document store.
// Idempotent by (source, external_id); the natural-key uniqueness constraint
// in the repository is the sole concurrency guard.
type DedupGatewayUseCase struct {
	docs  ports.DocumentRepository
	queue ports.MessageQueue
}

func NewDedupGatewayUseCase(docs ports.DocumentRepository, queue ports.MessageQueue) *DedupGatewayUseCase {
	return &DedupGatewayUseCase{docs: docs, queue: queue}
}

func (uc *DedupGatewayUseCase) Admit(ctx context.Context, req ports.AdmitRequest) (ports.AdmitResult, error) {
	if err := validateAdmitRequest(req); err != nil {
		return ports.AdmitResult{}, err
	}

	// Fast path for re-ingestion; the constraint still arbitrates races.
	if existing, err := uc.docs.GetByNaturalKey(ctx, req.Source, req.ExternalID); err == nil {
		return uc.dedupHit(ctx, existing, req), nil
	} else if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		return ports.AdmitResult{}, fmt.Errorf("look up natural key: %w", err)
	}

	doc := &domain.Document{
		ID:          uuid.NewString(),
		Source:      req.Source,
		ExternalID:  req.ExternalID,
		Title:       req.Title,
		URL:         req.URL,
		Content:     req.Content,
		PublishedAt: req.PublishedAt,
		IngestedAt:  time.Now().UTC(),
		Metadata:    cloneMetadata(req.Metadata),
	}
	if doc.HasContent() {
		doc.ContentHash = HashContent(doc.Content)
		uc.flagHashDuplicates(ctx, doc)
	}

	if err := uc.docs.Create(ctx, doc); err != nil {
		if domain.IsKind(err, domain.ErrAlreadyExists) {
			// Lost the race: exactly one creator, this call is the no-op.
			existing, getErr := uc.docs.GetByNaturalKey(ctx, req.Source, req.ExternalID)
			if getErr != nil {
				return ports.AdmitResult{}, fmt.Errorf("fetch document after lost insert race: %w", getErr)
			}
			return uc.dedupHit(ctx, existing, req), nil
		}
		return ports.AdmitResult{}, fmt.Errorf("create document: %w", err)
	}

	if err := uc.queue.PublishDocumentAdmitted(ctx, doc.ID); err != nil {
		// The row is durable; pipeline stages remain individually
		// triggerable, so a lost event does not fail the admit.
		slog.Warn("publish admitted event failed", "document_id", doc.ID, "error", err)
	}

	return ports.AdmitResult{Document: doc, Created: true}, nil
}

// dedupHit resolves a repeat sighting of a known document. A sighting that
// carries text for a row admitted without any backfills the content and
// republishes the admitted event so the pipeline can pick the document up;
// existing content is never overwritten.
func (uc *DedupGatewayUseCase) dedupHit(ctx context.Context, existing *domain.Document, req ports.AdmitRequest) ports.AdmitResult {
	if existing.HasContent() || strings.TrimSpace(req.Content) == "" {
		return ports.AdmitResult{Document: existing, Created: false}
	}

	hash := HashContent(req.Content)
	if err := uc.docs.BackfillContent(ctx, existing.ID, req.Content, hash); err != nil {
		// A concurrent backfill may have landed first; the stored row wins.
		slog.Warn("content backfill failed", "document_id", existing.ID, "error", err)
		return ports.AdmitResult{Document: existing, Created: false}
	}
	existing.Content = req.Content
	existing.ContentHash = hash

	if err := uc.queue.PublishDocumentAdmitted(ctx, existing.ID); err != nil {
		slog.Warn("publish admitted event failed", "document_id", existing.ID, "error", err)
	}
	return ports.AdmitResult{Document: existing, Created: false}
}

// flagHashDuplicates records a cross-source content-hash match in metadata.
// Sources legitimately republish identical text, so this is a signal for
// downstream consumers, not a rejection.
func (uc *DedupGatewayUseCase) flagHashDuplicates(ctx context.Context, doc *domain.Document) {
	matches, err := uc.docs.FindByContentHash(ctx, doc.ContentHash, doc.ID)
	if err != nil {
		slog.Warn("content hash lookup failed", "document_id", doc.ID, "error", err)
		return
	}
	if len(matches) == 0 {
		return
	}
	first := matches[0]
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}
	doc.Metadata[domain.MetaHashDuplicateOf] = fmt.Sprintf("%s/%s", first.Source, first.ExternalID)
}

func validateAdmitRequest(req ports.AdmitRequest) error {
	switch {
	case !req.Source.Valid():
		return domain.WrapError(domain.ErrInvalidInput, "admit document", fmt.Errorf("unknown source %q", req.Source))
	case strings.TrimSpace(req.ExternalID) == "":
		return domain.WrapError(domain.ErrInvalidInput, "admit document", fmt.Errorf("external id is required"))
	case strings.TrimSpace(req.Title) == "":
		return domain.WrapError(domain.ErrInvalidInput, "admit document", fmt.Errorf("title is required"))
	case strings.TrimSpace(req.URL) == "":
		return domain.WrapError(domain.ErrInvalidInput, "admit document", fmt.Errorf("url is required"))
	}
	return nil
}

// HashContent computes the SHA-256 hex digest of normalized document text,
// used for cross-source duplicate detection.
func HashContent(content string) string {
	normalized := strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func cloneMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return nil
	}
	out := make(map[string]any, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
