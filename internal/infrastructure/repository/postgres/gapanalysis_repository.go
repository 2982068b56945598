package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
)

type GapAnalysisRepository struct {
	db *sql.DB
}

func NewGapAnalysisRepository(db *sql.DB) *GapAnalysisRepository {
	return &GapAnalysisRepository{db: db}
}

const gapAnalysisColumns = `id, document_id, affected_controls, severity, effort_hours, similar_document_ids, summary, recommendations, flags, model_id, created_at`

// Create persists a gap analysis exactly once per document, guarded by the
// UNIQUE constraint on document_id.
func (r *GapAnalysisRepository) Create(ctx context.Context, ga *domain.GapAnalysis) error {
	controlsJSON, err := json.Marshal(ga.AffectedControls)
	if err != nil {
		return fmt.Errorf("marshal affected controls: %w", err)
	}
	similarJSON, err := json.Marshal(orEmpty(ga.SimilarDocumentIDs))
	if err != nil {
		return fmt.Errorf("marshal similar document ids: %w", err)
	}
	recsJSON, err := json.Marshal(orEmpty(ga.Recommendations))
	if err != nil {
		return fmt.Errorf("marshal recommendations: %w", err)
	}
	flagsJSON, err := json.Marshal(orEmpty(ga.Flags))
	if err != nil {
		return fmt.Errorf("marshal flags: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
INSERT INTO gap_analyses (id, document_id, affected_controls, severity, effort_hours, similar_document_ids, summary, recommendations, flags, model_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (document_id) DO NOTHING
`,
		ga.ID, ga.DocumentID, controlsJSON, string(ga.Severity), ga.EffortHours,
		similarJSON, ga.Summary, recsJSON, flagsJSON, ga.ModelID, ga.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert gap analysis: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert gap analysis rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrAlreadyAnalyzed, "insert gap analysis",
			fmt.Errorf("document_id=%s", ga.DocumentID))
	}
	return nil
}

func (r *GapAnalysisRepository) GetByID(ctx context.Context, id string) (*domain.GapAnalysis, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+gapAnalysisColumns+`
FROM gap_analyses
WHERE id = $1
`, id)
	ga, err := scanGapAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrGapAnalysisNotFound, "get gap analysis", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("get gap analysis by id: %w", err)
	}
	return ga, nil
}

func (r *GapAnalysisRepository) GetByDocumentID(ctx context.Context, documentID string) (*domain.GapAnalysis, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+gapAnalysisColumns+`
FROM gap_analyses
WHERE document_id = $1
`, documentID)
	ga, err := scanGapAnalysis(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrGapAnalysisNotFound, "get gap analysis",
				fmt.Errorf("document_id=%s", documentID))
		}
		return nil, fmt.Errorf("get gap analysis by document id: %w", err)
	}
	return ga, nil
}

func scanGapAnalysis(row rowScanner) (*domain.GapAnalysis, error) {
	var ga domain.GapAnalysis
	var severity string
	var effortHours sql.NullInt64
	var controlsRaw, similarRaw, recsRaw, flagsRaw []byte
	var modelID sql.NullString

	err := row.Scan(
		&ga.ID, &ga.DocumentID, &controlsRaw, &severity, &effortHours,
		&similarRaw, &ga.Summary, &recsRaw, &flagsRaw, &modelID, &ga.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	ga.Severity = domain.GapSeverity(severity)
	if effortHours.Valid {
		hours := int(effortHours.Int64)
		ga.EffortHours = &hours
	}
	if err := json.Unmarshal(controlsRaw, &ga.AffectedControls); err != nil {
		return nil, fmt.Errorf("unmarshal affected controls: %w", err)
	}
	if err := json.Unmarshal(similarRaw, &ga.SimilarDocumentIDs); err != nil {
		return nil, fmt.Errorf("unmarshal similar document ids: %w", err)
	}
	if err := json.Unmarshal(recsRaw, &ga.Recommendations); err != nil {
		return nil, fmt.Errorf("unmarshal recommendations: %w", err)
	}
	if err := json.Unmarshal(flagsRaw, &ga.Flags); err != nil {
		return nil, fmt.Errorf("unmarshal flags: %w", err)
	}
	ga.ModelID = modelID.String
	return &ga, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
