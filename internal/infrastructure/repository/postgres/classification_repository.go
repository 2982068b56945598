package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
)

type ClassificationRepository struct {
	db *sql.DB
}

func NewClassificationRepository(db *sql.DB) *ClassificationRepository {
	return &ClassificationRepository{db: db}
}

// Create persists a classification exactly once per document. The UNIQUE
// constraint on document_id is the commit guard; a second insert affects zero
// rows and surfaces as ErrAlreadyClassified.
func (r *ClassificationRepository) Create(ctx context.Context, cls *domain.Classification) error {
	pillarsJSON, err := json.Marshal(cls.Pillars)
	if err != nil {
		return fmt.Errorf("marshal pillars: %w", err)
	}
	categoriesJSON, err := json.Marshal(cls.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
INSERT INTO classifications (id, document_id, relevance_score, confidence, pillars, categories, reasoning, model_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (document_id) DO NOTHING
`,
		cls.ID, cls.DocumentID, cls.RelevanceScore, cls.Confidence,
		pillarsJSON, categoriesJSON, cls.Reasoning, cls.ModelID, cls.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert classification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert classification rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrAlreadyClassified, "insert classification",
			fmt.Errorf("document_id=%s", cls.DocumentID))
	}
	return nil
}

func (r *ClassificationRepository) GetByDocumentID(ctx context.Context, documentID string) (*domain.Classification, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, document_id, relevance_score, confidence, pillars, categories, reasoning, model_id, created_at
FROM classifications
WHERE document_id = $1
`, documentID)

	var cls domain.Classification
	var pillarsRaw, categoriesRaw []byte
	var reasoning, modelID sql.NullString
	err := row.Scan(
		&cls.ID, &cls.DocumentID, &cls.RelevanceScore, &cls.Confidence,
		&pillarsRaw, &categoriesRaw, &reasoning, &modelID, &cls.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrClassificationMissing, "get classification",
				fmt.Errorf("document_id=%s", documentID))
		}
		return nil, fmt.Errorf("scan classification: %w", err)
	}

	if err := json.Unmarshal(pillarsRaw, &cls.Pillars); err != nil {
		return nil, fmt.Errorf("unmarshal pillars: %w", err)
	}
	if err := json.Unmarshal(categoriesRaw, &cls.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	cls.Reasoning = reasoning.String
	cls.ModelID = modelID.String
	return &cls, nil
}

// DeleteByDocumentID supports explicit re-classification: delete, then
// re-run. The pipeline itself never calls this.
func (r *ClassificationRepository) DeleteByDocumentID(ctx context.Context, documentID string) error {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM classifications
WHERE document_id = $1
`, documentID)
	if err != nil {
		return fmt.Errorf("delete classification: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete classification rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrClassificationMissing, "delete classification",
			fmt.Errorf("document_id=%s", documentID))
	}
	return nil
}
