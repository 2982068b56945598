package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, source, external_id, title, url, content, content_hash, published_at, ingested_at, metadata`

// Create inserts a document, relying on the (source, external_id) constraint
// to arbitrate concurrent admits. A conflicting insert affects zero rows and
// surfaces as ErrAlreadyExists.
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	metaJSON, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
INSERT INTO documents (id, source, external_id, title, url, content, content_hash, published_at, ingested_at, metadata)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (source, external_id) DO NOTHING
`,
		doc.ID, string(doc.Source), doc.ExternalID, doc.Title, doc.URL,
		nullString(doc.Content), nullString(doc.ContentHash), doc.PublishedAt, doc.IngestedAt, metaJSON,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert document rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrAlreadyExists, "insert document",
			fmt.Errorf("natural key %s/%s taken", doc.Source, doc.ExternalID))
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("get document by id: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) GetByNaturalKey(ctx context.Context, source domain.DocumentSource, externalID string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE source = $1 AND external_id = $2
`, string(source), externalID)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document",
				fmt.Errorf("natural key %s/%s", source, externalID))
		}
		return nil, fmt.Errorf("get document by natural key: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) FindByContentHash(ctx context.Context, hash, excludeID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE content_hash = $1 AND id <> $2
ORDER BY ingested_at ASC
`, hash, excludeID)
	if err != nil {
		return nil, fmt.Errorf("find by content hash: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// BackfillContent fills in content and hash on a document admitted without
// text. The content IS NULL guard keeps existing content immutable.
func (r *DocumentRepository) BackfillContent(ctx context.Context, id, content, hash string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET content = $2, content_hash = $3
WHERE id = $1 AND content IS NULL
`, id, content, hash)
	if err != nil {
		return fmt.Errorf("backfill content: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("backfill content rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, "backfill content",
			fmt.Errorf("id=%s missing or already has content", id))
	}
	return nil
}

func (r *DocumentRepository) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	query := `
SELECT ` + documentColumns + `
FROM documents
`
	args := []any{}
	if filter.Source != "" {
		args = append(args, string(filter.Source))
		query += fmt.Sprintf("WHERE source = $%d\n", len(args))
	}
	query += "ORDER BY ingested_at DESC\n"
	args = append(args, limitOrDefault(filter.Limit))
	query += fmt.Sprintf("LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var source string
	var content, contentHash sql.NullString
	var publishedAt sql.NullTime
	var metaRaw []byte

	err := row.Scan(
		&doc.ID, &source, &doc.ExternalID, &doc.Title, &doc.URL,
		&content, &contentHash, &publishedAt, &doc.IngestedAt, &metaRaw,
	)
	if err != nil {
		return nil, err
	}

	doc.Source = domain.DocumentSource(source)
	doc.Content = content.String
	doc.ContentHash = contentHash.String
	if publishedAt.Valid {
		t := publishedAt.Time
		doc.PublishedAt = &t
	}
	if len(metaRaw) > 0 {
		if err := json.Unmarshal(metaRaw, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &doc, nil
}

func collectDocuments(rows *sql.Rows) ([]domain.Document, error) {
	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func marshalMetadata(meta map[string]any) (any, error) {
	if meta == nil {
		return nil, nil
	}
	return json.Marshal(meta)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 50
	}
	return limit
}
