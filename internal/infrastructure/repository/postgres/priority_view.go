package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
)

// PriorityView computes the urgency ranking as a query over the three owning
// tables. No materialization: the join is recomputed on every read.
type PriorityView struct {
	db *sql.DB
}

func NewPriorityView(db *sql.DB) *PriorityView {
	return &PriorityView{db: db}
}

// Rank returns documents ordered by the severity/score/date tie-break chain.
// Inclusion and ordering mirror the pipeline's relevance gate:
// included when the classification passes the gate or the gap severity is
// high/critical; ordered by severity bucket, then relevance score descending,
// then published date descending with nulls last.
func (v *PriorityView) Rank(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := v.db.QueryContext(ctx, `
SELECT d.id, d.source, d.title, d.url, d.published_at,
	c.relevance_score, c.confidence, g.severity, g.effort_hours
FROM documents d
LEFT JOIN classifications c ON c.document_id = d.id
LEFT JOIN gap_analyses g ON g.document_id = d.id
WHERE (c.relevance_score >= $1 AND c.confidence >= $2)
	OR g.severity IN ('high', 'critical')
ORDER BY
	CASE g.severity
		WHEN 'critical' THEN 1
		WHEN 'high' THEN 2
		WHEN 'medium' THEN 3
		ELSE 4
	END,
	c.relevance_score DESC NULLS LAST,
	d.published_at DESC NULLS LAST
`, domain.RelevanceGateScore, domain.RelevanceGateConfidence)
	if err != nil {
		return nil, fmt.Errorf("rank query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DocumentSummary, 0)
	for rows.Next() {
		var s domain.DocumentSummary
		var source string
		var publishedAt sql.NullTime
		var score sql.NullInt64
		var confidence sql.NullFloat64
		var severity sql.NullString
		var effortHours sql.NullInt64

		err := rows.Scan(&s.DocumentID, &source, &s.Title, &s.URL, &publishedAt,
			&score, &confidence, &severity, &effortHours)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}

		s.Source = domain.DocumentSource(source)
		if publishedAt.Valid {
			t := publishedAt.Time
			s.PublishedAt = &t
		}
		if score.Valid {
			v := int(score.Int64)
			s.RelevanceScore = &v
		}
		if confidence.Valid {
			v := confidence.Float64
			s.Confidence = &v
		}
		if severity.Valid {
			v := domain.GapSeverity(severity.String)
			s.Severity = &v
		}
		if effortHours.Valid {
			v := int(effortHours.Int64)
			s.EffortHours = &v
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}
