package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
)

func TestPriorityViewRankPassesGateThresholds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	view := NewPriorityView(db)
	rows := sqlmock.NewRows([]string{
		"id", "source", "title", "url", "published_at",
		"relevance_score", "confidence", "severity", "effort_hours",
	}).
		AddRow("doc-1", "fincen", "CDD amendment", "https://example.gov/a",
			time.Now(), 5, 0.95, "critical", 40).
		AddRow("doc-2", "sec", "minor notice", "https://example.gov/b",
			nil, nil, nil, "high", nil)

	// The ordering chain is the ranking contract: severity bucket first, so a
	// critical analysis outranks any higher relevance score, then score, then
	// publication date with nulls last.
	orderChain := "LEFT JOIN classifications.*" +
		"ORDER BY CASE g.severity " +
		"WHEN 'critical' THEN 1 WHEN 'high' THEN 2 WHEN 'medium' THEN 3 ELSE 4 END, " +
		"c.relevance_score DESC NULLS LAST, " +
		"d.published_at DESC NULLS LAST"
	mock.ExpectQuery(orderChain).
		WithArgs(domain.RelevanceGateScore, domain.RelevanceGateConfidence).
		WillReturnRows(rows)

	summaries, err := view.Rank(context.Background())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}

	first := summaries[0]
	if first.RelevanceScore == nil || *first.RelevanceScore != 5 {
		t.Errorf("relevance score = %v, want 5", first.RelevanceScore)
	}
	if first.Severity == nil || *first.Severity != domain.SeverityCritical {
		t.Errorf("severity = %v, want critical", first.Severity)
	}
	if first.EffortHours == nil || *first.EffortHours != 40 {
		t.Errorf("effort hours = %v, want 40", first.EffortHours)
	}

	second := summaries[1]
	if second.RelevanceScore != nil || second.Confidence != nil {
		t.Errorf("unclassified document must keep nil score and confidence")
	}
	if second.PublishedAt != nil {
		t.Errorf("NULL published_at must scan as nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
