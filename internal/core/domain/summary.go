package domain

import "time"

// DocumentSummary is one row of the priority ranking view: a document joined
// with whatever classification and gap-analysis output it has so far.
type DocumentSummary struct {
	DocumentID     string         `json:"document_id"`
	Source         DocumentSource `json:"source"`
	Title          string         `json:"title"`
	URL            string         `json:"url"`
	PublishedAt    *time.Time     `json:"published_at,omitempty"`
	RelevanceScore *int           `json:"relevance_score,omitempty"`
	Confidence     *float64       `json:"confidence,omitempty"`
	Severity       *GapSeverity   `json:"gap_severity,omitempty"`
	EffortHours    *int           `json:"effort_hours,omitempty"`
}

// SeverityRank is the primary ranking key: critical=1, high=2, medium=3,
// everything else (low or no analysis yet) = 4.
func SeverityRank(s *GapSeverity) int {
	if s == nil {
		return 4
	}
	switch *s {
	case SeverityCritical:
		return 1
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 3
	default:
		return 4
	}
}
