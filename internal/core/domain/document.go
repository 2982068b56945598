package domain

import "time"

// DocumentSource identifies a regulatory publisher. The (source, external id)
// pair is the natural key of a document.
type DocumentSource string

const (
	SourceFinCEN          DocumentSource = "fincen"
	SourceSEC             DocumentSource = "sec"
	SourceFederalRegister DocumentSource = "federal_register"
	SourceCFTC            DocumentSource = "cftc"
	SourceNYDFS           DocumentSource = "nydfs"
	SourceOFAC            DocumentSource = "ofac"
)

func (s DocumentSource) Valid() bool {
	switch s {
	case SourceFinCEN, SourceSEC, SourceFederalRegister, SourceCFTC, SourceNYDFS, SourceOFAC:
		return true
	}
	return false
}

// MetaHashDuplicateOf marks a cross-source content-hash match; its value is the
// source/external_id of the first sighting. Sources may legitimately republish
// identical text, so the match is flagged, never rejected.
const MetaHashDuplicateOf = "content_hash_duplicate_of"

// MetaEscalated marks a document escalated by a cheaper upstream heuristic;
// an escalated document passes the relevance gate regardless of its score.
const MetaEscalated = "escalated"

// Document is an ingested regulatory publication. Immutable once created
// except for content/hash back-fill; never deleted by the pipeline.
type Document struct {
	ID          string         `json:"id"`
	Source      DocumentSource `json:"source"`
	ExternalID  string         `json:"external_id"`
	Title       string         `json:"title"`
	URL         string         `json:"url"`
	Content     string         `json:"content,omitempty"`
	ContentHash string         `json:"content_hash,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	IngestedAt  time.Time      `json:"ingested_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// HasContent reports whether the document's text has been fetched yet.
func (d *Document) HasContent() bool {
	return d.Content != ""
}

func (d *Document) Escalated() bool {
	v, ok := d.Metadata[MetaEscalated].(bool)
	return ok && v
}

// DocumentFilter narrows read accessors; zero values mean "no filter".
type DocumentFilter struct {
	Source DocumentSource
	Limit  int
	Offset int
}
