package domain

import "testing"

func TestDocumentSourceValid(t *testing.T) {
	for _, s := range []DocumentSource{
		SourceFinCEN, SourceSEC, SourceFederalRegister, SourceCFTC, SourceNYDFS, SourceOFAC,
	} {
		if !s.Valid() {
			t.Errorf("source %q must be valid", s)
		}
	}
	for _, s := range []DocumentSource{"", "occ", "FINCEN"} {
		if s.Valid() {
			t.Errorf("source %q must be invalid", s)
		}
	}
}

func TestDocumentEscalated(t *testing.T) {
	cases := []struct {
		name string
		meta map[string]any
		want bool
	}{
		{"flag true", map[string]any{MetaEscalated: true}, true},
		{"flag false", map[string]any{MetaEscalated: false}, false},
		{"wrong type", map[string]any{MetaEscalated: "true"}, false},
		{"no metadata", nil, false},
	}
	for _, tc := range cases {
		doc := &Document{Metadata: tc.meta}
		if got := doc.Escalated(); got != tc.want {
			t.Errorf("%s: Escalated() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
