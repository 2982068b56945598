package openai

import (
	"fmt"
	"strings"

	"github.com/dkozyrev/reg-radar/internal/core/domain"
	"github.com/dkozyrev/reg-radar/internal/core/ports"
)

const maxContentSnippet = 6000

func snippet(text string) string {
	if len(text) > maxContentSnippet {
		return text[:maxContentSnippet]
	}
	return text
}

const classifySystemPrompt = `You are a BSA/AML compliance analyst reviewing regulatory publications.
Score how relevant a document is to a financial institution's BSA/AML compliance program.
Return a strict JSON object with keys:
relevance_score (integer 0-5), confidence (number 0-1),
pillars (array drawn from: "internal_controls", "bsa_officer", "training", "independent_testing", "customer_due_diligence"),
categories (array of short strings), reasoning (string).
No markdown, no extra keys.`

func buildClassifyPrompt(input ports.ClassificationInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", input.Source)
	fmt.Fprintf(&b, "Title: %s\n", input.Title)
	if input.PublishedAt != "" {
		fmt.Fprintf(&b, "Published: %s\n", input.PublishedAt)
	}
	b.WriteString("\nDocument:\n")
	b.WriteString(snippet(input.Content))
	return b.String()
}

const assessSystemPrompt = `You are a BSA/AML compliance officer performing a gap analysis.
Given a regulatory document and the institution's control catalog, identify which controls
the document puts under pressure and what remediation is needed.
Return a strict JSON object with keys:
affected_controls (array of objects with control_id, description, remediation, effort where effort is "low"|"medium"|"high"),
severity ("low"|"medium"|"high"|"critical"), effort_hours (integer or null),
summary (string), recommendations (array of strings).
Use only control ids from the catalog. No markdown, no extra keys.`

func buildAssessPrompt(input ports.AssessmentInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Source: %s\n", input.Source)
	fmt.Fprintf(&b, "Title: %s\n", input.Title)
	fmt.Fprintf(&b, "Relevance score: %d\n", input.RelevanceScore)
	if len(input.Pillars) > 0 {
		fmt.Fprintf(&b, "Pillars: %s\n", joinPillars(input.Pillars))
	}
	if len(input.Categories) > 0 {
		fmt.Fprintf(&b, "Categories: %s\n", strings.Join(input.Categories, ", "))
	}
	if input.Reasoning != "" {
		fmt.Fprintf(&b, "Classifier reasoning: %s\n", input.Reasoning)
	}

	b.WriteString("\nControl catalog:\n")
	for _, control := range domain.Controls {
		fmt.Fprintf(&b, "- %s: %s (pillar: %s)\n", control.ID, control.Name, control.Pillar)
	}

	if len(input.Similar) > 0 {
		b.WriteString("\nPrior analyses of similar documents:\n")
		for _, sim := range input.Similar {
			fmt.Fprintf(&b, "- [%s] %s (severity: %s): %s\n", sim.DocumentID, sim.Title, sim.Severity, sim.Summary)
		}
	}

	b.WriteString("\nDocument:\n")
	b.WriteString(snippet(input.Content))
	return b.String()
}

func joinPillars(pillars []domain.Pillar) string {
	names := make([]string, len(pillars))
	for i, p := range pillars {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
