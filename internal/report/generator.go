package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"paperscope/internal/models"
)

const (
	maxKeyEquations     = 5
	maxRenderedTables   = 5
	maxRenderedRefs     = 20
	equationContextTrim = 160
)

// BuildMarkdown renders the main human-readable report.
func BuildMarkdown(r models.AnalysisReport) string {
	var sb strings.Builder

	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "title: %q\n", r.Content.Title)
	fmt.Fprintf(&sb, "run_id: %s\n", r.RunID)
	fmt.Fprintf(&sb, "source: %q\n", r.Source)
	fmt.Fprintf(&sb, "source_type: %s\n", r.SourceType)
	fmt.Fprintf(&sb, "analysed_at: %s\n", r.Metadata.AnalysedAt.Format("2006-01-02T15:04:05Z07:00"))
	sb.WriteString("---\n\n")

	fmt.Fprintf(&sb, "# %s\n\n", r.Content.Title)
	if len(r.Content.Authors) > 0 {
		fmt.Fprintf(&sb, "*%s*\n\n", strings.Join(r.Content.Authors, ", "))
	}

	sb.WriteString("## Summary\n\n")
	if r.Summary.OneSentence != "" {
		fmt.Fprintf(&sb, "**In one sentence:** %s\n\n", r.Summary.OneSentence)
	}
	writeSummaryField(&sb, "Abstract", r.Summary.Abstract)
	writeSummaryField(&sb, "Methodology", r.Summary.Methodology)
	writeSummaryField(&sb, "Results", r.Summary.Results)
	writeSummaryField(&sb, "Conclusions", r.Summary.Conclusions)

	if len(r.KeyPoints) > 0 {
		sb.WriteString("## Key Findings\n\n")
		for _, kp := range r.KeyPoints {
			fmt.Fprintf(&sb, "- **%s**", kp.Point)
			if kp.Section != "" {
				fmt.Fprintf(&sb, " _(%s)_", kp.Section)
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	writeKeyEquations(&sb, r.Content.Equations)
	writeDiagrams(&sb, r.Diagrams)
	writeReview(&sb, r.Review)
	writeTables(&sb, r.Content.Tables)
	writeStages(&sb, r)

	if len(r.Content.References) > 0 {
		sb.WriteString("## References (extracted)\n\n")
		for i, ref := range r.Content.References {
			if i >= maxRenderedRefs {
				fmt.Fprintf(&sb, "- ... and %d more\n", len(r.Content.References)-maxRenderedRefs)
				break
			}
			fmt.Fprintf(&sb, "- [%s] %s\n", ref.ID, ref.Text)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeSummaryField(sb *strings.Builder, name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(sb, "### %s\n\n%s\n\n", name, value)
}

func writeKeyEquations(sb *strings.Builder, eqs []models.Equation) {
	var display []models.Equation
	for _, eq := range eqs {
		if !eq.IsInline {
			display = append(display, eq)
		}
	}
	if len(display) == 0 {
		return
	}
	sb.WriteString("## Key Equations\n\n")
	for i, eq := range display {
		if i >= maxKeyEquations {
			break
		}
		fmt.Fprintf(sb, "**%s**", eq.ID)
		if eq.Label != "" {
			fmt.Fprintf(sb, " (`%s`)", eq.Label)
		}
		fmt.Fprintf(sb, " — section *%s*\n\n", eq.Section)
		fmt.Fprintf(sb, "$$%s$$\n\n", eq.LaTeX)
		if eq.Description != "" {
			fmt.Fprintf(sb, "%s\n\n", eq.Description)
		}
	}
}

func writeDiagrams(sb *strings.Builder, diagrams []models.GeneratedDiagram) {
	if len(diagrams) == 0 {
		return
	}
	sb.WriteString("## Diagrams\n\n")
	for _, d := range diagrams {
		fmt.Fprintf(sb, "### %s\n\n", d.DiagramType)
		fmt.Fprintf(sb, "![%s](%s)\n\n", d.DiagramType, d.ImagePath)
		if d.Caption != "" {
			fmt.Fprintf(sb, "%s\n\n", d.Caption)
		}
		if d.IsFallback {
			fmt.Fprintf(sb, "> Fallback rendering; synthesis failed: %s\n\n", d.Error)
		}
	}
}

func writeReview(sb *strings.Builder, pr *models.PeerReview) {
	if pr == nil {
		return
	}
	sb.WriteString("## Peer Review\n\n")
	fmt.Fprintf(sb, "**Overall: %.2f/10 — %s** (confidence %.1f/5)\n\n", pr.OverallScore, pr.Decision, pr.Confidence)

	sb.WriteString("| Dimension | Score | Weight |\n|---|---|---|\n")
	for _, name := range []string{"soundness", "presentation", "contribution"} {
		if d, ok := pr.Dimensions[name]; ok {
			fmt.Fprintf(sb, "| %s | %.1f | %.4f |\n", d.Name, d.Score, d.Weight)
		}
	}
	sb.WriteString("\n")

	if len(pr.Strengths) > 0 {
		sb.WriteString("### Strengths\n\n")
		for _, s := range pr.Strengths {
			fmt.Fprintf(sb, "- %s\n", s)
		}
		sb.WriteString("\n")
	}
	if len(pr.Weaknesses) > 0 {
		sb.WriteString("### Weaknesses\n\n")
		for _, w := range pr.Weaknesses {
			fmt.Fprintf(sb, "- %s\n", w)
		}
		sb.WriteString("\n")
	}
	if len(pr.RelatedWorks) > 0 {
		sb.WriteString("### Related Work Consulted\n\n")
		for _, rw := range pr.RelatedWorks {
			if rw.URL != "" {
				fmt.Fprintf(sb, "- [%s](%s)\n", rw.Title, rw.URL)
			} else {
				fmt.Fprintf(sb, "- %s\n", rw.Title)
			}
		}
		sb.WriteString("\n")
	}
}

func writeTables(sb *strings.Builder, tables []models.Table) {
	if len(tables) == 0 {
		return
	}
	sb.WriteString("## Extracted Tables\n\n")
	for i, t := range tables {
		if i >= maxRenderedTables {
			fmt.Fprintf(sb, "_%d further tables in extracted/tables.json_\n\n", len(tables)-maxRenderedTables)
			break
		}
		if t.Caption != "" {
			fmt.Fprintf(sb, "**%s** — %s\n\n", t.ID, t.Caption)
		} else {
			fmt.Fprintf(sb, "**%s**\n\n", t.ID)
		}
		sb.WriteString(t.Content + "\n\n")
	}
}

func writeStages(sb *strings.Builder, r models.AnalysisReport) {
	if len(r.Stages) == 0 {
		return
	}
	sb.WriteString("## Pipeline Stages\n\n| Stage | Status | Detail |\n|---|---|---|\n")
	for _, name := range []string{"extract", "diagrams", "review", "article", "audio"} {
		st, ok := r.Stages[name]
		if !ok {
			continue
		}
		fmt.Fprintf(sb, "| %s | %s | %s |\n", name, st.Status, st.Error)
	}
	sb.WriteString("\n")
}

// BuildKeyPoints renders the stand-alone key-points artifact.
func BuildKeyPoints(r models.AnalysisReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Key Points: %s\n\n", r.Content.Title)
	if len(r.KeyPoints) == 0 {
		sb.WriteString("No key points could be derived.\n")
		return sb.String()
	}
	for i, kp := range r.KeyPoints {
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, kp.Point)
		if kp.Evidence != "" {
			fmt.Fprintf(&sb, "> %s\n\n", kp.Evidence)
		}
		if kp.Section != "" {
			fmt.Fprintf(&sb, "- Section: %s\n", kp.Section)
		}
		if kp.Importance != "" {
			fmt.Fprintf(&sb, "- Importance: %s\n", kp.Importance)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// BuildReviewMarkdown renders the stand-alone review artifact.
func BuildReviewMarkdown(r models.AnalysisReport) string {
	if r.Review == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Review: %s\n\n", r.Content.Title)
	writeReview(&sb, r.Review)
	if r.Review.RawReview != "" {
		sb.WriteString("## Full Review Text\n\n")
		sb.WriteString(r.Review.RawReview + "\n")
	}
	return sb.String()
}

// specOutput is the machine-readable snapshot embedded in spec_output.md
// and consumed by the comparison tool.
type specOutput struct {
	RunID        string         `json:"run_id"`
	Title        string         `json:"title"`
	SourceType   string         `json:"source_type"`
	Counts       map[string]int `json:"counts"`
	Overall      *float64       `json:"overall,omitempty"`
	Soundness    *float64       `json:"soundness,omitempty"`
	Presentation *float64       `json:"presentation,omitempty"`
	Contribution *float64       `json:"contribution,omitempty"`
	Confidence   *float64       `json:"confidence,omitempty"`
	Decision     string         `json:"decision,omitempty"`
}

// BuildSpecOutput renders spec_output.md with a fenced JSON block so other
// tooling can parse run results without scraping prose.
func BuildSpecOutput(r models.AnalysisReport) string {
	out := specOutput{
		RunID:      r.RunID,
		Title:      r.Content.Title,
		SourceType: string(r.SourceType),
		Counts:     Counts(r.Content),
	}
	if r.Review != nil {
		out.Overall = f64ptr(r.Review.OverallScore)
		out.Confidence = f64ptr(r.Review.Confidence)
		out.Decision = r.Review.Decision
		if d, ok := r.Review.Dimensions["soundness"]; ok {
			out.Soundness = f64ptr(d.Score)
		}
		if d, ok := r.Review.Dimensions["presentation"]; ok {
			out.Presentation = f64ptr(d.Score)
		}
		if d, ok := r.Review.Dimensions["contribution"]; ok {
			out.Contribution = f64ptr(d.Score)
		}
	}
	blob, _ := json.MarshalIndent(out, "", "  ")
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Analysis Output: %s\n\n", r.Content.Title)
	sb.WriteString("```json\n")
	sb.Write(blob)
	sb.WriteString("\n```\n")
	if r.Review != nil {
		fmt.Fprintf(&sb, "\nDecision: **%s**\n", r.Review.Decision)
	}
	return sb.String()
}

// Counts summarizes extraction volume for progress and metadata.
func Counts(doc models.Document) map[string]int {
	return map[string]int{
		"sections":   len(doc.Sections),
		"equations":  len(doc.Equations),
		"tables":     len(doc.Tables),
		"figures":    len(doc.Figures),
		"references": len(doc.References),
	}
}

func f64ptr(v float64) *float64 { return &v }
