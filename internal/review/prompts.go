package review

import (
	"fmt"
	"strings"

	"paperscope/internal/models"
)

// Character budgets keep node prompts inside model context limits.
const (
	intakeExcerptLimit    = 3000
	queryExcerptLimit     = 2000
	analysisExcerptLimit  = 4000
	relatedTitleLimit     = 10
	queryCount            = 6
	strengthTargetCount   = 4
	weaknessTargetCount   = 4
	compositionWordBudget = 600
)

func IntakePrompt(doc models.Document) string {
	return fmt.Sprintf(
		"You are reviewing a research paper. State its exact title on a single line, nothing else.\n\nPaper opening:\n%s",
		clip(doc.FullText, intakeExcerptLimit))
}

func QueryGenerationPrompt(doc models.Document) string {
	return fmt.Sprintf(
		"Generate %d short literature-search queries to find work related to this paper. One query per line, no numbering.\n\nTitle: %s\n\nAbstract:\n%s",
		queryCount, doc.Title, clip(doc.Abstract, queryExcerptLimit))
}

func StrengthPrompt(doc models.Document, related []models.RelatedWork) string {
	return fmt.Sprintf(
		"Identify the %d main strengths of this paper as concise bullet points, one per line.\n\nTitle: %s\n\nAbstract:\n%s\n\nBody excerpt:\n%s%s",
		strengthTargetCount, doc.Title, clip(doc.Abstract, queryExcerptLimit),
		clip(doc.FullText, analysisExcerptLimit), relatedContext(related))
}

func WeaknessPrompt(doc models.Document, related []models.RelatedWork) string {
	return fmt.Sprintf(
		"Identify the %d main weaknesses of this paper as concise bullet points, one per line. Be specific and technical.\n\nTitle: %s\n\nAbstract:\n%s\n\nBody excerpt:\n%s%s",
		weaknessTargetCount, doc.Title, clip(doc.Abstract, queryExcerptLimit),
		clip(doc.FullText, analysisExcerptLimit), relatedContext(related))
}

func ScoringPrompt(doc models.Document, strengths, weaknesses []string, venue string) string {
	return fmt.Sprintf(
		"Score this paper for %s on three dimensions, each 0-5.\nRespond with exactly three comma-separated numbers: soundness,presentation,contribution. No other text.\n\nTitle: %s\n\nStrengths:\n%s\n\nWeaknesses:\n%s",
		venue, doc.Title, strings.Join(strengths, "\n"), strings.Join(weaknesses, "\n"))
}

func CompositionPrompt(doc models.Document, strengths, weaknesses []string, overall float64, decision, venue string) string {
	return fmt.Sprintf(
		"Write a peer review of at most %d words for %s.\nOverall score: %.2f/10 (%s). Cover summary, strengths, weaknesses, and a closing recommendation consistent with the score.\n\nTitle: %s\n\nAbstract:\n%s\n\nStrengths:\n%s\n\nWeaknesses:\n%s",
		compositionWordBudget, venue, overall, decision, doc.Title,
		clip(doc.Abstract, queryExcerptLimit),
		strings.Join(strengths, "\n"), strings.Join(weaknesses, "\n"))
}

func relatedContext(related []models.RelatedWork) string {
	if len(related) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\nRelated work found by search:\n")
	for i, rw := range related {
		if i >= relatedTitleLimit {
			break
		}
		sb.WriteString("- " + rw.Title + "\n")
	}
	return sb.String()
}

func clip(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
