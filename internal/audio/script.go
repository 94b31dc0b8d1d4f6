package audio

import (
	"fmt"
	"strings"

	"paperscope/internal/models"
)

const maxChunkChars = 500

// BuildNarration turns an analysis report into spoken-friendly prose:
// no markdown, no LaTeX, short declarative segments.
func BuildNarration(r models.AnalysisReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "This is an automated analysis of the paper %s.", r.Content.Title)
	if len(r.Content.Authors) > 0 {
		fmt.Fprintf(&sb, " By %s.", strings.Join(r.Content.Authors, ", "))
	}
	sb.WriteString("\n\n")

	if r.Summary.OneSentence != "" {
		fmt.Fprintf(&sb, "In one sentence: %s\n\n", r.Summary.OneSentence)
	}
	if r.Summary.Methodology != "" {
		fmt.Fprintf(&sb, "Methodology. %s\n\n", r.Summary.Methodology)
	}
	if r.Summary.Results != "" {
		fmt.Fprintf(&sb, "Results. %s\n\n", r.Summary.Results)
	}
	if r.Summary.Conclusions != "" {
		fmt.Fprintf(&sb, "Conclusions. %s\n\n", r.Summary.Conclusions)
	}

	if len(r.KeyPoints) > 0 {
		sb.WriteString("Key findings. ")
		for _, kp := range r.KeyPoints {
			sb.WriteString(kp.Point)
			if !strings.HasSuffix(kp.Point, ".") {
				sb.WriteString(".")
			}
			sb.WriteString(" ")
		}
		sb.WriteString("\n\n")
	}

	if r.Review != nil {
		fmt.Fprintf(&sb, "The automated peer review scored this paper %.1f out of 10, a decision of %s.\n",
			r.Review.OverallScore, strings.ToLower(r.Review.Decision))
	}

	return strings.TrimSpace(sb.String())
}

// ChunkScript splits narration into pieces at or under maxChunkChars,
// preferring sentence boundaries so the voice does not cut mid-thought.
func ChunkScript(script string) []string {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil
	}
	var chunks []string
	var cur strings.Builder
	for _, sentence := range splitSentences(script) {
		if cur.Len() > 0 && cur.Len()+1+len(sentence) > maxChunkChars {
			chunks = append(chunks, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
		// A single oversized sentence is split hard at the limit.
		for len(sentence) > maxChunkChars {
			chunks = append(chunks, strings.TrimSpace(sentence[:maxChunkChars]))
			sentence = sentence[maxChunkChars:]
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(sentence)
	}
	if strings.TrimSpace(cur.String()) != "" {
		chunks = append(chunks, strings.TrimSpace(cur.String()))
	}
	return chunks
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '.' || text[i] == '!' || text[i] == '?' || text[i] == '\n' {
			end := i + 1
			s := strings.TrimSpace(text[start:end])
			if s != "" {
				out = append(out, s)
			}
			start = end
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
