package comparison

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"paperscope/internal/review"
)

// Snapshot is one review's scores, from either this pipeline or an external
// reviewer. Absent dimensions stay nil and render as "—".
type Snapshot struct {
	Source       string   `json:"source"`
	Overall      *float64 `json:"overall,omitempty"`
	Soundness    *float64 `json:"soundness,omitempty"`
	Presentation *float64 `json:"presentation,omitempty"`
	Contribution *float64 `json:"contribution,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
	Decision     string   `json:"decision,omitempty"`
}

var scoreLinePatterns = map[string]*regexp.Regexp{
	"overall":      regexp.MustCompile(`(?i)\boverall(?:\s+score)?\s*[:=]\s*(\d+(?:\.\d+)?)`),
	"soundness":    regexp.MustCompile(`(?i)\bsoundness\s*[:=]\s*(\d+(?:\.\d+)?)`),
	"presentation": regexp.MustCompile(`(?i)\bpresentation\s*[:=]\s*(\d+(?:\.\d+)?)`),
	"contribution": regexp.MustCompile(`(?i)\bcontribution\s*[:=]\s*(\d+(?:\.\d+)?)`),
	"confidence":   regexp.MustCompile(`(?i)\bconfidence\s*[:=]\s*(\d+(?:\.\d+)?)`),
}

// ParseExternalReview reads a reviewer's scores from a JSON file or from
// free text with "dimension: value" lines.
func ParseExternalReview(path string) (Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read external review: %w", err)
	}
	snap := Snapshot{Source: filepath.Base(path)}
	if strings.HasSuffix(strings.ToLower(path), ".json") || json.Valid(raw) {
		if err := json.Unmarshal(raw, &snap); err == nil && snap.anyScore() {
			snap.Source = filepath.Base(path)
			snap.fillDecision()
			return snap, nil
		}
	}
	parseScoreLines(string(raw), &snap)
	if !snap.anyScore() {
		return Snapshot{}, fmt.Errorf("no recognizable scores in %s", path)
	}
	snap.fillDecision()
	return snap, nil
}

var specOutputJSONPattern = regexp.MustCompile("(?s)```json\n(.+?)\n```")

// ParseLocalRun loads this pipeline's scores from a run output directory,
// preferring the machine-readable block in spec_output.md.
func ParseLocalRun(outputDir string) (Snapshot, error) {
	snap := Snapshot{Source: "paperscope"}

	specPath := filepath.Join(outputDir, "spec_output.md")
	if raw, err := os.ReadFile(specPath); err == nil {
		if m := specOutputJSONPattern.FindSubmatch(raw); m != nil {
			if err := json.Unmarshal(m[1], &snap); err == nil && snap.anyScore() {
				snap.Source = "paperscope"
				snap.fillDecision()
				return snap, nil
			}
		}
	}

	metaPath := filepath.Join(outputDir, "metadata.json")
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("no local run artifacts in %s: %w", outputDir, err)
	}
	var meta struct {
		Review *struct {
			OverallScore float64 `json:"overall_score"`
			Confidence   float64 `json:"confidence"`
			Decision     string  `json:"decision"`
			Dimensions   map[string]struct {
				Score float64 `json:"score"`
			} `json:"dimensions"`
		} `json:"review"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Snapshot{}, fmt.Errorf("parse metadata.json: %w", err)
	}
	if meta.Review == nil {
		return Snapshot{}, fmt.Errorf("run in %s has no review", outputDir)
	}
	snap.Overall = &meta.Review.OverallScore
	snap.Confidence = &meta.Review.Confidence
	snap.Decision = meta.Review.Decision
	if d, ok := meta.Review.Dimensions["soundness"]; ok {
		snap.Soundness = f64ptr(d.Score)
	}
	if d, ok := meta.Review.Dimensions["presentation"]; ok {
		snap.Presentation = f64ptr(d.Score)
	}
	if d, ok := meta.Review.Dimensions["contribution"]; ok {
		snap.Contribution = f64ptr(d.Score)
	}
	snap.fillDecision()
	return snap, nil
}

func parseScoreLines(text string, snap *Snapshot) {
	assign := map[string]**float64{
		"overall":      &snap.Overall,
		"soundness":    &snap.Soundness,
		"presentation": &snap.Presentation,
		"contribution": &snap.Contribution,
		"confidence":   &snap.Confidence,
	}
	for name, pattern := range scoreLinePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				*assign[name] = &v
			}
		}
	}
}

func (s *Snapshot) anyScore() bool {
	return s.Overall != nil || s.Soundness != nil || s.Presentation != nil || s.Contribution != nil
}

func (s *Snapshot) fillDecision() {
	if s.Decision == "" && s.Overall != nil {
		s.Decision = review.InterpretScore(*s.Overall)
	}
}

// BuildComparison renders the local-vs-external delta table.
func BuildComparison(local, external Snapshot) string {
	var sb strings.Builder
	sb.WriteString("# Review Comparison\n\n")
	fmt.Fprintf(&sb, "Local: **%s** vs External: **%s**\n\n", local.Source, external.Source)
	sb.WriteString("| Dimension | Local | External | Delta |\n|---|---|---|---|\n")
	row := func(name string, l, e *float64) {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", name, fmtScore(l), fmtScore(e), fmtDelta(l, e))
	}
	row("Overall", local.Overall, external.Overall)
	row("Soundness", local.Soundness, external.Soundness)
	row("Presentation", local.Presentation, external.Presentation)
	row("Contribution", local.Contribution, external.Contribution)
	row("Confidence", local.Confidence, external.Confidence)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "- Local decision: **%s**\n", orDash(local.Decision))
	fmt.Fprintf(&sb, "- External decision: **%s**\n", orDash(external.Decision))
	if local.Decision != "" && external.Decision != "" {
		if local.Decision == external.Decision {
			sb.WriteString("- Decisions **agree**.\n")
		} else {
			sb.WriteString("- Decisions **diverge**.\n")
		}
	}
	return sb.String()
}

func fmtScore(v *float64) string {
	if v == nil {
		return "—"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func fmtDelta(l, e *float64) string {
	if l == nil || e == nil {
		return "—"
	}
	d := *l - *e
	sign := ""
	if d > 0 {
		sign = "+"
	}
	if math.Abs(d) < 1e-9 {
		return "0.00"
	}
	return sign + strconv.FormatFloat(d, 'f', 2, 64)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func f64ptr(v float64) *float64 { return &v }
