package review

import (
	"regexp"
	"strconv"
	"strings"
)

// Calibrated linear model mapping dimension scores to an overall score.
// The coefficients are fixed calibration constants; contribution carries
// the largest weight.
const (
	ScoreIntercept     = -0.3057
	WeightSoundness    = 0.7134
	WeightPresentation = 0.4242
	WeightContribution = 1.0588

	// NeutralDimensionScore substitutes for every dimension when the
	// scoring response cannot be parsed.
	NeutralDimensionScore = 2.5

	// FixedConfidence is reported with every review.
	FixedConfidence = 3.0
)

// ComputeFinalScore applies the calibrated combination and clamps the
// result to the 1..10 review scale.
func ComputeFinalScore(soundness, presentation, contribution float64) float64 {
	score := ScoreIntercept +
		WeightSoundness*soundness +
		WeightPresentation*presentation +
		WeightContribution*contribution
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}

type scoreBand struct {
	low   float64
	high  float64
	label string
}

// Bands are half-open [low, high); a score on a boundary lands in the
// higher band. The top band is closed at 10.
var scoreBands = []scoreBand{
	{1, 3, "Strong Reject"},
	{3, 4, "Reject"},
	{4, 5, "Weak Reject"},
	{5, 6, "Borderline"},
	{6, 7, "Weak Accept"},
	{7, 8, "Accept"},
}

// InterpretScore maps an overall score onto a decision label.
func InterpretScore(score float64) string {
	for _, b := range scoreBands {
		if score >= b.low && score < b.high {
			return b.label
		}
	}
	if score >= 8 {
		return "Strong Accept"
	}
	return "Strong Reject"
}

// ParseDimensionScores reads "soundness,presentation,contribution" from a
// model response. Any parse failure substitutes the neutral default for all
// three dimensions and reports ok=false.
func ParseDimensionScores(text string) (soundness, presentation, contribution float64, ok bool) {
	parts := strings.Split(strings.TrimSpace(text), ",")
	if len(parts) < 3 {
		return NeutralDimensionScore, NeutralDimensionScore, NeutralDimensionScore, false
	}
	vals := make([]float64, 0, 3)
	for _, p := range parts[:3] {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || v < 0 || v > 5 {
			return NeutralDimensionScore, NeutralDimensionScore, NeutralDimensionScore, false
		}
		vals = append(vals, v)
	}
	return vals[0], vals[1], vals[2], true
}

var listMarkerPattern = regexp.MustCompile(`^\d+[.)]\s*`)

// ParseLines splits a bullet-ish model response into trimmed, non-empty
// items with leading list markers removed.
func ParseLines(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*• \t")
		line = listMarkerPattern.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
