package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"paperscope/internal/models"
)

// Display matchers run before the inline matcher so that a $$...$$ block is
// claimed as display math rather than as two inline fragments. Matchers do
// not deduplicate overlapping hits; that is an accepted heuristic limit.
var displayEquationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)\$\$(.+?)\$\$`),
	regexp.MustCompile(`(?s)\\\[(.+?)\\\]`),
	regexp.MustCompile(`(?s)\\begin\{equation\}(.+?)\\end\{equation\}`),
	regexp.MustCompile(`(?s)\\begin\{align\}(.+?)\\end\{align\}`),
	regexp.MustCompile(`(?s)\\begin\{gather\}(.+?)\\end\{gather\}`),
}

var equationLabelPattern = regexp.MustCompile(`\\label\{(eq:[^}]+)\}`)

const equationContextWindow = 100

// equationExtractor numbers equations with a counter shared across display
// and inline matching. The counter is consumed even when a short inline
// candidate is discarded, so IDs are strictly increasing but may skip values.
type equationExtractor struct {
	counter int
	markers []sectionMarker
}

// ExtractEquations finds display and inline math in OCR markdown, with
// surrounding context, enclosing section and a heuristic description.
func ExtractEquations(text string) []models.Equation {
	ex := &equationExtractor{markers: sectionMarkers(text)}
	return ex.extract(text)
}

func (ex *equationExtractor) extract(text string) []models.Equation {
	equations := make([]models.Equation, 0)

	for _, pattern := range displayEquationPatterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			latex := strings.TrimSpace(text[m[2]:m[3]])
			if latex == "" {
				continue
			}
			ex.counter++
			section := ex.sectionAt(m[0])
			eq := models.Equation{
				ID:          fmt.Sprintf("eq_%03d", ex.counter),
				LaTeX:       latex,
				Context:     contextWindow(text, m[0], m[1]),
				Section:     section,
				IsInline:    false,
				Description: describeEquation(latex, section),
			}
			if lm := equationLabelPattern.FindStringSubmatch(latex); lm != nil {
				eq.Label = lm[1]
			}
			equations = append(equations, eq)
		}
	}

	for _, span := range inlineMathSpans(text) {
		latex := strings.TrimSpace(text[span.contentStart:span.contentEnd])
		ex.counter++
		if utf8.RuneCountInString(latex) < 3 {
			continue
		}
		section := ex.sectionAt(span.open)
		equations = append(equations, models.Equation{
			ID:          fmt.Sprintf("eq_%03d", ex.counter),
			LaTeX:       latex,
			Context:     contextWindow(text, span.open, span.contentEnd+1),
			Section:     section,
			IsInline:    true,
			Description: describeEquation(latex, section),
		})
	}

	return equations
}

type inlineSpan struct {
	open         int
	contentStart int
	contentEnd   int
}

// inlineMathSpans finds $...$ pairs where neither delimiter is part of a $$
// run and the content stays on one line. Go's regexp has no lookaround, so
// the delimiter rules are applied by hand.
func inlineMathSpans(text string) []inlineSpan {
	spans := make([]inlineSpan, 0)
	n := len(text)
	i := 0
	for i < n {
		if text[i] != '$' || !singleDollar(text, i) {
			i++
			continue
		}
		closed := false
		for j := i + 2; j < n; j++ {
			if text[j] == '\n' {
				break
			}
			if text[j] == '$' && singleDollar(text, j) {
				spans = append(spans, inlineSpan{open: i, contentStart: i + 1, contentEnd: j})
				i = j + 1
				closed = true
				break
			}
		}
		if !closed {
			i++
		}
	}
	return spans
}

func singleDollar(text string, i int) bool {
	if i > 0 && text[i-1] == '$' {
		return false
	}
	if i+1 < len(text) && text[i+1] == '$' {
		return false
	}
	return true
}

func contextWindow(text string, start, end int) string {
	lo := start - equationContextWindow
	if lo < 0 {
		lo = 0
	}
	hi := end + equationContextWindow
	if hi > len(text) {
		hi = len(text)
	}
	return strings.TrimSpace(text[lo:hi])
}

type sectionMarker struct {
	pos   int
	title string
}

// sectionMarkers merges markdown headers and LaTeX \section commands into a
// single position-ordered list.
func sectionMarkers(text string) []sectionMarker {
	markers := make([]sectionMarker, 0)
	for _, m := range sectionHeaderPattern.FindAllStringSubmatchIndex(text, -1) {
		markers = append(markers, sectionMarker{pos: m[0], title: strings.TrimSpace(text[m[4]:m[5]])})
	}
	for _, m := range latexSectionPattern.FindAllStringSubmatchIndex(text, -1) {
		markers = append(markers, sectionMarker{pos: m[0], title: strings.TrimSpace(text[m[2]:m[3]])})
	}
	sort.SliceStable(markers, func(i, j int) bool { return markers[i].pos < markers[j].pos })
	return markers
}

// sectionAt returns the title of the last section marker at or before pos,
// or "Preamble" when none precedes it.
func (ex *equationExtractor) sectionAt(pos int) string {
	section := "Preamble"
	for _, m := range ex.markers {
		if m.pos > pos {
			break
		}
		section = m.title
	}
	return section
}

// describeEquation gives a coarse, keyword-driven reading of what an
// equation does, anchored to its enclosing section.
func describeEquation(latex, section string) string {
	role := "defines a mathematical relationship between quantities"
	use := "understanding the model's formal structure"
	switch {
	case containsAny(latex, `\int`, `\sum`, `\prod`):
		role = "aggregates contributions across components or time steps"
		use = "computing total system quantities such as accumulated energy or force"
	case containsAny(latex, `\dot`, `\ddot`, `\partial`, `\nabla`, `\frac{d`):
		role = "describes how quantities change or evolve"
		use = "time integration, gradients, or sensitivity analysis"
	case strings.Contains(latex, "=") && containsAny(latex, `\mathbf`, `\mathrm`):
		role = "defines a state or transformation relationship"
		use = "mapping between system states or coordinate frames"
	case strings.Contains(latex, "="):
		role = "states an equality constraint or definition"
		use = "evaluating or constraining the involved quantities"
	}
	return fmt.Sprintf("Relevance: In section '%s', this equation %s. Potential use: %s.", section, role, use)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
