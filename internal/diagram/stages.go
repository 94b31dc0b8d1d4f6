package diagram

import (
	"strings"

	"paperscope/internal/models"
)

// Diagram types the pipeline knows how to contextualize. Anything else is
// skipped with a warning rather than rendered as a fallback.
var knownTypes = map[string]bool{
	"methodology":  true,
	"architecture": true,
	"results":      true,
}

func IsKnownType(diagramType string) bool {
	return knownTypes[strings.ToLower(strings.TrimSpace(diagramType))]
}

// DefaultTypes is what a run gets when it asks for diagrams without
// naming any.
func DefaultTypes() []string {
	return []string{"methodology", "architecture", "results"}
}

// Caption labels a finished diagram for the report: the synthesis path gets
// "<Type> diagram: <title>", the local renderer "<Type> overview (local
// fallback): <title>".
func Caption(diagramType, title string, fallback bool) string {
	if fallback {
		return titleCase(diagramType) + " overview (local fallback): " + title
	}
	return titleCase(diagramType) + " diagram: " + title
}

var typeSectionKeywords = map[string][]string{
	"methodology":  {"method", "approach", "algorithm", "framework", "formulation"},
	"architecture": {"architecture", "model", "network", "system", "design"},
	"results":      {"result", "experiment", "evaluation", "benchmark"},
}

var typeIntents = map[string]string{
	"methodology":  "Show the method as a left-to-right pipeline of processing stages.",
	"architecture": "Show the system components and how data moves between them.",
	"results":      "Show the experimental flow from setup through metrics to findings.",
}

const maxDiagramContext = 2000

// ContextForType selects the document text a diagram should be grounded on:
// matching sections first, then the abstract, then the opening of the paper.
func ContextForType(doc models.Document, diagramType string) (string, string) {
	diagramType = strings.ToLower(strings.TrimSpace(diagramType))
	intent := typeIntents[diagramType]

	var parts []string
	for _, s := range doc.Sections {
		title := strings.ToLower(s.Title)
		for _, kw := range typeSectionKeywords[diagramType] {
			if strings.Contains(title, kw) {
				parts = append(parts, s.Content)
				break
			}
		}
	}
	context := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if context == "" {
		context = strings.TrimSpace(doc.Abstract)
	}
	if context == "" {
		context = strings.TrimSpace(doc.FullText)
	}
	return truncate(context, maxDiagramContext), intent
}

// DeriveStages maps context vocabulary onto five pipeline stage labels.
// The first keyword group that appears wins; ordering is deliberate, from
// most specific domain to most generic.
func DeriveStages(context string) []string {
	lower := strings.ToLower(context)
	switch {
	case containsAny(lower, "lagrangian", "finite element", "variational"):
		return []string{"Problem Domain", "Continuum Formulation", "Discretization", "Numerical Solver", "Solution Fields"}
	case containsAny(lower, "constraint", "kinematic", "multibody"):
		return []string{"Body Definitions", "Kinematic Constraints", "System Assembly", "Constraint Solver", "Motion Trajectories"}
	case containsAny(lower, "contact", "friction", "collision"):
		return []string{"Geometry Input", "Collision Detection", "Contact Model", "Friction Resolution", "Response Forces"}
	case containsAny(lower, "experiment", "evaluation", "benchmark", "dataset"):
		return []string{"Data & Setup", "Baselines", "Proposed Method", "Metrics", "Findings"}
	default:
		return []string{"Input", "Preprocessing", "Core Method", "Evaluation", "Output"}
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
