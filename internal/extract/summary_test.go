package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"paperscope/internal/models"
)

func docWithSections(abstract string, sections ...models.Section) models.Document {
	var sb strings.Builder
	for _, s := range sections {
		sb.WriteString(strings.Repeat("#", s.Level) + " " + s.Title + "\n\n" + s.Content + "\n\n")
	}
	return models.Document{
		Title:    "Test Paper",
		Abstract: abstract,
		FullText: sb.String(),
		Sections: sections,
	}
}

func TestSummaryTitleKeywordWinsFirst(t *testing.T) {
	doc := docWithSections("We present a study.",
		models.Section{Title: "Introduction", Level: 2, Content: "Setting the stage."},
		models.Section{Title: "Proposed Approach", Level: 2, Content: "We solve it with contact-aware solvers."},
		models.Section{Title: "Experiments", Level: 2, Content: "Accuracy improves by 12% on all benchmarks."},
	)
	summary := Summarize(doc)
	require.Equal(t, "We solve it with contact-aware solvers.", summary.Methodology)
	require.Equal(t, "Accuracy improves by 12% on all benchmarks.", summary.Results)
}

func TestSummaryContentKeywordSecondTier(t *testing.T) {
	doc := docWithSections("Abstract text.",
		models.Section{Title: "Part One", Level: 2, Content: "Background material only."},
		models.Section{Title: "Part Two", Level: 2, Content: "Our proposed formulation couples the two systems."},
		models.Section{Title: "Part Three", Level: 2, Content: "Closing remarks."},
	)
	summary := Summarize(doc)
	require.Equal(t, "Our proposed formulation couples the two systems.", summary.Methodology)
}

func TestSummaryPositionalWindowThirdTier(t *testing.T) {
	doc := docWithSections("Abstract text.",
		models.Section{Title: "Alpha", Level: 2, Content: "Opening."},
		models.Section{Title: "Beta", Level: 2, Content: "Second section body."},
		models.Section{Title: "Gamma", Level: 2, Content: "Third section body."},
	)
	summary := Summarize(doc)
	// No keyword tier fires; the positional window starts past the opening
	// section.
	require.Equal(t, "Second section body.", summary.Methodology)
}

func TestSummaryAbstractDuplicateGuard(t *testing.T) {
	dup := "Identical content that matches the abstract exactly, word for word."
	doc := docWithSections(dup,
		models.Section{Title: "Intro", Level: 2, Content: "Opening."},
		models.Section{Title: "Method", Level: 2, Content: dup},
		models.Section{Title: "Detail", Level: 2, Content: "The real methodology body."},
	)
	summary := Summarize(doc)
	// The title-keyword candidate duplicates the abstract and is rejected;
	// the cascade moves on to the next tier that yields fresh text.
	require.Equal(t, "The real methodology body.", summary.Methodology)
}

func TestSummaryResultsScansBackwards(t *testing.T) {
	doc := docWithSections("Abstract text.",
		models.Section{Title: "One", Level: 2, Content: "First."},
		models.Section{Title: "Two", Level: 2, Content: "Middle findings body."},
		models.Section{Title: "Refs", Level: 2, Content: "Bibliography lines."},
	)
	summary := Summarize(doc)
	// Reverse positional scan skips the final section.
	require.Equal(t, "Middle findings body.", summary.Results)
}

func TestSummaryConclusionsFallsBackToAbstract(t *testing.T) {
	doc := docWithSections("The closing statement of record.",
		models.Section{Title: "Body", Level: 2, Content: "Material."},
	)
	summary := Summarize(doc)
	require.Equal(t, "The closing statement of record.", summary.Conclusions)
}

func TestSummaryOneSentence(t *testing.T) {
	doc := models.Document{Title: "T", Abstract: "First sentence here. Second sentence."}
	require.Equal(t, "First sentence here.", Summarize(doc).OneSentence)

	doc = models.Document{Title: "Only Title"}
	require.Equal(t, "Only Title", Summarize(doc).OneSentence)
}

func TestSummaryFieldsCapped(t *testing.T) {
	long := strings.Repeat("word ", 300)
	doc := docWithSections("Abstract.",
		models.Section{Title: "Method", Level: 2, Content: long},
	)
	summary := Summarize(doc)
	require.LessOrEqual(t, len([]rune(summary.Methodology)), summaryLimit)
}

func TestKeyPointsFromDocumentAndReview(t *testing.T) {
	doc := models.Document{
		Title:    "T",
		Abstract: "We propose a coupled solver. It is fast.",
		Equations: []models.Equation{
			{ID: "eq_001", LaTeX: "x + y", IsInline: true, Section: "Intro"},
			{ID: "eq_002", LaTeX: `M\ddot{q} = f`, IsInline: false, Section: "Dynamics"},
		},
	}
	review := &models.PeerReview{Strengths: []string{"Clear exposition", "Strong baselines", "Novel coupling", "Extra one"}}

	points := KeyPoints(doc, review)
	require.Len(t, points, 5)
	require.Equal(t, "We propose a coupled solver.", points[0].Point)
	require.Equal(t, "Dynamics", points[1].Section)
	require.Equal(t, "Clear exposition", points[2].Point)
}

func TestKeyPointsWithoutReview(t *testing.T) {
	doc := models.Document{Title: "T", Abstract: "Single sentence only"}
	points := KeyPoints(doc, nil)
	require.Len(t, points, 1)
	require.Equal(t, "Abstract", points[0].Section)
}
