package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"paperscope/internal/models"
)

func TestExtractDisplayEquations(t *testing.T) {
	text := "# Introduction\n\nSome text here.\n\n## Method\n\nThe loss function is defined as:\n\n" +
		"$$L = \\sum_{i=1}^{N} -y_i \\log(\\hat{y}_i)$$\n\nAnd the gradient is:\n\n" +
		"$$\\nabla L = \\frac{\\partial L}{\\partial \\theta}$$\n"

	var display []models.Equation
	for _, eq := range ExtractEquations(text) {
		if !eq.IsInline {
			display = append(display, eq)
		}
	}
	require.Len(t, display, 2)
	require.Contains(t, display[0].LaTeX, `\sum`)
	require.Contains(t, display[1].LaTeX, `\nabla`)
	require.Equal(t, "Method", display[0].Section)
	require.NotEmpty(t, display[0].Context)
}

func TestExtractInlineEquations(t *testing.T) {
	text := `The variable $x \in \mathbb{R}^n$ represents the input and $f(x) = Wx + b$ is the output.`

	var inline []models.Equation
	for _, eq := range ExtractEquations(text) {
		if eq.IsInline {
			inline = append(inline, eq)
		}
	}
	require.GreaterOrEqual(t, len(inline), 2)
}

func TestInlineDelimitersIgnoreDisplayRuns(t *testing.T) {
	text := "a $x$ b $$E = mc^2$$ and $f(x) = Wx + b$."
	eqs := ExtractEquations(text)

	// The short inline match $x$ consumes an ID before being discarded, so
	// numbering is strictly increasing with a gap.
	require.Len(t, eqs, 2)
	require.Equal(t, "eq_001", eqs[0].ID)
	require.False(t, eqs[0].IsInline)
	require.Equal(t, "E = mc^2", eqs[0].LaTeX)
	require.Equal(t, "eq_003", eqs[1].ID)
	require.True(t, eqs[1].IsInline)
}

func TestEquationLabelExtraction(t *testing.T) {
	text := "\n$$\n\\label{eq:loss}\nL = \\sum_{i=1}^{N} -y_i \\log(\\hat{y}_i)\n$$\n"
	var labeled []models.Equation
	for _, eq := range ExtractEquations(text) {
		if eq.Label != "" {
			labeled = append(labeled, eq)
		}
	}
	require.NotEmpty(t, labeled)
	require.Equal(t, "eq:loss", labeled[0].Label)
}

func TestEquationSectionDefaultsToPreamble(t *testing.T) {
	eqs := ExtractEquations("$$a + b = c$$\n\n# Later\n")
	require.NotEmpty(t, eqs)
	require.Equal(t, "Preamble", eqs[0].Section)
}

func TestParseSections(t *testing.T) {
	text := "# Title\n\nAbstract content.\n\n## Introduction\n\nIntro text.\n\n## Method\n\nMethod text.\n\n### Sub-method\n\nSub-method text.\n\n## Results\n\nResults text.\n"
	sections := ParseSections(text)

	require.Len(t, sections, 5)
	require.Equal(t, "Title", sections[0].Title)
	require.Equal(t, 1, sections[0].Level)
	require.Equal(t, "Introduction", sections[1].Title)
	require.Equal(t, "Sub-method", sections[3].Title)
	require.Equal(t, 3, sections[3].Level)
	require.Equal(t, "Results text.", sections[4].Content)
}

func TestExtractTitle(t *testing.T) {
	sections := []models.Section{{Title: "My Paper Title", Level: 1, Content: "..."}}
	require.Equal(t, "My Paper Title", ExtractTitle("# My Paper Title\n\nContent", sections))

	// Without a level-1 header the first line wins, stripped of markup.
	require.Equal(t, "Deep Nets", ExtractTitle("## Deep Nets\nbody", nil))
	require.Equal(t, "Untitled", ExtractTitle("   ", nil))
}

func TestExtractAuthors(t *testing.T) {
	text := "# Title\nJane Doe, John Smith, Wei Zhang\n\nAbstract..."
	require.Equal(t, []string{"Jane Doe", "John Smith", "Wei Zhang"}, ExtractAuthors(text))

	require.Nil(t, ExtractAuthors("# Title\n\nNo author line here"))
}

func TestExtractAbstract(t *testing.T) {
	sections := []models.Section{{Title: "Abstract", Level: 2, Content: "We study things."}}
	require.Equal(t, "We study things.", ExtractAbstract("", sections))

	raw := "Title line\n\nAbstract: This paper proposes a method for X.\n\n# Introduction\n"
	got := ExtractAbstract(raw, nil)
	require.Contains(t, got, "proposes a method")
}

func TestExtractTablesPrefersBlocks(t *testing.T) {
	markdown := "| a | b |\n|---|---|\n| 1 | 2 |\n"
	blocks := []models.LayoutBlock{{Type: "table", Content: "block table", Caption: "From layout"}}

	tables := ExtractTables(blocks, markdown)
	require.Len(t, tables, 1)
	require.Equal(t, "block table", tables[0].Content)
	require.Equal(t, "From layout", tables[0].Caption)
}

func TestExtractTablesMarkdownFallback(t *testing.T) {
	markdown := strings.Join([]string{
		"Some text.",
		"| Model | Acc | F1 |",
		"|-------|-----|----|",
		"| Ours  | 0.9 | 0.8 |",
		"| Base  | 0.7 | 0.6 |",
		"Table 1: Results on the benchmark.",
	}, "\n")

	tables := ExtractTables(nil, markdown)
	require.Len(t, tables, 1)
	require.Equal(t, 3, tables[0].Cols)
	require.Equal(t, 2, tables[0].Rows)
	require.Equal(t, "Results on the benchmark.", tables[0].Caption)
}

func TestExtractTablesFallbackNeedsSeparator(t *testing.T) {
	markdown := "| a | b |\n| 1 | 2 |\n| 3 | 4 |\n"
	require.Empty(t, ExtractTables(nil, markdown))
}

func TestExtractFiguresMarkdownFallback(t *testing.T) {
	markdown := "Body text.\n\nFigure 1: Overview of the proposed architecture.\n\nMore text.\nFig. 2 - Ablation study results over epochs.\n"
	figures := ExtractFigures(nil, markdown)
	require.Len(t, figures, 2)
	require.Equal(t, "figure_1", figures[0].ID)
	require.Contains(t, figures[0].Caption, "Overview of the proposed architecture")
}

func TestExtractFiguresBlocksSuppressFallback(t *testing.T) {
	markdown := "Figure 1: A caption that would otherwise match here.\n"
	blocks := []models.LayoutBlock{{Type: "figure", Caption: "Layout figure", Page: 3}}
	figures := ExtractFigures(blocks, markdown)
	require.Len(t, figures, 1)
	require.Equal(t, "Layout figure", figures[0].Caption)
	require.Equal(t, 3, figures[0].Page)
}

func TestExtractReferences(t *testing.T) {
	text := strings.Join([]string{
		"# Paper",
		"Body with [3] citation that must not count.",
		"## References",
		"[1] Smith, J. Deep learning for widgets. JMLR 2020.",
		"2. Doe, A. Another relevant work. NeurIPS 2019.",
		"Johnson, K., Lee, M. A third style of reference entry here. 2021.",
		"## Appendix",
		"[9] Should not be collected.",
	}, "\n")

	refs := ExtractReferences(text)
	require.Len(t, refs, 3)
	require.Equal(t, "ref_001", refs[0].ID)
	require.Contains(t, refs[0].Text, "Deep learning for widgets")
	require.Contains(t, refs[2].Text, "third style")
}

func TestExtractReferencesRequiresHeading(t *testing.T) {
	require.Empty(t, ExtractReferences("[1] Lone bracket entry with no heading."))
}

func TestBuildDocument(t *testing.T) {
	markdown := "# A Study of Things\nJane Doe, John Smith\n\n## Abstract\n\nWe study things carefully.\n\n## Method\n\nWe define $L = f(x) + g(x)$ and\n\n$$J = \\sum_i w_i$$\n\n## References\n\n[1] Smith, J. Prior work. 2019.\n"
	doc := BuildDocument(markdown, nil)

	require.Equal(t, "A Study of Things", doc.Title)
	require.Equal(t, []string{"Jane Doe", "John Smith"}, doc.Authors)
	require.Equal(t, "We study things carefully.", doc.Abstract)
	require.NotEmpty(t, doc.Equations)
	require.Len(t, doc.References, 1)
	require.Len(t, doc.Sections, 4)
}

func TestApplySidecarMetadataOverrides(t *testing.T) {
	doc := BuildDocument("# Guessed Title\n\nBody.", nil)
	ApplySidecarMetadata(&doc, SidecarMetadata{
		ArxivID: "2101.00001",
		Title:   "Official Title",
		Authors: []string{"A. Author"},
	})
	require.Equal(t, "Official Title", doc.Title)
	require.Equal(t, []string{"A. Author"}, doc.Authors)
	require.Equal(t, "2101.00001", doc.Metadata["arxiv_id"])
}

func TestAppendTeXEquationsDeduplicates(t *testing.T) {
	doc := BuildDocument("Text with $$E = mc^2$$ inside.", nil)
	require.Len(t, doc.Equations, 1)

	tex := "\\begin{equation}\nE = mc^2\n\\end{equation}\n\\begin{equation}\nF = ma\n\\end{equation}\n"
	added := AppendTeXEquations(&doc, tex)
	require.Equal(t, 1, added)
	require.Len(t, doc.Equations, 2)
	require.Equal(t, "eq_002", doc.Equations[1].ID)
	require.Equal(t, "F = ma", doc.Equations[1].LaTeX)
}
