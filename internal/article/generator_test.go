package article

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"paperscope/internal/models"
	"paperscope/internal/providers"
)

func testDoc() models.Document {
	return models.Document{
		Title:    "Coupled Contact Solvers",
		Abstract: "We couple rigid and deformable contact solvers.",
		Sections: []models.Section{
			{Title: "Introduction", Level: 2, Content: "Contact simulation is hard."},
			{Title: "Method", Level: 2, Content: "Our coupled solver alternates projections."},
			{Title: "Results", Level: 2, Content: "The coupled solver beats both baselines."},
		},
		Equations: []models.Equation{
			{ID: "eq_001", LaTeX: "x", IsInline: false, Description: "Relevance: In section 'Method', this equation states an equality constraint or definition. Potential use: evaluating or constraining the involved quantities."},
		},
		References: []models.Reference{{ID: "ref_001", Text: "Prior contact solver work."}},
	}
}

func TestBuildChunksCoversAllSources(t *testing.T) {
	chunks := BuildChunks(testDoc())
	refs := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		refs[c.Ref] = true
	}
	require.True(t, refs["abstract"])
	require.True(t, refs["section:1:Method"])
	require.True(t, refs["equation:eq_001"])
	require.True(t, refs["reference:ref_001"])
}

func TestTopChunksRanksByKeywordOverlap(t *testing.T) {
	chunks := BuildChunks(testDoc())
	top := topChunks(chunks, "coupled solver results", 2)
	require.NotEmpty(t, top)
	// The results section mentions both "coupled" and "solver".
	require.Contains(t, top[0].Text, "coupled solver")
}

func TestTopChunksExcludesZeroScores(t *testing.T) {
	chunks := []Chunk{{Ref: "a", Text: "nothing relevant"}}
	require.Empty(t, topChunks(chunks, "quantum entanglement", 3))
}

func TestScoreChunkIgnoresShortWords(t *testing.T) {
	require.Equal(t, 0, scoreChunk("a an the of", "a an the of"))
	require.Equal(t, 2, scoreChunk("coupled solver design", "coupled solver"))
}

func TestGenerateProducesOutlinedArticle(t *testing.T) {
	g := NewGenerator(providers.NewMockProvider())
	out, err := g.Generate(context.Background(), testDoc())
	require.NoError(t, err)
	require.Contains(t, out, "# Coupled Contact Solvers: An Article")
	// Mock outline yields five headings, each drafted as a section.
	require.Contains(t, out, "## Background")
	require.Contains(t, out, "## Why It Matters")
	require.Contains(t, out, "Deterministic article section")
}
