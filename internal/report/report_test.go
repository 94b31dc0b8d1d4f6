package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paperscope/internal/models"
)

func sampleReport() models.AnalysisReport {
	return models.AnalysisReport{
		RunID:      "run-123",
		Source:     "2101.00001",
		SourceType: models.SourceArxivID,
		Content: models.Document{
			Title:    "A Coupled Solver",
			Authors:  []string{"Jane Doe", "John Smith"},
			Abstract: "We couple two solvers.",
			FullText: "# A Coupled Solver\n\nBody.",
			Sections: []models.Section{{Title: "A Coupled Solver", Level: 1, Content: "Body."}},
			Equations: []models.Equation{
				{ID: "eq_001", LaTeX: `M\ddot{q} = f`, IsInline: false, Section: "Dynamics", Label: "eq:motion"},
				{ID: "eq_002", LaTeX: "x+y", IsInline: true, Section: "Dynamics"},
			},
			Tables:     []models.Table{{ID: "table_001", Content: "| a |\n|---|\n| 1 |", Caption: "Results", Rows: 1, Cols: 1}},
			References: []models.Reference{{ID: "ref_001", Text: "Smith 2020."}},
		},
		Summary:   models.PaperSummary{OneSentence: "We couple two solvers.", Abstract: "We couple two solvers."},
		KeyPoints: []models.KeyPoint{{Point: "Coupling works", Section: "Abstract", Importance: "high"}},
		Diagrams: []models.GeneratedDiagram{{
			DiagramType: "methodology", ImagePath: "diagrams/methodology/methodology.png",
			Format: "png", IsFallback: true, Error: "service down",
		}},
		Review: &models.PeerReview{
			OverallScore: 5.61,
			Decision:     "Borderline",
			Confidence:   3.0,
			Dimensions: map[string]models.DimensionScore{
				"soundness":    {Name: "soundness", Score: 3, Weight: 0.7134},
				"presentation": {Name: "presentation", Score: 3, Weight: 0.4242},
				"contribution": {Name: "contribution", Score: 3, Weight: 1.0588},
			},
			Strengths:  []string{"Clear"},
			Weaknesses: []string{"Narrow"},
			RawReview:  "Full text of the review.",
		},
		Stages: map[string]models.StageResult{
			"extract":  {Status: models.StageCompleted},
			"diagrams": {Status: models.StageCompleted},
			"review":   {Status: models.StageCompleted},
			"article":  {Status: models.StageSkipped},
			"audio":    {Status: models.StageFailed, Error: "tts unavailable"},
		},
		Metadata: models.ReportMetadata{AnalysedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
}

func TestBuildMarkdownSections(t *testing.T) {
	md := BuildMarkdown(sampleReport())
	require.Contains(t, md, "# A Coupled Solver")
	require.Contains(t, md, "## Summary")
	require.Contains(t, md, "## Key Findings")
	require.Contains(t, md, "## Key Equations")
	require.Contains(t, md, `$$M\ddot{q} = f$$`)
	require.Contains(t, md, "## Peer Review")
	require.Contains(t, md, "**Overall: 5.61/10 — Borderline**")
	require.Contains(t, md, "Fallback rendering; synthesis failed: service down")
	require.Contains(t, md, "| audio | failed | tts unavailable |")
	require.NotContains(t, md, "x+y$$")
}

func TestBuildSpecOutputParsableJSON(t *testing.T) {
	out := BuildSpecOutput(sampleReport())
	m := regexp.MustCompile("(?s)```json\n(.+?)\n```").FindStringSubmatch(out)
	require.NotNil(t, m)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(m[1]), &parsed))
	require.Equal(t, "run-123", parsed["run_id"])
	require.InDelta(t, 5.61, parsed["overall"].(float64), 1e-9)
	require.Equal(t, "Borderline", parsed["decision"])
}

func TestBuildHTMLEmbedsRenderedBody(t *testing.T) {
	page, err := BuildHTML("T", "# Heading\n\nSome **bold** text.")
	require.NoError(t, err)
	require.Contains(t, page, "<h1")
	require.Contains(t, page, "<strong>bold</strong>")
	require.Contains(t, page, "mathjax")
}

func TestSaveAllWritesEveryArtifact(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveAll(sampleReport(), dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, FileReport), path)

	for _, name := range []string{
		FileReport, FileKeyPoints, FileSpecOutput, FileHTML, FileReview, FileMetadata,
		filepath.Join(DirExtracted, FileFullText),
		filepath.Join(DirExtracted, FileEquations),
		filepath.Join(DirExtracted, FileTables),
		filepath.Join(DirExtracted, FileReferences),
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "missing artifact %s", name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, FileMetadata))
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(raw, &meta))
	require.Equal(t, "run-123", meta["run_id"])
}

func TestSaveAllSkipsReviewFileWithoutReview(t *testing.T) {
	r := sampleReport()
	r.Review = nil
	dir := t.TempDir()
	_, err := SaveAll(r, dir)
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(dir, FileReview))
	require.True(t, os.IsNotExist(statErr))
}

func TestCounts(t *testing.T) {
	c := Counts(sampleReport().Content)
	require.Equal(t, 1, c["sections"])
	require.Equal(t, 2, c["equations"])
	require.Equal(t, 1, c["tables"])
	require.Equal(t, 1, c["references"])
}
