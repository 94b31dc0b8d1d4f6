package comparison

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseExternalReviewJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "review.json",
		`{"overall": 6.5, "soundness": 3.0, "presentation": 2.5, "contribution": 3.5, "confidence": 4.0}`)
	snap, err := ParseExternalReview(path)
	require.NoError(t, err)
	require.Equal(t, 6.5, *snap.Overall)
	require.Equal(t, 3.5, *snap.Contribution)
	require.Equal(t, "Weak Accept", snap.Decision)
}

func TestParseExternalReviewFreeText(t *testing.T) {
	text := "The paper is decent.\nSoundness: 3\nPresentation: 2.5\nContribution: 3\nOverall score: 5.5\nConfidence = 4\n"
	path := writeFile(t, t.TempDir(), "review.txt", text)
	snap, err := ParseExternalReview(path)
	require.NoError(t, err)
	require.Equal(t, 5.5, *snap.Overall)
	require.Equal(t, 2.5, *snap.Presentation)
	require.Equal(t, 4.0, *snap.Confidence)
	require.Equal(t, "Borderline", snap.Decision)
}

func TestParseExternalReviewRejectsScoreless(t *testing.T) {
	path := writeFile(t, t.TempDir(), "review.txt", "I liked it a lot.")
	_, err := ParseExternalReview(path)
	require.Error(t, err)
}

func TestParseLocalRunFromSpecOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "spec_output.md", "# Analysis Output\n\n```json\n{\n  \"overall\": 5.61,\n  \"soundness\": 3,\n  \"presentation\": 3,\n  \"contribution\": 3,\n  \"confidence\": 3,\n  \"decision\": \"Borderline\"\n}\n```\n")
	snap, err := ParseLocalRun(dir)
	require.NoError(t, err)
	require.Equal(t, 5.61, *snap.Overall)
	require.Equal(t, "Borderline", snap.Decision)
	require.Equal(t, "paperscope", snap.Source)
}

func TestParseLocalRunFallsBackToMetadata(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "metadata.json", `{
  "review": {
    "overall_score": 7.2,
    "confidence": 3,
    "decision": "Accept",
    "dimensions": {
      "soundness": {"score": 4},
      "presentation": {"score": 3},
      "contribution": {"score": 3.5}
    }
  }
}`)
	snap, err := ParseLocalRun(dir)
	require.NoError(t, err)
	require.Equal(t, 7.2, *snap.Overall)
	require.Equal(t, 4.0, *snap.Soundness)
	require.Equal(t, "Accept", snap.Decision)
}

func TestParseLocalRunErrorsWithoutArtifacts(t *testing.T) {
	_, err := ParseLocalRun(t.TempDir())
	require.Error(t, err)
}

func TestBuildComparison(t *testing.T) {
	local := Snapshot{Source: "paperscope", Overall: f64ptr(5.61), Soundness: f64ptr(3), Decision: "Borderline"}
	external := Snapshot{Source: "review.json", Overall: f64ptr(6.5), Decision: "Weak Accept"}

	md := BuildComparison(local, external)
	require.Contains(t, md, "| Overall | 5.61 | 6.50 | -0.89 |")
	require.Contains(t, md, "| Soundness | 3.00 | — | — |")
	require.Contains(t, md, "Decisions **diverge**")
}
