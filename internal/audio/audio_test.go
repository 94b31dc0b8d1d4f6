package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"paperscope/internal/models"
)

func TestBuildNarrationCoversSummaryAndReview(t *testing.T) {
	r := models.AnalysisReport{
		Content: models.Document{Title: "A Coupled Solver", Authors: []string{"Jane Doe"}},
		Summary: models.PaperSummary{
			OneSentence: "We couple two solvers.",
			Methodology: "Alternating projections.",
			Results:     "Beats baselines.",
		},
		KeyPoints: []models.KeyPoint{{Point: "Coupling works"}},
		Review:    &models.PeerReview{OverallScore: 5.6, Decision: "Borderline"},
	}
	script := BuildNarration(r)
	require.Contains(t, script, "A Coupled Solver")
	require.Contains(t, script, "By Jane Doe.")
	require.Contains(t, script, "In one sentence: We couple two solvers.")
	require.Contains(t, script, "Methodology. Alternating projections.")
	require.Contains(t, script, "Coupling works.")
	require.Contains(t, script, "5.6 out of 10")
	require.Contains(t, script, "borderline")
}

func TestChunkScriptRespectsLimitAndBoundaries(t *testing.T) {
	sentence := "This sentence is about sixty characters long for testing. "
	script := strings.Repeat(sentence, 20)
	chunks := ChunkScript(script)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.LessOrEqual(t, len(c), maxChunkChars)
		require.True(t, strings.HasSuffix(c, "."), "chunk should end on a sentence: %q", c)
	}
}

func TestChunkScriptHardSplitsOversizedSentence(t *testing.T) {
	chunks := ChunkScript(strings.Repeat("a", maxChunkChars*2+10))
	require.Len(t, chunks, 3)
	require.Len(t, chunks[0], maxChunkChars)
}

func TestChunkScriptEmpty(t *testing.T) {
	require.Nil(t, ChunkScript("   "))
}

func TestWriteWAVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	pcm := make([]byte, 4800) // 0.1s of 24kHz mono 16-bit
	require.NoError(t, WriteWAV(path, pcm))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 44+len(pcm))
	require.Equal(t, "RIFF", string(raw[0:4]))
	require.Equal(t, "WAVE", string(raw[8:12]))
	require.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(raw[4:8]))
	require.Equal(t, uint32(SampleRate), binary.LittleEndian.Uint32(raw[24:28]))
	require.Equal(t, uint16(BitsPerSample), binary.LittleEndian.Uint16(raw[34:36]))
	require.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(raw[40:44]))
}

func TestSilenceDuration(t *testing.T) {
	// 0.4s at 24kHz mono 16-bit is 9600 samples, 19200 bytes.
	require.Len(t, Silence(0.4), 19200)
}

type stubSynth struct {
	calls int
	fail  bool
}

func (s *stubSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.calls++
	if s.fail {
		return nil, fmt.Errorf("stub failure")
	}
	return []byte{1, 2, 3, 4}, nil
}

func TestNarrateStitchesChunksWithGaps(t *testing.T) {
	r := models.AnalysisReport{
		Content: models.Document{Title: "T"},
		Summary: models.PaperSummary{
			OneSentence: strings.Repeat("Sentence one repeats for length. ", 10),
			Methodology: strings.Repeat("Sentence two repeats for length. ", 10),
		},
	}
	synth := &stubSynth{}
	path := filepath.Join(t.TempDir(), "narration.wav")
	script, err := Narrate(context.Background(), synth, r, path)
	require.NoError(t, err)
	require.NotEmpty(t, script)
	require.Greater(t, synth.calls, 1)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	gapBytes := len(Silence(chunkGapSeconds))
	wantData := synth.calls*4 + (synth.calls-1)*gapBytes
	require.Len(t, raw, 44+wantData)
}

func TestNarratePropagatesSynthesisFailure(t *testing.T) {
	r := models.AnalysisReport{Content: models.Document{Title: "T"}, Summary: models.PaperSummary{OneSentence: "Short."}}
	path := filepath.Join(t.TempDir(), "narration.wav")
	_, err := Narrate(context.Background(), &stubSynth{fail: true}, r, path)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}

func TestHTTPSynthesizerRequiresConfiguration(t *testing.T) {
	s := NewHTTPSynthesizer("", "", "tts-1", "alloy")
	_, err := s.Synthesize(context.Background(), "hello")
	require.ErrorContains(t, err, "not configured")
}
