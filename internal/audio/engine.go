package audio

import (
	"context"
	"fmt"

	"paperscope/internal/models"
)

// Gap between narrated chunks, in seconds of silence.
const chunkGapSeconds = 0.4

// Narrate builds the narration script for a report, synthesizes it chunk
// by chunk and writes a single WAV file. Returns the script alongside the
// output path so callers can persist it for inspection.
func Narrate(ctx context.Context, synth Synthesizer, r models.AnalysisReport, outPath string) (string, error) {
	script := BuildNarration(r)
	chunks := ChunkScript(script)
	if len(chunks) == 0 {
		return "", fmt.Errorf("nothing to narrate")
	}

	gap := Silence(chunkGapSeconds)
	var pcm []byte
	for i, chunk := range chunks {
		audio, err := synth.Synthesize(ctx, chunk)
		if err != nil {
			return "", fmt.Errorf("synthesize chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, audio...)
	}

	if err := WriteWAV(outPath, pcm); err != nil {
		return "", fmt.Errorf("write narration: %w", err)
	}
	return script, nil
}
