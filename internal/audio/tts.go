package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Synthesizer converts a text chunk to raw PCM audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// HTTPSynthesizer calls an OpenAI-compatible speech endpoint and requests
// raw PCM so chunks can be stitched without decoding.
type HTTPSynthesizer struct {
	baseURL string
	apiKey  string
	model   string
	voice   string
	client  *http.Client
}

func NewHTTPSynthesizer(baseURL, apiKey, model, voice string) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		voice:   voice,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type ttsRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if s.baseURL == "" || s.apiKey == "" {
		return nil, fmt.Errorf("tts service not configured")
	}
	body, err := json.Marshal(ttsRequest{
		Model:          s.model,
		Voice:          s.voice,
		Input:          text,
		ResponseFormat: "pcm",
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts returned status %d: %s", resp.StatusCode, string(msg))
	}
	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts audio: %w", err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("tts returned empty audio")
	}
	return pcm, nil
}
