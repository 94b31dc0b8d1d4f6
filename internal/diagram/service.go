package diagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Service synthesizes a diagram image from document context. Any error from
// a Service triggers the deterministic fallback renderer.
type Service interface {
	Provider() string
	Generate(ctx context.Context, req Request) (Result, error)
}

type Request struct {
	DiagramType   string `json:"diagram_type"`
	SourceContext string `json:"source_context"`
	Intent        string `json:"communicative_intent"`
	OutputDir     string `json:"output_dir,omitempty"`
	MaxIterations int    `json:"max_iterations,omitempty"`
}

type Result struct {
	ImagePath  string `json:"image_path"`
	Iterations int    `json:"iterations"`
}

// HTTPService talks to an external VLM-guided diagram synthesis service.
type HTTPService struct {
	baseURL    string
	apiKey     string
	provider   string
	vlmModel   string
	imageModel string
	client     *http.Client
}

func NewHTTPService(baseURL, apiKey, provider, vlmModel, imageModel string) *HTTPService {
	return &HTTPService{
		baseURL:    baseURL,
		apiKey:     apiKey,
		provider:   provider,
		vlmModel:   vlmModel,
		imageModel: imageModel,
		client:     &http.Client{Timeout: 300 * time.Second},
	}
}

func (s *HTTPService) Provider() string { return s.provider }

func (s *HTTPService) Generate(ctx context.Context, req Request) (Result, error) {
	if s.baseURL == "" || s.apiKey == "" {
		return Result{}, fmt.Errorf("diagram service not configured (missing url or credentials)")
	}
	payload, _ := json.Marshal(map[string]any{
		"diagram_type":         req.DiagramType,
		"source_context":       req.SourceContext,
		"communicative_intent": req.Intent,
		"output_dir":           req.OutputDir,
		"max_iterations":       req.MaxIterations,
		"provider":             s.provider,
		"vlm_model":            s.vlmModel,
		"image_model":          s.imageModel,
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/diagrams", bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("build diagram request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("diagram request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return Result{}, fmt.Errorf("diagram service error %d: %s", resp.StatusCode, string(raw))
	}
	var out Result
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, fmt.Errorf("decode diagram response: %w", err)
	}
	if out.ImagePath == "" {
		return Result{}, fmt.Errorf("diagram service returned no artifact path")
	}
	return out, nil
}
