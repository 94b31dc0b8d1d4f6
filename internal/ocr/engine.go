package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ledongthuc/pdf"

	"paperscope/internal/models"
	"paperscope/internal/util"
)

// Engine converts a PDF into markdown text plus optional layout blocks.
type Engine interface {
	Name() string
	Extract(ctx context.Context, path string) (string, []models.LayoutBlock, error)
}

// RemoteEngine calls an external OCR service that returns markdown and
// typed layout regions.
type RemoteEngine struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewRemoteEngine(baseURL, model string) *RemoteEngine {
	return &RemoteEngine{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 300 * time.Second},
	}
}

func (e *RemoteEngine) Name() string { return "remote:" + e.model }

func (e *RemoteEngine) Extract(ctx context.Context, path string) (string, []models.LayoutBlock, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", nil, fmt.Errorf("copy pdf into request: %w", err)
	}
	if err := mw.WriteField("model", e.model); err != nil {
		return "", nil, fmt.Errorf("write model field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/parse", &body)
	if err != nil {
		return "", nil, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("ocr request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return "", nil, fmt.Errorf("ocr service error %d: %s", resp.StatusCode, string(raw))
	}
	var parsed struct {
		Markdown string               `json:"markdown"`
		Blocks   []models.LayoutBlock `json:"blocks"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", nil, fmt.Errorf("decode ocr response: %w", err)
	}
	if parsed.Markdown == "" {
		return "", nil, util.ErrNoExtractableText
	}
	return parsed.Markdown, parsed.Blocks, nil
}

// LocalEngine is the degraded path: plain text straight from the PDF, no
// layout blocks, so table and figure extraction fall back to text heuristics.
type LocalEngine struct{}

func (LocalEngine) Name() string { return "local:pdf-text" }

func (LocalEngine) Extract(_ context.Context, path string) (string, []models.LayoutBlock, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var sb bytes.Buffer
	r, err := reader.GetPlainText()
	if err != nil {
		return "", nil, fmt.Errorf("extract pdf text: %w", err)
	}
	if _, err := io.Copy(&sb, r); err != nil {
		return "", nil, fmt.Errorf("read pdf text: %w", err)
	}
	text := util.SanitizeText(sb.String())
	if text == "" {
		return "", nil, util.ErrNoExtractableText
	}
	return text, nil, nil
}

// NewEngine picks the remote engine when a service URL is configured.
func NewEngine(serviceURL, model string) Engine {
	if serviceURL != "" {
		return NewRemoteEngine(serviceURL, model)
	}
	return LocalEngine{}
}
