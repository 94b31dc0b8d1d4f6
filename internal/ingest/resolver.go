package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"paperscope/internal/models"
	"paperscope/internal/util"
)

var arxivIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`arxiv\.org/abs/(\d{4}\.\d{4,5}(?:v\d+)?)`),
	regexp.MustCompile(`arxiv\.org/pdf/(\d{4}\.\d{4,5}(?:v\d+)?)`),
	regexp.MustCompile(`^(\d{4}\.\d{4,5}(?:v\d+)?)$`),
}

var doiPattern = regexp.MustCompile(`^10\.\d{4,}/\S+$`)

// Resolver turns any accepted source form into a local PDF path.
type Resolver struct {
	tempDir string
	client  *http.Client
	retries int
}

func NewResolver(tempDir string, timeout time.Duration, retries int) *Resolver {
	if retries < 1 {
		retries = 1
	}
	return &Resolver{
		tempDir: tempDir,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
	}
}

// DetectSourceType classifies a source string. Local .pdf paths win, then
// arXiv URL/ID forms, then bare DOIs, then generic URLs.
func DetectSourceType(source string) (models.SourceType, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", fmt.Errorf("empty source")
	}
	if strings.HasSuffix(strings.ToLower(source), ".pdf") {
		if _, err := os.Stat(source); err == nil {
			return models.SourcePDFFile, nil
		}
		if !strings.Contains(source, "://") {
			return "", fmt.Errorf("pdf file not found: %s", source)
		}
	}
	for _, p := range arxivIDPatterns {
		if p.MatchString(source) {
			return models.SourceArxivID, nil
		}
	}
	if doiPattern.MatchString(source) {
		return models.SourceDOI, nil
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return models.SourcePDFURL, nil
	}
	return "", fmt.Errorf("cannot determine source type for %q", source)
}

// ArxivID extracts the bare identifier from any accepted arXiv form.
func ArxivID(source string) string {
	for _, p := range arxivIDPatterns {
		if m := p.FindStringSubmatch(source); m != nil {
			return m[1]
		}
	}
	return ""
}

// Resolved describes the local artifacts produced for a source.
type Resolved struct {
	PDFPath     string
	MetaPath    string
	TeXPath     string
	SourceType  models.SourceType
	ArxivID     string
	DOI         string
	FetchErrors []string
}

// Resolve materializes the source as a local PDF, writing metadata and TeX
// sidecars next to it when the source form provides them. Sidecar fetch
// failures are recorded, not fatal.
func (r *Resolver) Resolve(ctx context.Context, source string, sourceType models.SourceType) (Resolved, error) {
	switch sourceType {
	case models.SourcePDFFile:
		if _, err := os.Stat(source); err != nil {
			return Resolved{}, fmt.Errorf("pdf file not accessible: %w", err)
		}
		return Resolved{PDFPath: source, SourceType: sourceType}, nil
	case models.SourcePDFURL:
		path, err := r.fetchToFile(ctx, source, "paper.pdf")
		if err != nil {
			return Resolved{}, err
		}
		return Resolved{PDFPath: path, SourceType: sourceType}, nil
	case models.SourceArxivID:
		return r.resolveArxiv(ctx, source)
	case models.SourceDOI:
		return r.resolveDOI(ctx, source)
	default:
		return Resolved{}, fmt.Errorf("unsupported source type %q", sourceType)
	}
}

// fetchToFile downloads a URL with bounded retries and a short backoff
// between attempts.
func (r *Resolver) fetchToFile(ctx context.Context, url, filename string) (string, error) {
	dir, err := os.MkdirTemp(r.tempDir, "paperscope-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	dest := util.SafeJoin(dir, filename)

	var lastErr error
	for attempt := 1; attempt <= r.retries; attempt++ {
		if err := r.fetchOnce(ctx, url, dest); err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			continue
		}
		return dest, nil
	}
	return "", fmt.Errorf("fetch %s after %d attempts: %w", url, r.retries, lastErr)
}

func (r *Resolver) fetchOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "paperscope/1.0")
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return f.Close()
}

// fetchBytes is fetchToFile for small in-memory payloads (metadata, e-prints).
func (r *Resolver) fetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "paperscope/1.0")
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func sidecarPath(pdfPath, suffix string) string {
	return strings.TrimSuffix(pdfPath, filepath.Ext(pdfPath)) + suffix
}
