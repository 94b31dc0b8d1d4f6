package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"paperscope/internal/util"
)

const doiResolverBase = "https://doi.org/"

// resolveDOI tries content negotiation for a PDF first, then falls back to
// Crossref-style JSON metadata to locate a direct PDF link.
func (r *Resolver) resolveDOI(ctx context.Context, doi string) (Resolved, error) {
	url := doiResolverBase + doi

	if path, err := r.fetchPDFNegotiated(ctx, url); err == nil {
		return Resolved{PDFPath: path, SourceType: "doi", DOI: doi}, nil
	}

	pdfURL, err := r.lookupDOIPDFLink(ctx, url)
	if err != nil {
		return Resolved{}, fmt.Errorf("doi %s: no retrievable PDF: %w", doi, err)
	}
	path, err := r.fetchToFile(ctx, pdfURL, "paper.pdf")
	if err != nil {
		return Resolved{}, fmt.Errorf("doi %s: %w", doi, err)
	}
	return Resolved{PDFPath: path, SourceType: "doi", DOI: doi}, nil
}

func (r *Resolver) fetchPDFNegotiated(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/pdf")
	req.Header.Set("User-Agent", "paperscope/1.0")
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("negotiate pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("negotiate pdf: status %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "pdf") {
		return "", fmt.Errorf("negotiate pdf: got %s", resp.Header.Get("Content-Type"))
	}
	dir, err := os.MkdirTemp(r.tempDir, "paperscope-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	dest := util.SafeJoin(dir, "paper.pdf")
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return dest, f.Close()
}

func (r *Resolver) lookupDOIPDFLink(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.citationstyles.csl+json")
	req.Header.Set("User-Agent", "paperscope/1.0")
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("doi metadata: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("doi metadata: status %d", resp.StatusCode)
	}
	var meta struct {
		Link []struct {
			URL         string `json:"URL"`
			ContentType string `json:"content-type"`
		} `json:"link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return "", fmt.Errorf("decode doi metadata: %w", err)
	}
	for _, l := range meta.Link {
		if strings.Contains(l.ContentType, "pdf") && l.URL != "" {
			return l.URL, nil
		}
	}
	return "", fmt.Errorf("metadata lists no pdf link")
}
