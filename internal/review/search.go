package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"paperscope/internal/models"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// SearchClient finds related work through the Tavily search API, scoped to
// arXiv. With no API key configured, searches return empty results rather
// than errors so the review proceeds without related-work context.
type SearchClient struct {
	apiKey     string
	maxResults int
	endpoint   string
	client     *http.Client
}

func NewSearchClient(apiKey string, maxResults int) *SearchClient {
	if maxResults <= 0 {
		maxResults = 3
	}
	return &SearchClient{
		apiKey:     apiKey,
		maxResults: maxResults,
		endpoint:   tavilyEndpoint,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SearchClient) Search(ctx context.Context, query string) ([]models.RelatedWork, error) {
	if s.apiKey == "" {
		return nil, nil
	}
	payload, _ := json.Marshal(map[string]any{
		"api_key":     s.apiKey,
		"query":       "site:arxiv.org " + query,
		"max_results": s.maxResults,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("search error %d: %s", resp.StatusCode, string(raw))
	}
	var parsed struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	works := make([]models.RelatedWork, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		works = append(works, models.RelatedWork{Title: r.Title, URL: r.URL, Summary: clip(r.Content, 300)})
	}
	return works, nil
}
