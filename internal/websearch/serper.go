package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vnedtech/scratchgraph/internal/config"
)

const (
	defaultEndpoint = "https://google.serper.dev/search"
	requestTimeout  = 30 * time.Second
)

// Searcher is the web-search collaborator. It returns a formatted multi-result
// summary, an empty string when the search finds nothing, and an error only on
// hard transport failure.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) (string, error)
}

// SerperClient implements Searcher over the Serper API (serper.dev).
type SerperClient struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	log        *zap.Logger
}

func NewSerperClient(cfg config.WebSearchConfig, log *zap.Logger) *SerperClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &SerperClient{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        log,
	}
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type serperResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type serperResponse struct {
	Organic []serperResult `json:"organic"`
}

func (c *SerperClient) Search(ctx context.Context, query string, maxResults int) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("serper api key not configured")
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: maxResults})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("web search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed serperResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode web search response: %w", err)
	}

	results := parsed.Organic
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	c.log.Debug("web search completed", zap.String("query", query), zap.Int("results", len(results)))

	return formatSummary(results), nil
}

// formatSummary renders results as the plain-text block fed back to the model.
// No results renders as the empty string, which downstream logic reads as a
// clean miss rather than a failure.
func formatSummary(results []serperResult) string {
	if len(results) == 0 {
		return ""
	}

	var parts []string
	for i, r := range results {
		parts = append(parts,
			fmt.Sprintf("Result %d:", i+1),
			fmt.Sprintf("Title: %s", r.Title),
			fmt.Sprintf("Content: %s", r.Snippet),
			fmt.Sprintf("Source: %s", r.Link),
			"---",
		)
	}
	return strings.Join(parts, "\n")
}
