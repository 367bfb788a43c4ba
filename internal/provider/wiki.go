package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"sagechat/internal/models"
)

const (
	wikiSummaryURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"
	wikiSearchURL  = "https://en.wikipedia.org/w/api.php"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// Wikipedia reads article extracts from the public REST and MediaWiki APIs.
type Wikipedia struct {
	client *http.Client
}

func NewWikipedia() *Wikipedia {
	return &Wikipedia{client: &http.Client{Timeout: 10 * time.Second}}
}

// Summary fetches the lead extract for a topic. A direct title lookup is
// tried first; on a miss the topic goes through full-text search and the
// best-matching page title is retried.
func (w *Wikipedia) Summary(ctx context.Context, topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", errors.New("topic must not be empty")
	}

	if extract, err := w.fetchSummary(ctx, topic); err == nil && extract != "" {
		return extract, nil
	}

	results, err := w.SearchArticles(ctx, topic, 1)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no wikipedia article for %q", topic)
	}
	return w.fetchSummary(ctx, results[0].Title)
}

type wikiSummaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Type    string `json:"type"`
}

func (w *Wikipedia) fetchSummary(ctx context.Context, title string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		wikiSummaryURL+url.PathEscape(strings.ReplaceAll(title, " ", "_")), nil)
	if err != nil {
		return "", err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("wikipedia summary request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia summary: status %d", resp.StatusCode)
	}

	var payload wikiSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode wikipedia summary: %w", err)
	}
	// Disambiguation pages have no usable extract for a direct answer.
	if payload.Type == "disambiguation" {
		return "", fmt.Errorf("wikipedia: %q is ambiguous", title)
	}
	return strings.TrimSpace(payload.Extract), nil
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// SearchArticles runs a full-text search and returns snippet results with
// the markup stripped.
func (w *Wikipedia) SearchArticles(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if limit < 1 {
		limit = 5
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", strconv.Itoa(limit))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		wikiSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia search request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia search: status %d", resp.StatusCode)
	}

	var payload wikiSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode wikipedia search: %w", err)
	}

	var results []models.SearchResult
	for _, item := range payload.Query.Search {
		results = append(results, models.SearchResult{
			Source:      "wikipedia",
			Title:       item.Title,
			URL:         "https://en.wikipedia.org/wiki/" + url.PathEscape(strings.ReplaceAll(item.Title, " ", "_")),
			Description: stripHTML(item.Snippet),
		})
	}
	return results, nil
}

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}
