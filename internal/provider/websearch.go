package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"sagechat/internal/models"

	"github.com/cloudwego/eino-ext/components/tool/duckduckgo/v2"
	"github.com/cloudwego/eino-ext/components/tool/googlesearch"
	"github.com/cloudwego/eino/components/tool"
)

// WebSearch queries Google first and falls back to DuckDuckGo. Either
// backend may be absent; both absent disables the provider.
type WebSearch struct {
	google tool.InvokableTool
	duck   tool.InvokableTool
}

// NewWebSearch wires the available search backends.
func NewWebSearch() *WebSearch {
	googleTool := initGoogleSearch()
	duckTool := initDDGSearch()
	if googleTool == nil && duckTool == nil {
		log.Printf("web search disabled: no search providers available")
		return nil
	}
	return &WebSearch{google: googleTool, duck: duckTool}
}

// Search runs the query through the first backend that answers and returns
// normalized results.
func (w *WebSearch) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if w == nil {
		return nil, errors.New("web search not configured")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	payloadBytes, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("marshal search params: %w", err)
	}
	payload := string(payloadBytes)

	if w.google != nil {
		if raw, err := w.google.InvokableRun(ctx, payload); err == nil {
			if results := parseSearchOutput(raw); len(results) > 0 {
				return results, nil
			}
		} else {
			log.Printf("google search failed: %v", err)
		}
	}

	if w.duck != nil {
		if raw, err := w.duck.InvokableRun(ctx, payload); err == nil {
			if results := parseSearchOutput(raw); len(results) > 0 {
				return results, nil
			}
		} else {
			log.Printf("duckduckgo search failed: %v", err)
		}
	}

	return nil, errors.New("no search provider succeeded")
}

// searchOutput accepts the shapes both backends emit. Field names overlap
// between them, so one struct with every alias covers both.
type searchOutput struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
		Desc    string `json:"desc"`
		Summary string `json:"summary"`
	} `json:"items"`
	Results []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		URL     string `json:"url"`
		Snippet string `json:"snippet"`
		Desc    string `json:"description"`
		Summary string `json:"summary"`
	} `json:"results"`
}

func parseSearchOutput(raw string) []models.SearchResult {
	var out searchOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		log.Printf("parse search output: %v", err)
		return nil
	}

	var results []models.SearchResult
	for _, item := range out.Items {
		results = append(results, models.SearchResult{
			Source:      "web",
			Title:       item.Title,
			URL:         firstNonEmpty(item.Link, item.URL),
			Description: firstNonEmpty(item.Snippet, item.Desc, item.Summary),
		})
	}
	for _, item := range out.Results {
		results = append(results, models.SearchResult{
			Source:      "web",
			Title:       item.Title,
			URL:         firstNonEmpty(item.Link, item.URL),
			Description: firstNonEmpty(item.Snippet, item.Desc, item.Summary),
		})
	}
	return results
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func initDDGSearch() tool.InvokableTool {
	duckConfig := &duckduckgo.Config{
		ToolName:   "web_search_ddg",
		ToolDesc:   "DuckDuckGo Search Tool (no token required)",
		MaxResults: 5,
		Region:     duckduckgo.RegionWT,
		Timeout:    10 * time.Second,
	}
	duckTool, err := duckduckgo.NewTextSearchTool(context.Background(), duckConfig)
	if err != nil {
		log.Printf("duckduckgo search disabled: %v", err)
		return nil
	}
	return duckTool
}

func initGoogleSearch() tool.InvokableTool {
	googleAPIKey := os.Getenv("GOOGLE_API_KEY")
	googleSearchEngineID := os.Getenv("GOOGLE_SEARCH_ENGINE_ID")
	if googleAPIKey == "" || googleSearchEngineID == "" {
		log.Printf("google search disabled: missing GOOGLE_API_KEY or GOOGLE_SEARCH_ENGINE_ID")
		return nil
	}
	googleTool, err := googlesearch.NewTool(context.Background(), &googlesearch.Config{
		ToolName:       "web_search_google",
		ToolDesc:       "Google Search Tool",
		APIKey:         googleAPIKey,
		SearchEngineID: googleSearchEngineID,
		Lang:           "en",
		Num:            5,
	})
	if err != nil {
		log.Printf("google search disabled: %v", err)
		return nil
	}
	return googleTool
}
