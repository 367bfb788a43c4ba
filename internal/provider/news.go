package provider

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"sagechat/internal/models"
)

const newsCacheTTL = 10 * time.Minute

// NewsSource is one RSS feed in the source table.
type NewsSource struct {
	Name string
	URL  string
}

var defaultNewsSources = []NewsSource{
	{Name: "BBC", URL: "https://feeds.bbci.co.uk/news/rss.xml"},
	{Name: "BBC World", URL: "https://feeds.bbci.co.uk/news/world/rss.xml"},
	{Name: "NPR", URL: "https://feeds.npr.org/1001/rss.xml"},
	{Name: "Google News", URL: "https://news.google.com/rss?hl=en-US&gl=US&ceid=US:en"},
}

// topicKeywords classify an article headline into a coarse topic. First
// matching topic wins.
var topicKeywords = map[string][]string{
	"politics":    {"election", "parliament", "president", "government", "senate"},
	"economy":     {"economy", "inflation", "market", "stocks", "interest rate"},
	"technology":  {"technology", "ai", "artificial intelligence", "software", "startup"},
	"science":     {"science", "research", "space", "nasa", "discovery"},
	"health":      {"health", "hospital", "vaccine", "disease", "outbreak"},
	"sports":      {"football", "olympic", "world cup", "tennis", "championship"},
	"environment": {"climate", "environment", "wildfire", "flood", "emissions"},
	"culture":     {"culture", "film", "music", "festival", "art"},
}

// News aggregates headlines from a fixed RSS source table.
type News struct {
	sources []NewsSource
	cache   Cache
	client  *http.Client
}

func NewNews(cache Cache) *News {
	return &News{
		sources: defaultNewsSources,
		cache:   cache,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Headlines fetches every source concurrently, classifies the articles, and
// filters by topic when one is given. Failing sources are skipped.
func (n *News) Headlines(ctx context.Context, topic string, limit int) ([]models.SearchResult, error) {
	if n == nil {
		return nil, errors.New("news provider not configured")
	}
	if limit <= 0 {
		limit = 5
	}
	topic = strings.ToLower(strings.TrimSpace(topic))

	cacheKey := "news:" + topic
	if n.cache != nil {
		var cached []models.SearchResult
		if err := n.cache.GetJSON(ctx, cacheKey, &cached); err == nil && len(cached) > 0 {
			return clip(cached, limit), nil
		}
	}

	var mu sync.Mutex
	var all []models.SearchResult
	var wg sync.WaitGroup
	for _, src := range n.sources {
		wg.Add(1)
		go func(src NewsSource) {
			defer wg.Done()
			items, err := n.fetchFeed(ctx, src)
			if err != nil {
				log.Printf("news feed %s failed: %v", src.Name, err)
				return
			}
			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	if len(all) == 0 {
		return nil, errors.New("no news source succeeded")
	}

	filtered := all
	if topic != "" && topic != "general" {
		filtered = nil
		for _, item := range all {
			if classifyArticle(item) == topic || containsTopic(item, topic) {
				filtered = append(filtered, item)
			}
		}
		if len(filtered) == 0 {
			filtered = all
		}
	}

	sortByDateDesc(filtered)
	filtered = dedupeByGUID(filtered)

	if n.cache != nil {
		if err := n.cache.SetJSON(ctx, cacheKey, filtered, newsCacheTTL); err != nil {
			log.Printf("news cache write failed: %v", err)
		}
	}
	return clip(filtered, limit), nil
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

func (n *News) fetchFeed(ctx context.Context, src NewsSource) ([]models.SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed status %d", resp.StatusCode)
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	results := make([]models.SearchResult, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		guid := item.GUID
		if guid == "" {
			guid = item.Link
		}
		if guid == "" {
			guid = item.Title
		}
		result := models.SearchResult{
			Source:      src.Name,
			Title:       strings.TrimSpace(item.Title),
			URL:         strings.TrimSpace(item.Link),
			Description: stripHTML(item.Description),
			GUID:        guid,
		}
		if t, err := parsePubDate(item.PubDate); err == nil {
			result.PublishedAt = &t
		}
		results = append(results, result)
	}
	return results, nil
}

// RSS pubDate formats vary by publisher.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

func parsePubDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty pubDate")
	}
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized pubDate %q", raw)
}

func classifyArticle(item models.SearchResult) string {
	text := strings.ToLower(item.Title + " " + item.Description)
	for topic, words := range topicKeywords {
		for _, w := range words {
			if strings.Contains(text, w) {
				return topic
			}
		}
	}
	return "general"
}

func containsTopic(item models.SearchResult, topic string) bool {
	text := strings.ToLower(item.Title + " " + item.Description)
	return strings.Contains(text, topic)
}

func sortByDateDesc(items []models.SearchResult) {
	sort.SliceStable(items, func(i, j int) bool {
		return newer(items[i], items[j])
	})
}

func newer(a, b models.SearchResult) bool {
	if a.PublishedAt == nil {
		return false
	}
	if b.PublishedAt == nil {
		return true
	}
	return a.PublishedAt.After(*b.PublishedAt)
}

func dedupeByGUID(items []models.SearchResult) []models.SearchResult {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, item := range items {
		if item.GUID != "" && seen[item.GUID] {
			continue
		}
		seen[item.GUID] = true
		out = append(out, item)
	}
	return out
}

func clip(items []models.SearchResult, limit int) []models.SearchResult {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
