package resolver

import (
	"testing"
	"time"

	"sagechat/internal/models"
)

func ts(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestPickBestSnippetEmpty(t *testing.T) {
	if got := PickBestSnippet(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestPickBestSnippetTrustedKeywordBeatsPlainKeyword(t *testing.T) {
	results := []models.SearchResult{
		{
			URL:         "https://example.com/a",
			Description: "The incumbent president took office after the latest election cycle.",
			PublishedAt: ts("2026-05-01"),
		},
		{
			URL:         "https://www.bbc.com/news/b",
			Description: "The incumbent president officially took office in January this year.",
			PublishedAt: ts("2026-03-01"),
		},
	}
	got := PickBestSnippet(results)
	if got == nil || got.URL != "https://www.bbc.com/news/b" {
		t.Fatalf("expected trusted keyword result, got %+v", got)
	}
}

func TestPickBestSnippetNewestAmongTrustedKeyword(t *testing.T) {
	results := []models.SearchResult{
		{URL: "https://en.wikipedia.org/wiki/x", Description: "Founded in 1920, the organization still operates.", PublishedAt: ts("2024-01-01")},
		{URL: "https://www.reuters.com/y", Description: "The organization was founded a century ago and grew.", PublishedAt: ts("2026-01-01")},
	}
	got := PickBestSnippet(results)
	if got == nil || got.URL != "https://www.reuters.com/y" {
		t.Fatalf("expected newest trusted keyword result, got %+v", got)
	}
}

func TestPickBestSnippetFallsToTrustedDomain(t *testing.T) {
	results := []models.SearchResult{
		{URL: "https://blog.example.com/a", Description: "Some long enough description without special words."},
		{URL: "https://www.britannica.com/b", Description: "An encyclopedia entry about the topic in question."},
	}
	got := PickBestSnippet(results)
	if got == nil || got.URL != "https://www.britannica.com/b" {
		t.Fatalf("expected trusted domain result, got %+v", got)
	}
}

func TestPickBestSnippetYearTier(t *testing.T) {
	results := []models.SearchResult{
		{URL: "https://a.example.com", Description: "A description without numbers at all here."},
		{URL: "https://b.example.com", Description: "The treaty was signed in 1648 in Westphalia."},
	}
	got := PickBestSnippet(results)
	if got == nil || got.URL != "https://b.example.com" {
		t.Fatalf("expected year-bearing result, got %+v", got)
	}
}

func TestPickBestSnippetShortDescriptionsStillAnswer(t *testing.T) {
	results := []models.SearchResult{
		{URL: "https://a.example.com", Description: "too short"},
	}
	got := PickBestSnippet(results)
	if got == nil || got.URL != "https://a.example.com" {
		t.Fatalf("expected last-resort first result, got %+v", got)
	}
}

func TestSummarizeResultsOrderAndDedupe(t *testing.T) {
	results := []models.SearchResult{
		{URL: "https://random.example.com/1", Description: "other one", GUID: "o1"},
		{URL: "https://www.cnn.com/1", Description: "news one", GUID: "n1"},
		{URL: "https://en.wikipedia.org/wiki/1", Description: "wiki one", GUID: "w1"},
		{URL: "https://en.wikipedia.org/wiki/1", Description: "wiki one again", GUID: "w1"},
		{URL: "https://www.unesco.org/1", Description: "gov one", GUID: "g1"},
	}
	got := SummarizeResults(results)
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	if got[0].GUID != "w1" || got[1].GUID != "n1" || got[2].GUID != "g1" {
		t.Fatalf("wrong order: %v %v %v", got[0].GUID, got[1].GUID, got[2].GUID)
	}
}
