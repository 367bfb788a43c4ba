package resolver

import (
	"regexp"
	"sort"
	"strings"

	"sagechat/internal/models"
)

// Snippet ranking for web search results. Precision first: recency-backed
// authoritative matches beat everything, and the tail tiers only keep the
// answer from being empty.

var priorityKeywords = []string{
	"incumbent",
	"current",
	"currently",
	"officially took office",
	"founded",
	"established",
	"discovered",
}

var trustedDomainPattern = regexp.MustCompile(
	`(?i)(wikipedia\.org|britannica\.com|bbc\.com|cnn\.com|reuters\.com|apnews\.com|unesco\.org|nature\.com|science\.org|\.gov)`)

var yearPattern = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})\b`)

const minDescriptionLen = 20

// PickBestSnippet selects the single result worth quoting. Tiers, in order:
// priority keyword on a trusted domain (newest first), priority keyword
// anywhere, trusted domain, newest dated, description carrying a year,
// longest substantial description, then the first valid result.
func PickBestSnippet(results []models.SearchResult) *models.SearchResult {
	if len(results) == 0 {
		return nil
	}

	var valid []models.SearchResult
	for _, r := range results {
		if len(strings.TrimSpace(r.Description)) >= minDescriptionLen {
			valid = append(valid, r)
		}
	}

	keywordTrusted := filter(valid, func(r models.SearchResult) bool {
		return hasPriorityKeyword(r) && trustedDomainPattern.MatchString(r.URL)
	})
	if len(keywordTrusted) > 0 {
		sort.SliceStable(keywordTrusted, func(i, j int) bool {
			return publishedAfter(keywordTrusted[i], keywordTrusted[j])
		})
		return &keywordTrusted[0]
	}

	for i := range valid {
		if hasPriorityKeyword(valid[i]) {
			return &valid[i]
		}
	}

	for i := range valid {
		if trustedDomainPattern.MatchString(valid[i].URL) {
			return &valid[i]
		}
	}

	dated := filter(valid, func(r models.SearchResult) bool {
		return r.PublishedAt != nil
	})
	if len(dated) > 0 {
		sort.SliceStable(dated, func(i, j int) bool {
			return publishedAfter(dated[i], dated[j])
		})
		return &dated[0]
	}

	for i := range valid {
		if yearPattern.MatchString(valid[i].Description) {
			return &valid[i]
		}
	}

	if best := longestDescription(valid); best != nil {
		return best
	}

	if len(valid) > 0 {
		return &valid[0]
	}
	return &results[0]
}

var (
	encyclopediaPattern = regexp.MustCompile(`(?i)(wikipedia\.org|britannica\.com)`)
	newsOutletPattern   = regexp.MustCompile(`(?i)(bbc\.com|cnn\.com|reuters\.com|apnews\.com)`)
	institutionPattern  = regexp.MustCompile(`(?i)(unesco\.org|\.gov)`)
)

// SummarizeResults picks up to three supporting results for the answer's
// "additional information" block, drawing from encyclopedia sources first,
// then news outlets, then institutional domains, then everything else.
func SummarizeResults(results []models.SearchResult) []models.SearchResult {
	byURL := func(match func(string) bool) func(models.SearchResult) bool {
		return func(r models.SearchResult) bool { return match(r.URL) }
	}
	groups := [][]models.SearchResult{
		filter(results, byURL(encyclopediaPattern.MatchString)),
		filter(results, byURL(newsOutletPattern.MatchString)),
		filter(results, byURL(institutionPattern.MatchString)),
		filter(results, func(r models.SearchResult) bool {
			return !encyclopediaPattern.MatchString(r.URL) &&
				!newsOutletPattern.MatchString(r.URL) &&
				!institutionPattern.MatchString(r.URL)
		}),
	}

	var chosen []models.SearchResult
	seen := make(map[string]bool)
	for _, group := range groups {
		for _, r := range group {
			if len(chosen) >= 3 {
				return chosen
			}
			key := r.GUID
			if key == "" {
				key = r.URL
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			chosen = append(chosen, r)
		}
	}
	return chosen
}

func hasPriorityKeyword(r models.SearchResult) bool {
	desc := strings.ToLower(r.Description)
	for _, kw := range priorityKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

func publishedAfter(a, b models.SearchResult) bool {
	if a.PublishedAt == nil {
		return false
	}
	if b.PublishedAt == nil {
		return true
	}
	return a.PublishedAt.After(*b.PublishedAt)
}

func longestDescription(results []models.SearchResult) *models.SearchResult {
	var best *models.SearchResult
	for i := range results {
		if len(results[i].Description) < 50 {
			continue
		}
		if best == nil || len(results[i].Description) > len(best.Description) {
			best = &results[i]
		}
	}
	return best
}

func filter(results []models.SearchResult, keep func(models.SearchResult) bool) []models.SearchResult {
	var out []models.SearchResult
	for _, r := range results {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

