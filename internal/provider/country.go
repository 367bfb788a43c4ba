package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	countryLookupURL = "https://restcountries.com/v3.1/name/"
	countryCacheTTL  = 24 * time.Hour
)

// CountryInfo is the normalized country profile.
type CountryInfo struct {
	Name       string   `json:"name"`
	Capital    string   `json:"capital"`
	Region     string   `json:"region"`
	Continent  string   `json:"continent"`
	Population int64    `json:"population"`
	Languages  []string `json:"languages"`
	Currencies []string `json:"currencies"`
}

// Countries queries the REST Countries API; profiles change rarely, so hits
// are cached for a day.
type Countries struct {
	cache  Cache
	client *http.Client
}

func NewCountries(cache Cache) *Countries {
	return &Countries{
		cache:  cache,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Lookup returns the profile for a country by common name.
func (c *Countries) Lookup(ctx context.Context, name string) (*CountryInfo, error) {
	if c == nil {
		return nil, errors.New("country provider not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("country name must not be empty")
	}

	cacheKey := "country:" + strings.ToLower(name)
	if c.cache != nil {
		var cached CountryInfo
		if err := c.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		countryLookupURL+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("country request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("country lookup: status %d", resp.StatusCode)
	}

	var payload []restCountry
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode country response: %w", err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("no country found for %q", name)
	}
	info := payload[0].toInfo()

	if c.cache != nil {
		c.cache.SetJSON(ctx, cacheKey, info, countryCacheTTL)
	}
	return info, nil
}

type restCountry struct {
	Name struct {
		Common string `json:"common"`
	} `json:"name"`
	Capital    []string          `json:"capital"`
	Region     string            `json:"region"`
	Continents []string          `json:"continents"`
	Population int64             `json:"population"`
	Languages  map[string]string `json:"languages"`
	Currencies map[string]struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"currencies"`
}

func (rc restCountry) toInfo() *CountryInfo {
	info := &CountryInfo{
		Name:       rc.Name.Common,
		Region:     rc.Region,
		Population: rc.Population,
	}
	if len(rc.Capital) > 0 {
		info.Capital = rc.Capital[0]
	}
	if len(rc.Continents) > 0 {
		info.Continent = rc.Continents[0]
	}
	for _, lang := range rc.Languages {
		info.Languages = append(info.Languages, lang)
	}
	for _, cur := range rc.Currencies {
		label := cur.Name
		if cur.Symbol != "" {
			label = fmt.Sprintf("%s (%s)", cur.Name, cur.Symbol)
		}
		info.Currencies = append(info.Currencies, label)
	}
	// Source maps iterate in random order.
	sort.Strings(info.Languages)
	sort.Strings(info.Currencies)
	return info
}

// Describe renders the profile as a short paragraph.
func (ci *CountryInfo) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is a country in %s", ci.Name, ci.Region)
	if ci.Continent != "" && ci.Continent != ci.Region {
		fmt.Fprintf(&b, " (%s)", ci.Continent)
	}
	b.WriteString(".")
	if ci.Capital != "" {
		fmt.Fprintf(&b, " Capital: %s.", ci.Capital)
	}
	if ci.Population > 0 {
		fmt.Fprintf(&b, " Population: about %s.", groupDigits(ci.Population))
	}
	if len(ci.Languages) > 0 {
		fmt.Fprintf(&b, " Languages: %s.", strings.Join(ci.Languages, ", "))
	}
	if len(ci.Currencies) > 0 {
		fmt.Fprintf(&b, " Currency: %s.", strings.Join(ci.Currencies, ", "))
	}
	return b.String()
}

// groupDigits formats n with thousands separators.
func groupDigits(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
