package provider

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseSearchOutputGoogleShape(t *testing.T) {
	raw := `{"items":[{"title":"Go","link":"https://go.dev","snippet":"The Go programming language"}]}`
	results := parseSearchOutput(raw)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].URL != "https://go.dev" {
		t.Errorf("url = %q", results[0].URL)
	}
	if results[0].Description != "The Go programming language" {
		t.Errorf("description = %q", results[0].Description)
	}
}

func TestParseSearchOutputDDGShape(t *testing.T) {
	raw := `{"results":[{"title":"Go","url":"https://go.dev","description":"A language"}]}`
	results := parseSearchOutput(raw)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Description != "A language" {
		t.Errorf("description = %q", results[0].Description)
	}
}

func TestParseSearchOutputGarbage(t *testing.T) {
	if results := parseSearchOutput("not json"); results != nil {
		t.Fatalf("expected nil, got %v", results)
	}
}

func TestParsePubDateFormats(t *testing.T) {
	for _, raw := range []string{
		"Mon, 02 Jan 2026 15:04:05 +0700",
		"Mon, 02 Jan 2026 15:04:05 GMT",
		"2026-01-02T15:04:05Z",
	} {
		if _, err := parsePubDate(raw); err != nil {
			t.Errorf("parsePubDate(%q): %v", raw, err)
		}
	}
	if _, err := parsePubDate("yesterday-ish"); err == nil {
		t.Errorf("expected error for unparseable date")
	}
}

func TestStripHTML(t *testing.T) {
	got := stripHTML(`A <span class="hit">match</span> here`)
	if got != "A match here" {
		t.Fatalf("got %q", got)
	}
}

func TestDictionaryLookups(t *testing.T) {
	if got := LookupGeneral(" AI? "); got == "" || !strings.Contains(got, "Artificial intelligence") {
		t.Errorf("general lookup failed: %q", got)
	}
	if got := LookupPhilosophy("Nirvana"); got == "" {
		t.Errorf("philosophy lookup failed")
	}
	if got := LookupGeneral("quantum chromodynamics"); got != "" {
		t.Errorf("expected miss, got %q", got)
	}
}

func TestCountryPayloadToInfo(t *testing.T) {
	raw := `{"name":{"common":"France"},"capital":["Paris"],"region":"Europe",` +
		`"continents":["Europe"],"population":67000000,` +
		`"languages":{"fra":"French"},"currencies":{"EUR":{"name":"Euro","symbol":"€"}}}`
	var rc restCountry
	if err := json.Unmarshal([]byte(raw), &rc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	info := rc.toInfo()
	if info.Name != "France" || info.Capital != "Paris" {
		t.Fatalf("info = %+v", info)
	}
	if len(info.Currencies) != 1 || info.Currencies[0] != "Euro (€)" {
		t.Fatalf("currencies = %v", info.Currencies)
	}
}

func TestCountryInfoDescribe(t *testing.T) {
	info := &CountryInfo{
		Name: "France", Capital: "Paris", Region: "Western Europe",
		Continent: "Europe", Population: 67000000,
		Languages: []string{"French"}, Currencies: []string{"Euro (€)"},
	}
	got := info.Describe()
	for _, want := range []string{"France is a country in Western Europe (Europe).",
		"Capital: Paris.", "Population: about 67,000,000.", "Languages: French."} {
		if !strings.Contains(got, want) {
			t.Errorf("Describe() = %q, missing %q", got, want)
		}
	}
}

func TestGroupDigits(t *testing.T) {
	cases := map[int64]string{
		950:      "950",
		1000:     "1,000",
		98000000: "98,000,000",
	}
	for n, want := range cases {
		if got := groupDigits(n); got != want {
			t.Errorf("groupDigits(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestWeatherReportDescribe(t *testing.T) {
	r := &WeatherReport{
		City: "Hanoi", Country: "VN", Temperature: 31, FeelsLike: 35,
		Description: "scattered clouds", Humidity: 74, WindSpeed: 3.6,
	}
	got := r.Describe()
	for _, want := range []string{"Hanoi, VN", "scattered clouds", "31°C", "74%"} {
		if !strings.Contains(got, want) {
			t.Errorf("Describe() = %q, missing %q", got, want)
		}
	}
}
