package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"sagechat/internal/models"
	"sagechat/internal/provider"
)

type fakeSessions struct {
	messages []models.Message
}

func (f *fakeSessions) BuildContext(sessionID string) []models.Message {
	return f.messages
}

type fakeModel struct {
	answer string
	err    error
	seen   []models.Message
}

func (f *fakeModel) Complete(ctx context.Context, messages []models.Message) (string, error) {
	f.seen = messages
	return f.answer, f.err
}

type fakeWeb struct {
	results []models.SearchResult
	err     error
}

func (f *fakeWeb) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	return f.results, f.err
}

type fakeWiki struct {
	extract string
	err     error
}

func (f *fakeWiki) Summary(ctx context.Context, topic string) (string, error) {
	return f.extract, f.err
}

type fakeWeather struct {
	report *provider.WeatherReport
	err    error
}

func (f *fakeWeather) Current(ctx context.Context, city string) (*provider.WeatherReport, error) {
	return f.report, f.err
}

type fakeNews struct {
	items []models.SearchResult
	err   error
}

func (f *fakeNews) Headlines(ctx context.Context, topic string, limit int) ([]models.SearchResult, error) {
	return f.items, f.err
}

type fakeCountry struct {
	info *provider.CountryInfo
	err  error
}

func (f *fakeCountry) Lookup(ctx context.Context, name string) (*provider.CountryInfo, error) {
	return f.info, f.err
}

func TestResolveTime(t *testing.T) {
	fixed := time.Date(2026, time.March, 2, 14, 30, 0, 0, time.UTC)
	r := New(Options{Sessions: &fakeSessions{}, Now: func() time.Time { return fixed }})

	res := r.Resolve(context.Background(), models.IntentTime, "what time is it", "s1")
	if res.Source != "time" {
		t.Fatalf("source = %q", res.Source)
	}
	if !strings.Contains(res.Answer, "14:30 UTC") || !strings.Contains(res.Answer, "Monday, March 2, 2026") {
		t.Fatalf("answer = %q", res.Answer)
	}
}

func TestResolveWeather(t *testing.T) {
	r := New(Options{
		Sessions: &fakeSessions{},
		Weather: &fakeWeather{report: &provider.WeatherReport{
			City: "Paris", Country: "FR", Temperature: 18, FeelsLike: 17,
			Description: "light rain", Humidity: 80, WindSpeed: 4.2,
		}},
	})

	res := r.Resolve(context.Background(), models.IntentWeather, "weather in Paris today", "s1")
	if res.Source != "weather" {
		t.Fatalf("source = %q", res.Source)
	}
	if !strings.Contains(res.Answer, "Paris, FR") {
		t.Fatalf("answer = %q", res.Answer)
	}
}

func TestResolveWeatherFailureFallsThrough(t *testing.T) {
	r := New(Options{
		Sessions: &fakeSessions{},
		Weather:  &fakeWeather{err: errors.New("upstream down")},
		Model:    &fakeModel{answer: "I cannot check the weather right now."},
	})

	res := r.Resolve(context.Background(), models.IntentWeather, "weather in Paris", "s1")
	if res.Answer == "" || res.Source == "weather" {
		t.Fatalf("expected fallthrough, got %+v", res)
	}
}

func TestResolveNewsFormatsHeadlines(t *testing.T) {
	r := New(Options{
		Sessions: &fakeSessions{},
		News: &fakeNews{items: []models.SearchResult{
			{Source: "BBC", Title: "Markets rally"},
			{Source: "NPR", Title: "New telescope images"},
		}},
	})

	res := r.Resolve(context.Background(), models.IntentNews, "latest news", "s1")
	if res.Source != "news" {
		t.Fatalf("source = %q", res.Source)
	}
	if !strings.Contains(res.Answer, "- Markets rally (BBC)") {
		t.Fatalf("answer = %q", res.Answer)
	}
}

func TestResolveCountry(t *testing.T) {
	r := New(Options{
		Sessions: &fakeSessions{},
		Country: &fakeCountry{info: &provider.CountryInfo{
			Name: "Vietnam", Capital: "Hanoi", Region: "South-Eastern Asia",
			Continent: "Asia", Population: 98000000,
		}},
	})

	res := r.Resolve(context.Background(), models.IntentCountry, "tell me about the country Vietnam", "s1")
	if res.Source != "country" {
		t.Fatalf("source = %q", res.Source)
	}
	if !strings.Contains(res.Answer, "Capital: Hanoi.") {
		t.Fatalf("answer = %q", res.Answer)
	}
}

func TestResolveCountryFailureFallsThrough(t *testing.T) {
	r := New(Options{
		Sessions: &fakeSessions{},
		Country:  &fakeCountry{err: errors.New("upstream down")},
		Model:    &fakeModel{answer: "I cannot look that country up right now."},
	})

	res := r.Resolve(context.Background(), models.IntentCountry, "which country is Cuba", "s1")
	if res.Answer == "" || res.Source == "country" {
		t.Fatalf("expected fallthrough, got %+v", res)
	}
}

func TestResolveKnowledgeTagsSourcesIntoContext(t *testing.T) {
	model := &fakeModel{answer: "Composed answer."}
	r := New(Options{
		Sessions: &fakeSessions{messages: []models.Message{{Role: models.RoleUser, Content: "what is nirvana"}}},
		Model:    model,
		Wiki:     &fakeWiki{extract: "Nirvana is the goal of Buddhist practice."},
		Web: &fakeWeb{results: []models.SearchResult{
			{URL: "https://en.wikipedia.org/wiki/Nirvana", Description: "Liberation from the cycle of rebirth."},
		}},
	})

	res := r.Resolve(context.Background(), models.IntentKnowledge, "nirvana", "s1")
	if res.Answer != "Composed answer." {
		t.Fatalf("answer = %q", res.Answer)
	}
	if res.Source != "wiki+web+dictionary+model" {
		t.Fatalf("source = %q", res.Source)
	}

	var sawWiki, sawWeb bool
	for _, m := range model.seen {
		if m.Role != models.RoleSystem {
			continue
		}
		if strings.HasPrefix(m.Content, "Wikipedia: ") {
			sawWiki = true
		}
		if strings.HasPrefix(m.Content, "Web search: ") {
			sawWeb = true
		}
	}
	if !sawWiki || !sawWeb {
		t.Fatalf("context missing tagged sources: wiki=%v web=%v", sawWiki, sawWeb)
	}
}

func TestResolveKnowledgeModelDownServesWiki(t *testing.T) {
	r := New(Options{
		Sessions: &fakeSessions{},
		Model:    &fakeModel{err: errors.New("model offline")},
		Wiki:     &fakeWiki{extract: "Stoicism is a Hellenistic philosophy."},
	})

	res := r.Resolve(context.Background(), models.IntentKnowledge, "what about stoics", "s1")
	if res.Source != "wiki" {
		t.Fatalf("source = %q", res.Source)
	}
	if res.Answer != "Stoicism is a Hellenistic philosophy." {
		t.Fatalf("answer = %q", res.Answer)
	}
}

func TestResolveSearchServesRankedSnippet(t *testing.T) {
	// The ranked snippet answers search queries even when the model is up;
	// the model only backs an empty search.
	model := &fakeModel{answer: "A stale recollection."}
	r := New(Options{
		Sessions: &fakeSessions{},
		Model:    model,
		Web: &fakeWeb{results: []models.SearchResult{
			{URL: "https://www.bbc.com/news/a", Description: "The incumbent chancellor took office this year.", GUID: "a"},
			{URL: "https://other.example.com/b", Description: "A long enough unrelated description here.", GUID: "b"},
		}},
	})

	res := r.Resolve(context.Background(), models.IntentSearch, "who is the chancellor", "s1")
	if res.Source != "web" {
		t.Fatalf("source = %q", res.Source)
	}
	if !strings.Contains(res.Answer, "incumbent chancellor") || !strings.Contains(res.Answer, "https://www.bbc.com/news/a") {
		t.Fatalf("answer = %q", res.Answer)
	}
	if len(model.seen) != 0 {
		t.Fatalf("model consulted despite search results")
	}
}

func TestResolveSearchEmptyFallsThroughToModel(t *testing.T) {
	r := New(Options{
		Sessions: &fakeSessions{},
		Model:    &fakeModel{answer: "Best guess from context."},
		Web:      &fakeWeb{},
	})

	res := r.Resolve(context.Background(), models.IntentSearch, "who is the chancellor", "s1")
	if res.Answer != "Best guess from context." || res.Source != "model" {
		t.Fatalf("got %+v", res)
	}
}

func TestResolveKnowledgeModelDownPrefersDictionaryOverWeb(t *testing.T) {
	// The model-down ladder is wiki, then dictionaries, then the canned
	// answer. Web snippets feed the model as context but never rank above
	// a dictionary entry here.
	r := New(Options{
		Sessions: &fakeSessions{},
		Model:    &fakeModel{err: errors.New("model offline")},
		Wiki:     &fakeWiki{err: errors.New("wiki offline")},
		Web: &fakeWeb{results: []models.SearchResult{
			{URL: "https://www.bbc.com/news/a", Description: "An unrelated but valid long description.", GUID: "a"},
		}},
	})

	res := r.Resolve(context.Background(), models.IntentKnowledge, "nirvana", "s1")
	if res.Source != "dictionary" {
		t.Fatalf("source = %q", res.Source)
	}
	if !strings.Contains(strings.ToLower(res.Answer), "nirvana") {
		t.Fatalf("answer = %q", res.Answer)
	}
}

func TestResolveKnowledgeEverythingDownUsesDefault(t *testing.T) {
	r := New(Options{Sessions: &fakeSessions{}, Model: &fakeModel{err: errors.New("down")}})

	res := r.Resolve(context.Background(), models.IntentExpand, "more", "s1")
	if res.Source != "system" {
		t.Fatalf("source = %q", res.Source)
	}
	if res.Answer != defaultAnswer(models.IntentExpand) {
		t.Fatalf("answer = %q", res.Answer)
	}
}

func TestResolveGreetingUsesModel(t *testing.T) {
	r := New(Options{Sessions: &fakeSessions{}, Model: &fakeModel{answer: "Hello!"}})

	res := r.Resolve(context.Background(), models.IntentGreeting, "hi", "s1")
	if res.Answer != "Hello!" || res.Source != "model" {
		t.Fatalf("got %+v", res)
	}
}

func TestExtractCity(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"what is the weather in Paris today?", "Paris"},
		{"weather Ho Chi Minh", "Ho Chi Minh City"},
		{"is it raining in new york", "New York"},
		{"what's the forecast", "Hanoi"},
		{"huge storms coming?", "Hanoi"},
	}
	for _, tc := range cases {
		if got := ExtractCity(tc.query); got != tc.want {
			t.Errorf("ExtractCity(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestExtractCountry(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"tell me about the country France", "france"},
		{"which country is Cuba", "cuba"},
		{"what is the capital of the USA", "United States"},
		{"info on Britain please", "United Kingdom"},
		{"tell me about the country", ""},
	}
	for _, tc := range cases {
		if got := ExtractCountry(tc.query); got != tc.want {
			t.Errorf("ExtractCountry(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestNewsTopic(t *testing.T) {
	if got := newsTopic("latest news about climate change"); got != "climate change" {
		t.Fatalf("got %q", got)
	}
	if got := newsTopic("news"); got != "" {
		t.Fatalf("got %q", got)
	}
}
