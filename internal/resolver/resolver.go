// Package resolver turns a classified user request into an answer. Each
// intent has a primary source, and every path bottoms out in a static
// default so resolution never fails outright.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"sagechat/internal/models"
	"sagechat/internal/provider"
	"sagechat/internal/retry"
)

// Narrow views of the providers. Any of them may be nil-backed; a source
// that is down just drops out of its chain.
type (
	Completer interface {
		Complete(ctx context.Context, messages []models.Message) (string, error)
	}
	WebSearcher interface {
		Search(ctx context.Context, query string) ([]models.SearchResult, error)
	}
	WikiReader interface {
		Summary(ctx context.Context, topic string) (string, error)
	}
	WeatherReader interface {
		Current(ctx context.Context, city string) (*provider.WeatherReport, error)
	}
	NewsReader interface {
		Headlines(ctx context.Context, topic string, limit int) ([]models.SearchResult, error)
	}
	CountryReader interface {
		Lookup(ctx context.Context, name string) (*provider.CountryInfo, error)
	}
	// Conversations is the slice of the session store the resolver reads.
	Conversations interface {
		BuildContext(sessionID string) []models.Message
	}
)

const (
	modelTimeout    = 15 * time.Second
	modelMaxRetries = 2
	snippetJoinMax  = 900
)

// Result is a resolved answer and the source that produced it.
type Result struct {
	Answer string
	Source string
}

type Resolver struct {
	sessions Conversations
	model    Completer
	web      WebSearcher
	wiki     WikiReader
	weather  WeatherReader
	news     NewsReader
	country  CountryReader
	now      func() time.Time
}

type Options struct {
	Sessions Conversations
	Model    Completer
	Web      WebSearcher
	Wiki     WikiReader
	Weather  WeatherReader
	News     NewsReader
	Country  CountryReader
	Now      func() time.Time
}

func New(opts Options) *Resolver {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Resolver{
		sessions: opts.Sessions,
		model:    opts.Model,
		web:      opts.Web,
		wiki:     opts.Wiki,
		weather:  opts.Weather,
		news:     opts.News,
		country:  opts.Country,
		now:      now,
	}
}

// Resolve answers the query for the given intent. It never returns an
// error: a path that cannot produce content ends at a per-intent default.
func (r *Resolver) Resolve(ctx context.Context, label models.Intent, query, sessionID string) Result {
	switch label {
	case models.IntentTime:
		return r.resolveTime()
	case models.IntentWeather:
		if res, ok := r.resolveWeather(ctx, query); ok {
			return res
		}
		return r.resolveKnowledge(ctx, label, query, sessionID)
	case models.IntentNews:
		if res, ok := r.resolveNews(ctx, query); ok {
			return res
		}
		return r.resolveKnowledge(ctx, label, query, sessionID)
	case models.IntentCountry:
		if res, ok := r.resolveCountry(ctx, query); ok {
			return res
		}
		return r.resolveKnowledge(ctx, label, query, sessionID)
	case models.IntentSearch:
		if res, ok := r.resolveSearch(ctx, query); ok {
			return res
		}
		return r.resolveKnowledge(ctx, label, query, sessionID)
	case models.IntentGreeting, models.IntentGeneral:
		return r.resolveConversational(ctx, label, query, sessionID)
	default:
		return r.resolveKnowledge(ctx, label, query, sessionID)
	}
}

func (r *Resolver) resolveTime() Result {
	now := r.now()
	return Result{
		Answer: fmt.Sprintf("It is %s on %s.",
			now.Format("15:04 MST"), now.Format("Monday, January 2, 2006")),
		Source: "time",
	}
}

func (r *Resolver) resolveWeather(ctx context.Context, query string) (Result, bool) {
	if r.weather == nil {
		return Result{}, false
	}
	report, err := r.weather.Current(ctx, ExtractCity(query))
	if err != nil || report == nil {
		return Result{}, false
	}
	return Result{Answer: report.Describe(), Source: "weather"}, true
}

func (r *Resolver) resolveNews(ctx context.Context, query string) (Result, bool) {
	if r.news == nil {
		return Result{}, false
	}
	headlines, err := r.news.Headlines(ctx, newsTopic(query), 5)
	if err != nil || len(headlines) == 0 {
		return Result{}, false
	}

	var b strings.Builder
	b.WriteString("Here are the latest headlines:\n")
	for _, h := range headlines {
		fmt.Fprintf(&b, "- %s (%s)\n", h.Title, h.Source)
	}
	return Result{Answer: strings.TrimRight(b.String(), "\n"), Source: "news"}, true
}

func (r *Resolver) resolveCountry(ctx context.Context, query string) (Result, bool) {
	if r.country == nil {
		return Result{}, false
	}
	name := ExtractCountry(query)
	if name == "" {
		return Result{}, false
	}
	info, err := r.country.Lookup(ctx, name)
	if err != nil || info == nil {
		return Result{}, false
	}
	return Result{Answer: info.Describe(), Source: "country"}, true
}

// resolveSearch answers global lookups from ranked web results directly.
// The snippet ranking picks the answer; the model is only a fallback when
// the search comes back empty.
func (r *Resolver) resolveSearch(ctx context.Context, query string) (Result, bool) {
	if r.web == nil {
		return Result{}, false
	}
	results, err := r.web.Search(ctx, query)
	if err != nil {
		return Result{}, false
	}
	answer := renderSearchAnswer(results)
	if answer == "" {
		return Result{}, false
	}
	return Result{Answer: answer, Source: "web"}, true
}

// resolveConversational answers greetings and small talk straight from the
// model over the session context.
func (r *Resolver) resolveConversational(ctx context.Context, label models.Intent, query, sessionID string) Result {
	messages := r.contextFor(sessionID, query)
	if answer := r.complete(ctx, messages); answer != "" {
		return Result{Answer: answer, Source: "model"}
	}
	return Result{Answer: defaultAnswer(label), Source: "system"}
}

// complete runs the model under the retry policy, returning "" when the
// model is absent or exhausted its attempts.
func (r *Resolver) complete(ctx context.Context, messages []models.Message) string {
	if r.model == nil {
		return ""
	}
	return retry.Do(ctx, retry.Policy{
		Timeout:    modelTimeout,
		MaxRetries: modelMaxRetries,
	}, func(ctx context.Context) (string, error) {
		return r.model.Complete(ctx, messages)
	})
}

// resolveKnowledge is the heavy path: fan the query out to every knowledge
// source, feed what came back to the model as tagged context, and fall down
// the source ladder if the model cannot answer.
func (r *Resolver) resolveKnowledge(ctx context.Context, label models.Intent, query, sessionID string) Result {
	var (
		wikiExtract string
		webResults  []models.SearchResult
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if r.wiki == nil {
			return
		}
		if extract, err := r.wiki.Summary(ctx, query); err == nil {
			wikiExtract = extract
		}
	}()
	if r.web != nil {
		if results, err := r.web.Search(ctx, query); err == nil {
			webResults = results
		}
	}
	<-done

	philosophyEntry := provider.LookupPhilosophy(query)
	generalEntry := provider.LookupGeneral(query)

	messages := r.contextFor(sessionID, query)
	var sources []string
	if wikiExtract != "" {
		messages = append(messages, systemNote("Wikipedia: "+truncate(wikiExtract, snippetJoinMax)))
		sources = append(sources, "wiki")
	}
	if snippets := joinSnippets(webResults); snippets != "" {
		messages = append(messages, systemNote("Web search: "+truncate(snippets, snippetJoinMax)))
		sources = append(sources, "web")
	}
	if philosophyEntry != "" {
		messages = append(messages, systemNote("Dictionary: "+philosophyEntry))
		sources = append(sources, "dictionary")
	}
	if generalEntry != "" {
		messages = append(messages, systemNote("Dictionary: "+generalEntry))
		sources = append(sources, "dictionary")
	}

	if answer := r.complete(ctx, messages); answer != "" {
		return Result{Answer: answer, Source: sourceLabel(sources)}
	}

	// Model gone: serve the best raw source directly. Wiki first (Summary
	// already covers the direct and full-text lookup), then the dictionaries.
	res, src := firstPresent(ctx, []Strategy{
		{Name: "wiki", Fetch: func(context.Context) (string, error) {
			return wikiExtract, nil
		}},
		{Name: "dictionary", Fetch: func(context.Context) (string, error) {
			if philosophyEntry != "" {
				return philosophyEntry, nil
			}
			return generalEntry, nil
		}},
	})
	if res != "" {
		return Result{Answer: res, Source: src}
	}
	return Result{Answer: defaultAnswer(label), Source: "system"}
}

// renderSearchAnswer quotes the best snippet and up to three supporting
// results.
func renderSearchAnswer(results []models.SearchResult) string {
	chosen := PickBestSnippet(results)
	if chosen == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(chosen.Description))
	if chosen.URL != "" {
		b.WriteString("\n" + chosen.URL)
	}
	supporting := SummarizeResults(results)
	wrote := false
	for _, s := range supporting {
		if s.URL == chosen.URL {
			continue
		}
		if !wrote {
			b.WriteString("\n\nAdditional information:")
			wrote = true
		}
		fmt.Fprintf(&b, "\n- %s (%s)", strings.TrimSpace(s.Description), s.URL)
	}
	return b.String()
}

func (r *Resolver) contextFor(sessionID, query string) []models.Message {
	messages := r.sessions.BuildContext(sessionID)
	if len(messages) == 0 {
		messages = []models.Message{{Role: models.RoleUser, Content: query}}
	}
	return messages
}

func systemNote(content string) models.Message {
	return models.Message{Role: models.RoleSystem, Content: content}
}

func sourceLabel(sources []string) string {
	if len(sources) == 0 {
		return "model"
	}
	seen := make(map[string]bool)
	var uniq []string
	for _, s := range sources {
		if !seen[s] {
			seen[s] = true
			uniq = append(uniq, s)
		}
	}
	return strings.Join(append(uniq, "model"), "+")
}

func joinSnippets(results []models.SearchResult) string {
	var parts []string
	for _, r := range results {
		if desc := strings.TrimSpace(r.Description); desc != "" {
			parts = append(parts, desc)
		}
	}
	return strings.Join(parts, " | ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

var defaultAnswers = map[models.Intent]string{
	models.IntentExplain:   "That looks like a concept I should explain properly. Would you like the short version or the detailed one?",
	models.IntentShort:     "In short: I have no ready data for that yet. Want me to try a quick lookup from a reliable source?",
	models.IntentExpand:    "Which direction should I expand on: the history, the practice, or concrete examples?",
	models.IntentConclude:  "Would you like me to write a short conclusion summarizing the main points so far?",
	models.IntentSummarize: "Would you like a brief summary of just the main points from what we discussed?",
	models.IntentKnowledge: "I do not have that at hand. Want me to look it up on Wikipedia, the web, or the dictionary?",
}

func defaultAnswer(label models.Intent) string {
	if answer, ok := defaultAnswers[label]; ok {
		return answer
	}
	return "I do not have immediate data for that. Could you say a bit more about what you are after?"
}

// Weather queries rarely spell the city out cleanly, so strip the question
// words and match what is left against known city names.
var cityNames = map[string]string{
	"hanoi":       "Hanoi",
	"ha noi":      "Hanoi",
	"ho chi minh": "Ho Chi Minh City",
	"saigon":      "Ho Chi Minh City",
	"da nang":     "Da Nang",
	"hue":         "Hue",
	"london":      "London",
	"paris":       "Paris",
	"new york":    "New York",
	"tokyo":       "Tokyo",
	"singapore":   "Singapore",
	"berlin":      "Berlin",
	"rome":        "Rome",
}

// ExtractCity pulls a city name out of a weather question, defaulting to
// Hanoi when none is recognized.
func ExtractCity(query string) string {
	text := " " + normalizeWords(query) + " "
	for key, name := range cityNames {
		if strings.Contains(text, " "+key+" ") {
			return name
		}
	}
	return "Hanoi"
}

// countryAliases maps informal names onto ones the lookup API resolves.
var countryAliases = map[string]string{
	"usa":           "United States",
	"america":       "United States",
	"united states": "United States",
	"uk":            "United Kingdom",
	"britain":       "United Kingdom",
	"holland":       "Netherlands",
	"viet nam":      "Vietnam",
}

var countryFillerWords = map[string]bool{
	"country": true, "nation": true, "tell": true, "me": true, "about": true,
	"the": true, "of": true, "which": true, "what": true, "is": true,
	"a": true, "info": true, "information": true, "on": true, "please": true,
	"capital": true, "population": true, "currency": true, "language": true,
}

// ExtractCountry pulls a country name out of a query. Empty means no
// candidate survived the filler strip.
func ExtractCountry(query string) string {
	text := " " + normalizeWords(query) + " "
	for key, name := range countryAliases {
		if strings.Contains(text, " "+key+" ") {
			return name
		}
	}
	var kept []string
	for _, word := range strings.Fields(text) {
		if !countryFillerWords[word] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

var newsFillerWords = map[string]bool{
	"news": true, "headlines": true, "latest": true, "stories": true,
	"what": true, "are": true, "is": true, "the": true, "about": true,
	"on": true, "show": true, "tell": true, "me": true, "today": true,
	"current": true, "events": true,
}

func newsTopic(query string) string {
	var kept []string
	for _, word := range strings.Fields(normalizeWords(query)) {
		if !newsFillerWords[word] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// normalizeWords lowercases and strips punctuation so word-boundary matches
// behave.
func normalizeWords(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
