// Package intent maps a raw utterance to one label from the closed intent
// taxonomy. Three tiers, in order: stickiness from the previous turn,
// an ordered rule table, then an optional language-model escalation.
package intent

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"sagechat/internal/models"
)

// SessionIntents is the per-session last-intent state, owned by the session
// store rather than a side map.
type SessionIntents interface {
	LastIntent(sessionID string) models.Intent
	SetLastIntent(sessionID string, intent models.Intent)
}

// LabelModel is the escalation tier: a zero-temperature, minimal-token
// completion constrained to the allowed label set.
type LabelModel interface {
	ClassifyLabel(ctx context.Context, question string) (string, error)
}

// Rule pairs a predicate with a label. Order in the table is priority:
// continuation commands come before topical keywords.
type Rule struct {
	Name  string
	Match func(text string) bool
	Label models.Intent
}

var (
	greetingPattern = regexp.MustCompile(`^(hi|hello|hey|good (morning|afternoon|evening)|greetings)\b`)
	expandPattern   = regexp.MustCompile(`^(more|continue|expand|go on|keep going)\.?$`)
	concludePattern = regexp.MustCompile(`^(conclude|wrap (it )?up|finish( up)?)\.?$`)
)

func keywords(words ...string) func(string) bool {
	return func(text string) bool {
		for _, w := range words {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}
}

// Rules is the ordered classification table. Evaluation order is
// significant and is itself the priority encoding.
var Rules = []Rule{
	{"greeting", greetingPattern.MatchString, models.IntentGreeting},
	{"expand", expandPattern.MatchString, models.IntentExpand},
	{"conclude", concludePattern.MatchString, models.IntentConclude},
	// Explicit weather/time/news vocabulary is unambiguous and outranks the
	// style keywords below; this mirrors the stickiness override.
	{"weather", keywords("weather", "temperature", "forecast", "humidity", "raining", "sunny today", "windy"), models.IntentWeather},
	{"time", keywords("what time", "current time", "time is it", "today's date", "what day is"), models.IntentTime},
	{"news", keywords("news", "headlines", "latest stories", "current events"), models.IntentNews},
	{"country", keywords("country", "which nation", "nation of"), models.IntentCountry},
	{"summarize", keywords("summarize", "summary of", "tl;dr", "in short", "briefly"), models.IntentSummarize},
	{"short", keywords("short answer", "keep it short", "one sentence", "quick answer"), models.IntentShort},
	{"compare", keywords("compare", "difference between", "versus", " vs "), models.IntentCompare},
	{"analyze", keywords("analyze", "analysis of", "break down", "in depth"), models.IntentAnalyze},
	{"explain", keywords("explain", "what is ", "what are ", "define", "definition of", "meaning of"), models.IntentExplain},
	{"philosophy", keywords("philosophy", "meaning of life", "enlightenment", "meditation", "wisdom", "ethics", "morality", "consciousness"), models.IntentPhilosophy},
	{"search", keywords("search", "google", "look up", "find out who", "who is the current"), models.IntentSearch},
}

// stickyIntents carry across turns unless a strong override keyword appears.
var stickyIntents = map[models.Intent]bool{
	models.IntentKnowledge:  true,
	models.IntentPhilosophy: true,
}

// overridePattern breaks stickiness: unambiguous weather/news/time vocabulary.
var overridePattern = regexp.MustCompile(`\b(weather|temperature|forecast|news|headlines|what time|current time)\b`)

// allowedLabels constrains the escalation tier's output.
var allowedLabels = map[string]models.Intent{
	"weather":   models.IntentWeather,
	"news":      models.IntentNews,
	"time":      models.IntentTime,
	"country":   models.IntentCountry,
	"search":    models.IntentSearch,
	"knowledge": models.IntentKnowledge,
	"general":   models.IntentGeneral,
	"expand":    models.IntentExpand,
	"short":     models.IntentShort,
	"explain":   models.IntentExplain,
}

const escalationTimeout = 8 * time.Second

type Classifier struct {
	sessions SessionIntents
	model    LabelModel // nil disables escalation
}

func NewClassifier(sessions SessionIntents, model LabelModel) *Classifier {
	return &Classifier{sessions: sessions, model: model}
}

// Classify returns the intent for message and records it as the session's
// last intent.
func (c *Classifier) Classify(ctx context.Context, message, sessionID string) models.Intent {
	label := c.classify(ctx, message, sessionID)
	c.sessions.SetLastIntent(sessionID, label)
	return label
}

func (c *Classifier) classify(ctx context.Context, message, sessionID string) models.Intent {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return models.IntentGeneral
	}

	// Tier 1: stickiness. A multi-turn explanation should not be derailed
	// by incidental keyword overlap.
	prev := c.sessions.LastIntent(sessionID)
	if stickyIntents[prev] && !overridePattern.MatchString(text) {
		return prev
	}

	// Tier 2: ordered rules, first match wins.
	for _, rule := range Rules {
		if rule.Match(text) {
			return rule.Label
		}
	}

	// Tier 3: model escalation, coerced into the closed set. The miss
	// default is knowledge, not general: ambiguous questions go to the
	// richer resolution path.
	if c.model != nil {
		escCtx, cancel := context.WithTimeout(ctx, escalationTimeout)
		defer cancel()
		raw, err := c.model.ClassifyLabel(escCtx, message)
		if err != nil {
			log.Printf("intent: escalation failed: %v", err)
			return models.IntentGeneral
		}
		if label, ok := allowedLabels[normalizeLabel(raw)]; ok {
			return label
		}
		return models.IntentKnowledge
	}
	return models.IntentKnowledge
}

func normalizeLabel(raw string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(raw)), `"'.`)
}

// ClassifyPrompt builds the constrained escalation prompt used by the
// completion provider.
func ClassifyPrompt(question string) string {
	labels := []string{"weather", "news", "time", "country", "search", "knowledge", "general", "expand", "short", "explain"}
	return fmt.Sprintf(
		"Classify the user question into exactly one of these labels: %s.\n"+
			"weather: weather, climate, forecasts. news: news and current events. "+
			"time: the current time or date. country: facts about a country, its capital, population, or currency. "+
			"search: current officeholders, geography, politics, anything needing a web lookup. "+
			"knowledge: general knowledge, science, culture, religion, philosophy. "+
			"general: casual conversation. expand: the user says \"more\" or \"continue\". "+
			"short: the user wants a brief answer. explain: the user wants a definition or explanation.\n"+
			"Question: %q\n"+
			"Reply with the single label only. If unsure, reply general.",
		strings.Join(labels, ", "), question)
}
