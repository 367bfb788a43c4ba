package memory

import (
	"fmt"
	"strings"

	"sagechat/internal/models"
)

const (
	recentWindow         = 10
	recentWindowExtended = 20
)

// Intent-keyed behavioral directives. These are a contract for the
// downstream generator: never ask a clarifying question for these intents,
// and never repeat earlier content verbatim.
var intentDirectives = map[models.Intent]string{
	models.IntentExpand:    "The user wants you to continue. Expand on your previous answer with new material; do not restart the topic.",
	models.IntentConclude:  "Write a short concluding paragraph that synthesizes the main points made so far.",
	models.IntentSummarize: "Summarize concisely, main points only.",
	models.IntentExplain:   "Explain clearly with an illustrative example; keep it easy to follow.",
	models.IntentShort:     "Answer briefly and to the point.",
	models.IntentCompare:   "Compare the subjects explicitly, with a clear structure.",
	models.IntentAnalyze:   "Analyze in depth, logically, from several angles.",
	models.IntentKnowledge: "Answer accurately with supporting reasoning, staying connected to the conversation so far.",
}

const defaultDirective = "Answer helpfully and stay connected to the conversation so far."

const directiveRules = "Never ask the user a clarifying question for these requests. " +
	"Continue from the previous answer; keep a consistent voice and do not repeat earlier content verbatim."

// BuildContext assembles the ordered role-tagged entries for a completion
// call: intent-keyed system directive, running summary, the last assistant
// answer and user utterance re-injected as labelled reminders, then a
// trailing window of recent messages with inline intent tags.
func (st *Store) BuildContext(sessionID string) []models.Message {
	st.mu.Lock()
	s, ok := st.sessions[sessionID]
	if !ok {
		st.mu.Unlock()
		return nil
	}
	msgs := make([]models.Message, len(s.Messages))
	copy(msgs, s.Messages)
	summary := s.Summary
	topic := s.Topic
	lastIntent := s.LastIntent
	st.mu.Unlock()

	if len(msgs) > 0 {
		if tag := msgs[len(msgs)-1].Metadata[models.MetaIntent]; tag != "" {
			lastIntent = models.Intent(tag)
		}
	}
	if lastIntent == "" {
		lastIntent = models.IntentGeneral
	}

	directive, ok := intentDirectives[lastIntent]
	if !ok {
		directive = defaultDirective
	}
	if topic == "" {
		topic = "not determined yet"
	}
	head := fmt.Sprintf(
		"You are a knowledgeable assistant that keeps the conversation coherent.\nTopic: %s.\nLatest intent: %s.\n%s\n%s",
		topic, lastIntent, directive, directiveRules)

	context := []models.Message{{Role: models.RoleSystem, Content: head}}
	if summary != "" {
		context = append(context, models.Message{
			Role:    models.RoleSystem,
			Content: "Earlier summary: " + summary,
		})
	}
	// Re-injected reminders: compaction may have evicted these from the
	// recent window.
	lastAssistant := lastContentByRole(msgs, models.RoleAssistant)
	if lastAssistant != "" {
		context = append(context, models.Message{
			Role:    models.RoleAssistant,
			Content: "Previous answer: " + lastAssistant,
		})
	}
	lastUser := lastContentByRole(msgs, models.RoleUser)
	if lastUser != "" {
		context = append(context, models.Message{
			Role:    models.RoleUser,
			Content: "Latest request: " + lastUser,
		})
	}

	window := recentWindow
	if models.ExtendedIntents[lastIntent] {
		window = recentWindowExtended
	}
	recent := msgs
	if len(recent) > window {
		recent = recent[len(recent)-window:]
	}
	for _, m := range recent {
		content := m.Content
		if tag := m.Metadata[models.MetaIntent]; tag != "" {
			content = fmt.Sprintf("[%s] %s", strings.ToUpper(tag), content)
		}
		context = append(context, models.Message{Role: m.Role, Content: content})
	}
	return context
}

func lastContentByRole(msgs []models.Message, role models.Role) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == role {
			return msgs[i].Content
		}
	}
	return ""
}
