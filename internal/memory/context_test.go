package memory

import (
	"fmt"
	"strings"
	"testing"

	"sagechat/internal/models"
)

func TestBuildContextUnknownSession(t *testing.T) {
	st := NewStore(Config{})
	if got := st.BuildContext("missing"); got != nil {
		t.Fatalf("expected nil context, got %d entries", len(got))
	}
}

func TestBuildContextOrderAndReminders(t *testing.T) {
	st := NewStore(Config{})
	st.AddMessage("s1", models.RoleUser, "tell me about volcanoes", map[string]string{models.MetaIntent: "knowledge"})
	st.AddMessage("s1", models.RoleAssistant, "volcanoes are openings in the crust", nil)
	st.AddMessage("s1", models.RoleUser, "expand", map[string]string{models.MetaIntent: "expand"})

	ctx := st.BuildContext("s1")
	if len(ctx) < 4 {
		t.Fatalf("expected directive, reminders and window, got %d entries", len(ctx))
	}
	if ctx[0].Role != models.RoleSystem {
		t.Fatalf("first entry must be the system directive, got %s", ctx[0].Role)
	}
	if !strings.Contains(ctx[0].Content, "Expand on your previous answer") {
		t.Fatalf("directive not keyed on expand intent: %q", ctx[0].Content)
	}
	if !strings.Contains(ctx[0].Content, "Never ask the user a clarifying question") {
		t.Fatalf("behavioral contract missing: %q", ctx[0].Content)
	}

	var sawAnswerReminder, sawUserReminder bool
	for _, m := range ctx {
		if strings.HasPrefix(m.Content, "Previous answer: ") {
			sawAnswerReminder = true
		}
		if strings.HasPrefix(m.Content, "Latest request: ") {
			sawUserReminder = true
		}
	}
	if !sawAnswerReminder || !sawUserReminder {
		t.Fatalf("missing re-injected reminders (answer=%v user=%v)", sawAnswerReminder, sawUserReminder)
	}
}

func TestBuildContextIncludesSummaryNote(t *testing.T) {
	sum := &fakeSummarizer{summary: "Discussion about geology. User asked follow-ups."}
	st := NewStore(Config{SummarizeInterval: 2, Summarizer: sum, Submit: inlineSubmit})
	st.AddMessage("s1", models.RoleUser, "a", nil)
	st.AddMessage("s1", models.RoleUser, "b", nil)

	ctx := st.BuildContext("s1")
	var found bool
	for _, m := range ctx {
		if strings.HasPrefix(m.Content, "Earlier summary: ") {
			found = true
		}
	}
	if !found {
		t.Fatalf("summary note not injected")
	}
}

func TestBuildContextWindowSizeByIntent(t *testing.T) {
	st := NewStore(Config{MaxMessages: 40})
	for i := 0; i < 30; i++ {
		st.AddMessage("s1", models.RoleUser, fmt.Sprintf("filler %d", i), nil)
	}

	// Plain trailing message: 10-message window.
	st.AddMessage("s1", models.RoleUser, "hello there", map[string]string{models.MetaIntent: "general"})
	short := countWindow(st.BuildContext("s1"))
	if short != 10 {
		t.Fatalf("expected 10 trailing messages for general intent, got %d", short)
	}

	// Extended intent widens the window to 20.
	st.AddMessage("s1", models.RoleUser, "explain that", map[string]string{models.MetaIntent: "explain"})
	long := countWindow(st.BuildContext("s1"))
	if long != 20 {
		t.Fatalf("expected 20 trailing messages for explain intent, got %d", long)
	}
}

func TestBuildContextTagsIntentInline(t *testing.T) {
	st := NewStore(Config{})
	st.AddMessage("s1", models.RoleUser, "what is rain", map[string]string{models.MetaIntent: "weather"})
	ctx := st.BuildContext("s1")
	last := ctx[len(ctx)-1]
	if !strings.HasPrefix(last.Content, "[WEATHER] ") {
		t.Fatalf("expected uppercase intent tag prefix, got %q", last.Content)
	}
}

// countWindow counts trailing-window entries, excluding the directive,
// summary note and reminders.
func countWindow(ctx []models.Message) int {
	n := 0
	for _, m := range ctx {
		switch {
		case strings.HasPrefix(m.Content, "You are a knowledgeable assistant"),
			strings.HasPrefix(m.Content, "Earlier summary: "),
			strings.HasPrefix(m.Content, "Previous answer: "),
			strings.HasPrefix(m.Content, "Latest request: "):
			continue
		}
		n++
	}
	return n
}
