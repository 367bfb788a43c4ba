// Package memory owns per-session conversational state: a bounded message
// history with lazy TTL expiry and periodic self-summarization, plus the
// context assembly handed to the completion model.
package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"sagechat/internal/models"
)

const (
	defaultMaxMessages       = 40
	defaultSummarizeInterval = 30
	defaultKeepRecent        = 15
	defaultSessionTTL        = 24 * time.Hour
	defaultSummarizeTimeout  = 20 * time.Second
)

// Summarizer compresses a transcript into a few sentences. Implemented by
// the completion provider.
type Summarizer interface {
	SummarizeConversation(ctx context.Context, transcript string) (string, error)
}

// Config tunes a Store. Zero values use the defaults above.
type Config struct {
	MaxMessages       int
	SummarizeInterval int
	KeepRecent        int
	TTL               time.Duration
	SummarizeTimeout  time.Duration
	Now               func() time.Time
	Summarizer        Summarizer
	Submit            func(func()) bool // background dispatch for summarization
}

type session struct {
	models.Session
	summarizing bool // single-flight guard
}

// Store is an in-memory session map. Sessions are partitions keyed by an
// opaque id; a single mutex guards the map and all records. State is lost on
// restart by design.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	cfg      Config
}

func NewStore(cfg Config) *Store {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = defaultMaxMessages
	}
	if cfg.SummarizeInterval <= 0 {
		cfg.SummarizeInterval = defaultSummarizeInterval
	}
	if cfg.KeepRecent <= 0 {
		cfg.KeepRecent = defaultKeepRecent
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultSessionTTL
	}
	if cfg.SummarizeTimeout <= 0 {
		cfg.SummarizeTimeout = defaultSummarizeTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Submit == nil {
		cfg.Submit = func(job func()) bool {
			go job()
			return true
		}
	}
	return &Store{
		sessions: make(map[string]*session),
		cfg:      cfg,
	}
}

// AddMessage appends one turn. Invalid roles and empty content are silently
// ignored. Crossing the summarize interval dispatches a fire-and-forget
// compaction; the caller is never blocked on it.
func (st *Store) AddMessage(sessionID string, role models.Role, content string, metadata map[string]string) {
	if !models.ValidRole(role) {
		return
	}
	text := strings.TrimSpace(content)
	if text == "" {
		return
	}

	st.mu.Lock()
	s := st.ensureLocked(sessionID)
	now := st.cfg.Now()

	var meta map[string]string
	if len(metadata) > 0 {
		meta = make(map[string]string, len(metadata))
		for k, v := range metadata {
			meta[k] = v
		}
	}
	s.Messages = append(s.Messages, models.Message{
		Role:      role,
		Content:   text,
		Timestamp: now,
		Metadata:  meta,
	})
	s.UpdatedAt = now

	if topic := metadata["topic"]; topic != "" && s.Topic == "" {
		s.Topic = topic
	}
	if role == models.RoleUser {
		if intent := metadata[models.MetaIntent]; intent != "" {
			s.LastIntent = models.Intent(intent)
		}
	}

	if len(s.Messages) > st.cfg.MaxMessages {
		s.Messages = s.Messages[len(s.Messages)-st.cfg.MaxMessages:]
	}

	count := len(s.Messages)
	trigger := st.cfg.Summarizer != nil &&
		count > 0 && count%st.cfg.SummarizeInterval == 0 &&
		!s.summarizing
	if trigger {
		s.summarizing = true
	}
	st.mu.Unlock()

	if trigger {
		if !st.cfg.Submit(func() { st.summarize(sessionID) }) {
			st.mu.Lock()
			s.summarizing = false
			st.mu.Unlock()
			log.Printf("memory: summarize dispatch dropped for session %s", sessionID)
		}
	}
}

// Conversation returns a copy of the session's messages, sweeping expired
// sessions as a side effect.
func (st *Store) Conversation(sessionID string) []models.Message {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	s, ok := st.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]models.Message, len(s.Messages))
	copy(out, s.Messages)
	return out
}

// LastAnswer returns the most recent assistant message content, empty if none.
func (st *Store) LastAnswer(sessionID string) string {
	return st.lastByRole(sessionID, models.RoleAssistant)
}

// LastUserMessage returns the most recent user message content, empty if none.
func (st *Store) LastUserMessage(sessionID string) string {
	return st.lastByRole(sessionID, models.RoleUser)
}

func (st *Store) lastByRole(sessionID string, role models.Role) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[sessionID]
	if !ok {
		return ""
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == role {
			return s.Messages[i].Content
		}
	}
	return ""
}

// ClearConversation deletes the session entirely. Idempotent.
func (st *Store) ClearConversation(sessionID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, sessionID)
}

// SessionInfo returns a metadata snapshot, nil when the session is unknown.
func (st *Store) SessionInfo(sessionID string) *models.SessionInfo {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[sessionID]
	if !ok {
		return nil
	}
	return &models.SessionInfo{
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Length:    len(s.Messages),
		Topic:     s.Topic,
		Summary:   s.Summary,
	}
}

// LastIntent returns the intent recorded for the session's previous turn.
func (st *Store) LastIntent(sessionID string) models.Intent {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[sessionID]; ok {
		return s.LastIntent
	}
	return ""
}

// SetLastIntent records the intent chosen for the current turn.
func (st *Store) SetLastIntent(sessionID string, intent models.Intent) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.ensureLocked(sessionID)
	s.LastIntent = intent
}

// ensureLocked requires st.mu held.
func (st *Store) ensureLocked(sessionID string) *session {
	s, ok := st.sessions[sessionID]
	if !ok {
		now := st.cfg.Now()
		s = &session{Session: models.Session{CreatedAt: now, UpdatedAt: now}}
		st.sessions[sessionID] = s
	}
	return s
}

// sweepLocked requires st.mu held. Lazy expiry: there is no background timer.
func (st *Store) sweepLocked() {
	now := st.cfg.Now()
	for id, s := range st.sessions {
		if now.Sub(s.UpdatedAt) > st.cfg.TTL {
			delete(st.sessions, id)
		}
	}
}

// summarize compresses the transcript and commits [summary, last KeepRecent]
// in place of the history. Messages appended while the model call was in
// flight are re-merged behind the compacted window, never overwritten.
// Failure leaves the session untouched.
func (st *Store) summarize(sessionID string) {
	st.mu.Lock()
	s, ok := st.sessions[sessionID]
	if !ok {
		st.mu.Unlock()
		return
	}
	snapshot := make([]models.Message, len(s.Messages))
	copy(snapshot, s.Messages)
	st.mu.Unlock()

	defer func() {
		st.mu.Lock()
		s.summarizing = false
		st.mu.Unlock()
	}()

	var b strings.Builder
	for _, m := range snapshot {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	ctx, cancel := context.WithTimeout(context.Background(), st.cfg.SummarizeTimeout)
	defer cancel()
	summary, err := st.cfg.Summarizer.SummarizeConversation(ctx, b.String())
	if err != nil {
		log.Printf("memory: summarize session %s failed: %v", sessionID, err)
		return
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		log.Printf("memory: summarize session %s returned empty result", sessionID)
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	// Commit only to the record the snapshot came from. A cleared and
	// recreated session under the same id must not inherit old history.
	if st.sessions[sessionID] != s {
		return
	}
	now := st.cfg.Now()

	keep := snapshot
	if len(keep) > st.cfg.KeepRecent {
		keep = keep[len(keep)-st.cfg.KeepRecent:]
	}
	compacted := make([]models.Message, 0, len(keep)+1)
	compacted = append(compacted, models.Message{
		Role:      models.RoleSystem,
		Content:   "Summary: " + summary,
		Timestamp: now,
		Metadata:  map[string]string{models.MetaType: "summary"},
	})
	compacted = append(compacted, keep...)
	if len(s.Messages) > len(snapshot) {
		compacted = append(compacted, s.Messages[len(snapshot):]...)
	}
	if len(compacted) > st.cfg.MaxMessages {
		compacted = compacted[len(compacted)-st.cfg.MaxMessages:]
	}

	s.Messages = compacted
	s.Summary = summary
	if s.Topic == "" {
		s.Topic = firstClause(summary)
	}
	s.UpdatedAt = now
}

func firstClause(text string) string {
	end := strings.IndexAny(text, ".?!")
	if end > 0 {
		return strings.TrimSpace(text[:end])
	}
	return strings.TrimSpace(text)
}
