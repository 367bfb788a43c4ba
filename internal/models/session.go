package models

import "time"

// Session groups the conversational state owned by one opaque session key.
type Session struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Messages   []Message
	Summary    string
	Topic      string
	LastIntent Intent
}

// SessionInfo is the read-only snapshot handed to callers.
type SessionInfo struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Length    int       `json:"length"`
	Topic     string    `json:"topic"`
	Summary   string    `json:"summary"`
}

// SearchResult is one normalized web-search candidate. Ephemeral: consumed by
// the resolver's ranking and discarded.
type SearchResult struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	GUID        string     `json:"guid"`
}
