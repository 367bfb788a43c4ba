// Package assistant ties the pipeline together: classify the message,
// remember it, resolve an answer, format it, remember that too.
package assistant

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"sagechat/internal/format"
	"sagechat/internal/memory"
	"sagechat/internal/models"
	"sagechat/internal/resolver"
)

// Classifier labels an utterance for a session.
type Classifier interface {
	Classify(ctx context.Context, message, sessionID string) models.Intent
}

// Answerer resolves a labeled request to an answer and source.
type Answerer interface {
	Resolve(ctx context.Context, label models.Intent, query, sessionID string) resolver.Result
}

// Archiver persists finished turns. A nil Archiver disables archiving.
type Archiver interface {
	SaveTurn(ctx context.Context, sessionKey string, turn []models.Message, topic, summary string) error
}

// Submitter schedules background work, typically a worker pool's Submit.
type Submitter func(job func()) bool

const archiveTimeout = 10 * time.Second

// TurnResult is the outcome of one resolved turn.
type TurnResult struct {
	Answer string `json:"answer"`
	Intent string `json:"intent"`
	Source string `json:"source"`
}

type Service struct {
	store      *memory.Store
	classifier Classifier
	answerer   Answerer
	archive    Archiver
	submit     Submitter
}

func NewService(store *memory.Store, classifier Classifier, answerer Answerer, archive Archiver, submit Submitter) *Service {
	if submit == nil {
		submit = func(job func()) bool { job(); return true }
	}
	return &Service{
		store:      store,
		classifier: classifier,
		answerer:   answerer,
		archive:    archive,
		submit:     submit,
	}
}

// ResolveTurn runs the full pipeline for one user message and returns the
// formatted answer. The only error is an empty message; resolution itself
// always produces something.
func (s *Service) ResolveTurn(ctx context.Context, sessionID, userMessage string) (TurnResult, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return TurnResult{}, errors.New("message must not be empty")
	}
	if strings.TrimSpace(sessionID) == "" {
		return TurnResult{}, errors.New("session id must not be empty")
	}

	label := s.classifier.Classify(ctx, userMessage, sessionID)
	s.store.AddMessage(sessionID, models.RoleUser, userMessage, map[string]string{
		models.MetaIntent: string(label),
	})

	res := s.answerer.Resolve(ctx, label, userMessage, sessionID)
	answer := format.Format(res.Answer, res.Source)

	s.store.AddMessage(sessionID, models.RoleAssistant, answer, map[string]string{
		models.MetaIntent: string(label),
		models.MetaSource: res.Source,
	})

	s.archiveTurn(sessionID, label, userMessage, answer, res.Source)

	return TurnResult{
		Answer: answer,
		Intent: string(label),
		Source: res.Source,
	}, nil
}

// archiveTurn writes the turn to the archive off the request path.
func (s *Service) archiveTurn(sessionID string, label models.Intent, userMessage, answer, source string) {
	if s.archive == nil {
		return
	}
	info := s.store.SessionInfo(sessionID)
	var topic, summary string
	if info != nil {
		topic = info.Topic
		summary = info.Summary
	}
	now := time.Now()
	turn := []models.Message{
		{Role: models.RoleUser, Content: userMessage, Timestamp: now,
			Metadata: map[string]string{models.MetaIntent: string(label)}},
		{Role: models.RoleAssistant, Content: answer, Timestamp: now,
			Metadata: map[string]string{models.MetaIntent: string(label), models.MetaSource: source}},
	}
	accepted := s.submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()
		if err := s.archive.SaveTurn(ctx, sessionID, turn, topic, summary); err != nil {
			log.Printf("assistant: archive turn: %v", err)
		}
	})
	if !accepted {
		log.Printf("assistant: archive queue full, turn for %s dropped", sessionID)
	}
}

// Conversation returns the remembered messages for a session.
func (s *Service) Conversation(sessionID string) []models.Message {
	return s.store.Conversation(sessionID)
}

// ClearConversation forgets a session.
func (s *Service) ClearConversation(sessionID string) {
	s.store.ClearConversation(sessionID)
}

// SessionInfo returns a snapshot of session state, nil when unknown.
func (s *Service) SessionInfo(sessionID string) *models.SessionInfo {
	return s.store.SessionInfo(sessionID)
}
