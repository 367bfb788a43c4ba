package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"sagechat/internal/models"
)

// Archive persists resolved turns for later inspection. The in-memory
// session store stays authoritative; this is a write-behind log.
type Archive struct {
	db     *sql.DB
	driver string
}

func NewArchive(db *sql.DB, driver string) *Archive {
	return &Archive{db: db, driver: strings.ToLower(driver)}
}

// SaveTurn upserts the session row and appends the user and assistant
// messages of one resolved turn.
func (a *Archive) SaveTurn(ctx context.Context, sessionKey string, turn []models.Message, topic, summary string) error {
	if a == nil || a.db == nil {
		return nil
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if err := a.upsertSession(ctx, tx, sessionKey, topic, summary, now); err != nil {
		return err
	}
	for _, msg := range turn {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_key, role, content, intent, source, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sessionKey, msg.Role, msg.Content,
			msg.Metadata[models.MetaIntent], msg.Metadata[models.MetaSource],
			msg.Timestamp.UTC(),
		); err != nil {
			return fmt.Errorf("insert archived message: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}

func (a *Archive) upsertSession(ctx context.Context, tx *sql.Tx, sessionKey, topic, summary string, now time.Time) error {
	var stmt string
	switch a.driver {
	case "mysql":
		stmt = `INSERT INTO sessions (session_key, topic, summary, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE topic = VALUES(topic), summary = VALUES(summary), updated_at = VALUES(updated_at)`
	default:
		stmt = `INSERT INTO sessions (session_key, topic, summary, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(session_key) DO UPDATE SET topic = excluded.topic, summary = excluded.summary, updated_at = excluded.updated_at`
	}
	if _, err := tx.ExecContext(ctx, stmt, sessionKey, topic, summary, now, now); err != nil {
		return fmt.Errorf("upsert archived session: %w", err)
	}
	return nil
}

// Purge removes sessions untouched for longer than maxAge along with their
// messages.
func (a *Archive) Purge(ctx context.Context, maxAge time.Duration) (int64, error) {
	if a == nil || a.db == nil {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := a.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge archived sessions: %w", err)
	}
	return res.RowsAffected()
}
