// Package repository holds the sqlite persistence layer: restored portal
// sessions and the decision audit log.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/asshaltech/bapp-review/internal/models"
)

// SessionRepository persists portal sessions so a server restart does not
// force the reviewer to log in again.
type SessionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSessionRepository creates a new session repository.
func NewSessionRepository(db *sql.DB, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{db: db, logger: logger}
}

// Save upserts the session row for a portal, including cached credentials.
func (r *SessionRepository) Save(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (portal, token, username, password, refreshed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(portal) DO UPDATE SET
			token = excluded.token,
			username = excluded.username,
			password = excluded.password,
			refreshed_at = excluded.refreshed_at
	`

	var username, password string
	if s.Credentials != nil {
		username = s.Credentials.Username
		password = s.Credentials.Password
	}

	if _, err := r.db.ExecContext(ctx, query, string(s.Portal), s.Token, username, password, s.RefreshedAt); err != nil {
		r.logger.Error("Failed to save session", zap.String("portal", string(s.Portal)), zap.Error(err))
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns all persisted sessions.
func (r *SessionRepository) Load(ctx context.Context) ([]*models.Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT portal, token, username, password, refreshed_at FROM sessions`)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		var s models.Session
		var portal, username, password string
		if err := rows.Scan(&portal, &s.Token, &username, &password, &s.RefreshedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		s.Portal = models.Portal(portal)
		if username != "" {
			s.Credentials = &models.Credentials{Username: username, Password: password}
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// DeleteAll removes every persisted session and credential. Called on
// explicit logout.
func (r *SessionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}
