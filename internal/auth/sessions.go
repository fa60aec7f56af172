package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/folio/internal/db"
)

// SessionStore persists signed-in sessions.
type SessionStore struct {
	db  *db.DB
	ttl time.Duration
	now func() time.Time
}

// NewSessionStore creates a SessionStore whose sessions expire after ttl.
func NewSessionStore(database *db.DB, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionStore{db: database, ttl: ttl, now: time.Now}
}

// Create starts a session for id and returns the session id.
func (s *SessionStore) Create(ctx context.Context, id *Identity) (string, error) {
	sessionID := uuid.New().String()
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, email, name, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, id.Email, id.Name, now, now.Add(s.ttl),
	)
	if err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}
	return sessionID, nil
}

// Get returns the identity of a live session, or nil when the session is
// unknown or expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*Identity, error) {
	if sessionID == "" {
		return nil, nil
	}
	var id Identity
	var expires time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT email, name, expires_at FROM sessions WHERE id = ?`, sessionID,
	).Scan(&id.Email, &id.Name, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	if !s.now().Before(expires) {
		return nil, nil
	}
	return &id, nil
}

// Delete ends a session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Prune removes expired sessions and returns how many were removed.
func (s *SessionStore) Prune(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	return result.RowsAffected()
}
