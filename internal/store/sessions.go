package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harrison/baseline/internal/models"
)

// PutSession upserts a session by id. Autosave and the end-of-session save
// both land here; the end-of-session write simply carries an end time.
func (s *Store) PutSession(ctx context.Context, session *models.Session) error {
	behaviors, err := json.Marshal(session.Behaviors)
	if err != nil {
		return fmt.Errorf("marshal behavior data: %w", err)
	}
	meta, err := json.Marshal(session.Meta)
	if err != nil {
		return fmt.Errorf("marshal session meta: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions
        (id, client_id, start_time, end_time, duration_ms, behaviors, notes, meta)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            end_time=excluded.end_time, duration_ms=excluded.duration_ms,
            behaviors=excluded.behaviors, notes=excluded.notes, meta=excluded.meta`,
		session.ID, session.ClientID, session.StartTime, session.EndTime,
		session.DurationMs, string(behaviors), session.Notes, string(meta))
	if err != nil {
		return fmt.Errorf("put session %s: %w", session.ID, err)
	}
	return nil
}

// GetSession returns the session with the given id, or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, client_id, start_time, end_time, duration_ms, behaviors, notes, meta
        FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// SessionsByClient returns a client's sessions ordered by start time.
func (s *Store) SessionsByClient(ctx context.Context, clientID string) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, client_id, start_time, end_time, duration_ms, behaviors, notes, meta
        FROM sessions WHERE client_id = ? ORDER BY start_time`, clientID)
	if err != nil {
		return nil, fmt.Errorf("query sessions for client %s: %w", clientID, err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// ListSessions returns every session, ordered by start time. Used by backup.
func (s *Store) ListSessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, client_id, start_time, end_time, duration_ms, behaviors, notes, meta
        FROM sessions ORDER BY start_time`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session record whole. Finalized sessions are never
// edited, only deleted.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func scanSession(row rowScanner) (*models.Session, error) {
	var sess models.Session
	var notes sql.NullString
	var behaviors, meta string
	err := row.Scan(&sess.ID, &sess.ClientID, &sess.StartTime, &sess.EndTime,
		&sess.DurationMs, &behaviors, &notes, &meta)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.Notes = notes.String
	if err := json.Unmarshal([]byte(behaviors), &sess.Behaviors); err != nil {
		return nil, fmt.Errorf("unmarshal behavior data for session %s: %w", sess.ID, err)
	}
	if err := json.Unmarshal([]byte(meta), &sess.Meta); err != nil {
		return nil, fmt.Errorf("unmarshal meta for session %s: %w", sess.ID, err)
	}
	return &sess, nil
}
