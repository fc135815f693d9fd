package store

import (
	"database/sql"

	"missiond/internal/logging"
)

// =============================================================================
// SESSION CHECKPOINTS
// =============================================================================

// SaveSession upserts a serialized session context. Implements
// session.Checkpointer.
func (s *LocalStore) SaveSession(sessionID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO session_checkpoints (session_id, context_json, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(session_id) DO UPDATE SET
		   context_json = excluded.context_json,
		   updated_at = CURRENT_TIMESTAMP`,
		sessionID, string(data),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Errorw("session checkpoint write failed",
			"session", sessionID, "error", err)
		return err
	}
	return nil
}

// LoadSession returns the serialized context for a session, or (nil, nil)
// when none has been checkpointed yet.
func (s *LocalStore) LoadSession(sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow(
		"SELECT context_json FROM session_checkpoints WHERE session_id = ?",
		sessionID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

// SessionCount reports how many sessions have checkpoints.
func (s *LocalStore) SessionCount() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM session_checkpoints").Scan(&n)
	return n, err
}
