package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"missiond/internal/logging"
	"missiond/internal/types"
)

// LocalStore persists proposed missions and session checkpoints in SQLite.
// It is the single durable surface of the engine: the mission table feeds the
// approval queue, the session table survives restarts.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewLocalStore opens (creating if needed) the SQLite database at path.
func NewLocalStore(path string) (*LocalStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &LocalStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Get(logging.CategoryStore).Debugw("store opened", "path", path)
	return s, nil
}

func (s *LocalStore) initialize() error {
	missionTable := `
	CREATE TABLE IF NOT EXISTS missions (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'proposed',
		objective TEXT NOT NULL,
		intent TEXT NOT NULL,
		object TEXT,
		target TEXT,
		constraints TEXT,
		source TEXT NOT NULL DEFAULT 'chat',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_missions_status ON missions(status);
	CREATE INDEX IF NOT EXISTS idx_missions_created ON missions(created_at);
	`

	sessionTable := `
	CREATE TABLE IF NOT EXISTS session_checkpoints (
		session_id TEXT PRIMARY KEY,
		context_json TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	for _, stmt := range []string{missionTable, sessionTable} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// =============================================================================
// MISSIONS
// =============================================================================

// ProposeMission stores a new mission in proposed status and returns its ID.
// Implements types.MissionProposer.
func (s *LocalStore) ProposeMission(ctx context.Context, p types.MissionProposal) (string, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ProposeMission")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	constraintsJSON := "{}"
	if len(p.Constraints) > 0 {
		raw, err := json.Marshal(p.Constraints)
		if err != nil {
			return "", fmt.Errorf("failed to encode constraints: %w", err)
		}
		constraintsJSON = string(raw)
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO missions (id, status, objective, intent, object, target, constraints, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(types.StatusProposed), p.Objective, string(p.Intent),
		p.Object, p.Target, constraintsJSON, p.Source,
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Errorw("mission insert failed", "error", err)
		return "", fmt.Errorf("failed to store mission: %w", err)
	}

	logging.Get(logging.CategoryStore).Infow("mission stored",
		"mission", id, "intent", p.Intent, "objective", p.Objective)
	return id, nil
}

// GetMission loads one mission by ID.
func (s *LocalStore) GetMission(ctx context.Context, id string) (*types.Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, objective, intent, object, target, constraints, source, created_at
		 FROM missions WHERE id = ?`, id)
	m, err := scanMission(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("mission %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mission: %w", err)
	}
	return m, nil
}

// ListMissions returns missions newest first, optionally filtered by status.
// limit <= 0 means no limit.
func (s *LocalStore) ListMissions(ctx context.Context, status types.MissionStatus, limit int) ([]types.Mission, error) {
	timer := logging.StartTimer(logging.CategoryStore, "ListMissions")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, status, objective, intent, object, target, constraints, source, created_at
	          FROM missions`
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query missions: %w", err)
	}
	defer rows.Close()

	var missions []types.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			logging.Get(logging.CategoryStore).Warnw("skipping unreadable mission row", "error", err)
			continue
		}
		missions = append(missions, *m)
	}
	return missions, rows.Err()
}

// UpdateMissionStatus moves a mission to a new status. The engine itself only
// ever writes proposed; this exists for the approval surface.
func (s *LocalStore) UpdateMissionStatus(ctx context.Context, id string, status types.MissionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE missions SET status = ? WHERE id = ?", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update mission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("mission %s not found", id)
	}
	logging.Get(logging.CategoryStore).Infow("mission status changed", "mission", id, "status", status)
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMission(row rowScanner) (*types.Mission, error) {
	var m types.Mission
	var intent, status, constraintsJSON string
	var object, target sql.NullString
	var createdAt time.Time

	err := row.Scan(&m.ID, &status, &m.Objective, &intent, &object, &target, &constraintsJSON, &m.Source, &createdAt)
	if err != nil {
		return nil, err
	}
	m.Status = types.MissionStatus(status)
	m.Intent = types.IntentType(intent)
	m.Object = object.String
	m.Target = target.String
	m.CreatedAt = createdAt
	if constraintsJSON != "" && constraintsJSON != "{}" {
		if err := json.Unmarshal([]byte(constraintsJSON), &m.Constraints); err != nil {
			logging.Get(logging.CategoryStore).Warnw("mission constraints unreadable", "mission", m.ID, "error", err)
		}
	}
	return &m, nil
}
