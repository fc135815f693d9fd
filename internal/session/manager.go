package session

import (
	"sync"

	"missiond/internal/logging"
)

// Checkpointer persists session contexts to any key-value store. Optional.
type Checkpointer interface {
	SaveSession(sessionID string, data []byte) error
	LoadSession(sessionID string) ([]byte, error)
}

// Manager owns every live session context and enforces the single-writer
// invariant: at most one turn per session is in flight at a time. Different
// sessions proceed independently.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	listCap  int
	ckpt     Checkpointer
}

type entry struct {
	turnMu sync.Mutex // held for the duration of one turn
	ctx    *Context
}

// NewManager creates a session manager. ckpt may be nil.
func NewManager(listCap int, ckpt Checkpointer) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		listCap:  listCap,
		ckpt:     ckpt,
	}
}

// Acquire returns the context for a session with its turn lock held. The
// returned release function must be called when the turn completes. A second
// message for the same session blocks here until the first turn releases.
func (m *Manager) Acquire(sessionID string) (*Context, func()) {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	if !ok {
		e = &entry{ctx: m.restore(sessionID)}
		m.sessions[sessionID] = e
	}
	m.mu.Unlock()

	e.turnMu.Lock()
	return e.ctx, func() {
		m.checkpoint(e.ctx)
		e.turnMu.Unlock()
	}
}

// Peek returns a snapshot of a session's context without taking the turn
// lock, or nil when the session is unknown. For inspection commands only.
func (m *Manager) Peek(sessionID string) *Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[sessionID]; ok {
		return e.ctx.Snapshot()
	}
	return nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) restore(sessionID string) *Context {
	if m.ckpt != nil {
		if data, err := m.ckpt.LoadSession(sessionID); err == nil && len(data) > 0 {
			if ctx, err := Deserialize(data, m.listCap); err == nil {
				logging.Get(logging.CategorySession).Debugw("session restored from checkpoint",
					"session", sessionID, "messages", ctx.MessageCount)
				return ctx
			}
		}
	}
	return New(sessionID, m.listCap)
}

func (m *Manager) checkpoint(ctx *Context) {
	if m.ckpt == nil {
		return
	}
	data, err := ctx.Serialize()
	if err != nil {
		logging.Get(logging.CategorySession).Errorw("session serialize failed", "session", ctx.ID, "error", err)
		return
	}
	if err := m.ckpt.SaveSession(ctx.ID, data); err != nil {
		logging.Get(logging.CategorySession).Errorw("session checkpoint failed", "session", ctx.ID, "error", err)
	}
}
