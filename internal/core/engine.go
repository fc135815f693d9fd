package core

import (
	"context"
	"strings"
	"time"

	"missiond/internal/logging"
	"missiond/internal/perception"
	"missiond/internal/session"
	"missiond/internal/types"
)

// Engine wires one turn end to end: classify, validate, route, then update
// session memory. Turns for the same session are strictly serialized by the
// session manager; different sessions run concurrently.
type Engine struct {
	classifier *perception.Classifier
	validator  *Validator
	router     *Router
	sessions   *session.Manager
}

// NewEngine assembles the turn pipeline. Fails fast when the required-field
// table has a gap.
func NewEngine(classifier *perception.Classifier, validator *Validator, router *Router, sessions *session.Manager) (*Engine, error) {
	if err := CheckTable(); err != nil {
		return nil, err
	}
	return &Engine{
		classifier: classifier,
		validator:  validator,
		router:     router,
		sessions:   sessions,
	}, nil
}

// Process handles one user message and returns the single response envelope
// for the turn. User input never errors; returned errors are internal defects
// or collaborator failures.
func (e *Engine) Process(ctx context.Context, sessionID, text string) (types.ResponseEnvelope, error) {
	timer := logging.StartTimer(logging.CategoryEngine, "process_turn")
	defer timer.Stop()

	msg := types.Message{
		SessionID:  sessionID,
		Text:       text,
		ReceivedAt: time.Now(),
	}

	sctx, release := e.sessions.Acquire(sessionID)
	defer release()

	cands := e.classifier.Classify(msg, sctx)
	result, err := e.validator.Validate(cands, msg, sctx)
	if err != nil {
		return types.ResponseEnvelope{}, err
	}

	envelope, proposal, err := e.router.Route(ctx, result, cands[0], msg, sctx)
	if err != nil {
		return types.ResponseEnvelope{}, err
	}

	// Session memory moves only after the turn has fully decided, so a
	// turn never observes its own partial updates.
	if proposal != nil && len(envelope.Missions) > 0 {
		sctx.UpdateOnMissionEvent(envelope.Missions[0], *proposal)
	} else if target := cands[0].ActionTarget; strings.Contains(target, "://") {
		// No mission, but a URL was mentioned: keep it resolvable for
		// later pronouns.
		sctx.NoteURL(target)
	}
	sctx.RecordTurn(cands[0].Intent)

	logging.Get(logging.CategoryEngine).Debugw("turn complete",
		"session", sessionID,
		"decision", result.Decision,
		"response", envelope.Type,
		"missions", len(envelope.Missions))
	return envelope, nil
}

// Sessions exposes the session manager for inspection surfaces.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}
