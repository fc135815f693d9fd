package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"missiond/internal/logging"
	"missiond/internal/perception"
	"missiond/internal/session"
	"missiond/internal/types"
)

// ackReplies maps matched acknowledgment phrases to canned replies. Phrases
// not listed here fall through to the default.
var ackReplies = map[string]string{
	"hello":     "Hello! Tell me what you'd like done and I'll set it up as a mission.",
	"hi":        "Hi! What can I get working on for you?",
	"hey":       "Hey! What can I get working on for you?",
	"thanks":    "You're welcome. Anything else?",
	"thank you": "You're welcome. Anything else?",
	"bye":       "Goodbye! Your missions keep running while you're away.",
	"goodbye":   "Goodbye! Your missions keep running while you're away.",
}

const defaultAckReply = "Got it. Let me know when you want something done."

// Router converts a readiness verdict into exactly one response envelope.
// Every branch is terminal; the one hard invariant is that a mission is
// proposed if and only if the verdict was ready.
type Router struct {
	proposer  types.MissionProposer
	answerer  types.Answerer
	clarifier *Clarifier
}

// NewRouter creates a router. answerer may be nil, in which case the canned
// answerer handles question turns.
func NewRouter(proposer types.MissionProposer, answerer types.Answerer) *Router {
	if answerer == nil {
		answerer = perception.CannedAnswerer{}
	}
	return &Router{
		proposer:  proposer,
		answerer:  answerer,
		clarifier: NewClarifier(),
	}
}

// Route dispatches one validated turn. It returns the envelope and, when a
// mission was proposed, the proposal so the caller can update session memory.
func (r *Router) Route(ctx context.Context, result types.ReadinessResult, cand types.IntentCandidate, msg types.Message, sess *session.Context) (types.ResponseEnvelope, *types.MissionProposal, error) {
	log := logging.Get(logging.CategoryEngine)

	switch result.Decision {
	case types.DecisionReady:
		return r.routeReady(ctx, cand, msg)

	case types.DecisionIncomplete, types.DecisionAmbiguous:
		question := r.clarifier.Render(result, cand, sess)
		log.Debugw("clarification", "session", msg.SessionID,
			"type", result.ClarificationType, "missing", result.MissingFields)
		return types.ResponseEnvelope{
			Type:          types.ResponseClarification,
			Summary:       result.Message,
			Missions:      []types.MissionRef{},
			Clarification: &question,
			Hints:         &types.UIHints{Priority: "attention"},
			Timestamp:     time.Now(),
		}, nil, nil

	case types.DecisionQuestion, types.DecisionMeta:
		answer := r.answer(ctx, msg.Text)
		rt := types.ResponseAnswer
		if result.Decision == types.DecisionMeta {
			rt = types.ResponseMeta
		}
		return types.ResponseEnvelope{
			Type:      rt,
			Summary:   answer,
			Missions:  []types.MissionRef{},
			Timestamp: time.Now(),
		}, nil, nil

	case types.DecisionAcknowledge:
		reply := defaultAckReply
		if phrase := cand.Constraint("matched_phrase"); phrase != "" {
			if canned, ok := ackReplies[phrase]; ok {
				reply = canned
			}
		}
		return types.ResponseEnvelope{
			Type:      types.ResponseAcknowledgment,
			Summary:   reply,
			Missions:  []types.MissionRef{},
			Timestamp: time.Now(),
		}, nil, nil

	default:
		return types.ResponseEnvelope{}, nil, fmt.Errorf("unhandled decision %q", result.Decision)
	}
}

func (r *Router) routeReady(ctx context.Context, cand types.IntentCandidate, msg types.Message) (types.ResponseEnvelope, *types.MissionProposal, error) {
	proposal := types.MissionProposal{
		Objective:   describeObjective(cand),
		Intent:      cand.Intent,
		Object:      cand.ActionObject,
		Target:      cand.ActionTarget,
		Constraints: cand.Constraints,
		Source:      "chat",
	}

	missionID, err := r.proposer.ProposeMission(ctx, proposal)
	if err != nil {
		return types.ResponseEnvelope{}, nil, fmt.Errorf("mission proposal failed: %w", err)
	}
	logging.Get(logging.CategoryEngine).Infow("mission proposed",
		"session", msg.SessionID, "mission", missionID,
		"intent", cand.Intent, "target", cand.ActionTarget)

	return types.ResponseEnvelope{
		Type:    types.ResponseMissionProposed,
		Summary: fmt.Sprintf("Mission proposed: %s. Approve it to start.", proposal.Objective),
		Missions: []types.MissionRef{{
			MissionID: missionID,
			Status:    types.StatusProposed,
			Objective: proposal.Objective,
		}},
		Hints:     &types.UIHints{ShowAsCard: true, Icon: "rocket"},
		Timestamp: time.Now(),
	}, &proposal, nil
}

func (r *Router) answer(ctx context.Context, question string) string {
	text, err := r.answerer.Answer(ctx, question)
	if err == nil && text != "" {
		return text
	}
	if err != nil {
		logging.Get(logging.CategoryEngine).Warnw("answerer failed; using canned reply", "error", err)
	}
	text, _ = perception.CannedAnswerer{}.Answer(ctx, question)
	return text
}

// describeObjective renders a human-readable objective from resolved fields.
func describeObjective(cand types.IntentCandidate) string {
	var b strings.Builder
	b.WriteString(intentVerb(cand.Intent))
	if cand.ActionObject != "" {
		b.WriteString(" ")
		b.WriteString(cand.ActionObject)
	}
	if cand.ActionTarget != "" {
		if cand.Intent == types.IntentNavigate {
			b.WriteString(" ")
		} else {
			b.WriteString(" from ")
		}
		b.WriteString(cand.ActionTarget)
	}
	if expr := cand.Constraint("expression"); expr != "" && cand.Intent == types.IntentCalculate {
		b.WriteString(" ")
		b.WriteString(expr)
	}
	if count := cand.Constraint("count"); count != "" {
		b.WriteString(" (limit ")
		b.WriteString(count)
		b.WriteString(")")
	}
	if format := cand.Constraint("format"); format != "" {
		b.WriteString(" as ")
		b.WriteString(format)
	}
	return b.String()
}
