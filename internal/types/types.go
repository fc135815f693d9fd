// Package types provides shared type definitions used across missiond packages.
// This package exists to break import cycles between perception, core, and session.
// Types in this package should be foundational data structures with no complex dependencies.
package types

import (
	"time"
)

// =============================================================================
// MESSAGE - Raw Chat Input
// =============================================================================

// Message is one immutable user turn as handed over by the chat surface.
type Message struct {
	SessionID  string    `json:"session_id"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// =============================================================================
// INTENT TYPES
// =============================================================================

// IntentType classifies what the user wants from a single message.
type IntentType string

const (
	IntentNavigate           IntentType = "navigate"
	IntentExtract            IntentType = "extract"
	IntentSearch             IntentType = "search"
	IntentCalculate          IntentType = "calculate"
	IntentForecast           IntentType = "forecast"
	IntentStatusCheck        IntentType = "status_check"
	IntentQuestion           IntentType = "question"
	IntentAcknowledgment     IntentType = "acknowledgment"
	IntentMeta               IntentType = "meta"
	IntentClarificationNeeded IntentType = "clarification_needed"
)

// MissionCapable reports whether this intent type can ever become a mission.
// Conversational intents (question, acknowledgment, meta) never do.
func (it IntentType) MissionCapable() bool {
	switch it {
	case IntentNavigate, IntentExtract, IntentSearch, IntentCalculate, IntentForecast, IntentStatusCheck:
		return true
	default:
		return false
	}
}

// AllIntentTypes lists every known intent in a stable order.
// Used by table validation at startup so a missing required-field entry
// fails fast in tests instead of surfacing mid-conversation.
var AllIntentTypes = []IntentType{
	IntentNavigate,
	IntentExtract,
	IntentSearch,
	IntentCalculate,
	IntentForecast,
	IntentStatusCheck,
	IntentQuestion,
	IntentAcknowledgment,
	IntentMeta,
	IntentClarificationNeeded,
}

// =============================================================================
// CONFIDENCE
// =============================================================================

// ConfidenceTier buckets a final confidence score for routing and display.
type ConfidenceTier string

const (
	TierCertain ConfidenceTier = "certain" // >= 0.85
	TierHigh    ConfidenceTier = "high"    // >= 0.70
	TierMedium  ConfidenceTier = "medium"  // >= 0.50
	TierLow     ConfidenceTier = "low"     // >= 0.20
	TierUnknown ConfidenceTier = "unknown" // below 0.20
)

// TierFor maps a clamped confidence score to its tier.
func TierFor(score float64) ConfidenceTier {
	switch {
	case score >= 0.85:
		return TierCertain
	case score >= 0.70:
		return TierHigh
	case score >= 0.50:
		return TierMedium
	case score >= 0.20:
		return TierLow
	default:
		return TierUnknown
	}
}

// =============================================================================
// INTENT CANDIDATE - One Classification Hypothesis
// =============================================================================

// IntentCandidate is one hypothesis about a message, produced fresh per turn.
// The four adjustment fields record each classifier pass separately so the
// reasoning trail stays auditable after the fact.
type IntentCandidate struct {
	Intent IntentType `json:"intent"`

	// Scoring. Base comes from lexical matching; the adjustments are bounded
	// (semantic ±0.20, context ±0.30, execution ±0.15). Final is clamped to [0,1].
	BaseConfidence      float64 `json:"base_confidence"`
	SemanticAdjustment  float64 `json:"semantic_adjustment"`
	ContextAdjustment   float64 `json:"context_adjustment"`
	ExecutionAdjustment float64 `json:"execution_adjustment"`
	FinalConfidence     float64 `json:"final_confidence"`

	Tier ConfidenceTier `json:"tier"`

	// Extracted semantic fields.
	ActionObject    string            `json:"action_object,omitempty"`
	ActionTarget    string            `json:"action_target,omitempty"`
	SourceReference string            `json:"source_reference,omitempty"`
	Constraints     map[string]string `json:"constraints,omitempty"`

	// Reasoning is an ordered trail of scoring decisions, one line per step.
	Reasoning []string `json:"reasoning,omitempty"`
}

// Finalize computes the clamped final confidence and tier from the base score
// and the three pass adjustments. Idempotent.
func (c *IntentCandidate) Finalize() {
	score := c.BaseConfidence + c.SemanticAdjustment + c.ContextAdjustment + c.ExecutionAdjustment
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	c.FinalConfidence = score
	c.Tier = TierFor(score)
}

// AddReasoning appends one step to the reasoning trail.
func (c *IntentCandidate) AddReasoning(step string) {
	c.Reasoning = append(c.Reasoning, step)
}

// Constraint returns a named constraint value, or "" when unset.
func (c *IntentCandidate) Constraint(key string) string {
	if c.Constraints == nil {
		return ""
	}
	return c.Constraints[key]
}

// SetConstraint records a named constraint, allocating the map lazily.
func (c *IntentCandidate) SetConstraint(key, value string) {
	if c.Constraints == nil {
		c.Constraints = make(map[string]string)
	}
	c.Constraints[key] = value
}

// =============================================================================
// READINESS
// =============================================================================

// Decision is the readiness verdict for one turn.
type Decision string

const (
	DecisionReady       Decision = "ready"
	DecisionIncomplete  Decision = "incomplete"
	DecisionAmbiguous   Decision = "ambiguous"
	DecisionQuestion    Decision = "question"
	DecisionAcknowledge Decision = "acknowledge"
	DecisionMeta        Decision = "meta"
)

// ClarificationType names which kind of information is missing or unclear.
// Each type maps to exactly one question template.
type ClarificationType string

const (
	ClarifyMissingObject          ClarificationType = "missing_object"
	ClarifyMissingTarget          ClarificationType = "missing_target"
	ClarifyMissingTargetNoContext ClarificationType = "missing_target_no_context"
	ClarifyAmbiguousReference     ClarificationType = "ambiguous_reference"
	ClarifyMultiIntent            ClarificationType = "multi_intent"
	ClarifyTooVague               ClarificationType = "too_vague"
	ClarifyIntentAmbiguous        ClarificationType = "intent_ambiguous"
	ClarifyConstraintUnclear      ClarificationType = "constraint_unclear"
)

// ReadinessResult is the validator's verdict for one turn. Transient.
type ReadinessResult struct {
	Decision          Decision          `json:"decision"`
	MissingFields     []string          `json:"missing_fields,omitempty"`
	ClarificationType ClarificationType `json:"clarification_type,omitempty"`
	ConfidencePct     int               `json:"confidence_pct"`
	Message           string            `json:"message"`

	// AmbiguousIntents lists the competing intents when Decision is ambiguous.
	AmbiguousIntents []IntentType `json:"ambiguous_intents,omitempty"`
}

// =============================================================================
// CLARIFICATION
// =============================================================================

// ClarificationQuestion is a rendered follow-up question. Transient.
type ClarificationQuestion struct {
	Question       string   `json:"question"`
	Options        []string `json:"options,omitempty"`
	AllowFreeText  bool     `json:"allow_free_text"`
	InferredAnswer string   `json:"inferred_answer,omitempty"`
}

// =============================================================================
// MISSION - External Unit of Work
// =============================================================================

// MissionStatus is the lifecycle state of a mission. The engine only ever
// creates missions in StatusProposed; every later transition belongs to the
// approval and execution layers outside this module.
type MissionStatus string

const (
	StatusProposed  MissionStatus = "proposed"
	StatusApproved  MissionStatus = "approved"
	StatusExecuting MissionStatus = "executing"
	StatusCompleted MissionStatus = "completed"
	StatusFailed    MissionStatus = "failed"
)

// MissionProposal carries everything the engine knows about a ready request.
type MissionProposal struct {
	Objective   string            `json:"objective"`
	Intent      IntentType        `json:"intent"`
	Object      string            `json:"object,omitempty"`
	Target      string            `json:"target,omitempty"`
	Constraints map[string]string `json:"constraints,omitempty"`
	Source      string            `json:"source"`
}

// Mission is the stored record of a proposed unit of work.
type Mission struct {
	ID          string            `json:"mission_id"`
	Status      MissionStatus     `json:"status"`
	Objective   string            `json:"objective"`
	Intent      IntentType        `json:"intent"`
	Object      string            `json:"object,omitempty"`
	Target      string            `json:"target,omitempty"`
	Constraints map[string]string `json:"constraints,omitempty"`
	Source      string            `json:"source"`
	CreatedAt   time.Time         `json:"created_at"`
}

// MissionRef is the lightweight mission reference carried in envelopes.
type MissionRef struct {
	MissionID string        `json:"mission_id"`
	Status    MissionStatus `json:"status"`
	Objective string        `json:"objective_description"`
}
