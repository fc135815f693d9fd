package types

import (
	"encoding/json"
	"time"
)

// =============================================================================
// RESPONSE ENVELOPE - The Single Outbound Contract
// =============================================================================

// ResponseType tags the closed set of envelope variants. Exactly one variant
// is produced per turn; the tag tells the chat surface which payload fields
// are populated.
type ResponseType string

const (
	ResponseMissionProposed ResponseType = "mission_proposed"
	ResponseClarification   ResponseType = "clarification"
	ResponseAnswer          ResponseType = "answer"
	ResponseAcknowledgment  ResponseType = "acknowledgment"
	ResponseMeta            ResponseType = "meta"
)

// UIHints carries non-binding presentation suggestions. The chat surface may
// ignore any of it.
type UIHints struct {
	Priority   string `json:"priority,omitempty"`   // "normal" or "attention"
	ShowAsCard bool   `json:"show_as_card,omitempty"`
	Icon       string `json:"icon,omitempty"`
}

// ResponseEnvelope is the one structured result handed back to the chat
// surface per turn.
type ResponseEnvelope struct {
	Type          ResponseType           `json:"response_type"`
	Summary       string                 `json:"summary"`
	Missions      []MissionRef           `json:"missions_spawned"`
	Clarification *ClarificationQuestion `json:"clarification,omitempty"`
	Hints         *UIHints               `json:"ui_hints,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
}

// Serialize renders the envelope as indented JSON for transport or logging.
func (e *ResponseEnvelope) Serialize() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}
