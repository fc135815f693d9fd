package types

import "context"

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================
// The engine talks to the rest of the application through these narrow
// interfaces. Everything behind them (approval, execution, rendering) is
// outside the engine's responsibility.

// MissionProposer creates missions. Implementations must persist the mission
// in StatusProposed and return its ID; the engine never reads status back.
type MissionProposer interface {
	ProposeMission(ctx context.Context, proposal MissionProposal) (string, error)
}

// Answerer handles conversational turns that route to the informational
// branch (questions and meta requests). Implementations may call an LLM or
// answer from canned text; the engine only requires determinism from the
// routing decision, not from the answer prose.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}
