package core

import (
	"errors"
	"testing"
	"time"

	"missiond/internal/session"
	"missiond/internal/types"
)

func testMsg(text string) types.Message {
	return types.Message{SessionID: "s1", Text: text, ReceivedAt: time.Unix(1700000000, 0)}
}

func cand(intent types.IntentType, conf float64) types.IntentCandidate {
	c := types.IntentCandidate{Intent: intent, BaseConfidence: conf}
	c.Finalize()
	return c
}

func TestCheckTable_Complete(t *testing.T) {
	if err := CheckTable(); err != nil {
		t.Fatalf("required-field table has a gap: %v", err)
	}
}

func TestValidate_ConversationalShortCircuit(t *testing.T) {
	v := NewValidator(0.10, nil)
	sess := session.New("s1", 0)

	tests := []struct {
		intent types.IntentType
		want   types.Decision
	}{
		{types.IntentQuestion, types.DecisionQuestion},
		{types.IntentClarificationNeeded, types.DecisionQuestion},
		{types.IntentAcknowledgment, types.DecisionAcknowledge},
		{types.IntentMeta, types.DecisionMeta},
	}
	for _, tt := range tests {
		result, err := v.Validate([]types.IntentCandidate{cand(tt.intent, 0.9)}, testMsg("x"), sess)
		if err != nil {
			t.Fatalf("%s: %v", tt.intent, err)
		}
		if result.Decision != tt.want {
			t.Errorf("%s: decision = %q, want %q", tt.intent, result.Decision, tt.want)
		}
		if len(result.MissingFields) != 0 {
			t.Errorf("%s: conversational turns must skip field checks", tt.intent)
		}
	}
}

func TestValidate_TieIsAmbiguous(t *testing.T) {
	v := NewValidator(0.10, nil)

	a := cand(types.IntentExtract, 0.75)
	a.ActionObject = "emails"
	a.ActionTarget = "site.com"
	b := cand(types.IntentSearch, 0.68)

	result, err := v.Validate([]types.IntentCandidate{a, b}, testMsg("get the top 10 from site.com"), session.New("s1", 0))
	if err != nil {
		t.Fatal(err)
	}
	if result.Decision != types.DecisionAmbiguous {
		t.Fatalf("decision = %q, want ambiguous (spread 0.07)", result.Decision)
	}
	if result.ClarificationType != types.ClarifyIntentAmbiguous {
		t.Errorf("clarification type = %q", result.ClarificationType)
	}
	if len(result.AmbiguousIntents) != 2 ||
		result.AmbiguousIntents[0] != types.IntentExtract ||
		result.AmbiguousIntents[1] != types.IntentSearch {
		t.Errorf("ambiguous intents = %v", result.AmbiguousIntents)
	}
}

func TestValidate_SpreadAtThresholdIsNotTie(t *testing.T) {
	v := NewValidator(0.10, nil)

	a := cand(types.IntentExtract, 0.80)
	a.ActionObject = "emails"
	a.ActionTarget = "site.com"
	b := cand(types.IntentSearch, 0.70)

	result, err := v.Validate([]types.IntentCandidate{a, b}, testMsg("x"), session.New("s1", 0))
	if err != nil {
		t.Fatal(err)
	}
	if result.Decision != types.DecisionReady {
		t.Errorf("decision = %q; spread exactly 0.10 must not be a tie", result.Decision)
	}
}

func TestValidate_Ready(t *testing.T) {
	v := NewValidator(0.10, nil)

	c := cand(types.IntentExtract, 0.75)
	c.ActionObject = "emails"
	c.ActionTarget = "linkedin.com"

	result, err := v.Validate([]types.IntentCandidate{c}, testMsg("extract emails from linkedin.com"), session.New("s1", 0))
	if err != nil {
		t.Fatal(err)
	}
	if result.Decision != types.DecisionReady {
		t.Fatalf("decision = %q, want ready (%s)", result.Decision, result.Message)
	}
	if result.ConfidencePct != 75 {
		t.Errorf("confidence pct = %d, want 75", result.ConfidencePct)
	}
}

func TestValidate_GenericObjectIsNeverReady(t *testing.T) {
	v := NewValidator(0.10, nil)

	for _, object := range []string{"stuff", "things", "data", "information"} {
		c := cand(types.IntentExtract, 0.9)
		c.ActionObject = object
		c.ActionTarget = "site.com"

		result, err := v.Validate([]types.IntentCandidate{c}, testMsg("get "+object), session.New("s1", 0))
		if err != nil {
			t.Fatal(err)
		}
		if result.Decision == types.DecisionReady {
			t.Errorf("object %q: generic object yielded ready", object)
		}
		if result.ClarificationType != types.ClarifyTooVague {
			t.Errorf("object %q: clarification = %q, want too_vague", object, result.ClarificationType)
		}
		if len(result.MissingFields) == 0 || result.MissingFields[0] != FieldObject {
			t.Errorf("object %q: missing fields = %v", object, result.MissingFields)
		}
	}
}

func TestValidate_MissingTargetVariants(t *testing.T) {
	v := NewValidator(0.10, nil)

	// No pronoun: plain missing target.
	c := cand(types.IntentNavigate, 0.6)
	result, _ := v.Validate([]types.IntentCandidate{c}, testMsg("navigate"), session.New("s1", 0))
	if result.Decision != types.DecisionIncomplete || result.ClarificationType != types.ClarifyMissingTarget {
		t.Errorf("plain: %q/%q", result.Decision, result.ClarificationType)
	}

	// Pronoun with empty history: there is nothing to point at.
	c = cand(types.IntentNavigate, 0.6)
	c.SourceReference = "there"
	result, _ = v.Validate([]types.IntentCandidate{c}, testMsg("navigate there"), session.New("s1", 0))
	if result.ClarificationType != types.ClarifyMissingTargetNoContext {
		t.Errorf("no context: clarification = %q", result.ClarificationType)
	}

	// Pronoun with history: the validator's own resolution fills the target.
	sess := session.New("s2", 0)
	sess.NoteURL("https://example.com")
	c = cand(types.IntentNavigate, 0.6)
	c.SourceReference = "there"
	result, _ = v.Validate([]types.IntentCandidate{c}, testMsg("navigate there"), sess)
	if result.Decision != types.DecisionReady {
		t.Errorf("resolvable: decision = %q, want ready", result.Decision)
	}
}

func TestValidate_CalculateNeedsExpression(t *testing.T) {
	v := NewValidator(0.10, nil)

	c := cand(types.IntentCalculate, 0.6)
	result, _ := v.Validate([]types.IntentCandidate{c}, testMsg("calculate my destiny"), session.New("s1", 0))
	if result.Decision != types.DecisionIncomplete || result.ClarificationType != types.ClarifyConstraintUnclear {
		t.Errorf("%q/%q, want incomplete/constraint_unclear", result.Decision, result.ClarificationType)
	}

	c = cand(types.IntentCalculate, 0.6)
	c.SetConstraint("expression", "2+2")
	result, _ = v.Validate([]types.IntentCandidate{c}, testMsg("calculate 2+2"), session.New("s1", 0))
	if result.Decision != types.DecisionReady {
		t.Errorf("decision = %q, want ready with expression", result.Decision)
	}
}

func TestValidate_MultiStepWins(t *testing.T) {
	v := NewValidator(0.10, nil)

	c := cand(types.IntentExtract, 0.6)
	c.ActionTarget = "site.com"
	c.SetConstraint("multi_step", "true")

	result, _ := v.Validate([]types.IntentCandidate{c}, testMsg("open site.com and extract"), session.New("s1", 0))
	if result.Decision != types.DecisionIncomplete || result.ClarificationType != types.ClarifyMultiIntent {
		t.Errorf("%q/%q, want incomplete/multi_intent", result.Decision, result.ClarificationType)
	}
}

func TestValidate_UnknownIntentIsFatal(t *testing.T) {
	v := NewValidator(0.10, nil)
	c := cand(types.IntentType("teleport"), 0.9)
	_, err := v.Validate([]types.IntentCandidate{c}, testMsg("teleport me"), session.New("s1", 0))
	if !errors.Is(err, ErrUnknownIntent) {
		t.Errorf("err = %v, want ErrUnknownIntent", err)
	}
}

func TestValidate_NoCandidates(t *testing.T) {
	v := NewValidator(0.10, nil)
	_, err := v.Validate(nil, testMsg("x"), session.New("s1", 0))
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("err = %v, want ErrNoCandidates", err)
	}
}
