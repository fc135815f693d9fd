package core

import (
	"fmt"
	"strings"

	"missiond/internal/logging"
	"missiond/internal/perception"
	"missiond/internal/session"
	"missiond/internal/types"
)

// Field names used in the required-field table and in missing_fields lists.
const (
	FieldObject     = "action_object"
	FieldTarget     = "action_target"
	FieldExpression = "expression"
)

// requiredFields is the per-intent field table. Adding an intent is a data
// change here plus a lexicon entry; no control flow changes. Conversational
// intents carry empty lists because they short-circuit before field checks.
var requiredFields = map[types.IntentType][]string{
	types.IntentNavigate:           {FieldTarget},
	types.IntentExtract:            {FieldObject, FieldTarget},
	types.IntentSearch:             {FieldObject},
	types.IntentCalculate:          {FieldExpression},
	types.IntentForecast:           {FieldObject},
	types.IntentStatusCheck:        {},
	types.IntentQuestion:           {},
	types.IntentAcknowledgment:     {},
	types.IntentMeta:               {},
	types.IntentClarificationNeeded: {},
}

// Validator decides whether the top candidate is complete enough to become a
// mission. It never creates missions and never errors on user input; the only
// error it can return is a table gap, which is a defect.
type Validator struct {
	tieSpread float64
	lexicon   func() *perception.Lexicon
}

// NewValidator creates a validator. lexicon supplies the live generic-term
// list so hot lexicon reloads apply here too.
func NewValidator(tieSpread float64, lexicon func() *perception.Lexicon) *Validator {
	if tieSpread <= 0 {
		tieSpread = 0.10
	}
	if lexicon == nil {
		def := perception.DefaultLexicon()
		lexicon = func() *perception.Lexicon { return def }
	}
	return &Validator{tieSpread: tieSpread, lexicon: lexicon}
}

// CheckTable verifies every known intent has a required-field entry. Called
// at startup and from tests so a table gap fails fast, not mid-conversation.
func CheckTable() error {
	for _, intent := range types.AllIntentTypes {
		if _, ok := requiredFields[intent]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownIntent, intent)
		}
	}
	return nil
}

// Validate inspects the ranked candidates and returns the readiness verdict
// for this turn.
func (v *Validator) Validate(cands []types.IntentCandidate, msg types.Message, sess *session.Context) (types.ReadinessResult, error) {
	if len(cands) == 0 {
		return types.ReadinessResult{}, ErrNoCandidates
	}
	top := cands[0]
	pct := int(top.FinalConfidence * 100)

	// Conversational intents never produce missions; no field checks.
	switch top.Intent {
	case types.IntentQuestion, types.IntentClarificationNeeded:
		return types.ReadinessResult{
			Decision:      types.DecisionQuestion,
			ConfidencePct: pct,
			Message:       "informational turn",
		}, nil
	case types.IntentAcknowledgment:
		return types.ReadinessResult{
			Decision:      types.DecisionAcknowledge,
			ConfidencePct: pct,
			Message:       "small talk",
		}, nil
	case types.IntentMeta:
		return types.ReadinessResult{
			Decision:      types.DecisionMeta,
			ConfidencePct: pct,
			Message:       "assistant-directed turn",
		}, nil
	}

	// Tie detection: two plausible readings block mission creation outright.
	if len(cands) > 1 {
		spread := top.FinalConfidence - cands[1].FinalConfidence
		if spread < v.tieSpread {
			logging.Get(logging.CategoryEngine).Debugw("ambiguous tie",
				"top", top.Intent, "second", cands[1].Intent, "spread", spread)
			return types.ReadinessResult{
				Decision:          types.DecisionAmbiguous,
				ClarificationType: types.ClarifyIntentAmbiguous,
				ConfidencePct:     pct,
				AmbiguousIntents:  []types.IntentType{top.Intent, cands[1].Intent},
				Message: fmt.Sprintf("could be %s or %s (spread %.2f)",
					top.Intent, cands[1].Intent, spread),
			}, nil
		}
	}

	required, ok := requiredFields[top.Intent]
	if !ok {
		return types.ReadinessResult{}, fmt.Errorf("%w: %s", ErrUnknownIntent, top.Intent)
	}

	lex := v.lexicon()
	var missing []string
	vague := false
	for _, field := range required {
		value := fieldValue(&top, field)
		if value == "" && top.SourceReference != "" && sess != nil {
			// Last chance: resolve the pronoun the classifier recorded.
			if resolved, okRef := sess.ResolveReference(top.SourceReference); okRef {
				value = resolved
			}
		}
		if value == "" {
			missing = append(missing, field)
			continue
		}
		if field == FieldObject && lex.IsGeneric(value) {
			// Syntactically present but semantically empty: same as missing.
			missing = append(missing, field)
			vague = true
		}
	}

	if len(missing) == 0 {
		return types.ReadinessResult{
			Decision:      types.DecisionReady,
			ConfidencePct: pct,
			Message:       fmt.Sprintf("%s request is fully specified", top.Intent),
		}, nil
	}

	ct := classifyIncompleteness(&top, missing, vague, sess)
	return types.ReadinessResult{
		Decision:          types.DecisionIncomplete,
		MissingFields:     missing,
		ClarificationType: ct,
		ConfidencePct:     pct,
		Message: fmt.Sprintf("%s request is missing %s",
			top.Intent, strings.Join(missing, ", ")),
	}, nil
}

func fieldValue(cand *types.IntentCandidate, field string) string {
	switch field {
	case FieldObject:
		return cand.ActionObject
	case FieldTarget:
		return cand.ActionTarget
	case FieldExpression:
		return cand.Constraint("expression")
	default:
		return ""
	}
}

// classifyIncompleteness decides which clarification the user should get,
// from what is missing and how the message was phrased.
func classifyIncompleteness(cand *types.IntentCandidate, missing []string, vague bool, sess *session.Context) types.ClarificationType {
	if cand.Constraint("multi_step") == "true" {
		return types.ClarifyMultiIntent
	}
	if vague {
		return types.ClarifyTooVague
	}

	missingSet := make(map[string]bool, len(missing))
	for _, f := range missing {
		missingSet[f] = true
	}

	if missingSet[FieldTarget] {
		if cand.SourceReference != "" {
			// A pronoun was used but could not be resolved.
			if sess == nil || sessionHasNoPlaces(sess) {
				return types.ClarifyMissingTargetNoContext
			}
			return types.ClarifyAmbiguousReference
		}
		return types.ClarifyMissingTarget
	}
	if missingSet[FieldObject] {
		return types.ClarifyMissingObject
	}
	if missingSet[FieldExpression] {
		return types.ClarifyConstraintUnclear
	}
	return types.ClarifyTooVague
}

func sessionHasNoPlaces(sess *session.Context) bool {
	return len(sess.RecentURLs) == 0 && len(sess.RecentDomains) == 0
}
