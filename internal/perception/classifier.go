package perception

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"missiond/internal/logging"
	"missiond/internal/session"
	"missiond/internal/types"
)

// Adjustment bounds for the three refinement passes.
const (
	semanticBound  = 0.20
	contextBound   = 0.30
	executionBound = 0.15
)

// Classifier produces ranked intent candidates for one message. It is safe
// for concurrent use; the lexicon is swapped atomically on reload and each
// classification runs against the snapshot it started with.
type Classifier struct {
	mu            sync.RWMutex
	lex           *Lexicon
	maxCandidates int
}

// NewClassifier creates a classifier over a lexicon. maxCandidates <= 0
// defaults to 3.
func NewClassifier(lex *Lexicon, maxCandidates int) *Classifier {
	if lex == nil {
		lex = DefaultLexicon()
	}
	if maxCandidates <= 0 {
		maxCandidates = 3
	}
	return &Classifier{lex: lex, maxCandidates: maxCandidates}
}

// Lexicon returns the current lexicon snapshot.
func (c *Classifier) Lexicon() *Lexicon {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lex
}

// SetLexicon swaps the lexicon. In-flight classifications keep the snapshot
// they started with.
func (c *Classifier) SetLexicon(lex *Lexicon) {
	if lex == nil {
		return
	}
	c.mu.Lock()
	c.lex = lex
	c.mu.Unlock()
	logging.Get(logging.CategoryPerception).Infow("lexicon swapped", "intents", len(lex.Intents))
}

// Classify runs the four deterministic passes over one message and returns
// ranked candidates, best first, at most maxCandidates long. Malformed or
// empty input never errors; it degrades to a single zero-confidence question
// candidate.
func (c *Classifier) Classify(msg types.Message, sess *session.Context) []types.IntentCandidate {
	timer := logging.StartTimer(logging.CategoryPerception, "classify")
	defer timer.Stop()

	lex := c.Lexicon()
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return []types.IntentCandidate{fallbackCandidate("empty message")}
	}

	ext := Extract(text, lex)

	// Small talk and meta requests match as whole phrases, ahead of keyword
	// scoring. "thanks" must never look like an extraction request.
	if phrase, ok := lex.matchAckPhrase(text); ok {
		cand := types.IntentCandidate{Intent: types.IntentAcknowledgment, BaseConfidence: 0.9}
		cand.SetConstraint("matched_phrase", phrase)
		cand.AddReasoning(fmt.Sprintf("whole message matches acknowledgment phrase %q", phrase))
		cand.Finalize()
		return []types.IntentCandidate{cand}
	}
	if phrase, ok := lex.matchMetaPhrase(text); ok {
		cand := types.IntentCandidate{Intent: types.IntentMeta, BaseConfidence: 0.8}
		cand.SetConstraint("matched_phrase", phrase)
		cand.AddReasoning(fmt.Sprintf("message addresses the assistant (%q)", phrase))
		cand.Finalize()
		return []types.IntentCandidate{cand}
	}

	var candidates []types.IntentCandidate
	for intent, entry := range lex.Intents {
		base, why := lexicalScore(intent, entry, ext, text)
		if base <= 0 {
			continue
		}
		cand := types.IntentCandidate{
			Intent:         intent,
			BaseConfidence: base,
			ActionObject:   ext.Object,
			ActionTarget:   ext.Target,
		}
		cand.AddReasoning(why)
		if len(ext.Pronouns) > 0 {
			cand.SourceReference = ext.Pronouns[0]
		}
		applyExtractionConstraints(&cand, ext)

		c.semanticPass(&cand, ext, lex)
		c.contextPass(&cand, ext, sess)
		c.executionPass(&cand, ext)
		cand.Finalize()
		candidates = append(candidates, cand)
	}

	if len(candidates) == 0 {
		return []types.IntentCandidate{fallbackCandidate("no keywords matched")}
	}

	// Deterministic ranking: confidence descending, intent name as the
	// stable tie-breaker.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].FinalConfidence != candidates[j].FinalConfidence {
			return candidates[i].FinalConfidence > candidates[j].FinalConfidence
		}
		return candidates[i].Intent < candidates[j].Intent
	})
	if len(candidates) > c.maxCandidates {
		candidates = candidates[:c.maxCandidates]
	}

	logging.Get(logging.CategoryPerception).Debugw("classified",
		"session", msg.SessionID,
		"top", candidates[0].Intent,
		"confidence", candidates[0].FinalConfidence,
		"candidates", len(candidates))
	return candidates
}

func fallbackCandidate(reason string) types.IntentCandidate {
	cand := types.IntentCandidate{Intent: types.IntentQuestion, BaseConfidence: 0}
	cand.AddReasoning(reason + "; falling back to question handling")
	cand.Finalize()
	return cand
}

func applyExtractionConstraints(cand *types.IntentCandidate, ext Extraction) {
	if ext.Count > 0 {
		cand.SetConstraint("count", fmt.Sprintf("%d", ext.Count))
	}
	if ext.Format != "" {
		cand.SetConstraint("format", ext.Format)
	}
	if ext.Expression != "" {
		cand.SetConstraint("expression", ext.Expression)
	}
	if ext.MultiStep {
		cand.SetConstraint("multi_step", "true")
	}
}

// =============================================================================
// PASS 1: LEXICAL SCORING
// =============================================================================

// lexicalScore counts keyword matches for one intent, weighting a leading
// primary verb highest, and normalizes long messages down.
func lexicalScore(intent types.IntentType, entry IntentLexicon, ext Extraction, text string) (float64, string) {
	tokens := ext.Tokens
	if len(tokens) == 0 {
		return 0, ""
	}

	score := 0.0
	var hits []string

	primarySeen := false
	for _, kw := range entry.Primary {
		pos := tokenIndex(tokens, kw)
		if pos < 0 {
			continue
		}
		hits = append(hits, kw)
		switch {
		case !primarySeen && pos == 0:
			score += 0.5
		case !primarySeen:
			score += 0.35
		default:
			score += 0.15
		}
		primarySeen = true
	}

	secondaryHits := 0
	for _, kw := range entry.Secondary {
		if tokenIndex(tokens, kw) >= 0 && secondaryHits < 2 {
			hits = append(hits, kw)
			score += 0.10
			secondaryHits++
		}
	}

	if intent == types.IntentQuestion && strings.HasSuffix(strings.TrimSpace(text), "?") {
		score += 0.25
		hits = append(hits, "?")
	}

	if score == 0 {
		return 0, ""
	}

	// Length normalization: a keyword buried in a long message is weaker
	// evidence than the same keyword in a short one.
	if n := len(tokens); n > 12 {
		score *= 12.0 / float64(n)
	}
	if score > 1 {
		score = 1
	}
	return score, fmt.Sprintf("lexical: matched %s for %s", strings.Join(hits, ","), intent)
}

func tokenIndex(tokens []string, word string) int {
	for i, t := range tokens {
		if t == word {
			return i
		}
	}
	return -1
}

// =============================================================================
// PASS 2: SEMANTIC TYPE CHECK
// =============================================================================

// semanticPass rewards action-capable objects and punishes generic ones.
func (c *Classifier) semanticPass(cand *types.IntentCandidate, ext Extraction, lex *Lexicon) {
	if !cand.Intent.MissionCapable() {
		return
	}

	adj := 0.0
	switch {
	case cand.Intent == types.IntentCalculate:
		if ext.Expression != "" {
			adj = 0.15
			cand.AddReasoning("semantic: arithmetic expression present")
		} else {
			adj = -0.10
			cand.AddReasoning("semantic: calculation requested without numbers")
		}
	case lex.IsGeneric(cand.ActionObject):
		adj = -semanticBound
		cand.AddReasoning(fmt.Sprintf("semantic: object %q is generic", cand.ActionObject))
	case cand.ActionObject != "":
		adj = 0.15
		cand.AddReasoning(fmt.Sprintf("semantic: object %q is action-capable", cand.ActionObject))
	case requiresObject(cand.Intent):
		adj = -0.05
		cand.AddReasoning("semantic: no object extracted")
	}

	cand.SemanticAdjustment = clamp(adj, semanticBound)
}

func requiresObject(intent types.IntentType) bool {
	switch intent {
	case types.IntentExtract, types.IntentSearch, types.IntentForecast, types.IntentCalculate:
		return true
	default:
		return false
	}
}

// =============================================================================
// PASS 3: CONTEXT APPLICATION
// =============================================================================

// contextPass injects multi-turn continuity: pronoun resolution, focus
// inheritance, and agreement with the session's recent entities.
func (c *Classifier) contextPass(cand *types.IntentCandidate, ext Extraction, sess *session.Context) {
	if sess == nil {
		return
	}

	adj := 0.0

	if cand.Intent.MissionCapable() && len(ext.Pronouns) > 0 {
		resolvedAny := false
		for _, pron := range ext.Pronouns {
			value, ok := sess.ResolveReference(pron)
			if !ok {
				continue
			}
			resolvedAny = true
			if cand.ActionTarget == "" && (strings.Contains(value, "://") || strings.Contains(value, ".")) {
				cand.ActionTarget = value
				cand.AddReasoning(fmt.Sprintf("context: resolved %q to target %q", pron, value))
			} else if cand.ActionObject == "" && !strings.Contains(value, ".") {
				cand.ActionObject = value
				cand.AddReasoning(fmt.Sprintf("context: resolved %q to object %q", pron, value))
			}
		}
		if resolvedAny {
			adj += 0.15
		} else {
			adj -= 0.10
			cand.AddReasoning("context: reference word with no session history to resolve it")
		}
	}

	// Elliptical follow-ups ("get more") inherit the focus pointers for
	// whatever the pronouns did not already fill.
	if cand.Intent.MissionCapable() && (cand.ActionObject == "" || cand.ActionTarget == "") {
		before := *cand
		sess.ApplyImplicitContext(cand)
		if cand.ActionObject != before.ActionObject || cand.ActionTarget != before.ActionTarget {
			adj += 0.10
		}
	}

	if ext.Domain != "" && (ext.Domain == sess.CurrentDomain || containsString(sess.RecentDomains, ext.Domain)) {
		adj += 0.15
		cand.AddReasoning(fmt.Sprintf("context: domain %q seen earlier this session", ext.Domain))
	}

	if sess.LastIntent != "" && sess.LastIntent == cand.Intent {
		adj += 0.05
		cand.AddReasoning("context: continues previous intent")
	}

	cand.ContextAdjustment = clamp(adj, contextBound)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// PASS 4: EXECUTION-LIKELIHOOD CHECK
// =============================================================================

// executionPass asks whether the extracted fields would plausibly map onto a
// runnable tool input, and nudges the score accordingly.
func (c *Classifier) executionPass(cand *types.IntentCandidate, ext Extraction) {
	adj := 0.0
	switch cand.Intent {
	case types.IntentNavigate, types.IntentExtract:
		if cand.ActionTarget != "" {
			adj = 0.10
			cand.AddReasoning(fmt.Sprintf("execution: target %q is navigable", cand.ActionTarget))
		} else {
			adj = -0.10
			cand.AddReasoning("execution: no navigable target")
		}
	case types.IntentSearch:
		if cand.ActionObject != "" {
			adj = 0.05
		} else {
			adj = -0.10
			cand.AddReasoning("execution: nothing to search for")
		}
		if ext.Count > 0 {
			adj += 0.05
			cand.AddReasoning("execution: result limit suggests a ranked query")
		}
	case types.IntentCalculate:
		if ext.Expression != "" {
			adj = 0.10
		} else {
			adj = -executionBound
			cand.AddReasoning("execution: no parseable expression")
		}
	case types.IntentForecast:
		if cand.ActionObject != "" {
			adj = 0.05
		} else {
			adj = -0.10
		}
	}
	cand.ExecutionAdjustment = clamp(adj, executionBound)
}

func clamp(v, bound float64) float64 {
	if v > bound {
		return bound
	}
	if v < -bound {
		return -bound
	}
	return v
}
