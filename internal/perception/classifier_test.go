package perception

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"missiond/internal/session"
	"missiond/internal/types"
)

func msg(text string) types.Message {
	return types.Message{SessionID: "s1", Text: text, ReceivedAt: time.Unix(1700000000, 0)}
}

func TestClassify_TopIntent(t *testing.T) {
	c := NewClassifier(DefaultLexicon(), 3)
	empty := session.New("s1", 0)

	tests := []struct {
		name    string
		text    string
		want    types.IntentType
		minConf float64
	}{
		{"extract", "Extract emails from linkedin.com", types.IntentExtract, 0.70},
		{"search", "Find laptops on amazon.com", types.IntentSearch, 0.65},
		{"navigate", "Open https://news.ycombinator.com", types.IntentNavigate, 0.55},
		{"calculate", "Calculate 120*4+7", types.IntentCalculate, 0.70},
		{"forecast", "Forecast sales for next quarter", types.IntentForecast, 0.55},
		{"question", "What is the capital of France?", types.IntentQuestion, 0.80},
		{"acknowledgment", "hello", types.IntentAcknowledgment, 0.85},
		{"meta", "help", types.IntentMeta, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := c.Classify(msg(tt.text), empty)
			if len(cands) == 0 {
				t.Fatal("no candidates")
			}
			if cands[0].Intent != tt.want {
				t.Errorf("top intent = %q, want %q (candidates %+v)", cands[0].Intent, tt.want, cands)
			}
			if cands[0].FinalConfidence < tt.minConf {
				t.Errorf("confidence %.2f below %.2f", cands[0].FinalConfidence, tt.minConf)
			}
		})
	}
}

func TestClassify_ExtractedFields(t *testing.T) {
	c := NewClassifier(DefaultLexicon(), 3)
	cands := c.Classify(msg("Extract emails from linkedin.com"), session.New("s1", 0))
	top := cands[0]
	if top.ActionObject != "emails" {
		t.Errorf("object = %q, want emails", top.ActionObject)
	}
	if top.ActionTarget != "linkedin.com" {
		t.Errorf("target = %q, want linkedin.com", top.ActionTarget)
	}
}

func TestClassify_EmptyAndNoise(t *testing.T) {
	c := NewClassifier(DefaultLexicon(), 3)
	empty := session.New("s1", 0)

	for _, text := range []string{"", "   ", "qqq zzz blorp"} {
		cands := c.Classify(msg(text), empty)
		if len(cands) != 1 {
			t.Fatalf("input %q: want single fallback candidate, got %d", text, len(cands))
		}
		if cands[0].Intent != types.IntentQuestion {
			t.Errorf("input %q: fallback intent = %q", text, cands[0].Intent)
		}
		if cands[0].FinalConfidence != 0 {
			t.Errorf("input %q: fallback confidence = %f, want 0", text, cands[0].FinalConfidence)
		}
		if cands[0].Tier != types.TierUnknown {
			t.Errorf("input %q: fallback tier = %q", text, cands[0].Tier)
		}
	}
}

func TestClassify_SharedVerbTie(t *testing.T) {
	c := NewClassifier(DefaultLexicon(), 3)
	cands := c.Classify(msg("Get the top 10 from site.com"), session.New("s1", 0))
	if len(cands) < 2 {
		t.Fatalf("want at least 2 candidates for a shared retrieval verb, got %d", len(cands))
	}
	spread := cands[0].FinalConfidence - cands[1].FinalConfidence
	if spread >= 0.10 {
		t.Errorf("spread = %.2f; shared-verb retrieval should score within the tie window", spread)
	}
	seen := map[types.IntentType]bool{cands[0].Intent: true, cands[1].Intent: true}
	if !seen[types.IntentExtract] || !seen[types.IntentSearch] {
		t.Errorf("top two should be extract and search, got %v", seen)
	}
}

func TestClassify_PronounResolution(t *testing.T) {
	c := NewClassifier(DefaultLexicon(), 3)

	sess := session.New("s1", 0)
	sess.NoteURL("https://example.com")
	cands := c.Classify(msg("navigate there"), sess)
	top := cands[0]
	if top.Intent != types.IntentNavigate {
		t.Fatalf("top intent = %q", top.Intent)
	}
	if top.ActionTarget != "https://example.com" {
		t.Errorf("target = %q, want resolved URL", top.ActionTarget)
	}
	if top.ContextAdjustment <= 0 {
		t.Errorf("context adjustment = %f, want positive for a resolved reference", top.ContextAdjustment)
	}

	// Same message, empty session: unresolved reference is penalized.
	cold := c.Classify(msg("navigate there"), session.New("s2", 0))
	if cold[0].ActionTarget != "" {
		t.Errorf("target = %q, want unresolved", cold[0].ActionTarget)
	}
	if cold[0].ContextAdjustment >= 0 {
		t.Errorf("context adjustment = %f, want negative with no history", cold[0].ContextAdjustment)
	}
}

func TestClassify_EllipticalFollowUp(t *testing.T) {
	c := NewClassifier(DefaultLexicon(), 3)

	sess := session.New("s1", 0)
	sess.UpdateOnMissionEvent(
		types.MissionRef{MissionID: "m1", Status: types.StatusProposed},
		types.MissionProposal{Intent: types.IntentExtract, Object: "emails", Target: "linkedin.com", Source: "chat"},
	)

	cands := c.Classify(msg("get more"), sess)
	top := cands[0]
	if top.ActionObject != "emails" {
		t.Errorf("object = %q, want inherited emails", top.ActionObject)
	}
	if top.ActionTarget == "" {
		t.Error("target should be inherited from session focus")
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewClassifier(DefaultLexicon(), 3)
	sess := session.New("s1", 0)
	sess.NoteURL("https://example.com")

	a := c.Classify(msg("Get the top 10 from site.com"), sess.Snapshot())
	b := c.Classify(msg("Get the top 10 from site.com"), sess.Snapshot())
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("identical inputs produced different rankings (-first +second):\n%s", diff)
	}
}

func TestClassify_CandidateCap(t *testing.T) {
	c := NewClassifier(DefaultLexicon(), 3)
	// A keyword soup that touches many intent tables at once.
	cands := c.Classify(msg("get find open calculate forecast status of things"), session.New("s1", 0))
	if len(cands) > 3 {
		t.Errorf("candidate list length %d exceeds cap", len(cands))
	}
	for i := 1; i < len(cands); i++ {
		if cands[i].FinalConfidence > cands[i-1].FinalConfidence {
			t.Error("candidates not sorted by confidence descending")
		}
	}
}

func TestClassify_ReasoningTrail(t *testing.T) {
	c := NewClassifier(DefaultLexicon(), 3)
	cands := c.Classify(msg("Extract emails from linkedin.com"), session.New("s1", 0))
	if len(cands[0].Reasoning) == 0 {
		t.Error("candidate carries no reasoning trail")
	}
}

func TestClassify_HotSwapLexicon(t *testing.T) {
	c := NewClassifier(DefaultLexicon(), 3)
	empty := session.New("s1", 0)

	before := c.Classify(msg("snarf the emails from linkedin.com"), empty)
	if before[0].Intent == types.IntentExtract {
		t.Fatal("unknown verb should not classify as extract yet")
	}

	lex := DefaultLexicon()
	entry := lex.Intents[types.IntentExtract]
	entry.Primary = append(entry.Primary, "snarf")
	lex.Intents[types.IntentExtract] = entry
	c.SetLexicon(lex)

	after := c.Classify(msg("snarf the emails from linkedin.com"), empty)
	if after[0].Intent != types.IntentExtract {
		t.Errorf("after lexicon swap, top intent = %q, want extract", after[0].Intent)
	}
}
