package core

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"missiond/internal/session"
	"missiond/internal/types"
)

func TestRender_TooVagueNamesTheObject(t *testing.T) {
	cl := NewClarifier()
	c := cand(types.IntentExtract, 0.4)
	c.ActionObject = "stuff"
	result := types.ReadinessResult{
		Decision:          types.DecisionIncomplete,
		ClarificationType: types.ClarifyTooVague,
		MissingFields:     []string{FieldObject},
	}

	q := cl.Render(result, c, session.New("s1", 0))
	if !strings.Contains(q.Question, `"stuff"`) {
		t.Errorf("question does not echo the vague object: %q", q.Question)
	}
	if !q.AllowFreeText {
		t.Error("vague clarifications must allow free text")
	}
}

func TestRender_MissingTargetOffersHistory(t *testing.T) {
	cl := NewClarifier()
	sess := session.New("s1", 0)
	sess.NoteURL("https://example.com/jobs")

	c := cand(types.IntentExtract, 0.5)
	c.ActionObject = "emails"
	result := types.ReadinessResult{
		Decision:          types.DecisionIncomplete,
		ClarificationType: types.ClarifyMissingTarget,
		MissingFields:     []string{FieldTarget},
	}

	q := cl.Render(result, c, sess)
	if len(q.Options) == 0 || q.Options[0] != "https://example.com/jobs" {
		t.Errorf("options = %v, want recent URL first", q.Options)
	}
	if q.InferredAnswer != "https://example.com/jobs" {
		t.Errorf("inferred answer = %q", q.InferredAnswer)
	}
}

func TestRender_NoContextQuotesTheReference(t *testing.T) {
	cl := NewClarifier()
	c := cand(types.IntentNavigate, 0.3)
	c.SourceReference = "there"
	result := types.ReadinessResult{
		Decision:          types.DecisionIncomplete,
		ClarificationType: types.ClarifyMissingTargetNoContext,
		MissingFields:     []string{FieldTarget},
	}

	q := cl.Render(result, c, session.New("s1", 0))
	if !strings.Contains(q.Question, `"there"`) {
		t.Errorf("question does not quote the reference: %q", q.Question)
	}
	if len(q.Options) != 0 {
		t.Errorf("no history means no options, got %v", q.Options)
	}
}

func TestRender_IntentAmbiguousOffersBothReadings(t *testing.T) {
	cl := NewClarifier()
	result := types.ReadinessResult{
		Decision:          types.DecisionAmbiguous,
		ClarificationType: types.ClarifyIntentAmbiguous,
		AmbiguousIntents:  []types.IntentType{types.IntentExtract, types.IntentSearch},
	}

	q := cl.Render(result, cand(types.IntentExtract, 0.5), session.New("s1", 0))
	want := []string{"extract", "search for"}
	if diff := cmp.Diff(want, q.Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	if q.AllowFreeText {
		t.Error("intent disambiguation is a forced choice")
	}
}

func TestRender_UnknownTypeFallsBack(t *testing.T) {
	cl := NewClarifier()
	result := types.ReadinessResult{
		Decision:          types.DecisionIncomplete,
		ClarificationType: types.ClarificationType("wat"),
	}

	q := cl.Render(result, cand(types.IntentExtract, 0.5), session.New("s1", 0))
	if q.Question == "" || !q.AllowFreeText {
		t.Errorf("fallback question unusable: %+v", q)
	}
}

func TestRender_NoUnfilledPlaceholders(t *testing.T) {
	cl := NewClarifier()
	sess := session.New("s1", 0)

	for ct := range clarificationTemplates {
		result := types.ReadinessResult{
			Decision:          types.DecisionIncomplete,
			ClarificationType: ct,
		}
		q := cl.Render(result, cand(types.IntentExtract, 0.4), sess)
		if strings.ContainsAny(q.Question, "{}") {
			t.Errorf("%s: placeholder leaked: %q", ct, q.Question)
		}
	}
}

func TestRender_Deterministic(t *testing.T) {
	cl := NewClarifier()
	sess := session.New("s1", 0)
	sess.NoteURL("https://example.com")

	c := cand(types.IntentNavigate, 0.3)
	c.SourceReference = "there"
	result := types.ReadinessResult{
		Decision:          types.DecisionIncomplete,
		ClarificationType: types.ClarifyAmbiguousReference,
		MissingFields:     []string{FieldTarget},
	}

	first := cl.Render(result, c, sess)
	second := cl.Render(result, c, sess)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("rendering is not pure (-first +second):\n%s", diff)
	}
}
