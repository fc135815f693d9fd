package core

import (
	"regexp"
	"strings"

	"missiond/internal/logging"
	"missiond/internal/session"
	"missiond/internal/types"
)

// clarifyTemplate is one entry in the clarification table. The text may use
// {intent}, {last_source}, {reference}, and {object} placeholders; options
// are drawn from session history at render time.
type clarifyTemplate struct {
	Text          string
	AllowFreeText bool
}

// clarificationTemplates maps every clarification type to its question.
// Adding a clarification type is a data change here plus an enum constant.
var clarificationTemplates = map[types.ClarificationType]clarifyTemplate{
	types.ClarifyMissingObject: {
		Text:          "What exactly should I {intent}? Name the items you want (for example: emails, prices, job listings).",
		AllowFreeText: true,
	},
	types.ClarifyMissingTarget: {
		Text:          "Where should I {intent} that from? Give me a site or URL.",
		AllowFreeText: true,
	},
	types.ClarifyMissingTargetNoContext: {
		Text:          "You said {reference}, but we haven't visited anywhere yet this conversation. Which site do you mean?",
		AllowFreeText: true,
	},
	types.ClarifyAmbiguousReference: {
		Text:          "When you say {reference}, which of these do you mean?",
		AllowFreeText: true,
	},
	types.ClarifyMultiIntent: {
		Text:          "That sounds like more than one step. Which should I start with?",
		AllowFreeText: true,
	},
	types.ClarifyTooVague: {
		Text:          "\"{object}\" is too unspecific for me to act on safely. What specifically do you want: emails, prices, listings, something else?",
		AllowFreeText: true,
	},
	types.ClarifyIntentAmbiguous: {
		Text:          "I can read that two ways. Which did you mean?",
		AllowFreeText: false,
	},
	types.ClarifyConstraintUnclear: {
		Text:          "I couldn't find anything to calculate. Give me the numbers or expression.",
		AllowFreeText: true,
	},
}

// fallbackQuestion is used when a clarification type has no template. That is
// a defect (logged as such) but the user still gets a real question.
const fallbackQuestion = "I need a bit more detail before I can act on that. What exactly do you want me to do, and where?"

var placeholderRe = regexp.MustCompile(`\{[a-z_]+\}`)

// Clarifier renders typed clarification questions from the template table.
// Rendering is pure: same inputs, same question.
type Clarifier struct{}

// NewClarifier creates a clarifier.
func NewClarifier() *Clarifier {
	return &Clarifier{}
}

// Render produces the clarification question for a validator verdict. The
// question always names the specific missing concept, and offers options from
// session history when a plausible answer exists there.
func (cl *Clarifier) Render(result types.ReadinessResult, cand types.IntentCandidate, sess *session.Context) types.ClarificationQuestion {
	tmpl, ok := clarificationTemplates[result.ClarificationType]
	if !ok {
		logging.Get(logging.CategoryEngine).Errorw("no clarification template; using fallback",
			"clarification_type", result.ClarificationType)
		return types.ClarificationQuestion{
			Question:      fallbackQuestion,
			AllowFreeText: true,
		}
	}

	text := tmpl.Text
	text = strings.ReplaceAll(text, "{intent}", intentVerb(cand.Intent))
	text = strings.ReplaceAll(text, "{object}", orWord(cand.ActionObject, "that"))
	text = strings.ReplaceAll(text, "{reference}", quoteWord(cand.SourceReference))
	if sess != nil && len(sess.RecentDomains) > 0 {
		text = strings.ReplaceAll(text, "{last_source}", sess.RecentDomains[0])
	}
	// Unfilled placeholders must never reach the user.
	text = placeholderRe.ReplaceAllString(text, "that")

	q := types.ClarificationQuestion{
		Question:      text,
		Options:       cl.options(result, cand, sess),
		AllowFreeText: tmpl.AllowFreeText,
	}
	q.InferredAnswer = cl.inferAnswer(result, sess)
	return q
}

// options proposes selectable answers from session history so the user can
// pick instead of restating everything.
func (cl *Clarifier) options(result types.ReadinessResult, cand types.IntentCandidate, sess *session.Context) []string {
	switch result.ClarificationType {
	case types.ClarifyIntentAmbiguous:
		opts := make([]string, 0, len(result.AmbiguousIntents))
		for _, intent := range result.AmbiguousIntents {
			opts = append(opts, intentVerb(intent))
		}
		return opts
	case types.ClarifyMissingTarget, types.ClarifyAmbiguousReference:
		if sess == nil {
			return nil
		}
		var opts []string
		opts = append(opts, sess.RecentURLs...)
		for _, d := range sess.RecentDomains {
			if !strings.Contains(strings.Join(opts, " "), d) {
				opts = append(opts, d)
			}
		}
		return opts
	case types.ClarifyMissingObject, types.ClarifyTooVague:
		if sess == nil {
			return nil
		}
		return append([]string(nil), sess.RecentObjects...)
	case types.ClarifyMultiIntent:
		return []string{"first step only", "all of it, in order"}
	default:
		return nil
	}
}

// inferAnswer suggests the most likely answer from the focus pointers.
func (cl *Clarifier) inferAnswer(result types.ReadinessResult, sess *session.Context) string {
	if sess == nil {
		return ""
	}
	switch result.ClarificationType {
	case types.ClarifyMissingTarget, types.ClarifyAmbiguousReference:
		if len(sess.RecentURLs) > 0 {
			return sess.RecentURLs[0]
		}
		return sess.CurrentDomain
	case types.ClarifyMissingObject, types.ClarifyTooVague:
		return sess.CurrentObjectType
	default:
		return ""
	}
}

// intentVerb renders an intent as the verb used in questions.
var intentVerbs = map[types.IntentType]string{
	types.IntentNavigate:    "navigate to",
	types.IntentExtract:     "extract",
	types.IntentSearch:      "search for",
	types.IntentCalculate:   "calculate",
	types.IntentForecast:    "forecast",
	types.IntentStatusCheck: "check on",
}

func intentVerb(intent types.IntentType) string {
	if v, ok := intentVerbs[intent]; ok {
		return v
	}
	return string(intent)
}

func orWord(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func quoteWord(s string) string {
	if s == "" {
		return "\"that\""
	}
	return "\"" + s + "\""
}
