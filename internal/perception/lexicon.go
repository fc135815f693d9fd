// Package perception turns raw chat text into ranked intent candidates.
// Classification is deterministic: fixed keyword tables, bounded scoring
// passes, and pure string extraction. No model calls happen here.
package perception

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"missiond/internal/types"
)

// IntentLexicon holds the keyword sets for one intent type. Primary words are
// strong cues (usually verbs); secondary words are supporting vocabulary.
type IntentLexicon struct {
	Primary   []string `yaml:"primary"`
	Secondary []string `yaml:"secondary"`
}

// Lexicon is the complete keyword table driving classification. It ships with
// embedded defaults and can be overridden per deployment from a YAML file, so
// adding vocabulary is a data change rather than a code change.
type Lexicon struct {
	Intents map[types.IntentType]IntentLexicon `yaml:"intents"`

	// AckPhrases are full-message small-talk matches ("hello", "thanks").
	AckPhrases []string `yaml:"ack_phrases"`

	// MetaPhrases address the assistant itself ("help", "what can you do").
	MetaPhrases []string `yaml:"meta_phrases"`

	// GenericTerms are semantically empty objects; a request built on one is
	// never ready ("stuff", "things", "data", "information").
	GenericTerms []string `yaml:"generic_terms"`
}

// DefaultLexicon returns the embedded keyword table.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Intents: map[types.IntentType]IntentLexicon{
			types.IntentNavigate: {
				Primary:   []string{"navigate", "go", "open", "visit", "browse", "load"},
				Secondary: []string{"page", "website", "site", "url", "link"},
			},
			types.IntentExtract: {
				Primary:   []string{"extract", "scrape", "grab", "collect", "pull", "harvest", "get", "fetch"},
				Secondary: []string{"export", "download", "save"},
			},
			types.IntentSearch: {
				Primary:   []string{"search", "find", "look", "locate", "lookup", "get", "fetch"},
				Secondary: []string{"top", "best", "results", "latest"},
			},
			types.IntentCalculate: {
				Primary:   []string{"calculate", "compute", "sum", "multiply", "divide", "convert", "average"},
				Secondary: []string{"total", "percent", "percentage", "difference"},
			},
			types.IntentForecast: {
				Primary:   []string{"forecast", "predict", "project", "estimate"},
				Secondary: []string{"trend", "future", "next", "outlook", "projection"},
			},
			types.IntentStatusCheck: {
				Primary:   []string{"status", "progress"},
				Secondary: []string{"mission", "missions", "running", "done", "finished", "pending"},
			},
			types.IntentQuestion: {
				Primary:   []string{"what", "how", "why", "when", "where", "who", "which"},
				Secondary: []string{"can", "could", "would", "should", "is", "are", "do", "does", "explain", "tell"},
			},
		},
		AckPhrases: []string{
			"hello", "hi", "hey", "yo", "thanks", "thank you", "thx",
			"ok", "okay", "cool", "great", "nice", "perfect", "awesome",
			"bye", "goodbye", "good morning", "good afternoon", "good evening", "good night",
		},
		MetaPhrases: []string{
			"help", "what can you do", "what do you do", "who are you",
			"settings", "capabilities", "commands", "cancel", "stop", "never mind", "nevermind",
		},
		GenericTerms: []string{
			"stuff", "things", "thing", "data", "information", "something", "everything", "it all",
		},
	}
}

// LoadLexicon reads a YAML lexicon file. Sections present in the file replace
// the corresponding default section wholesale; absent sections keep defaults.
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}

	var file Lexicon
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}

	lex := DefaultLexicon()
	if len(file.Intents) > 0 {
		for intent, entry := range file.Intents {
			lex.Intents[intent] = entry
		}
	}
	if len(file.AckPhrases) > 0 {
		lex.AckPhrases = file.AckPhrases
	}
	if len(file.MetaPhrases) > 0 {
		lex.MetaPhrases = file.MetaPhrases
	}
	if len(file.GenericTerms) > 0 {
		lex.GenericTerms = file.GenericTerms
	}
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return lex, nil
}

// Validate rejects lexicons that would break classification.
func (l *Lexicon) Validate() error {
	for intent, entry := range l.Intents {
		if len(entry.Primary) == 0 {
			return fmt.Errorf("lexicon intent %q has no primary keywords", intent)
		}
	}
	if len(l.GenericTerms) == 0 {
		return fmt.Errorf("lexicon has no generic terms; vagueness checking would be disabled")
	}
	return nil
}

// IsGeneric reports whether an extracted object is semantically empty. A
// generic object is treated exactly like a missing one.
func (l *Lexicon) IsGeneric(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	for _, g := range l.GenericTerms {
		if term == g {
			return true
		}
	}
	// "the stuff", "some data" and similar determiner-wrapped forms.
	for _, g := range l.GenericTerms {
		if strings.HasSuffix(term, " "+g) {
			return true
		}
	}
	return false
}

// matchAckPhrase returns the matched acknowledgment phrase, if the whole
// message is one (trailing punctuation ignored).
func (l *Lexicon) matchAckPhrase(text string) (string, bool) {
	norm := normalizePhrase(text)
	for _, p := range l.AckPhrases {
		if norm == p {
			return p, true
		}
	}
	return "", false
}

// matchMetaPhrase returns the matched meta phrase for messages addressed to
// the assistant itself.
func (l *Lexicon) matchMetaPhrase(text string) (string, bool) {
	norm := normalizePhrase(text)
	for _, p := range l.MetaPhrases {
		if norm == p || strings.HasPrefix(norm, p+" ") {
			return p, true
		}
	}
	return "", false
}

func normalizePhrase(text string) string {
	norm := strings.ToLower(strings.TrimSpace(text))
	return strings.TrimRight(norm, " \t!.?,:;")
}
