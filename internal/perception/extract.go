package perception

import (
	"regexp"
	"strconv"
	"strings"

	"missiond/internal/session"
)

// Extraction is the result of pure string analysis over one message. All
// fields are derived from the text alone; session context is applied later.
type Extraction struct {
	Object     string   // noun phrase the action operates on
	Target     string   // URL or domain the action points at, as written
	URL        string   // full URL when one was present
	Domain     string   // bare domain (from URL or mentioned directly)
	Count      int      // "top 10" style limit, 0 when absent
	Format     string   // requested output format (csv, json, ...)
	Expression string   // arithmetic expression for calculation requests
	Pronouns   []string // reference tokens present ("there", "them", ...)
	MultiStep  bool     // message chains two action verbs ("... and ...")
	Tokens     []string // normalized tokens, for scoring
}

var (
	urlRe    = regexp.MustCompile(`https?://[^\s<>"']+`)
	domainRe = regexp.MustCompile(`\b[a-zA-Z0-9][a-zA-Z0-9-]*(?:\.[a-zA-Z0-9-]+)+\b`)
	countRe  = regexp.MustCompile(`\b(?:top|first|last)\s+(\d+)\b`)
	exprRe   = regexp.MustCompile(`[\d][\d\s+\-*/().%^]*[\d)%]|\b\d+\b`)
)

// Determiners and connectives skipped when carving out the object phrase.
var objectStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "my": true, "all": true,
	"some": true, "of": true, "me": true, "please": true,
	"as": true, "in": true, "for": true, "with": true,
}

// Conjunctions end the object phrase; what follows is a second clause.
var conjunctions = map[string]bool{
	"and": true, "then": true, "or": true,
}

// Prepositions that introduce a target ("from linkedin.com", "on that page").
var targetPrepositions = map[string]bool{
	"from": true, "on": true, "at": true, "to": true, "into": true,
}

var formatWords = map[string]bool{
	"csv": true, "json": true, "table": true, "excel": true,
	"markdown": true, "text": true, "list": true,
}

// Extract performs field extraction for one message. Deterministic: the same
// text always yields the same extraction.
func Extract(text string, lex *Lexicon) Extraction {
	ext := Extraction{}
	working := strings.TrimSpace(text)

	if url := urlRe.FindString(working); url != "" {
		ext.URL = strings.TrimRight(url, ".,;:!?)")
		ext.Target = ext.URL
		ext.Domain = domainOfURL(ext.URL)
		working = strings.Replace(working, url, " ", 1)
	}

	lower := strings.ToLower(working)
	ext.Tokens = tokenize(strings.ToLower(strings.TrimSpace(text)))

	// Bare domain mention ("linkedin.com") when no full URL was present.
	if ext.Target == "" {
		for _, d := range domainRe.FindAllString(lower, -1) {
			if looksLikeDomain(d) {
				ext.Domain = d
				ext.Target = d
				break
			}
		}
	}

	if m := countRe.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			ext.Count = n
		}
	}

	for _, tok := range ext.Tokens {
		if formatWords[tok] {
			ext.Format = tok
			break
		}
	}

	for _, tok := range ext.Tokens {
		if session.IsReferenceToken(tok) {
			ext.Pronouns = append(ext.Pronouns, tok)
		}
	}

	ext.Expression = extractExpression(lower)
	ext.Object = extractObject(ext.Tokens, lex, ext.Domain)
	ext.MultiStep = detectMultiStep(ext.Tokens, lex)

	return ext
}

func tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]{}")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// extractObject carves out the noun phrase after the leading action verb and
// before any target preposition. Determiners and counts are dropped; the
// domain token is never the object.
func extractObject(tokens []string, lex *Lexicon, domain string) string {
	if len(tokens) == 0 {
		return ""
	}

	start := 0
	if isActionVerb(tokens[0], lex) {
		start = 1
	}

	var parts []string
	skipNext := false
	for i := start; i < len(tokens); i++ {
		tok := tokens[i]
		if skipNext {
			skipNext = false
			continue
		}
		if targetPrepositions[tok] || conjunctions[tok] {
			break
		}
		if objectStopwords[tok] || formatWords[tok] {
			continue
		}
		if tok == "top" || tok == "first" || tok == "last" {
			// The count belongs to constraints, not the object.
			skipNext = true
			continue
		}
		if _, err := strconv.Atoi(tok); err == nil {
			continue
		}
		if tok == domain || strings.Contains(tok, "://") {
			continue
		}
		if session.IsReferenceToken(tok) {
			continue
		}
		parts = append(parts, tok)
	}
	return strings.Join(parts, " ")
}

// isActionVerb reports whether a token is a keyword of any mission-capable
// intent. Secondary words count too so "export the prices" carves out the
// right object phrase.
func isActionVerb(tok string, lex *Lexicon) bool {
	for intent, entry := range lex.Intents {
		if !intent.MissionCapable() {
			continue
		}
		for _, kw := range entry.Primary {
			if tok == kw {
				return true
			}
		}
		for _, kw := range entry.Secondary {
			if tok == kw {
				return true
			}
		}
	}
	return false
}

// detectMultiStep looks for a conjunction followed by a second action verb:
// "open the site and extract the prices" is two steps, "emails and phones"
// is one.
func detectMultiStep(tokens []string, lex *Lexicon) bool {
	for i, tok := range tokens {
		if (tok == "and" || tok == "then") && i+1 < len(tokens) {
			if isActionVerb(tokens[i+1], lex) {
				return true
			}
		}
	}
	return false
}

// extractExpression pulls the longest numeric/operator run for calculation
// requests. Returns "" when the text has no arithmetic content.
func extractExpression(lower string) string {
	matches := exprRe.FindAllString(lower, -1)
	best := ""
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if len(m) > len(best) {
			best = m
		}
	}
	return best
}

func looksLikeDomain(s string) bool {
	// Version strings and decimal numbers match the domain shape; require a
	// letter in the last label.
	i := strings.LastIndex(s, ".")
	if i < 0 || i == len(s)-1 {
		return false
	}
	last := s[i+1:]
	for _, r := range last {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}

func domainOfURL(url string) string {
	s := url
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "www.")
}
