// Package session holds per-conversation memory: recently mentioned entities,
// focus pointers, and pronoun resolution. A Context is owned by exactly one
// conversation and mutated only between turns, so it carries no lock of its
// own; the Manager serializes turns per session.
package session

import (
	"encoding/json"
	"strings"
	"time"

	"missiond/internal/logging"
	"missiond/internal/types"
)

// DefaultListCap bounds each recent-entity list. Oldest entries are evicted.
const DefaultListCap = 5

// MissionNote remembers one mission proposed during this conversation.
type MissionNote struct {
	MissionID string           `json:"mission_id"`
	Objective string           `json:"objective"`
	Intent    types.IntentType `json:"intent"`
	Outcome   string           `json:"outcome"` // "proposed" until a collaborator reports back
	At        time.Time        `json:"at"`
}

// Context is the session-scoped memory for one conversation.
type Context struct {
	ID string `json:"id"`

	// Bounded LIFO lists, most recent first.
	RecentURLs    []string      `json:"recent_urls,omitempty"`
	RecentDomains []string      `json:"recent_domains,omitempty"`
	RecentObjects []string      `json:"recent_objects,omitempty"`
	RecentMissions []MissionNote `json:"recent_missions,omitempty"`

	// Focus pointers: what the conversation is currently "about".
	CurrentDomain     string `json:"current_domain,omitempty"`
	CurrentObjectType string `json:"current_object_type,omitempty"`

	LastIntent   types.IntentType `json:"last_intent,omitempty"`
	MessageCount int              `json:"message_count"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	listCap int
}

// New creates an empty context for a session. listCap <= 0 uses DefaultListCap.
func New(id string, listCap int) *Context {
	if listCap <= 0 {
		listCap = DefaultListCap
	}
	now := time.Now()
	return &Context{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		listCap:   listCap,
	}
}

// =============================================================================
// REFERENCE RESOLUTION
// =============================================================================

// Reference token sets. "it" and "that" are tried as objects first and fall
// back to locations, since both readings occur in practice.
var (
	locationTokens = map[string]bool{
		"there": true, "here": true, "site": true, "page": true,
		"that site": true, "that page": true, "the site": true, "the page": true,
	}
	objectTokens = map[string]bool{
		"them": true, "those": true, "these": true,
		"it": true, "that": true, "more": true,
	}
)

// IsReferenceToken reports whether a token is a pronoun or ellipsis this
// store knows how to resolve.
func IsReferenceToken(token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	return locationTokens[token] || objectTokens[token]
}

// ResolveReference maps a pronoun token to a concrete value from this
// session's history. Location tokens resolve to the most recent URL, then the
// most recent domain. Object tokens resolve to the current object focus, then
// the most recent extracted object. Returns ok=false when history has nothing.
func (c *Context) ResolveReference(token string) (string, bool) {
	token = strings.ToLower(strings.TrimSpace(token))

	if objectTokens[token] {
		if v, ok := c.resolveObject(); ok {
			return v, true
		}
		// "it"/"that" can also point at a place.
		if v, ok := c.resolveLocation(); ok {
			return v, true
		}
		return "", false
	}

	if locationTokens[token] {
		if v, ok := c.resolveLocation(); ok {
			return v, true
		}
		return "", false
	}

	return "", false
}

func (c *Context) resolveLocation() (string, bool) {
	if len(c.RecentURLs) > 0 {
		return c.RecentURLs[0], true
	}
	if len(c.RecentDomains) > 0 {
		return c.RecentDomains[0], true
	}
	return "", false
}

func (c *Context) resolveObject() (string, bool) {
	if c.CurrentObjectType != "" {
		return c.CurrentObjectType, true
	}
	if len(c.RecentObjects) > 0 {
		return c.RecentObjects[0], true
	}
	return "", false
}

// ApplyImplicitContext fills an unset object or target on a candidate from
// the focus pointers. This is what lets "get more" inherit the last extracted
// object and domain. Only mission-capable intents are touched.
func (c *Context) ApplyImplicitContext(cand *types.IntentCandidate) {
	if cand == nil || !cand.Intent.MissionCapable() {
		return
	}
	if objectBearing(cand.Intent) && cand.ActionObject == "" && c.CurrentObjectType != "" {
		cand.ActionObject = c.CurrentObjectType
		cand.AddReasoning("inherited object '" + c.CurrentObjectType + "' from session focus")
	}
	if targetBearing(cand.Intent) && cand.ActionTarget == "" {
		if target, ok := c.resolveLocation(); ok {
			cand.ActionTarget = target
			cand.AddReasoning("inherited target '" + target + "' from session focus")
		}
	}
}

// objectBearing reports whether an intent acts on an object noun.
func objectBearing(intent types.IntentType) bool {
	switch intent {
	case types.IntentExtract, types.IntentSearch, types.IntentForecast:
		return true
	default:
		return false
	}
}

// targetBearing reports whether an intent points at a URL or domain.
func targetBearing(intent types.IntentType) bool {
	switch intent {
	case types.IntentNavigate, types.IntentExtract:
		return true
	default:
		return false
	}
}

// =============================================================================
// MUTATION
// =============================================================================

// RecordTurn bumps counters after a completed turn. The engine calls this
// exactly once per turn, after the envelope is built.
func (c *Context) RecordTurn(intent types.IntentType) {
	c.MessageCount++
	c.LastIntent = intent
	c.UpdatedAt = time.Now()
}

// UpdateOnMissionEvent is the only entity mutator. Called once when a turn
// produced a mission: pushes the mission's URL/domain/object into the recent
// lists, trims to cap, and moves the focus pointers.
func (c *Context) UpdateOnMissionEvent(mission types.MissionRef, proposal types.MissionProposal) {
	if proposal.Target != "" {
		if strings.Contains(proposal.Target, "://") {
			c.RecentURLs = pushBounded(c.RecentURLs, proposal.Target, c.cap())
			if d := domainOf(proposal.Target); d != "" {
				c.RecentDomains = pushBounded(c.RecentDomains, d, c.cap())
				c.CurrentDomain = d
			}
		} else {
			c.RecentDomains = pushBounded(c.RecentDomains, proposal.Target, c.cap())
			c.CurrentDomain = proposal.Target
		}
	}
	if proposal.Object != "" {
		c.RecentObjects = pushBounded(c.RecentObjects, proposal.Object, c.cap())
		c.CurrentObjectType = proposal.Object
	}
	c.RecentMissions = pushBoundedMissions(c.RecentMissions, MissionNote{
		MissionID: mission.MissionID,
		Objective: mission.Objective,
		Intent:    proposal.Intent,
		Outcome:   string(mission.Status),
		At:        time.Now(),
	}, c.cap())
	c.UpdatedAt = time.Now()

	logging.Get(logging.CategorySession).Debugw("session updated on mission event",
		"session", c.ID, "mission", mission.MissionID,
		"domain", c.CurrentDomain, "object", c.CurrentObjectType)
}

// NoteURL records an explicitly mentioned URL even when no mission resulted,
// so later pronouns can resolve against it. Called by the engine at turn end.
func (c *Context) NoteURL(url string) {
	if url == "" {
		return
	}
	c.RecentURLs = pushBounded(c.RecentURLs, url, c.cap())
	if d := domainOf(url); d != "" {
		c.RecentDomains = pushBounded(c.RecentDomains, d, c.cap())
	}
}

func (c *Context) cap() int {
	if c.listCap <= 0 {
		return DefaultListCap
	}
	return c.listCap
}

func pushBounded(list []string, value string, max int) []string {
	// Re-mentioning an entity moves it to the front instead of duplicating.
	for i, v := range list {
		if v == value {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	list = append([]string{value}, list...)
	if len(list) > max {
		list = list[:max]
	}
	return list
}

func pushBoundedMissions(list []MissionNote, note MissionNote, max int) []MissionNote {
	list = append([]MissionNote{note}, list...)
	if len(list) > max {
		list = list[:max]
	}
	return list
}

func domainOf(url string) string {
	s := url
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "www.")
	if !strings.Contains(s, ".") {
		return ""
	}
	return s
}

// =============================================================================
// SNAPSHOT & SERIALIZATION
// =============================================================================

// Snapshot returns a deep copy for read-only use during classification, so a
// turn sees a stable view even while tooling inspects the live context.
func (c *Context) Snapshot() *Context {
	cp := *c
	cp.RecentURLs = append([]string(nil), c.RecentURLs...)
	cp.RecentDomains = append([]string(nil), c.RecentDomains...)
	cp.RecentObjects = append([]string(nil), c.RecentObjects...)
	cp.RecentMissions = append([]MissionNote(nil), c.RecentMissions...)
	return &cp
}

// Serialize renders the context as JSON for checkpointing.
func (c *Context) Serialize() ([]byte, error) {
	return json.Marshal(c)
}

// Deserialize restores a checkpointed context. The list cap is not part of
// the wire form and is reapplied by the caller.
func Deserialize(data []byte, listCap int) (*Context, error) {
	var c Context
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if listCap <= 0 {
		listCap = DefaultListCap
	}
	c.listCap = listCap
	return &c, nil
}
