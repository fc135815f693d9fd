// Package core implements the readiness validator, clarification generator,
// router, and the turn engine that wires them together. This is the decision
// layer: it never executes missions and never calls out during validation.
package core

import "errors"

// ErrUnknownIntent means the required-field table has no entry for a
// classified intent. That is a programming error (a table gap), not a user
// error: it fails fast in tests and must never be shown as-is to a user.
var ErrUnknownIntent = errors.New("no required-field table entry for intent")

// ErrNoCandidates means the classifier returned an empty list, which it never
// does by contract. Kept as a distinct sentinel so a regression is loud.
var ErrNoCandidates = errors.New("classifier returned no candidates")
