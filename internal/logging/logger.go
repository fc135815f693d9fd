// Package logging provides category-based structured logging for missiond.
// Each subsystem logs through a named zap logger so log output can be filtered
// per category. Initialize is called once at startup; before that, all
// categories resolve to a no-op logger so library code never nil-checks.
package logging

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names a logging subsystem.
type Category string

const (
	CategoryBoot       Category = "boot"       // Startup and configuration
	CategoryEngine     Category = "engine"     // Turn pipeline, routing decisions
	CategoryPerception Category = "perception" // Classification passes, extraction
	CategorySession    Category = "session"    // Session context mutations
	CategoryStore      Category = "store"      // SQLite operations
	CategoryChat       Category = "chat"       // Chat surface events
)

var (
	mu   sync.RWMutex
	base = zap.NewNop()
	byCat = make(map[Category]*zap.SugaredLogger)
)

// Initialize builds the process logger. Debug enables debug-level output with
// a development encoder; otherwise production JSON at info level is used.
func Initialize(debug bool) error {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	base = logger
	byCat = make(map[Category]*zap.SugaredLogger)
	return nil
}

// Get returns the sugared logger for a category.
func Get(cat Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := byCat[cat]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := byCat[cat]; ok {
		return l
	}
	l := base.Named(string(cat)).Sugar()
	byCat[cat] = l
	return l
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

// Timer measures one operation and logs its duration at debug level on Stop.
type Timer struct {
	cat   Category
	op    string
	start time.Time
}

// StartTimer begins timing a named operation.
func StartTimer(cat Category, op string) *Timer {
	return &Timer{cat: cat, op: op, start: time.Now()}
}

// Stop logs the elapsed time for the operation.
func (t *Timer) Stop() {
	Get(t.cat).Debugw("operation complete", "op", t.op, "elapsed", time.Since(t.start))
}
