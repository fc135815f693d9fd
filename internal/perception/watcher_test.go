package perception

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"missiond/internal/types"
)

func TestLexiconWatcher_ReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	if err := os.WriteFile(path, []byte("generic_terms: [stuff]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewClassifier(DefaultLexicon(), 3)
	w, err := NewLexiconWatcher(path, c)
	if err != nil {
		t.Fatalf("NewLexiconWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	update := "intents:\n  extract:\n    primary: [snarf]\n"
	if err := os.WriteFile(path, []byte(update), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		prim := c.Lexicon().Intents[types.IntentExtract].Primary
		if len(prim) == 1 && prim[0] == "snarf" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("lexicon was not reloaded after file write")
}

func TestLexiconWatcher_KeepsOldTableOnBrokenEdit(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))

	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	if err := os.WriteFile(path, []byte("generic_terms: [stuff]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewClassifier(DefaultLexicon(), 3)
	w, err := NewLexiconWatcher(path, c)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	before := c.Lexicon()
	if err := os.WriteFile(path, []byte("intents: ["), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	if c.Lexicon() != before {
		t.Error("broken lexicon edit should not replace the active table")
	}
}
