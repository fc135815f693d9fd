package perception

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"missiond/internal/logging"
)

// LexiconWatcher watches a lexicon YAML file and hot-swaps the classifier's
// keyword table when the file changes. A broken edit is logged and ignored;
// the previous lexicon stays active.
type LexiconWatcher struct {
	mu         sync.Mutex
	watcher    *fsnotify.Watcher
	classifier *Classifier
	path       string
	debounce   time.Duration
	lastEvent  time.Time
	stopCh     chan struct{}
	doneCh     chan struct{}
	running    bool
}

// NewLexiconWatcher creates a watcher for the given lexicon file.
func NewLexiconWatcher(path string, classifier *Classifier) (*LexiconWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &LexiconWatcher{
		watcher:    watcher,
		classifier: classifier,
		path:       filepath.Clean(path),
		debounce:   300 * time.Millisecond, // editors fire several events per save
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; reload runs in a goroutine until Stop
// or context cancellation.
func (w *LexiconWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory, not the file: editors replace files on save and
	// the inode-level watch would be lost.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	logging.Get(logging.CategoryPerception).Infow("watching lexicon", "path", w.path)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the goroutine to exit.
func (w *LexiconWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

func (w *LexiconWatcher) run(ctx context.Context) {
	defer close(w.doneCh)
	log := logging.Get(logging.CategoryPerception)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			recent := time.Since(w.lastEvent) < w.debounce
			if !recent {
				w.lastEvent = time.Now()
			}
			w.mu.Unlock()
			if recent {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnw("lexicon watcher error", "error", err)
		}
	}
}

func (w *LexiconWatcher) reload() {
	log := logging.Get(logging.CategoryPerception)
	lex, err := LoadLexicon(w.path)
	if err != nil {
		log.Errorw("lexicon reload failed; keeping previous table", "path", w.path, "error", err)
		return
	}
	w.classifier.SetLexicon(lex)
	log.Infow("lexicon reloaded", "path", w.path)
}
