package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"missiond/internal/config"
	"missiond/internal/core"
	"missiond/internal/logging"
	"missiond/internal/perception"
	"missiond/internal/session"
	"missiond/internal/store"
	"missiond/internal/types"
)

var (
	configPath string
	debug      bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "missiond",
	Short: "missiond - deterministic intent routing and mission readiness engine",
	Long: `missiond turns free-form chat into explicit missions.

Every message is classified into an intent with a confidence score, checked
for readiness against per-intent required fields, and either proposed as a
mission or answered with a targeted clarification question. Vague input is
never guessed at: nothing executes without a fully specified objective.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if debug {
			cfg.Logging.Debug = true
		}
		if err := logging.Initialize(cfg.Logging.Debug); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "missiond.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(missionsCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime bundles everything a command needs to process turns.
type runtime struct {
	engine     *core.Engine
	classifier *perception.Classifier
	store      *store.LocalStore
	watcher    *perception.LexiconWatcher
}

// buildRuntime assembles the full turn pipeline from config.
func buildRuntime() (*runtime, error) {
	log := logging.Get(logging.CategoryBoot)

	lex := perception.DefaultLexicon()
	if cfg.Lexicon.Path != "" {
		loaded, err := perception.LoadLexicon(cfg.Lexicon.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to load lexicon %s: %w", cfg.Lexicon.Path, err)
		}
		lex = loaded
		log.Infow("lexicon loaded", "path", cfg.Lexicon.Path)
	}

	st, err := store.NewLocalStore(cfg.Store.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	classifier := perception.NewClassifier(lex, cfg.Engine.MaxCandidates)
	validator := core.NewValidator(cfg.Engine.TieSpread, classifier.Lexicon)
	router := core.NewRouter(st, buildAnswerer())

	var ckpt session.Checkpointer
	if cfg.Store.CheckpointSessions {
		ckpt = st
	}
	sessions := session.NewManager(cfg.Engine.SessionListCap, ckpt)

	engine, err := core.NewEngine(classifier, validator, router, sessions)
	if err != nil {
		st.Close()
		return nil, err
	}

	rt := &runtime{engine: engine, classifier: classifier, store: st}
	if cfg.Lexicon.Watch && cfg.Lexicon.Path != "" {
		watcher, err := perception.NewLexiconWatcher(cfg.Lexicon.Path, classifier)
		if err == nil {
			err = watcher.Start(context.Background())
		}
		if err != nil {
			log.Warnw("lexicon watch unavailable", "error", err)
		} else {
			rt.watcher = watcher
		}
	}

	log.Infow("engine ready",
		"db", cfg.Store.DatabasePath,
		"tie_spread", cfg.Engine.TieSpread,
		"llm", cfg.LLM.Provider)
	return rt, nil
}

func (rt *runtime) close() {
	if rt.watcher != nil {
		rt.watcher.Stop()
	}
	if rt.store != nil {
		rt.store.Close()
	}
}

func buildAnswerer() types.Answerer {
	if cfg.LLM.Provider == "gemini" && cfg.LLM.APIKey != "" {
		answerer, err := perception.NewGeminiAnswerer(cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			logging.Get(logging.CategoryBoot).Warnw("gemini unavailable; using canned answers", "error", err)
			return perception.CannedAnswerer{}
		}
		return answerer
	}
	return perception.CannedAnswerer{}
}
