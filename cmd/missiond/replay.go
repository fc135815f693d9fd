package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"missiond/internal/types"
)

// transcript is the YAML shape replay consumes: one ordered message list per
// session. Sessions replay concurrently; turns within a session stay ordered.
type transcript struct {
	Sessions map[string][]string `yaml:"sessions"`
}

var replayVerbose bool

var replayCmd = &cobra.Command{
	Use:   "replay [transcript.yaml]",
	Short: "Replay a recorded transcript through the engine",
	Long: `Replays a YAML transcript of user messages and reports, per session,
how many turns produced missions, clarifications, and answers. Sessions run
concurrently; the ordering guarantee inside each session is preserved.

Transcript format:
  sessions:
    alice:
      - "Extract emails from linkedin.com"
      - "get more"
    bob:
      - "hello"`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayVerbose, "verbose", false, "print every envelope summary")
}

type replayTally struct {
	Turns          int
	Missions       int
	Clarifications int
	Answers        int
}

func runReplay(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}
	var tr transcript
	if err := yaml.Unmarshal(raw, &tr); err != nil {
		return fmt.Errorf("failed to parse transcript: %w", err)
	}
	if len(tr.Sessions) == 0 {
		return fmt.Errorf("transcript has no sessions")
	}

	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var mu sync.Mutex
	tallies := make(map[string]*replayTally, len(tr.Sessions))

	g, ctx := errgroup.WithContext(context.Background())
	for sessionID, messages := range tr.Sessions {
		g.Go(func() error {
			tally := &replayTally{}
			for _, text := range messages {
				envelope, err := rt.engine.Process(ctx, sessionID, text)
				if err != nil {
					return fmt.Errorf("session %s, message %q: %w", sessionID, text, err)
				}
				tally.Turns++
				switch envelope.Type {
				case types.ResponseMissionProposed:
					tally.Missions++
				case types.ResponseClarification:
					tally.Clarifications++
				case types.ResponseAnswer, types.ResponseMeta:
					tally.Answers++
				}
				if replayVerbose {
					fmt.Printf("[%s] %-20s %s\n", sessionID, envelope.Type, envelope.Summary)
				}
			}
			mu.Lock()
			tallies[sessionID] = tally
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ids := make([]string, 0, len(tallies))
	for id := range tallies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println("session        turns  missions  clarifications  answers")
	for _, id := range ids {
		t := tallies[id]
		fmt.Printf("%-14s %5d  %8d  %14d  %7d\n", id, t.Turns, t.Missions, t.Clarifications, t.Answers)
	}
	return nil
}
