package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"missiond/internal/types"
)

var (
	missionsStatus string
	missionsLimit  int
)

var missionsCmd = &cobra.Command{
	Use:   "missions",
	Short: "List stored missions",
	Long: `Lists missions from the local store, newest first.

Example:
  missiond missions
  missiond missions --status proposed --limit 10`,
	RunE: runMissions,
}

func init() {
	missionsCmd.Flags().StringVar(&missionsStatus, "status", "", "filter by status (proposed, approved, executing, completed, failed)")
	missionsCmd.Flags().IntVar(&missionsLimit, "limit", 20, "maximum number of missions to show")
}

var (
	missionIDStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	missionStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	missionDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func runMissions(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	missions, err := rt.store.ListMissions(context.Background(), types.MissionStatus(missionsStatus), missionsLimit)
	if err != nil {
		return err
	}
	if len(missions) == 0 {
		fmt.Println("No missions yet. Propose one with: missiond route \"<request>\"")
		return nil
	}

	for _, m := range missions {
		fmt.Printf("%s  %s  %s\n",
			missionIDStyle.Render(shortID(m.ID)),
			missionStatusStyle.Render(string(m.Status)),
			m.Objective,
		)
		fmt.Printf("    %s\n", missionDimStyle.Render(fmt.Sprintf(
			"intent=%s  created=%s", m.Intent, m.CreatedAt.Format("2006-01-02 15:04:05"))))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show checkpointed session count",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		n, err := rt.store.SessionCount()
		if err != nil {
			return err
		}
		fmt.Printf("%d checkpointed session(s) in %s\n", n, cfg.Store.DatabasePath)
		return nil
	},
}
