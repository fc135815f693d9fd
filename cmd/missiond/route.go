package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var routeSessionID string

var routeCmd = &cobra.Command{
	Use:   "route [message]",
	Short: "Route a single message and print the response envelope as JSON",
	Long: `Processes one message through the full pipeline (classify, validate,
route) and prints the resulting response envelope to stdout. Useful for
scripting and for inspecting how a phrasing is read.

Example:
  missiond route "extract emails from linkedin.com"
  missiond route --session s1 "get more"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoute,
}

func init() {
	routeCmd.Flags().StringVar(&routeSessionID, "session", "default", "session ID for context continuity")
}

func runRoute(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	text := strings.Join(args, " ")
	envelope, err := rt.engine.Process(ctx, routeSessionID, text)
	if err != nil {
		return fmt.Errorf("turn failed: %w", err)
	}

	raw, err := envelope.Serialize()
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}
