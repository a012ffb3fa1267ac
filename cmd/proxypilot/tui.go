package main

import (
	"fmt"
	"os"

	"github.com/proxypilot/proxypilot/internal/config"
	"github.com/proxypilot/proxypilot/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal dashboard",
	Long: `Launch an interactive terminal dashboard attached to a running
ProxyPilot daemon.

The TUI provides:
- Live engine status and traffic-interception state
- Resource history for the engine process tree
- Engine control (start, stop, traffic toggle, rule reload)
- Per-domain log viewing

It talks to the daemon over the control API, so the daemon must already
be running (proxypilot serve).`,
	Run: runTUI,
}

var (
	tuiAPI   string
	tuiToken string
)

func init() {
	tuiCmd.Flags().StringVar(&tuiAPI, "api", "", "Control API base URL (default: configured port on loopback)")
	tuiCmd.Flags().StringVar(&tuiToken, "token", "", "Bearer token for the control API")
}

func runTUI(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(apiBaseURL(tuiAPI, cfg), apiToken(tuiToken, cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		os.Exit(1)
	}
}
