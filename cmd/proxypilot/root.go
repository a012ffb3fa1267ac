package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "proxypilot",
	Short: "Supervisor daemon for the traffic-interception engine",
	Long: `ProxyPilot - Supervisor daemon for the traffic-interception engine

Manages the engine child process that intercepts and rewrites local
HTTP(S) traffic:
- Engine lifecycle (start, readiness probing, stop, crash detection)
- User script injection with ordered addon chains
- Rule hot-reload via filesystem watching
- Per-domain log capture (engine, script, plugin, crash, audit)
- Resource stats for the engine process tree
- Prometheus metrics and a loopback control API

Examples:
  proxypilot serve                   # Start daemon
  proxypilot tui                     # Interactive dashboard
  proxypilot status                  # One-shot engine status
  proxypilot check-config            # Validate configuration`,
	Version: version,
	// Default to serve command if no subcommand specified
	Run: func(cmd *cobra.Command, args []string) {
		serveCmd.Run(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to configuration file")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(checkConfigCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(tuiCmd)
}
