package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/proxypilot/proxypilot/internal/config"
	"github.com/proxypilot/proxypilot/internal/tui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine status from a running daemon",
	Long: `Query a running ProxyPilot daemon and print the engine status
and a resource snapshot of its process tree.

Examples:
  proxypilot status
  proxypilot status --api http://127.0.0.1:9180
  proxypilot status --token sekrit`,
	Run: runStatus,
}

var (
	statusAPI   string
	statusToken string
)

func init() {
	statusCmd.Flags().StringVar(&statusAPI, "api", "", "Control API base URL (default: configured port on loopback)")
	statusCmd.Flags().StringVar(&statusToken, "token", "", "Bearer token for the control API")
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	client := tui.NewAPIClient(apiBaseURL(statusAPI, cfg), apiToken(statusToken, cfg))

	status, err := client.Status()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to reach daemon: %v\n", err)
		fmt.Fprintf(os.Stderr, "Is proxypilot serve running?\n")
		os.Exit(1)
	}

	if !status.Running {
		fmt.Println("Engine:  stopped")
		return
	}

	fmt.Println("Engine:  running")
	if status.Active {
		fmt.Println("Traffic: intercepting")
	} else {
		fmt.Println("Traffic: passthrough")
	}
	if len(status.ActiveScripts) > 0 {
		fmt.Printf("Scripts: %s\n", strings.Join(status.ActiveScripts, ", "))
	} else {
		fmt.Println("Scripts: none")
	}

	snap, err := client.Stats()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Stats unavailable: %v\n", err)
		return
	}
	fmt.Printf("CPU:     %.1f%%\n", snap.CPUUsage)
	fmt.Printf("Memory:  %.1f MiB\n", float64(snap.MemoryUsage)/(1<<20))
	fmt.Printf("Uptime:  %ds\n", snap.UpTime)
	fmt.Printf("Network: %d B/s down, %d B/s up\n", snap.RxSpeed, snap.TxSpeed)
}
