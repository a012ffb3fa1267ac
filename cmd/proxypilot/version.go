package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// commit is set at build time via -ldflags
var commit = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the version number and build information for ProxyPilot`,
	Run: func(cmd *cobra.Command, args []string) {
		short, _ := cmd.Flags().GetBool("short")
		if short {
			fmt.Println(version)
		} else {
			fmt.Printf("ProxyPilot v%s (%s)\n", version, commit)
			fmt.Println("Supervisor daemon for the traffic-interception engine")
		}
	},
}

func init() {
	versionCmd.Flags().BoolP("short", "s", false, "Show only version number")
}
