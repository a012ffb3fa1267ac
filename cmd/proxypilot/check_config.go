package main

import (
	"fmt"
	"os"

	"github.com/proxypilot/proxypilot/internal/config"
	"github.com/proxypilot/proxypilot/internal/engine"
	"github.com/spf13/cobra"
)

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate configuration file",
	Long:  `Validate the ProxyPilot configuration file and report any errors`,
	Run:   runCheckConfig,
}

func init() {
	checkConfigCmd.Flags().Bool("strict", false, "Also fail when the engine installation is incomplete")
}

func runCheckConfig(cmd *cobra.Command, args []string) {
	strict, _ := cmd.Flags().GetBool("strict")
	cfgPath := getConfigPath()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration load failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Configuration is valid: %s\n", cfgPath)
	fmt.Printf("   Engine port: %d\n", cfg.Engine.Port)
	fmt.Printf("   Scripts: %d\n", len(cfg.Engine.Scripts))
	fmt.Printf("   Log level: %s\n", cfg.Global.LogLevel)
	fmt.Printf("   Log dir: %s\n", cfg.Global.LogDir)
	fmt.Printf("   API port: %d\n", cfg.Global.APIPort)

	// The engine installation is not part of the config file, but a
	// missing binary is the most common reason a start fails.
	warnings := []string{}
	layout := engine.NewLayout(cfg.Engine.DevMode)
	if cfg.Engine.Path == "" {
		if _, err := layout.EnginePath(); err != nil {
			warnings = append(warnings, fmt.Sprintf("engine binary not found: %v", err))
		}
	} else if _, err := os.Stat(cfg.Engine.Path); err != nil {
		warnings = append(warnings, fmt.Sprintf("configured engine path not usable: %v", err))
	}
	if _, err := layout.EntryAddonPath(); err != nil {
		warnings = append(warnings, fmt.Sprintf("entry addon not found: %v", err))
	}
	for _, script := range cfg.Engine.Scripts {
		if _, err := os.Stat(script); err != nil {
			warnings = append(warnings, fmt.Sprintf("script not readable: %s", script))
		}
	}

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("   - %s\n", w)
		}

		if strict {
			fmt.Println("\nValidation failed in strict mode (warnings present)")
			os.Exit(1)
		}
	}

	fmt.Println("\nConfiguration ready for use")
}
