package main

import (
	"fmt"
	"os"

	"github.com/proxypilot/proxypilot/internal/config"
)

// getConfigPath determines the configuration file path.
// Priority: CLI flag > PROXYPILOT_CONFIG > user config > system config > local file.
func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}

	if envPath := os.Getenv("PROXYPILOT_CONFIG"); envPath != "" {
		return envPath
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfig := homeDir + "/.config/proxypilot/proxypilot.yaml"
		if _, err := os.Stat(userConfig); err == nil {
			return userConfig
		}
	}

	systemConfig := "/etc/proxypilot/proxypilot.yaml"
	if _, err := os.Stat(systemConfig); err == nil {
		return systemConfig
	}

	return "proxypilot.yaml"
}

// apiBaseURL builds the control API base URL for client commands.
// An explicit --api flag wins over the configured port.
func apiBaseURL(flagURL string, cfg *config.Config) string {
	if flagURL != "" {
		return flagURL
	}
	return fmt.Sprintf("http://127.0.0.1:%d", cfg.Global.APIPort)
}

// apiToken resolves the bearer token for client commands.
// Priority: --token flag > PROXYPILOT_API_TOKEN > config file.
func apiToken(flagToken string, cfg *config.Config) string {
	if flagToken != "" {
		return flagToken
	}
	if envToken := os.Getenv("PROXYPILOT_API_TOKEN"); envToken != "" {
		return envToken
	}
	return cfg.Global.APIAuth
}
