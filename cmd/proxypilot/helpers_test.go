package main

import (
	"testing"

	"github.com/proxypilot/proxypilot/internal/config"
)

func TestGetConfigPathFlagWins(t *testing.T) {
	orig := cfgFile
	defer func() { cfgFile = orig }()

	cfgFile = "/tmp/custom.yaml"
	t.Setenv("PROXYPILOT_CONFIG", "/tmp/env.yaml")

	if got := getConfigPath(); got != "/tmp/custom.yaml" {
		t.Errorf("getConfigPath() = %q, want the CLI flag value", got)
	}
}

func TestGetConfigPathEnvFallback(t *testing.T) {
	orig := cfgFile
	defer func() { cfgFile = orig }()

	cfgFile = ""
	t.Setenv("PROXYPILOT_CONFIG", "/tmp/env.yaml")

	if got := getConfigPath(); got != "/tmp/env.yaml" {
		t.Errorf("getConfigPath() = %q, want the env value", got)
	}
}

func TestGetConfigPathLocalDefault(t *testing.T) {
	orig := cfgFile
	defer func() { cfgFile = orig }()

	cfgFile = ""
	t.Setenv("PROXYPILOT_CONFIG", "")
	t.Setenv("HOME", t.TempDir()) // no user config in a fresh home

	if got := getConfigPath(); got != "proxypilot.yaml" && got != "/etc/proxypilot/proxypilot.yaml" {
		t.Errorf("getConfigPath() = %q, want a default path", got)
	}
}

func TestAPIBaseURL(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()

	if got := apiBaseURL("", cfg); got != "http://127.0.0.1:9180" {
		t.Errorf("apiBaseURL() = %q, want the configured loopback port", got)
	}
	if got := apiBaseURL("http://127.0.0.1:1234", cfg); got != "http://127.0.0.1:1234" {
		t.Errorf("apiBaseURL() = %q, want the flag value", got)
	}
}

func TestAPIToken(t *testing.T) {
	cfg := &config.Config{}
	cfg.Global.APIAuth = "from-config"

	t.Setenv("PROXYPILOT_API_TOKEN", "")
	if got := apiToken("", cfg); got != "from-config" {
		t.Errorf("apiToken() = %q, want the config value", got)
	}

	t.Setenv("PROXYPILOT_API_TOKEN", "from-env")
	if got := apiToken("", cfg); got != "from-env" {
		t.Errorf("apiToken() = %q, want the env value", got)
	}

	if got := apiToken("from-flag", cfg); got != "from-flag" {
		t.Errorf("apiToken() = %q, want the flag value", got)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	want := map[string]bool{
		"serve":        false,
		"version":      false,
		"check-config": false,
		"status":       false,
		"tui":          false,
	}

	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}

	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
