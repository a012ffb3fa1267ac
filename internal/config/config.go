package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// Load loads configuration from the YAML file at path, falling back to
// PROXYPILOT_CONFIG and then ./proxypilot.yaml when path is empty.
// Priority: explicit path > env var > local file > defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("PROXYPILOT_CONFIG")
	}
	if path == "" {
		path = "proxypilot.yaml"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			// No config file at all is fine, everything has a default.
			cfg := &Config{}
			cfg.SetDefaults()
			return cfg, cfg.Validate()
		}
	}

	return LoadWithEnvExpansion(path)
}

// SetDefaults fills zero values with production defaults
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "1"
	}
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = "info"
	}
	if c.Global.LogFormat == "" {
		c.Global.LogFormat = "text"
	}
	if c.Global.LogDir == "" {
		c.Global.LogDir = defaultLogDir()
	}
	if c.Global.APIPort == 0 {
		c.Global.APIPort = 9180
	}
	if c.Global.MetricsPort == 0 {
		c.Global.MetricsPort = 9090
	}
	if c.Global.MetricsPath == "" {
		c.Global.MetricsPath = "/metrics"
	}
	if c.Global.MetricsInterval == 0 {
		c.Global.MetricsInterval = 5
	}
	if c.Global.TracingExporter == "" {
		c.Global.TracingExporter = "stdout"
	}
	if c.Global.TracingSampleRate == 0 {
		c.Global.TracingSampleRate = 1.0
	}
	if c.Global.TracingServiceName == "" {
		c.Global.TracingServiceName = "proxypilot"
	}
	if c.Engine.Port == 0 {
		c.Engine.Port = 9080
	}
	if c.Engine.DataDir == "" {
		c.Engine.DataDir = defaultDataDir()
	}
	if c.Engine.RulesDir == "" {
		c.Engine.RulesDir = filepath.Join(c.Engine.DataDir, "rules")
	}
	if c.Engine.CertDir == "" {
		c.Engine.CertDir = filepath.Join(c.Engine.DataDir, "certs")
	}
	if c.Engine.ScriptsDir == "" {
		c.Engine.ScriptsDir = filepath.Join(c.Engine.DataDir, "scripts")
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Global.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %s", c.Global.LogLevel)
	}
	if c.Global.LogFormat != "json" && c.Global.LogFormat != "text" {
		return fmt.Errorf("invalid log_format: %s", c.Global.LogFormat)
	}
	if c.Engine.Port < 1 || c.Engine.Port > 65535 {
		return fmt.Errorf("invalid engine port: %d", c.Engine.Port)
	}
	if c.Global.APIPort < 0 || c.Global.APIPort > 65535 {
		return fmt.Errorf("invalid api_port: %d", c.Global.APIPort)
	}
	if c.Global.MetricsPort < 0 || c.Global.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics_port: %d", c.Global.MetricsPort)
	}
	if c.Global.MetricsInterval < 1 {
		return fmt.Errorf("metrics_interval must be at least 1 second")
	}
	if c.Global.TracingEnabled {
		if c.Global.TracingExporter != "otlp-grpc" && c.Global.TracingExporter != "stdout" {
			return fmt.Errorf("invalid tracing_exporter: %s (supported: otlp-grpc, stdout)", c.Global.TracingExporter)
		}
		if c.Global.TracingSampleRate < 0 || c.Global.TracingSampleRate > 1 {
			return fmt.Errorf("tracing_sample_rate must be between 0.0 and 1.0")
		}
	}
	if c.Engine.UpstreamProxy.Enabled {
		if c.Engine.UpstreamProxy.URL == "" {
			return fmt.Errorf("upstream_proxy enabled but url is empty")
		}
		if _, err := url.Parse(c.Engine.UpstreamProxy.URL); err != nil {
			return fmt.Errorf("invalid upstream_proxy url: %w", err)
		}
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".proxypilot"
	}
	return filepath.Join(home, ".proxypilot")
}

func defaultLogDir() string {
	return filepath.Join(defaultDataDir(), "logs")
}
