package config

// Config is the root configuration for proxypilot
type Config struct {
	Version string       `yaml:"version"`
	Global  GlobalConfig `yaml:"global"`
	Engine  EngineConfig `yaml:"engine"`
}

// GlobalConfig holds daemon-wide settings
type GlobalConfig struct {
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // json, text
	LogDir    string `yaml:"log_dir"`    // directory for per-domain engine logs

	AuditEnabled bool `yaml:"audit_enabled"`

	APIEnabled *bool  `yaml:"api_enabled"`
	APIPort    int    `yaml:"api_port"`
	APIAuth    string `yaml:"api_auth"`   // bearer token, empty disables auth
	APISocket  string `yaml:"api_socket"` // unix socket path, empty disables the socket listener

	MetricsEnabled  *bool  `yaml:"metrics_enabled"`
	MetricsPort     int    `yaml:"metrics_port"`
	MetricsPath     string `yaml:"metrics_path"`
	MetricsInterval int    `yaml:"metrics_interval"` // seconds between resource collections

	TracingEnabled     bool    `yaml:"tracing_enabled"`
	TracingExporter    string  `yaml:"tracing_exporter"` // otlp-grpc | stdout
	TracingEndpoint    string  `yaml:"tracing_endpoint"`
	TracingSampleRate  float64 `yaml:"tracing_sample_rate"`
	TracingServiceName string  `yaml:"tracing_service_name"`
	TracingUseTLS      bool    `yaml:"tracing_use_tls"`
}

// UpstreamProxy configures chaining through another proxy
type UpstreamProxy struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// EngineConfig describes how the interception engine child process is launched
type EngineConfig struct {
	// Port the engine listens on for intercepted traffic. Readiness is a
	// successful TCP connect to 127.0.0.1:Port.
	Port int `yaml:"port"`

	// Path overrides engine binary discovery when set.
	Path string `yaml:"path"`

	// DevMode switches path resolution to the development layout.
	DevMode bool `yaml:"dev_mode"`

	SSLInsecure   bool          `yaml:"ssl_insecure"`
	UpstreamProxy UpstreamProxy `yaml:"upstream_proxy"`

	// Scripts are the enabled user script paths passed to the engine, in order.
	Scripts []string `yaml:"scripts"`

	RulesDir   string `yaml:"rules_dir"`
	DataDir    string `yaml:"data_dir"`
	CertDir    string `yaml:"cert_dir"`
	ScriptsDir string `yaml:"scripts_dir"` // watched for hot-reload notifications

	// WatchRules enables the fsnotify watcher over RulesDir/ScriptsDir.
	WatchRules bool `yaml:"watch_rules"`
}

// APIEnabledValue returns whether the control API should run (default true)
func (g *GlobalConfig) APIEnabledValue() bool {
	if g.APIEnabled == nil {
		return true
	}
	return *g.APIEnabled
}

// MetricsEnabledValue returns whether the metrics server should run (default true)
func (g *GlobalConfig) MetricsEnabledValue() bool {
	if g.MetricsEnabled == nil {
		return true
	}
	return *g.MetricsEnabled
}
