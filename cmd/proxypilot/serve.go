package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/proxypilot/proxypilot/internal/api"
	"github.com/proxypilot/proxypilot/internal/audit"
	"github.com/proxypilot/proxypilot/internal/config"
	"github.com/proxypilot/proxypilot/internal/engine"
	"github.com/proxypilot/proxypilot/internal/logger"
	"github.com/proxypilot/proxypilot/internal/metrics"
	"github.com/proxypilot/proxypilot/internal/rules"
	"github.com/proxypilot/proxypilot/internal/signals"
	"github.com/proxypilot/proxypilot/internal/stats"
	"github.com/proxypilot/proxypilot/internal/tracing"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the supervisor daemon",
	Long: `Start ProxyPilot in daemon mode.

This is the default mode when no subcommand is specified. It exposes the
control API and metrics endpoint, and manages the interception engine
child process on demand. The engine itself is started through the API
(or immediately with --start-engine).`,
	Run: runServe,
}

var (
	dryRun      bool
	startEngine bool
)

func init() {
	serveCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate configuration and engine discovery without starting anything")
	serveCmd.Flags().BoolVar(&startEngine, "start-engine", false, "Start the engine immediately instead of waiting for an API call")
}

func runServe(cmd *cobra.Command, args []string) {
	cfgPath := getConfigPath()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if dryRun {
		runDryRun(cfg, cfgPath)
		return
	}

	// Initialize structured logger
	log := logger.New(cfg.Global.LogLevel, cfg.Global.LogFormat)
	slog.SetDefault(log)

	slog.Info("ProxyPilot starting",
		"version", version,
		"pid", os.Getpid(),
		"engine_port", cfg.Engine.Port,
		"log_level", cfg.Global.LogLevel,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize distributed tracing
	tracingProvider, err := tracing.NewProvider(ctx, tracing.Config{
		Enabled:     cfg.Global.TracingEnabled,
		Exporter:    cfg.Global.TracingExporter,
		Endpoint:    cfg.Global.TracingEndpoint,
		SampleRate:  cfg.Global.TracingSampleRate,
		ServiceName: cfg.Global.TracingServiceName,
		Version:     version,
		UseTLS:      cfg.Global.TracingUseTLS,
	}, log)
	if err != nil {
		slog.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Tracing shutdown error", "error", err)
		}
	}()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// Zombie reaping only matters as container init. Outside PID 1 the
	// supervisor's own waiter reaps the engine.
	if signals.IsPID1() {
		go signals.ReapZombies()
	}

	// Create audit logger
	auditLogger := audit.NewLogger(log, cfg.Global.AuditEnabled)

	// Per-domain log sink for engine output
	sink, err := logger.NewFileSink(cfg.Global.LogDir, log)
	if err != nil {
		slog.Error("Failed to open log sink", "error", err, "dir", cfg.Global.LogDir)
		os.Exit(1)
	}
	defer sink.Close()

	// Create the engine supervisor
	layout := engine.NewLayout(cfg.Engine.DevMode)
	supervisor := engine.NewSupervisor(&cfg.Engine, layout, sink, auditLogger, log)

	// Resource sampling over the daemon's process tree
	sampler := stats.NewSampler(int32(os.Getpid()), log)
	history := metrics.NewHistoryBuffer(0)
	collector := metrics.NewCollector(sampler, history, time.Duration(cfg.Global.MetricsInterval)*time.Second, log)
	go collector.Run(ctx)

	// Start metrics server
	var metricsServer *metrics.Server
	if cfg.Global.MetricsEnabledValue() {
		metricsServer = startMetricsServer(ctx, cfg, log)
	}

	// Start control API server
	var apiServer *api.Server
	if cfg.Global.APIEnabledValue() {
		apiServer = startAPIServer(ctx, cfg, supervisor, sampler, history, auditLogger, log)
	}

	// Watch rule and script directories for hot-reload
	var ruleWatcher *rules.Watcher
	if cfg.Engine.WatchRules {
		ruleWatcher = startRuleWatcher(ctx, cfg, supervisor, auditLogger, log)
		if ruleWatcher != nil {
			defer ruleWatcher.Stop()
		}
	}

	auditLogger.SystemStarted(version)

	if startEngine {
		startCtx, startCancel := context.WithTimeout(ctx, 150*time.Second)
		if err := supervisor.Start(startCtx, nil); err != nil {
			slog.Error("Initial engine start failed", "error", err)
		}
		startCancel()
	}

	// Wait for shutdown signal
	sig := <-sigChan
	reason := fmt.Sprintf("signal: %s", sig.String())
	slog.Info("Received shutdown signal", "signal", sig.String())

	performGracefulShutdown(supervisor, apiServer, metricsServer, auditLogger, reason)
}

// runDryRun validates configuration and engine discovery without starting
func runDryRun(cfg *config.Config, cfgPath string) {
	log := logger.New(cfg.Global.LogLevel, cfg.Global.LogFormat)
	slog.SetDefault(log)

	fmt.Fprintf(os.Stderr, "DRY RUN - validating configuration without starting the daemon\n\n")
	fmt.Fprintf(os.Stderr, "Configuration loaded: %s\n", cfgPath)
	fmt.Fprintf(os.Stderr, "Engine port: %d\n", cfg.Engine.Port)
	fmt.Fprintf(os.Stderr, "Log dir: %s\n", cfg.Global.LogDir)

	layout := engine.NewLayout(cfg.Engine.DevMode)
	if cfg.Engine.Path != "" {
		fmt.Fprintf(os.Stderr, "Engine binary (configured): %s\n", cfg.Engine.Path)
	} else if path, err := layout.EnginePath(); err == nil {
		fmt.Fprintf(os.Stderr, "Engine binary: %s\n", path)
	} else {
		fmt.Fprintf(os.Stderr, "Engine binary: NOT FOUND (engine start will fail)\n")
	}
	if path, err := layout.EntryAddonPath(); err == nil {
		fmt.Fprintf(os.Stderr, "Entry addon: %s\n", path)
	} else {
		fmt.Fprintf(os.Stderr, "Entry addon: NOT FOUND (engine start will fail)\n")
	}

	fmt.Fprintf(os.Stderr, "\nConfiguration is valid\n")
	os.Exit(0)
}

// startMetricsServer starts the Prometheus metrics server
func startMetricsServer(ctx context.Context, cfg *config.Config, log *slog.Logger) *metrics.Server {
	server := metrics.NewServer(cfg.Global.MetricsPort, cfg.Global.MetricsPath, log)
	if err := server.Start(ctx); err != nil {
		slog.Warn("Failed to start metrics server (continuing without metrics)", "error", err)
		return nil
	}

	slog.Info("Metrics server started",
		"port", cfg.Global.MetricsPort,
		"path", cfg.Global.MetricsPath,
	)

	metrics.SetBuildInfo(version, commit)
	return server
}

// startAPIServer starts the control API server
func startAPIServer(ctx context.Context, cfg *config.Config, supervisor *engine.Supervisor, sampler *stats.Sampler, history *metrics.HistoryBuffer, auditLogger *audit.Logger, log *slog.Logger) *api.Server {
	server := api.NewServer(cfg.Global.APIPort, cfg.Global.APISocket, cfg.Global.APIAuth, supervisor, sampler, history, cfg.Global.LogDir, auditLogger, log)
	if err := server.Start(ctx); err != nil {
		slog.Warn("Failed to start API server (remote control disabled)", "error", err)
		return nil
	}

	slog.Info("API server started",
		"port", cfg.Global.APIPort,
		"socket", cfg.Global.APISocket,
		"auth", cfg.Global.APIAuth != "",
	)

	return server
}

// startRuleWatcher wires filesystem changes under the rule and script
// directories to engine reload notifications
func startRuleWatcher(ctx context.Context, cfg *config.Config, supervisor *engine.Supervisor, auditLogger *audit.Logger, log *slog.Logger) *rules.Watcher {
	paths := []string{}
	if cfg.Engine.RulesDir != "" {
		paths = append(paths, cfg.Engine.RulesDir)
	}
	if cfg.Engine.ScriptsDir != "" {
		paths = append(paths, cfg.Engine.ScriptsDir)
	}
	if len(paths) == 0 {
		slog.Warn("watch_rules enabled but no rules_dir or scripts_dir configured")
		return nil
	}

	watcher, err := rules.New(rules.Config{
		Paths: paths,
		Handler: func(path string) {
			slog.Info("Rule change detected", "path", path)
			supervisor.NotifyRulesChanged()
			auditLogger.RulesReloaded(path)
			metrics.RuleReloads.Inc()
		},
		Logger: log,
	})
	if err != nil {
		slog.Error("Failed to create rule watcher", "error", err)
		return nil
	}

	if err := watcher.Start(ctx); err != nil {
		slog.Warn("Rule watcher not started", "error", err)
		return nil
	}

	slog.Info("Rule watcher started", "paths", paths)
	return watcher
}

// performGracefulShutdown tears down all components
func performGracefulShutdown(supervisor *engine.Supervisor, apiServer *api.Server, metricsServer *metrics.Server, auditLogger *audit.Logger, reason string) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	slog.Info("Initiating graceful shutdown", "reason", reason)

	// The engine has no state worth a cooperative drain on daemon exit,
	// so kill the tree without waiting on port release.
	if err := supervisor.Terminate(); err != nil {
		slog.Warn("Engine terminate error", "error", err)
	}

	if apiServer != nil {
		if err := apiServer.Stop(shutdownCtx); err != nil {
			slog.Warn("API server shutdown error", "error", err)
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("Metrics server shutdown error", "error", err)
		}
	}

	auditLogger.SystemShutdown(reason)

	slog.Info("ProxyPilot shutdown complete")
}
