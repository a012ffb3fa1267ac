// Package metrics exposes Prometheus instrumentation for the engine
// supervisor and serves it over a local scrape endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine lifecycle
	EngineUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proxypilot_engine_up",
			Help: "Engine status (1=running, 0=stopped)",
		},
	)

	EngineActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proxypilot_engine_active",
			Help: "Traffic processing flag (1=active, 0=paused)",
		},
	)

	EngineStarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proxypilot_engine_starts_total",
			Help: "Total number of successful engine starts",
		},
	)

	EngineCrashes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proxypilot_engine_crashes_total",
			Help: "Total number of unexpected engine exits",
		},
	)

	// Resource usage, aggregated over the whole application process tree
	EngineMemoryBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proxypilot_engine_memory_bytes",
			Help: "Resident memory of the application process tree in bytes",
		},
	)

	EngineCPUPercent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proxypilot_engine_cpu_percent",
			Help: "CPU usage of the application process tree, normalized by core count",
		},
	)

	EngineUptimeSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proxypilot_engine_uptime_seconds",
			Help: "Uptime of the supervisor process in seconds",
		},
	)

	NetworkRxBytesPerSecond = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proxypilot_network_rx_bytes_per_second",
			Help: "Aggregate receive rate across network interfaces",
		},
	)

	NetworkTxBytesPerSecond = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proxypilot_network_tx_bytes_per_second",
			Help: "Aggregate transmit rate across network interfaces",
		},
	)

	// Rule hot-reload
	RuleReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proxypilot_rule_reloads_total",
			Help: "Total number of rule reload notifications sent to the engine",
		},
	)

	// Build info
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "proxypilot_build_info",
			Help: "Build information (always 1)",
		},
		[]string{"version", "commit"},
	)
)

// SetBuildInfo records version metadata as a constant gauge.
func SetBuildInfo(version, commit string) {
	BuildInfo.WithLabelValues(version, commit).Set(1)
}
