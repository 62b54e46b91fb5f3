// Package metrics exposes Prometheus counters and gauges for command
// throughput, AOF write activity, and live key counts, grounded on the
// private-registry-plus-promhttp-handler shape used for node health
// reporting in the reference pack (orbas1-Synnergy's
// core/system_health_logging.go), adapted here to a sharded KV store's
// metrics instead of a blockchain node's.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge this process exports, registered
// against a private registry rather than the global default so tests can
// construct independent instances.
type Metrics struct {
	registry *prometheus.Registry

	commandsTotal  *prometheus.CounterVec
	aofWritesTotal prometheus.Counter
	keysGauge      *prometheus.GaugeVec
}

// New builds and registers every metric.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{registry: reg}

	m.commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shardkv_commands_total",
		Help: "Total commands dispatched, labeled by command name and result.",
	}, []string{"command", "result"})

	m.aofWritesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shardkv_aof_writes_total",
		Help: "Total AOF entries appended across all shards.",
	})

	m.keysGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shardkv_keys",
		Help: "Live key count per shard.",
	}, []string{"shard"})

	reg.MustRegister(m.commandsTotal, m.aofWritesTotal, m.keysGauge)

	return m
}

// ObserveCommand records one dispatched command and whether it errored.
func (m *Metrics) ObserveCommand(name string, isError bool) {
	result := "ok"
	if isError {
		result = "error"
	}
	m.commandsTotal.WithLabelValues(name, result).Inc()
}

// ObserveAOFWrite records one successful AOF append.
func (m *Metrics) ObserveAOFWrite() {
	m.aofWritesTotal.Inc()
}

// SetShardKeys records shard id's current active key count.
func (m *Metrics) SetShardKeys(shardID int, activeKeys int64) {
	m.keysGauge.WithLabelValues(strconv.Itoa(shardID)).Set(float64(activeKeys))
}

// Handler returns an http.Handler serving this registry in the
// Prometheus text exposition format, suitable for mounting at
// GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
