// Package metrics exposes the Prometheus registry and instruments served
// at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "calagora"

// Registry collects every instrument in this package.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// AppInfo exposes build information as labels on a constant gauge.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always 1, version info in labels)",
	},
	[]string{"version", "commit"},
)

// DocumentOperationsTotal counts document store operations by collection
// and outcome.
var DocumentOperationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "document_operations_total",
		Help:      "Total number of document store operations",
	},
	[]string{"collection", "operation", "outcome"},
)

// ValidationFailuresTotal counts requests rejected by payload validation.
var ValidationFailuresTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "validation_failures_total",
		Help:      "Total number of requests rejected by payload validation",
	},
	[]string{"resource"},
)

// LoginsTotal counts completed OAuth logins by outcome.
var LoginsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of OAuth login attempts",
	},
	[]string{"outcome"},
)
