// Package metrics registers the prometheus collectors shared across the
// bus/star/proxy components, following the single package-level gauge
// registration style bootstrap/server.go uses for pilotVersion.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ActiveProxies is the number of query proxies currently open.
	ActiveProxies = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dasbus_proxies_active",
		Help: "Number of query proxies with an open ephemeral RPC endpoint.",
	})

	// AnswersPushed counts every answer token pushed into a proxy's queue.
	AnswersPushed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dasbus_answers_pushed_total",
		Help: "Total number of answer tokens pushed into query proxy queues.",
	})

	// PortPoolExhausted counts failed port acquisitions.
	PortPoolExhausted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dasbus_port_pool_exhausted_total",
		Help: "Total number of Acquire calls that found no free port.",
	})
)

func init() {
	prometheus.MustRegister(ActiveProxies, AnswersPushed, PortPoolExhausted)
}
