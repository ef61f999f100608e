package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector tracks transaction outcomes and bank gateway latency.
// A nil *Collector is valid and records nothing.
type Collector struct {
	transactions   *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
}

func New(namespace string, reg prometheus.Registerer) *Collector {
	c := &Collector{
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Total number of processed transactions by kind and terminal status",
			},
			[]string{"kind", "status"},
		),
		gatewayLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "bank_gateway_seconds",
				Help:      "Bank gateway settlement call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(c.transactions, c.gatewayLatency)

	return c
}

func (c *Collector) RecordTransaction(kind string, status string) {
	if c == nil {
		return
	}
	c.transactions.WithLabelValues(kind, status).Inc()
}

func (c *Collector) ObserveGateway(operation string, d time.Duration) {
	if c == nil {
		return
	}
	c.gatewayLatency.WithLabelValues(operation).Observe(d.Seconds())
}
