package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	StepLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "upbit_trader",
			Subsystem: "engine",
			Name:      "step_latency_seconds",
			Help:      "Latency of one full trade evaluation",
			Buckets:   prometheus.DefBuckets,
		},
	)

	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upbit_trader",
			Subsystem: "engine",
			Name:      "decisions_total",
			Help:      "Trade evaluation outcomes by action",
		},
		[]string{"action"},
	)

	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upbit_trader",
			Subsystem: "exchange",
			Name:      "orders_total",
			Help:      "Orders submitted to the exchange by side",
		},
		[]string{"side"},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "upbit_trader",
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Failed upstream calls by service",
		},
		[]string{"service"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(StepLatency, Decisions, Orders, UpstreamErrors)
	})
}
