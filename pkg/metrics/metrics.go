// Package metrics 提供 Prometheus 指标采集功能
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "affirm"
)

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// 业务指标 - affirmation 生成
	GenerationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "total",
			Help:      "Total number of affirmation generations by outcome",
		},
		[]string{"provider", "outcome"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Affirmation generation duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "connections",
			Help:      "Number of open affirmation websocket connections",
		},
	)
)

// ObserveGeneration 记录一次生成的结果与耗时，outcome 为 "ok" 或错误类别。
func ObserveGeneration(provider, outcome string, elapsed time.Duration) {
	if provider == "" {
		provider = "unknown"
	}
	GenerationTotal.WithLabelValues(provider, outcome).Inc()
	GenerationDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}
