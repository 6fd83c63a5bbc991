// Package metrics provides Prometheus metrics collection for familyhub.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "familyhub"

// Collector holds all Prometheus metrics for familyhub.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Input and data metrics
	ValidationFailures *prometheus.CounterVec
	CodecErrors        *prometheus.CounterVec
	RewardCoins        prometheus.Counter

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
// Tests pass a fresh prometheus.NewRegistry() to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of API requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Inputs rejected by schema validation",
			},
			[]string{"entity", "operation"},
		),
		CodecErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "codec_errors_total",
				Help:      "Stored serialized columns that failed to decode",
			},
			[]string{"column"},
		),
		RewardCoins: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reward_coins_total",
				Help:      "Coins awarded to couples",
			},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Successful configuration reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Failed configuration reloads",
			},
		),
	}
}

// ObserveRequest records one finished request. route is the router
// pattern, never the raw path, to bound label cardinality.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ValidationFailed counts a rejected input.
func (c *Collector) ValidationFailed(entity, operation string) {
	c.ValidationFailures.WithLabelValues(entity, operation).Inc()
}

// CodecFailed counts a stored column that could not be decoded.
func (c *Collector) CodecFailed(column string) {
	c.CodecErrors.WithLabelValues(column).Inc()
}

// CoinsAwarded adds to the awarded coin total.
func (c *Collector) CoinsAwarded(n int) {
	c.RewardCoins.Add(float64(n))
}

// ConfigReloaded counts a reload attempt.
func (c *Collector) ConfigReloaded(err error) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ValidationFailed(string, string) {}
func (Nop) CodecFailed(string)              {}
func (Nop) CoinsAwarded(int)                {}
