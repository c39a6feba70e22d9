// Package metrics records client calls in Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	Namespace string
	Subsystem string
	Buckets   []float64
}

func DefaultConfig() Config {
	return Config{
		Namespace: "gfeign",
		Buckets:   prometheus.DefBuckets,
	}
}

// Collector keeps its metrics in a private registry.
type Collector struct {
	registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Errors   *prometheus.CounterVec
}

func New(cfg Config) *Collector {
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = prometheus.DefBuckets
	}
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "requests_total",
			Help:      "Total number of client requests",
		}, []string{"method_key", "http_method", "status_code"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of client requests in seconds",
			Buckets:   cfg.Buckets,
		}, []string{"method_key", "http_method"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "errors_total",
			Help:      "Total number of failed client calls",
		}, []string{"method_key", "kind"}),
	}
	reg.MustRegister(c.Requests, c.Duration, c.Errors)
	return c
}

// ObserveCall records one finished call. A zero status means the request
// failed before a response arrived.
func (c *Collector) ObserveCall(configKey string, method string, status int, elapsed time.Duration, err error) {
	code := "none"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	c.Requests.WithLabelValues(configKey, method, code).Inc()
	c.Duration.WithLabelValues(configKey, method).Observe(elapsed.Seconds())
	if err != nil {
		kind := "transport"
		if status > 0 {
			kind = "response"
		}
		c.Errors.WithLabelValues(configKey, kind).Inc()
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
