package httpx

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

func (r *Router) initMetrics() {
	r.metricsOnce.Do(func() {
		r.requestTotal = registerCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route and status.",
		}, []string{"method", "route", "status"})

		r.requestLatency = registerHistogramVec(prometheus.HistogramOpts{
			Namespace: "fintrack",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Handler latency in seconds.",
			Buckets:   latencyBuckets,
		}, []string{"method", "route", "status"})

		r.rateLimitHits = registerCounterVec(prometheus.CounterOpts{
			Namespace: "fintrack",
			Subsystem: "api",
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"route", "key"})

		r.metricsInitialized = true
	})
}

// Routers built in the same process (tests mostly) share collectors.
func registerCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(opts, labels)
	if err := prometheus.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return vec
}

func registerHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	vec := prometheus.NewHistogramVec(opts, labels)
	if err := prometheus.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
	}
	return vec
}

func (r *Router) recordRequestMetrics(method, route string, status int, duration time.Duration) {
	if !r.metricsInitialized {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	r.requestTotal.With(labels).Inc()
	r.requestLatency.With(labels).Observe(duration.Seconds())
}

func (r *Router) recordRateLimitHit(route, key string) {
	if !r.metricsInitialized {
		return
	}
	r.rateLimitHits.With(prometheus.Labels{"route": route, "key": key}).Inc()
}
