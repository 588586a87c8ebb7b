package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "admissions"

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeReused  = "reused"
)

var (
	// Registry holds the service's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Status transition attempts by target status and outcome.",
		},
		[]string{"to", "outcome"},
	)

	letters = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "letters_total",
			Help:      "EnsureLetter calls by letter type and outcome (success = generated, reused = already stored).",
		},
		[]string{"letter_type", "outcome"},
	)

	letterDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "documents",
			Name:      "generation_duration_seconds",
			Help:      "Duration of document generation calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"letter_type"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Notification deliveries by channel, audience and outcome.",
		},
		[]string{"channel", "audience", "outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		transitions,
		letters,
		letterDuration,
		notifications,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted tracks an in-flight request and returns the func that records its completion.
func RequestStarted(method, path string) func(status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(status int) {
		httpInFlight.Dec()
		httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition counts a transition attempt
func RecordTransition(to string, err error) {
	transitions.WithLabelValues(to, outcome(err)).Inc()
}

// RecordLetter counts an EnsureLetter result
func RecordLetter(letterType, outcome string) {
	letters.WithLabelValues(letterType, outcome).Inc()
}

// ObserveGeneration records how long a generator call took
func ObserveGeneration(letterType string, d time.Duration) {
	letterDuration.WithLabelValues(letterType).Observe(d.Seconds())
}

// RecordNotification counts a delivery attempt
func RecordNotification(channel, audience string, err error) {
	notifications.WithLabelValues(channel, audience, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
