package viber

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK             = "ok"
	outcomeRemoteError    = "remote_error"
	outcomeTransportError = "transport_error"
	outcomeConfigError    = "config_error"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "viber_client",
			Name:      "requests_total",
			Help:      "API calls by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "viber_client",
			Name:      "request_duration_seconds",
			Help:      "Wall time of API calls, including body decoding.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

func observe(endpoint, outcome string, start time.Time) {
	requestsTotal.WithLabelValues(endpoint, outcome).Inc()
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
