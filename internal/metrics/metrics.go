package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "portal_"

	ResultSuccess      = "success"
	ResultError        = "error"
	ResultUnauthorized = "unauthorized"
	ResultNotFound     = "not_found"
)

var (
	registerOnce sync.Once

	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec

	exportTotal *prometheus.CounterVec

	paymentRecords *prometheus.CounterVec
	verifiedPaid   prometheus.Counter
)

// Init registers the gateway metrics with the default registry. Safe to call
// more than once.
func Init() {
	registerOnce.Do(func() {
		backendRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "backend_requests_total",
				Help: "Total barangay backend requests by endpoint and result",
			},
			[]string{"endpoint", "result"},
		)
		backendLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "backend_latency_seconds",
				Help:    "Barangay backend request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total table exports by kind, format and result",
			},
			[]string{"kind", "format", "result"},
		)
		paymentRecords = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "payment_records_total",
				Help: "Utility payment records built by derived status",
			},
			[]string{"status"},
		)
		verifiedPaid = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "verified_paid_total",
				Help: "Records matched to a ledger transaction by the advisory cross-reference",
			},
		)

		prometheus.MustRegister(backendRequests, backendLatency, exportTotal, paymentRecords, verifiedPaid)
	})
}

// ObserveBackend records one backend call.
func ObserveBackend(endpoint, result string, elapsed time.Duration) {
	Init()
	backendRequests.WithLabelValues(endpoint, result).Inc()
	backendLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveExport records one export attempt.
func ObserveExport(kind, format string, err error) {
	Init()
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	exportTotal.WithLabelValues(kind, format, result).Inc()
}

// ObservePaymentRecord counts a built record by status.
func ObservePaymentRecord(status string) {
	Init()
	paymentRecords.WithLabelValues(status).Inc()
}

// ObserveVerifiedPaid counts records the cross-reference marked verified.
func ObserveVerifiedPaid(n int) {
	if n <= 0 {
		return
	}
	Init()
	verifiedPaid.Add(float64(n))
}
