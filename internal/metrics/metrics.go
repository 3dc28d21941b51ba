package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics stores Prometheus collectors used across the service.
type Metrics struct {
	PurchaseRequests *prometheus.CounterVec
	WebhookEvents    *prometheus.CounterVec
	VendorRequests   *prometheus.CounterVec
	VendorLatency    *prometheus.HistogramVec
	WalletCredits    prometheus.Counter
	Errors           *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry builds and registers the metrics singleton with optional namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			PurchaseRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "purchase_requests_total",
				Help:      "Total purchase requests by transaction type and outcome.",
			}, []string{"type", "outcome"}),
			WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Total inbound webhook events by source and event name.",
			}, []string{"source", "event"}),
			VendorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vendor_requests_total",
				Help:      "Total upstream vendor API requests by vendor, operation and status.",
			}, []string{"vendor", "op", "status"}),
			VendorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "vendor_request_duration_seconds",
				Help:      "Latency distribution for upstream vendor API calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"vendor", "op"}),
			WalletCredits: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "wallet_credits_total",
				Help:      "Total funding credits applied from gateway webhooks.",
			}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total errors grouped by component.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.PurchaseRequests,
			metricsInstance.WebhookEvents,
			metricsInstance.VendorRequests,
			metricsInstance.VendorLatency,
			metricsInstance.WalletCredits,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}
