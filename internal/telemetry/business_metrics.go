package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for checkout-funnel
// observability.
type BusinessMetrics struct {
	// Checkout funnel
	CheckoutStarted *prometheus.CounterVec
	CheckoutStep    *prometheus.CounterVec
	QuoteFetches    *prometheus.CounterVec
	QuoteSuppressed *prometheus.CounterVec
	QuoteLatency    *prometheus.HistogramVec
	PaymentSessions *prometheus.CounterVec
	PaymentOutcomes *prometheus.CounterVec

	// Orders
	OrdersCreated *prometheus.CounterVec
	OrderValue    *prometheus.HistogramVec

	// Cart
	CartUpdated *prometheus.CounterVec

	// Background jobs
	JobsEnqueued  *prometheus.CounterVec
	JobsProcessed *prometheus.CounterVec
	JobsFailed    *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "atlan"
	}

	subsystem := "business"

	return &BusinessMetrics{
		CheckoutStarted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Total checkout sessions started",
			},
			[]string{"shop_id"},
		),
		CheckoutStep: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_step_total",
				Help:      "Checkout step transitions",
			},
			[]string{"step"},
		),
		QuoteFetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "carrier_quote_fetches_total",
				Help:      "Carrier quote fetches by outcome",
			},
			[]string{"outcome"}, // ok, unavailable, empty
		),
		QuoteSuppressed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "carrier_quote_suppressed_total",
				Help:      "Quote fetches skipped by debounce, dedup or key match",
			},
			[]string{"reason"}, // debounced, in_flight, same_key
		),
		QuoteLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "carrier_quote_latency_seconds",
				Help:      "Carrier quote fetch latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		PaymentSessions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_sessions_total",
				Help:      "Hosted payment sessions created",
			},
			[]string{"gateway"},
		),
		PaymentOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_outcomes_total",
				Help:      "Terminal payment callback statuses",
			},
			[]string{"status"},
		),
		OrdersCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Orders created by payment method",
			},
			[]string{"payment_method"},
		),
		OrderValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_sar",
				Help:      "Order grand totals in SAR",
				Buckets:   []float64{50, 100, 200, 400, 800, 1600, 3200},
			},
			[]string{"payment_method"},
		),
		CartUpdated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_updates_total",
				Help:      "Cart mutations by action",
			},
			[]string{"action"}, // add, update, remove, clear
		),
		JobsEnqueued: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_enqueued_total",
				Help:      "Background jobs enqueued",
			},
			[]string{"job_type"},
		),
		JobsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_processed_total",
				Help:      "Background jobs completed",
			},
			[]string{"job_type"},
		),
		JobsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_failed_total",
				Help:      "Background job failures",
			},
			[]string{"job_type"},
		),
	}
}

// Business is the global metrics instance. Nil until InitBusinessMetrics
// runs; call sites guard with `if telemetry.Business != nil`.
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}
