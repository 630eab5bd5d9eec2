package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks the cart/checkout pipeline.
type StoreMetrics struct {
	checkoutsCompleted prometheus.Counter
	checkoutsFailed    prometheus.Counter
	checkoutDuration   prometheus.Histogram
	stockRejections    prometheus.Counter
	cartMutations      *prometheus.CounterVec
	orderStatusChanges *prometheus.CounterVec
}

func NewStoreMetrics() *StoreMetrics {
	return newStoreMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newStoreMetricsWithRegisterer(registerer prometheus.Registerer) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StoreMetrics{
		checkoutsCompleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_checkouts_completed_total",
			Help: "Total number of carts converted into orders",
		}),
		checkoutsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_checkouts_failed_total",
			Help: "Total number of checkout attempts that failed",
		}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "store_checkout_duration_seconds",
			Help:    "Duration of checkout workflow in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stockRejections: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_stock_rejections_total",
			Help: "Total number of operations rejected for insufficient stock",
		}),
		cartMutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "store_cart_mutations_total",
			Help: "Total cart mutations by operation",
		}, []string{"op"}),
		orderStatusChanges: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "store_order_status_changes_total",
			Help: "Total order status transitions by target status",
		}, []string{"status"}),
	}
}

// Methods are nil-safe so wiring metrics stays optional in tests.

func (m *StoreMetrics) CheckoutCompleted(d time.Duration) {
	if m == nil {
		return
	}
	m.checkoutsCompleted.Inc()
	m.checkoutDuration.Observe(d.Seconds())
}

func (m *StoreMetrics) CheckoutFailed() {
	if m == nil {
		return
	}
	m.checkoutsFailed.Inc()
}

func (m *StoreMetrics) StockRejected() {
	if m == nil {
		return
	}
	m.stockRejections.Inc()
}

func (m *StoreMetrics) CartMutated(op string) {
	if m == nil {
		return
	}
	m.cartMutations.WithLabelValues(op).Inc()
}

func (m *StoreMetrics) OrderStatusChanged(status string) {
	if m == nil {
		return
	}
	m.orderStatusChanges.WithLabelValues(status).Inc()
}

func registerCounter(r prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := r.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Counter)
		}
		panic(err)
	}
	return c
}

func registerCounterVec(r prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := r.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		panic(err)
	}
	return c
}

func registerHistogram(r prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	if err := r.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(prometheus.Histogram)
		}
		panic(err)
	}
	return h
}
