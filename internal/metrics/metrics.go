package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skladik",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint, method and status.",
		},
		[]string{"endpoint", "method", "status"},
	)

	storeEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skladik",
			Name:      "store_events_total",
			Help:      "Store mutations by event type.",
		},
		[]string{"event"},
	)

	itemsInStore = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "skladik",
			Name:      "items_in_store",
			Help:      "Number of items currently stored.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, storeEvents, itemsInStore)
	})
}

// IncHTTP increments the request counter for an endpoint label.
func IncHTTP(endpoint, method, status string) {
	httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// IncStoreEvent increments the counter for a store event type.
func IncStoreEvent(event string) {
	storeEvents.WithLabelValues(event).Inc()
}

// SetItemsInStore records the current size of the item store.
func SetItemsInStore(n int) {
	itemsInStore.Set(float64(n))
}
