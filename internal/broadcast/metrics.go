package broadcast

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the relay's Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	clients        *prometheus.GaugeVec
	received       *prometheus.CounterVec
	receivedBytes  *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	deliveredBytes *prometheus.CounterVec
	failures       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	labels := []string{"transport"}

	return &Metrics{
		clients: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "onyxnet",
			Subsystem: "relay",
			Name:      "clients",
			Help:      "Currently connected clients",
		}, labels),
		received: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onyxnet",
			Subsystem: "relay",
			Name:      "inbound_units_total",
			Help:      "Lines or frames received from clients",
		}, labels),
		receivedBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onyxnet",
			Subsystem: "relay",
			Name:      "inbound_bytes_total",
			Help:      "Bytes received from clients",
		}, labels),
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onyxnet",
			Subsystem: "relay",
			Name:      "deliveries_total",
			Help:      "Successful per-recipient sends",
		}, labels),
		deliveredBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onyxnet",
			Subsystem: "relay",
			Name:      "delivered_bytes_total",
			Help:      "Bytes handed to recipients",
		}, labels),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onyxnet",
			Subsystem: "relay",
			Name:      "delivery_failures_total",
			Help:      "Per-recipient sends that failed and dropped the client",
		}, labels),
	}
}

func (m *Metrics) clientConnected(k Kind) {
	if m != nil {
		m.clients.WithLabelValues(k.String()).Inc()
	}
}

func (m *Metrics) clientDisconnected(k Kind) {
	if m != nil {
		m.clients.WithLabelValues(k.String()).Dec()
	}
}

func (m *Metrics) unitReceived(k Kind, n int) {
	if m != nil {
		m.received.WithLabelValues(k.String()).Inc()
		m.receivedBytes.WithLabelValues(k.String()).Add(float64(n))
	}
}

func (m *Metrics) delivered(k Kind, n int) {
	if m != nil {
		m.deliveries.WithLabelValues(k.String()).Inc()
		m.deliveredBytes.WithLabelValues(k.String()).Add(float64(n))
	}
}

func (m *Metrics) deliveryFailed(k Kind) {
	if m != nil {
		m.failures.WithLabelValues(k.String()).Inc()
	}
}

// MetricsHandler serves g on /metrics.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}
