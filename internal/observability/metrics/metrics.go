package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics exposes counters/histograms for the webhook relay flow.
type RelayMetrics struct {
	inboundTotal    *prometheus.CounterVec
	generationTotal *prometheus.CounterVec
	deliveryTotal   *prometheus.CounterVec
	webhookLatency  *prometheus.HistogramVec
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whatsrelay",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Inbound webhook events by classification",
		}, []string{"classification"}),
		generationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whatsrelay",
			Subsystem: "reply",
			Name:      "generation_total",
			Help:      "Reply generation attempts",
		}, []string{"status"}),
		deliveryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whatsrelay",
			Subsystem: "reply",
			Name:      "delivery_total",
			Help:      "Outbound message deliveries",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "whatsrelay",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of webhook event processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"classification"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.generationTotal, m.deliveryTotal, m.webhookLatency)
	return m
}

func (m *RelayMetrics) ObserveInbound(classification string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(classification).Inc()
}

func (m *RelayMetrics) ObserveGeneration(status string) {
	if m == nil {
		return
	}
	m.generationTotal.WithLabelValues(status).Inc()
}

func (m *RelayMetrics) ObserveDelivery(status string) {
	if m == nil {
		return
	}
	m.deliveryTotal.WithLabelValues(status).Inc()
}

func (m *RelayMetrics) ObserveWebhookLatency(classification string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(classification).Observe(seconds)
}
