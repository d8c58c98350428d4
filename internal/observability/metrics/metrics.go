package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for conversation flows.
type ChatMetrics struct {
	messagesTotal      *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	cacheTotal         *prometheus.CounterVec
	bookingsTotal      *prometheus.CounterVec
	leadsTotal         *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "conversation",
			Name:      "messages_total",
			Help:      "Total inbound messages by routed path",
		}, []string{"path"}),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatbot",
			Subsystem: "conversation",
			Name:      "generation_duration_seconds",
			Help:      "Latency of generation backend calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "conversation",
			Name:      "response_cache_total",
			Help:      "Response cache lookups by outcome",
		}, []string{"outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		leadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "leads",
			Name:      "created_total",
			Help:      "Leads created by source",
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.generationDuration, m.cacheTotal, m.bookingsTotal, m.leadsTotal)
	return m
}

func (m *ChatMetrics) ObserveMessage(path string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(path).Inc()
}

func (m *ChatMetrics) ObserveGeneration(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.generationDuration.WithLabelValues(kind).Observe(seconds)
}

func (m *ChatMetrics) ObserveCache(outcome string) {
	if m == nil {
		return
	}
	m.cacheTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveLead(source string) {
	if m == nil {
		return
	}
	m.leadsTotal.WithLabelValues(source).Inc()
}
