package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics exposes counters/histograms for the WhatsApp relay.
type RelayMetrics struct {
	inboundTotal   *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	llmCalls       *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	webhookLatency *prometheus.HistogramVec
}

func NewRelayMetrics(reg prometheus.Registerer) *RelayMetrics {
	m := &RelayMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoatende",
			Subsystem: "relay",
			Name:      "inbound_messages_total",
			Help:      "Inbound WhatsApp messages by processing outcome",
		}, []string{"outcome"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoatende",
			Subsystem: "relay",
			Name:      "outbound_total",
			Help:      "Outbound WhatsApp sends",
		}, []string{"status"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoatende",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "LLM calls by purpose and outcome",
		}, []string{"purpose", "outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "autoatende",
			Subsystem: "llm",
			Name:      "call_latency_seconds",
			Help:      "Latency of LLM calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"purpose"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "autoatende",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of WhatsApp webhook handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.llmCalls, m.llmLatency, m.webhookLatency)
	return m
}

func (m *RelayMetrics) ObserveInbound(outcome string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(outcome).Inc()
}

func (m *RelayMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}

// ObserveLLMCall records one backend call. purpose is e.g. "reply" or "intent".
func (m *RelayMetrics) ObserveLLMCall(purpose, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(purpose, outcome).Inc()
	m.llmLatency.WithLabelValues(purpose).Observe(seconds)
}

func (m *RelayMetrics) ObserveWebhook(method string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(method, strconv.Itoa(status)).Observe(seconds)
}
