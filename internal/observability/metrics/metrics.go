package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters/histograms for the chat pipelines. Every method is safe
// on a nil receiver so metrics stay optional.
type BotMetrics struct {
	inboundTotal       *prometheus.CounterVec
	routedTotal        *prometheus.CounterVec
	outboundTotal      *prometheus.CounterVec
	completionLatency  *prometheus.HistogramVec
	completionFailures *prometheus.CounterVec
	webhookLatency     *prometheus.HistogramVec
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aria",
			Subsystem: "bots",
			Name:      "inbound_messages_total",
			Help:      "Inbound chat messages by pipeline and message kind",
		}, []string{"pipeline", "kind"}),
		routedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aria",
			Subsystem: "bots",
			Name:      "routed_messages_total",
			Help:      "Routing decisions by pipeline and route",
		}, []string{"pipeline", "route"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aria",
			Subsystem: "bots",
			Name:      "outbound_messages_total",
			Help:      "Out-of-band sends by pipeline and status",
		}, []string{"pipeline", "status"}),
		completionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aria",
			Subsystem: "llm",
			Name:      "completion_latency_seconds",
			Help:      "Latency of completion requests",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"pipeline"}),
		completionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aria",
			Subsystem: "llm",
			Name:      "completion_failures_total",
			Help:      "Failed completion requests by error class",
		}, []string{"pipeline", "class"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aria",
			Subsystem: "bots",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"pipeline"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.routedTotal, m.outboundTotal, m.completionLatency, m.completionFailures, m.webhookLatency)
	return m
}

func (m *BotMetrics) ObserveInbound(pipeline, kind string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(pipeline, kind).Inc()
}

func (m *BotMetrics) ObserveRoute(pipeline, route string) {
	if m == nil {
		return
	}
	m.routedTotal.WithLabelValues(pipeline, route).Inc()
}

func (m *BotMetrics) ObserveOutbound(pipeline string, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.outboundTotal.WithLabelValues(pipeline, status).Inc()
}

// ObserveCompletion records one completion call. class is empty on success.
func (m *BotMetrics) ObserveCompletion(pipeline string, seconds float64, class string) {
	if m == nil {
		return
	}
	m.completionLatency.WithLabelValues(pipeline).Observe(seconds)
	if class != "" {
		m.completionFailures.WithLabelValues(pipeline, class).Inc()
	}
}

func (m *BotMetrics) ObserveWebhookLatency(pipeline string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(pipeline).Observe(seconds)
}
