package payments

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds payment counters. A nil *Metrics records nothing.
type Metrics struct {
	intents  prometheus.Counter
	results  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewMetrics creates the payment collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		intents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "payments_intents_created_total",
			Help: "Payment intents created",
		}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_results_recorded_total",
			Help: "Payment results recorded, by resulting status",
		}, []string{"status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_failures_total",
			Help: "Payment operations that failed, by stage",
		}, []string{"stage"}),
	}
	reg.MustRegister(m.intents, m.results, m.failures)
	return m
}

// RegisterHubMetrics exposes the stream hub's live counters on reg.
func RegisterHubMetrics(reg prometheus.Registerer, hub *Hub) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "payments_stream_subscribers",
			Help: "Open payment status stream connections",
		}, func() float64 {
			subs, _ := hub.Stats()
			return float64(subs)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "payments_stream_dropped_events_total",
			Help: "Status events dropped because a subscriber outbox was full",
		}, func() float64 {
			_, dropped := hub.Stats()
			return float64(dropped)
		}),
	)
}

func (m *Metrics) created() {
	if m == nil {
		return
	}
	m.intents.Inc()
}

func (m *Metrics) result(status string) {
	if m == nil {
		return
	}
	m.results.WithLabelValues(status).Inc()
}

func (m *Metrics) failure(stage string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(stage).Inc()
}
