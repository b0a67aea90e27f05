package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "graby"

// Metrics records business events. It satisfies service.Recorder.
type Metrics struct {
	redirects    *prometheus.CounterVec
	clickFailed  prometheus.Counter
	creditsAdded prometheus.Counter
	linksSwept   prometheus.Counter
}

// NewRegistry returns a registry preloaded with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Redirect attempts by outcome.",
		}, []string{"outcome"}),
		clickFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "click_log_failures_total",
			Help:      "Click logs that could not be recorded.",
		}),
		creditsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credits_added_total",
			Help:      "Credits added to user balances.",
		}),
		linksSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_swept_total",
			Help:      "Expired links deleted by the sweeper.",
		}),
	}
	reg.MustRegister(m.redirects, m.clickFailed, m.creditsAdded, m.linksSwept)
	return m
}

// RedirectOutcome counts one redirect attempt by outcome label.
func (m *Metrics) RedirectOutcome(outcome string) {
	m.redirects.WithLabelValues(outcome).Inc()
}

// ClickLogFailed counts a click log that could not be handed off.
func (m *Metrics) ClickLogFailed() {
	m.clickFailed.Inc()
}

// CreditsAdded adds a top-up amount to the purchased credits counter.
func (m *Metrics) CreditsAdded(amount int64) {
	m.creditsAdded.Add(float64(amount))
}

// LinksSwept adds the number of expired links removed by one sweep.
func (m *Metrics) LinksSwept(count int64) {
	m.linksSwept.Add(float64(count))
}
