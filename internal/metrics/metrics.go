package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the statement pipeline. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ExtractRequests   *prometheus.CounterVec
	ExtractLatency    prometheus.Histogram
	StatementsSaved   *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
	Verifications     *prometheus.CounterVec
	AttemptsThrottled prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ExtractRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nfp_statement_extract_total",
			Help: "Statement field extractions, labeled by outcome",
		}, []string{"outcome"}),
		ExtractLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nfp_statement_extract_latency_seconds",
			Help:    "Latency of statement field extraction in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		StatementsSaved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nfp_statements_saved_total",
			Help: "Statement saves, labeled by outcome",
		}, []string{"outcome"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nfp_statement_notifications_total",
			Help: "Statement notifications, labeled by per-statement result",
		}, []string{"result"}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nfp_statement_verifications_total",
			Help: "Passcode verifications, labeled by outcome",
		}, []string{"outcome"}),
		AttemptsThrottled: factory.NewCounter(prometheus.CounterOpts{
			Name: "nfp_statement_verifications_throttled_total",
			Help: "Verification attempts rejected by the per-statement attempt limit",
		}),
	}
}

func (m *Metrics) ObserveExtract(outcome string, latency time.Duration) {
	if m == nil {
		return
	}
	m.ExtractRequests.WithLabelValues(outcome).Inc()
	m.ExtractLatency.Observe(latency.Seconds())
}

func (m *Metrics) IncSaved(outcome string) {
	if m == nil {
		return
	}
	m.StatementsSaved.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncNotification(result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(result).Inc()
}

func (m *Metrics) IncVerification(outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncThrottled() {
	if m == nil {
		return
	}
	m.AttemptsThrottled.Inc()
}
