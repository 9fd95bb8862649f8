package pgv2

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus instrumentation for a connection core, in
// the shape of JeelKantaria-db-bouncer/internal/metrics: a self-contained
// registry so creating one never collides with another package's default
// registerer, and safe to call repeatedly (e.g. once per test).
type Metrics struct {
	Registry *prometheus.Registry

	authAttempts   *prometheus.CounterVec
	queriesTotal   prometheus.Counter
	queryErrors    prometheus.Counter
	queryDuration  prometheus.Histogram
	warningsTotal  prometheus.Counter
	notifications  prometheus.Counter
}

// NewMetrics creates and registers a fresh set of counters/histograms.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pgv2_auth_attempts_total",
			Help: "Authentication attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		queriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pgv2_queries_total",
			Help: "Queries executed.",
		}),
		queryErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pgv2_query_errors_total",
			Help: "Queries that ended in an ErrorResponse (SQLError).",
		}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pgv2_query_duration_seconds",
			Help:    "Wall-clock time spent in the Query message loop.",
			Buckets: prometheus.DefBuckets,
		}),
		warningsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pgv2_warnings_total",
			Help: "NoticeResponse messages collected.",
		}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pgv2_notifications_total",
			Help: "NotificationResponse messages collected.",
		}),
	}
	reg.MustRegister(
		m.authAttempts, m.queriesTotal, m.queryErrors,
		m.queryDuration, m.warningsTotal, m.notifications,
	)
	return m
}

func (m *Metrics) observeAuth(method string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.authAttempts.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) observeQuery(seconds float64, sqlErr bool) {
	if m == nil {
		return
	}
	m.queriesTotal.Inc()
	m.queryDuration.Observe(seconds)
	if sqlErr {
		m.queryErrors.Inc()
	}
}

func (m *Metrics) observeWarning() {
	if m == nil {
		return
	}
	m.warningsTotal.Inc()
}

func (m *Metrics) observeNotification() {
	if m == nil {
		return
	}
	m.notifications.Inc()
}
