package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "nova_bridge"

// Metrics contains all bridge metrics
type Metrics struct {
	ShotsReceived      prometheus.Counter
	ShotsProcessed     *prometheus.CounterVec
	ShotErrors         *prometheus.CounterVec
	ComputeDuration    prometheus.Histogram
	ConnectionAttempts prometheus.Counter
	ConnectionFailures *prometheus.CounterVec
	ResolutionFailures *prometheus.CounterVec
	SupervisorState    *prometheus.GaugeVec
	Subscribers        *prometheus.GaugeVec
	ResultsPublished   prometheus.Counter
	PublishFailures    *prometheus.CounterVec
}

// NewMetrics creates a new, unregistered Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		ShotsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shots",
			Name:      "received_total",
			Help:      "Non-blank lines received from the device",
		}),
		ShotsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shots",
			Name:      "processed_total",
			Help:      "Shots mapped, computed and published, by mapping rule",
		}, []string{"rule"}),
		ShotErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shot_errors_total",
			Help:      "Shots dropped, by error kind",
		}, []string{"kind"}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "compute",
			Name:      "duration_seconds",
			Help:      "Time spent in the computation step",
			Buckets:   prometheus.DefBuckets,
		}),
		ConnectionAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "attempts_total",
			Help:      "Device connection attempts",
		}),
		ConnectionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connection",
			Name:      "failures_total",
			Help:      "Connection cycles that ended in failure, by error kind",
		}, []string{"kind"}),
		ResolutionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolution",
			Name:      "failures_total",
			Help:      "Endpoint resolution failures, by discovery method",
		}, []string{"method"}),
		SupervisorState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "supervisor",
			Name:      "state",
			Help:      "1 for the supervisor's current state, 0 otherwise",
		}, []string{"state"}),
		Subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Currently connected local subscribers, by transport",
		}, []string{"transport"}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "results",
			Name:      "published_total",
			Help:      "Enriched results handed to the broadcast hub",
		}),
		PublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "publish",
			Name:      "failures_total",
			Help:      "Subscriber writes that failed and pruned the subscriber, by transport",
		}, []string{"transport"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ShotsReceived,
		m.ShotsProcessed,
		m.ShotErrors,
		m.ComputeDuration,
		m.ConnectionAttempts,
		m.ConnectionFailures,
		m.ResolutionFailures,
		m.SupervisorState,
		m.Subscribers,
		m.ResultsPublished,
		m.PublishFailures,
	}
}

// Registry pairs a Prometheus registry with the bridge metrics registered in it
type Registry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
}

// NewRegistry creates a registry with bridge, Go runtime and process metrics
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	reg.MustRegister(m.collectors()...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{prometheusRegistry: reg, Metrics: m}
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// ShotReceived counts one non-blank device line
func (m *Metrics) ShotReceived() {
	if m == nil {
		return
	}
	m.ShotsReceived.Inc()
}

// ShotProcessed counts one published shot, labelled by mapping rule
func (m *Metrics) ShotProcessed(rule string) {
	if m == nil {
		return
	}
	m.ShotsProcessed.WithLabelValues(rule).Inc()
	m.ResultsPublished.Inc()
}

// ShotFailed counts one dropped shot
func (m *Metrics) ShotFailed(kind string) {
	if m == nil {
		return
	}
	m.ShotErrors.WithLabelValues(kind).Inc()
}

// ObserveCompute records the duration of one computation call
func (m *Metrics) ObserveCompute(d time.Duration) {
	if m == nil {
		return
	}
	m.ComputeDuration.Observe(d.Seconds())
}

// ConnectionAttempt counts one dial to the device
func (m *Metrics) ConnectionAttempt() {
	if m == nil {
		return
	}
	m.ConnectionAttempts.Inc()
}

// ConnectionFailed counts one failed connection cycle
func (m *Metrics) ConnectionFailed(kind string) {
	if m == nil {
		return
	}
	m.ConnectionFailures.WithLabelValues(kind).Inc()
}

// ResolutionFailed counts one failed resolution for the given method
func (m *Metrics) ResolutionFailed(method string) {
	if m == nil {
		return
	}
	m.ResolutionFailures.WithLabelValues(method).Inc()
}

// StateChanged moves the state gauge from one state to the next
func (m *Metrics) StateChanged(from, to string) {
	if m == nil {
		return
	}
	if from != "" {
		m.SupervisorState.WithLabelValues(from).Set(0)
	}
	m.SupervisorState.WithLabelValues(to).Set(1)
}

// SubscribersChanged sets the subscriber gauge for one transport
func (m *Metrics) SubscribersChanged(transport string, n int) {
	if m == nil {
		return
	}
	m.Subscribers.WithLabelValues(transport).Set(float64(n))
}

// PublishFailed counts one pruned subscriber
func (m *Metrics) PublishFailed(transport string) {
	if m == nil {
		return
	}
	m.PublishFailures.WithLabelValues(transport).Inc()
}
