package metrics

import (
	"net/http"
	"strconv"
	"time"

	"change-monitor/core/reconcile"
	"change-monitor/core/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "change_monitor"

// Metrics holds the collectors of the process.
type Metrics struct {
	registry *prometheus.Registry

	// Runs counts sync runs. Labels: result (success|partial|error)
	Runs *prometheus.CounterVec

	// Modules counts finished modules. Labels: module, state (completed|failed)
	Modules *prometheus.CounterVec

	// ModuleDuration measures module run time. Labels: module
	ModuleDuration *prometheus.HistogramVec

	// Changes counts emitted change records. Labels: module, kind (added|changed|removed)
	Changes *prometheus.CounterVec

	// SlotsInUse is the number of concurrency tokens currently held.
	SlotsInUse prometheus.Gauge

	// APIRequests counts Jamf API requests. Labels: api (classic|pro), code
	APIRequests *prometheus.CounterVec

	// APIRequestDuration measures Jamf API latency. Labels: api
	APIRequestDuration *prometheus.HistogramVec
}

// New creates and registers every collector on a fresh registry, together with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Sync runs by result.",
		}, []string{"result"}),
		Modules: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "modules_total",
			Help:      "Finished module runs by module and terminal state.",
		}, []string{"module", "state"}),
		ModuleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "module_duration_seconds",
			Help:      "Duration of module runs in seconds.",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"module"}),
		Changes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_total",
			Help:      "Change records emitted by module and kind.",
		}, []string{"module", "kind"}),
		SlotsInUse: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slots_in_use",
			Help:      "Concurrency tokens currently held by running modules.",
		}),
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Jamf API requests by API and response code.",
		}, []string{"api", "code"}),
		APIRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Jamf API request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"api"}),
	}
}

// Registry returns the registry holding every collector.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// UnitStarted implements scheduler.Observer.
func (m *Metrics) UnitStarted(_ string, inUse int) {
	m.SlotsInUse.Set(float64(inUse))
}

// UnitFinished implements scheduler.Observer.
func (m *Metrics) UnitFinished(res scheduler.ModuleResult, inUse int) {
	m.SlotsInUse.Set(float64(inUse))
	m.Modules.WithLabelValues(res.Module, string(res.State)).Inc()
	if res.Duration > 0 {
		m.ModuleDuration.WithLabelValues(res.Module).Observe(res.Duration.Seconds())
	}
	if res.Report == nil {
		return
	}
	m.Changes.WithLabelValues(res.Module, string(reconcile.Added)).Add(float64(len(res.Report.Added)))
	m.Changes.WithLabelValues(res.Module, string(reconcile.Changed)).Add(float64(len(res.Report.Changed)))
	m.Changes.WithLabelValues(res.Module, string(reconcile.Removed)).Add(float64(len(res.Report.Removed)))
}

// ObserveRun records the outcome of a sync run.
func (m *Metrics) ObserveRun(result string) {
	m.Runs.WithLabelValues(result).Inc()
}

// ObserveRequest records one Jamf API request. status 0 means no response.
func (m *Metrics) ObserveRequest(api string, status int, d time.Duration) {
	m.APIRequests.WithLabelValues(api, strconv.Itoa(status)).Inc()
	m.APIRequestDuration.WithLabelValues(api).Observe(d.Seconds())
}
