package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "retail_eda"

// Metrics owns a private Prometheus registry so several instances can live in
// one process (tests, the report command).
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	recordsGenerated prometheus.Counter
	generation       prometheus.Histogram
	reportRecords    prometheus.Gauge
	chartsRendered   prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		recordsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_generated_total",
			Help:      "Synthetic transaction records generated.",
		}),
		generation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time to synthesize the dataset and compute the report.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		reportRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "report_records",
			Help:      "Records in the currently published report.",
		}),
		chartsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_rendered_total",
			Help:      "Chart images written.",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.recordsGenerated,
		m.generation,
		m.reportRecords,
		m.chartsRendered,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	m.requests.WithLabelValues(method, path, code).Inc()
	m.requestDuration.WithLabelValues(method, path, code).Observe(d.Seconds())
}

// ObserveGeneration records one synthesis run that produced records rows.
func (m *Metrics) ObserveGeneration(records int, d time.Duration) {
	m.recordsGenerated.Add(float64(records))
	m.generation.Observe(d.Seconds())
	m.reportRecords.Set(float64(records))
}

func (m *Metrics) ObserveChart() {
	m.chartsRendered.Inc()
}
