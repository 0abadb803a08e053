package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exported by the dashboard.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tradesStored    prometheus.Gauge
	tradesGenerated prometheus.Counter
}

// New registers the dashboard collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dashboard_http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dashboard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"route"},
		),
		tradesStored: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_trades_stored",
			Help: "Number of trades in the store at the last snapshot",
		}),
		tradesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_trades_generated_total",
			Help: "Total number of synthetic trades written by the generator",
		}),
	}
}

// RecordRequest records a served HTTP request. route is the mux pattern
// that matched it, never the raw URL path.
func (m *Metrics) RecordRequest(route string, status int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// SetTradesStored records the size of the latest store snapshot.
func (m *Metrics) SetTradesStored(n int) {
	m.tradesStored.Set(float64(n))
}

// AddTradesGenerated counts trades written by the generator.
func (m *Metrics) AddTradesGenerated(n int) {
	m.tradesGenerated.Add(float64(n))
}
