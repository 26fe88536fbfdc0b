package server

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the protocol server's Prometheus collectors.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	connsInFlight   prometheus.Gauge
	parseFailures   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with registry.
func NewMetrics(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hanabi_requests_total",
			Help: "Total number of handled requests",
		}, []string{"route", "method", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hanabi_request_duration_seconds",
			Help:    "Time from accepting a connection to writing its response",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		connsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hanabi_connections_in_flight",
			Help: "Connections currently being served",
		}),
		parseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hanabi_parse_failures_total",
			Help: "Requests rejected before dispatch because they could not be read",
		}),
	}

	for _, c := range []prometheus.Collector{m.requestsTotal, m.requestDuration, m.connsInFlight, m.parseFailures} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) connOpened() {
	if m != nil {
		m.connsInFlight.Inc()
	}
}

func (m *Metrics) connClosed() {
	if m != nil {
		m.connsInFlight.Dec()
	}
}

func (m *Metrics) parseFailed() {
	if m != nil {
		m.parseFailures.Inc()
	}
}

func (m *Metrics) observe(route, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.With(prometheus.Labels{
		"route":  route,
		"method": method,
		"code":   strconv.Itoa(code),
	}).Inc()
	m.requestDuration.With(prometheus.Labels{
		"route":  route,
		"method": method,
	}).Observe(elapsed.Seconds())
}
