package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector holds the orrery metrics. It also implements ephemeris.Observer.
type MetricsCollector struct {
	frameDuration   prometheus.Histogram
	bodiesTotal     *prometheus.CounterVec
	streamClients   prometheus.Gauge
	controlRequests *prometheus.CounterVec
}

// NewMetricsCollector creates the metrics and registers them with reg.
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	m := &MetricsCollector{
		frameDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orrery_frame_duration_seconds",
				Help:    "Time spent computing one frame of body positions",
				Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
			},
		),
		bodiesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_frame_bodies_total",
				Help: "Bodies processed per frame, by outcome",
			},
			[]string{"outcome"},
		),
		streamClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "orrery_stream_clients",
				Help: "Connected websocket frame stream clients",
			},
		),
		controlRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orrery_clock_control_requests_total",
				Help: "Clock control requests by action and status code",
			},
			[]string{"action", "code"},
		),
	}

	reg.MustRegister(m.frameDuration, m.bodiesTotal, m.streamClients, m.controlRequests)
	return m
}

func (m *MetricsCollector) ObserveFrame(duration time.Duration, computed, skipped, approximate int) {
	m.frameDuration.Observe(duration.Seconds())
	m.bodiesTotal.WithLabelValues("computed").Add(float64(computed))
	m.bodiesTotal.WithLabelValues("skipped").Add(float64(skipped))
	m.bodiesTotal.WithLabelValues("approximate").Add(float64(approximate))
}

func (m *MetricsCollector) SetStreamClients(n int) {
	m.streamClients.Set(float64(n))
}

func (m *MetricsCollector) RecordControl(action string, code int) {
	m.controlRequests.WithLabelValues(action, strconv.Itoa(code)).Inc()
}

// Handler serves the metrics gathered by g.
func (m *MetricsCollector) Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
