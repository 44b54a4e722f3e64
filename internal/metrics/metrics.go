package metrics

import "github.com/prometheus/client_golang/prometheus"

// DispatchMetrics exposes counters and histograms for the dispatch service.
type DispatchMetrics struct {
	changesTotal    *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	publishTotal    *prometheus.CounterVec
	revision        prometheus.Gauge
	requestDuration *prometheus.HistogramVec
}

func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		changesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transport",
			Subsystem: "dispatch",
			Name:      "changes_total",
			Help:      "Committed dispatch state changes",
		}, []string{"kind"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transport",
			Subsystem: "intake",
			Name:      "bookings_total",
			Help:      "Booking requests by outcome",
		}, []string{"result"}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transport",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Change events handed to outbound sinks",
		}, []string{"sink", "status"}),
		revision: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transport",
			Subsystem: "dispatch",
			Name:      "revision",
			Help:      "Current dispatch state revision",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "transport",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.changesTotal, m.bookingsTotal, m.publishTotal, m.revision, m.requestDuration)
	return m
}

// ObserveChange counts a committed change and records the revision it produced.
func (m *DispatchMetrics) ObserveChange(kind string, revision uint64) {
	if m == nil {
		return
	}
	m.changesTotal.WithLabelValues(kind).Inc()
	m.revision.Set(float64(revision))
}

func (m *DispatchMetrics) ObserveBooking(accepted bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.bookingsTotal.WithLabelValues(result).Inc()
}

func (m *DispatchMetrics) ObservePublish(sink string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.publishTotal.WithLabelValues(sink, status).Inc()
}

func (m *DispatchMetrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, status).Observe(seconds)
}
