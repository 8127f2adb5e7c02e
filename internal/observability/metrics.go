package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	errors         *prometheus.CounterVec
	ticketsCreated *prometheus.CounterVec
	calendarCalls  *prometheus.CounterVec
	slaOverdue     prometheus.Gauge
}

// NewMetrics registers collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total number of HTTP requests."},
			[]string{"route", "method", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_errors_total", Help: "HTTP responses rendered from a domain error."},
			[]string{"route", "method", "code"},
		),
		ticketsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "tickets_created_total", Help: "Tickets created, by computed priority."},
			[]string{"priority"},
		),
		calendarCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "calendar_requests_total", Help: "Calendar event creation attempts."},
			[]string{"outcome"},
		),
		slaOverdue: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "sla_overdue_tickets", Help: "Overdue tickets found by the last SLA sweep."},
		),
	}
	reg.MustRegister(m.requests, m.latency, m.errors, m.ticketsCreated, m.calendarCalls, m.slaOverdue)
	return m
}

// RecordRequest counts a finished request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts a domain error rendered to the client.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// TicketCreated counts a new ticket.
func (m *Metrics) TicketCreated(priority int) {
	if m == nil {
		return
	}
	m.ticketsCreated.WithLabelValues(strconv.Itoa(priority)).Inc()
}

// CalendarCall counts a calendar request with outcome "success" or "failure".
func (m *Metrics) CalendarCall(err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.calendarCalls.WithLabelValues(outcome).Inc()
}

// SetOverdue records the overdue count seen by the SLA sweeper.
func (m *Metrics) SetOverdue(n int) {
	if m == nil {
		return
	}
	m.slaOverdue.Set(float64(n))
}
