// Package metrics defines the Prometheus collectors of the booking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service collectors.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	bookings        *prometheus.CounterVec
	bookedSeats     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trainease",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trainease",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trainease",
			Name:      "booking_events_total",
			Help:      "Booking lifecycle events by type.",
		}, []string{"event"}),
		bookedSeats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trainease",
			Name:      "booking_seats_total",
			Help:      "Seats affected by booking lifecycle events.",
		}, []string{"event"}),
	}

	reg.MustRegister(m.requests, m.requestDuration, m.bookings, m.bookedSeats)
	return m
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	m.requests.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(seconds)
}

// ObserveBooking records a booking lifecycle event.
func (m *Metrics) ObserveBooking(event string, seats int) {
	m.bookings.WithLabelValues(event).Inc()
	m.bookedSeats.WithLabelValues(event).Add(float64(seats))
}
