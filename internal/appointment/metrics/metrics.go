package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civid_appointment_bookings_total",
		Help: "Booking attempts by outcome.",
	}, []string{"outcome"})

	BookingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "civid_appointment_booking_duration_seconds",
		Help:    "Time spent in the booking path, reservation included.",
		Buckets: prometheus.DefBuckets,
	})

	SlotConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "civid_appointment_slot_conflicts_total",
		Help: "Bookings refused because the day was full or closed.",
	})
)
