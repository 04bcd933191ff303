// Package metrics exposes Prometheus metrics for auto-fit runs and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the application
var Registry = prometheus.NewRegistry()

// factory registers metrics to Registry directly
var factory = promauto.With(Registry)

// AppointmentsCommitted counts appointments created by auto-fit, by room
var AppointmentsCommitted = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "autofit",
	Name:      "appointments_committed_total",
	Help:      "Appointments committed by auto-fit runs",
}, []string{"room"})

// SlotsUnfilled counts room/hour slots left empty because no caregiver was available
var SlotsUnfilled = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "autofit",
	Name:      "slots_unfilled_total",
	Help:      "Room/hour slots left unfilled because no caregiver was available",
})

// CaregiversIneligible counts caregivers excluded for reaching the weekly cap
var CaregiversIneligible = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "autofit",
	Name:      "caregivers_ineligible_total",
	Help:      "Caregivers excluded from a run after reaching the weekly hour cap",
})

// Runs counts finished auto-fit runs by outcome
var Runs = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "autofit",
	Name:      "runs_total",
	Help:      "Finished auto-fit runs by outcome",
}, []string{"outcome"})

// RunDuration tracks how long auto-fit runs take
var RunDuration = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "autofit",
	Name:      "run_duration_seconds",
	Help:      "Duration of auto-fit runs",
	Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
})

// HTTPRequests counts API requests by route pattern, method and status
var HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "autofit",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP API requests by route, method and status code",
}, []string{"route", "method", "status"})

// Recorder reports scheduler events to the package metrics
type Recorder struct{}

// NewRecorder creates a Recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) AppointmentCommitted(room int) {
	AppointmentsCommitted.WithLabelValues(strconv.Itoa(room)).Inc()
}

func (r *Recorder) SlotUnfilled() {
	SlotsUnfilled.Inc()
}

func (r *Recorder) CaregiverIneligible() {
	CaregiversIneligible.Inc()
}

func (r *Recorder) RunFinished(outcome string, duration time.Duration) {
	Runs.WithLabelValues(outcome).Inc()
	RunDuration.Observe(duration.Seconds())
}
