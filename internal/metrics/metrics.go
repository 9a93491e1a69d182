// Package metrics holds Prometheus instruments that are used across the
// service.  All collectors are registered with the global registry, so
// importing this package is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Form submissions by form and outcome (accepted, invalid, rejected, failed).",
		}, []string{"form", "outcome"})

	FieldErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_field_errors_total",
			Help: "Field validation failures by form and field.",
		}, []string{"form", "field"})

	ActionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_action_failures_total",
			Help: "Post-submit action failures by form and action type.",
		}, []string{"form", "action"})

	SubmitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "form_submit_duration_seconds",
			Help:    "Time spent validating a submission and running its actions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"form"})
)

func init() {
	prometheus.MustRegister(
		SubmissionsTotal,
		FieldErrorsTotal,
		ActionFailuresTotal,
		SubmitDuration,
	)
}
