// Package observability exposes the Prometheus series emitted by the hydration cascade.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hydration_service"

var (
	planRecalculations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "daily_plan",
		Name:      "recalculations_total",
		Help:      "Number of daily plan recalculations, labeled by trigger.",
	}, []string{"trigger"})

	planRecalcDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "daily_plan",
		Name:      "recalculation_duration_seconds",
		Help:      "Time spent recomputing a plan's cached totals.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"trigger"})

	plansCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "daily_plan",
		Name:      "created_total",
		Help:      "Number of daily plans created.",
	})

	recommendationsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recommendation",
		Name:      "created_total",
		Help:      "Number of recommendations created, labeled by type and severity.",
	}, []string{"type", "severity"})

	notificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notification",
		Name:      "sent_total",
		Help:      "Number of notifications synthesised, labeled by notification type.",
	}, []string{"type"})

	cascadeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cascade",
		Name:      "advisory_failures_total",
		Help:      "Number of recommendation or notification failures swallowed after the primary mutation committed.",
	}, []string{"stage"})

	lastIntakeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "intake",
		Name:      "last_recorded_timestamp_seconds",
		Help:      "Unix timestamp of the most recent intake recorded.",
	})
)

func init() {
	prometheus.MustRegister(
		planRecalculations,
		planRecalcDuration,
		plansCreated,
		recommendationsCreated,
		notificationsSent,
		cascadeFailures,
		lastIntakeGauge,
	)
}

// RecordPlanRecalculated counts a recalculation and observes how long it took.
func RecordPlanRecalculated(trigger string, started time.Time) {
	planRecalculations.WithLabelValues(trigger).Inc()
	planRecalcDuration.WithLabelValues(trigger).Observe(time.Since(started).Seconds())
}

// RecordPlanCreated counts a newly created plan.
func RecordPlanCreated() {
	plansCreated.Inc()
}

// RecordRecommendation counts a persisted recommendation.
func RecordRecommendation(kind, severity string) {
	recommendationsCreated.WithLabelValues(kind, severity).Inc()
}

// RecordNotification counts a persisted notification.
func RecordNotification(kind string) {
	notificationsSent.WithLabelValues(kind).Inc()
}

// RecordCascadeFailure counts an advisory failure that was logged and skipped.
func RecordCascadeFailure(stage string) {
	cascadeFailures.WithLabelValues(stage).Inc()
}

// RecordIntake updates the intake watermark gauge.
func RecordIntake(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastIntakeGauge.Set(float64(ts.Unix()))
}
