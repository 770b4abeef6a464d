package observability

import (
	"errors"
	"time"

	"campusforum/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusforum_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records latency of the instrumented queries.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campusforum_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// LifecycleTransitions counts status transitions by outcome.
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusforum_lifecycle_transitions_total",
		Help: "Status transitions attempted on categories, posts and reports",
	}, []string{"entity", "transition", "outcome"})

	// AuthorizationDenials counts denied actions by resource kind and error code.
	AuthorizationDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusforum_authorization_denials_total",
		Help: "Actions denied by the authorization engine",
	}, []string{"kind", "action", "code"})

	// ModerationEffects counts content changes caused by resolved reports.
	ModerationEffects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campusforum_moderation_effects_total",
		Help: "Content changes applied while resolving reports",
	}, []string{"effect"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition counts a transition attempt. The outcome label is "ok"
// or the lowercased error code.
func RecordTransition(entity, transition string, err error) {
	LifecycleTransitions.WithLabelValues(entity, transition, outcome(err)).Inc()
}

// RecordDenial counts an authorization denial.
func RecordDenial(kind, action string, err error) {
	AuthorizationDenials.WithLabelValues(kind, action, outcome(err)).Inc()
}

// RecordModerationEffect counts a content change applied by a resolution.
func RecordModerationEffect(effect string) {
	ModerationEffects.WithLabelValues(effect).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return models.CodeInternal
}
