package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fitbuddy"

var (
	aiRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ai",
		Name:      "requests_total",
		Help:      "AI collaborator calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	aiLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Latency of AI collaborator calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"operation"})
	aiRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ai",
		Name:      "rejections_total",
		Help:      "AI requests rejected locally before any call was made.",
	}, []string{"operation", "reason"})
	stepsAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "activity",
		Name:      "steps_added_total",
		Help:      "Steps accepted by the tracker after clamping.",
	})
	workoutsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "workouts_completed_total",
		Help:      "Workout sessions completed and archived to history.",
	})
	persistenceWrites = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "persistence",
		Name:      "writes_total",
		Help:      "Durable store writes by key and outcome.",
	}, []string{"key", "outcome"})
	notificationsShown = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "notifications_total",
		Help:      "Notifications made visible.",
	})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Local API requests by method, route and status class.",
	}, []string{"method", "route", "status"})
	httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of local API requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(
		aiRequests,
		aiLatency,
		aiRejections,
		stepsAdded,
		workoutsCompleted,
		persistenceWrites,
		notificationsShown,
		httpRequests,
		httpLatency,
	)
}

// RecordAIRequest records the outcome and latency of one collaborator call.
func RecordAIRequest(operation string, err error, latency time.Duration) {
	aiRequests.WithLabelValues(operation, outcome(err)).Inc()
	aiLatency.WithLabelValues(operation).Observe(latency.Seconds())
}

// RecordAIRejection counts a request refused before reaching the collaborator.
func RecordAIRejection(operation, reason string) {
	aiRejections.WithLabelValues(operation, reason).Inc()
}

// RecordStepsAdded counts steps actually added (after the daily cap).
func RecordStepsAdded(n int) {
	if n <= 0 {
		return
	}
	stepsAdded.Add(float64(n))
}

// RecordWorkoutCompleted counts an archived session.
func RecordWorkoutCompleted() {
	workoutsCompleted.Inc()
}

// RecordPersistenceWrite counts a durable write for key.
func RecordPersistenceWrite(key string, err error) {
	persistenceWrites.WithLabelValues(key, outcome(err)).Inc()
}

// RecordNotification counts a notification shown.
func RecordNotification() {
	notificationsShown.Inc()
}

// RecordHTTPRequest records one local API request. route is the matched
// route template, not the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, route string, status int, latency time.Duration) {
	httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	httpLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
