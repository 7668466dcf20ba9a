// Package metrics exposes the pipeline's Prometheus instruments. Telemetry
// is observational only; nothing in the pipeline branches on it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lakeshore-ultimate/tally/internal/activity"
)

// Reference published per-token pricing for the default model. Used only
// for the running cost gauge.
const (
	inputTokenCost  = 2.5e-6
	outputTokenCost = 10e-6
)

var (
	messagesProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "pipeline",
		Name:      "messages_processed_total",
		Help:      "Messages that completed the pipeline, including none-only results.",
	})
	messagesSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "pipeline",
		Name:      "messages_skipped_total",
		Help:      "Messages skipped before classification, by cause.",
	}, []string{"cause"})
	classifierErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "classifier",
		Name:      "errors_total",
		Help:      "Classifier backend failures; the message stays eligible for replay.",
	})
	recordsPersisted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "ledger",
		Name:      "records_total",
		Help:      "Activity records persisted, by activity type.",
	}, []string{"activity_type"})
	pointsAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "ledger",
		Name:      "points_awarded_total",
		Help:      "Post-cap points awarded, by activity type.",
	}, []string{"activity_type"})
	inputTokens = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "classifier",
		Name:      "input_tokens_total",
		Help:      "Input tokens consumed by classifier calls.",
	})
	outputTokens = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "classifier",
		Name:      "output_tokens_total",
		Help:      "Output tokens produced by classifier calls.",
	})
	estimatedCost = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tally",
		Subsystem: "classifier",
		Name:      "estimated_cost_dollars_total",
		Help:      "Estimated spend in USD at the reference per-token price.",
	})
)

func init() {
	prometheus.MustRegister(
		messagesProcessed, messagesSkipped, classifierErrors,
		recordsPersisted, pointsAwarded,
		inputTokens, outputTokens, estimatedCost,
	)
}

// MessageProcessed marks one message as fully through the pipeline.
func MessageProcessed() {
	messagesProcessed.Inc()
}

// MessageSkipped marks a message rejected before classification.
// Causes: "empty", "replayed", "wrong_channel", "self".
func MessageSkipped(cause string) {
	messagesSkipped.WithLabelValues(cause).Inc()
}

// ClassifierError marks one failed backend call.
func ClassifierError() {
	classifierErrors.Inc()
}

// RecordPersisted accounts for one ledger insert and its awarded points.
func RecordPersisted(t activity.Type, points int) {
	recordsPersisted.WithLabelValues(string(t)).Inc()
	pointsAwarded.WithLabelValues(string(t)).Add(float64(points))
}

// Usage accounts for one classifier call's token consumption.
func Usage(in, out int) {
	inputTokens.Add(float64(in))
	outputTokens.Add(float64(out))
	estimatedCost.Add(float64(in)*inputTokenCost + float64(out)*outputTokenCost)
}
