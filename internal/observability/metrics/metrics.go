// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ai_interview"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Session metrics
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter

	// Response turn metrics
	ResponsesProcessed prometheus.Counter
	ResponseDuration   prometheus.Histogram

	// Transcription metrics
	Transcriptions  *prometheus.CounterVec
	MockTranscripts prometheus.Counter

	// Question generation metrics
	TurnsGenerated *prometheus.CounterVec

	// Feedback metrics
	FeedbackGenerated *prometheus.CounterVec
	FeedbackScores    prometheus.Histogram

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of interview sessions started",
		}),
		SessionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Total number of interview sessions completed with feedback",
		}),

		ResponsesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_processed_total",
			Help:      "Total number of candidate responses processed",
		}),
		ResponseDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_processing_seconds",
			Help:      "End-to-end duration of one response turn in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),

		Transcriptions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Total transcriptions by winning provider",
		}, []string{"provider"}),
		MockTranscripts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mock_transcripts_total",
			Help:      "Total transcriptions answered by the mock terminal provider",
		}),

		TurnsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_generated_total",
			Help:      "Total interview turns generated by winning provider",
		}, []string{"provider"}),

		FeedbackGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_generated_total",
			Help:      "Total feedback evaluations by winning evaluator",
		}, []string{"evaluator"}),
		FeedbackScores: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feedback_overall_score",
			Help:      "Distribution of overall feedback scores",
			Buckets:   []float64{10, 20, 30, 40, 55, 70, 85, 100},
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "path", "status"}),
	}
}

// RecordSessionStarted records a new interview session.
func (m *Metrics) RecordSessionStarted() {
	m.SessionsStarted.Inc()
}

// RecordResponseProcessed records one processed response turn.
func (m *Metrics) RecordResponseProcessed(durationSeconds float64) {
	m.ResponsesProcessed.Inc()
	m.ResponseDuration.Observe(durationSeconds)
}

// RecordTranscription records which provider produced the transcript.
func (m *Metrics) RecordTranscription(provider string) {
	m.Transcriptions.WithLabelValues(provider).Inc()
	if provider == "mock" {
		m.MockTranscripts.Inc()
	}
}

// RecordTurnGenerated records which provider produced the next question.
func (m *Metrics) RecordTurnGenerated(provider string) {
	m.TurnsGenerated.WithLabelValues(provider).Inc()
}

// RecordFeedback records a completed evaluation and its overall score.
func (m *Metrics) RecordFeedback(evaluator string, overallScore int) {
	m.FeedbackGenerated.WithLabelValues(evaluator).Inc()
	m.FeedbackScores.Observe(float64(overallScore))
	m.SessionsCompleted.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordHTTPRequest records one handled HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
}
