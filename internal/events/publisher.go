// Package events provides event publishing functionality.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-interview-service/internal/observability/metrics"
)

// ResponseRecorded is published after a candidate response turn is
// persisted.
type ResponseRecorded struct {
	EventType     string  `json:"eventType"`
	InterviewID   string  `json:"interviewId"`
	ResponseID    string  `json:"responseId"`
	Stage         string  `json:"stage"`
	Progress      float64 `json:"progress"`
	ResponseCount int     `json:"responseCount"`
	Provider      string  `json:"provider"`
	Timestamp     int64   `json:"timestamp"`
}

// FeedbackGenerated is published after an interview is completed and its
// feedback persisted.
type FeedbackGenerated struct {
	EventType            string `json:"eventType"`
	InterviewID          string `json:"interviewId"`
	FeedbackID           string `json:"feedbackId"`
	UserID               string `json:"userId"`
	OverallScore         int    `json:"overallScore"`
	HiringRecommendation string `json:"hiringRecommendation"`
	Evaluator            string `json:"evaluator"`
	Timestamp            int64  `json:"timestamp"`
}

// Publisher publishes interview events to separate Kafka topics.
type Publisher struct {
	writerResponse *kafka.Writer
	writerFeedback *kafka.Writer
	principal      string
	topicResponse  string
	topicFeedback  string
	enabled        bool
	metrics        *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers       []string
	TopicResponse string
	TopicFeedback string
	Principal     string
	Enabled       bool
}

// New creates a new Kafka event publisher with separate topics for
// response and feedback events.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:     cfg.Principal,
			topicResponse: cfg.TopicResponse,
			topicFeedback: cfg.TopicFeedback,
			enabled:       false,
			metrics:       m,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerResponse := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicResponse,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerFeedback := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicFeedback,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicResponse", cfg.TopicResponse).
		Str("topicFeedback", cfg.TopicFeedback).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerResponse: writerResponse,
		writerFeedback: writerFeedback,
		principal:      cfg.Principal,
		topicResponse:  cfg.TopicResponse,
		topicFeedback:  cfg.TopicFeedback,
		enabled:        true,
		metrics:        m,
	}
}

// PublishResponse publishes a response-recorded event.
func (p *Publisher) PublishResponse(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerResponse, p.topicResponse, "response", key, event)
}

// PublishFeedback publishes a feedback-generated event.
func (p *Publisher) PublishFeedback(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerFeedback, p.topicFeedback, "feedback", key, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(topic)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerResponse != nil {
		if e := p.writerResponse.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing response writer")
			err = e
		}
	}
	if p.writerFeedback != nil {
		if e := p.writerFeedback.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing feedback writer")
			err = e
		}
	}
	return err
}
