package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rentflow-api/internal/models"
	"github.com/noah-isme/rentflow-api/pkg/jobs"
)

// eventPublisher is satisfied by *nats.Conn.
type eventPublisher interface {
	Publish(subject string, data []byte) error
}

// EventDispatcherConfig tunes the outbound event queue.
type EventDispatcherConfig struct {
	SubjectPrefix string
	Workers       int
	Retries       int
	RetryDelay    time.Duration
}

// EventDispatcher publishes committed workflow events on NATS through a worker queue.
type EventDispatcher struct {
	publisher eventPublisher
	queue     *jobs.Queue
	prefix    string
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewEventDispatcher constructs a dispatcher. Call Start before dispatching.
func NewEventDispatcher(publisher eventPublisher, cfg EventDispatcherConfig, metrics *MetricsService, logger *zap.Logger) *EventDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "rentflow"
	}
	d := &EventDispatcher{publisher: publisher, prefix: cfg.SubjectPrefix, metrics: metrics, logger: logger}
	d.queue = jobs.NewQueue("workflow-events", d.publish, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return d
}

// Start launches the publishing workers.
func (d *EventDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop flushes buffered events and stops the workers.
func (d *EventDispatcher) Stop() {
	d.queue.Stop()
}

// Subject returns the NATS subject for an event type.
func (d *EventDispatcher) Subject(t models.EventType) string {
	return d.prefix + "." + string(t)
}

// Dispatch enqueues events for asynchronous publishing.
func (d *EventDispatcher) Dispatch(_ context.Context, events ...models.WorkflowEvent) error {
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", event.ID, err)
		}
		if err := d.queue.Enqueue(jobs.Job{ID: event.ID, Subject: d.Subject(event.Type), Payload: payload}); err != nil {
			return err
		}
	}
	return nil
}

func (d *EventDispatcher) publish(_ context.Context, job jobs.Job) error {
	err := d.publisher.Publish(job.Subject, job.Payload)
	d.metrics.RecordEventPublish(job.Subject, err == nil)
	if err != nil {
		return fmt.Errorf("publish %s: %w", job.Subject, err)
	}
	d.logger.Debug("event published", zap.String("subject", job.Subject), zap.String("event_id", job.ID))
	return nil
}
