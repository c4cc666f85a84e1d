package track

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-numis/internal/events"
)

// Enqueuer schedules collector deliveries on the asynq queue. It
// implements events.DeliveryScheduler.
type Enqueuer struct {
	Client   *asynq.Client
	Queue    string
	MaxRetry int
}

// Schedule converts the domain event and enqueues a delivery task.
func (e Enqueuer) Schedule(ctx context.Context, ev events.Event) error {
	if e.Client == nil {
		return errors.New("track: asynq client not configured")
	}
	tev, err := FromDomainEvent(ev)
	if err != nil {
		return fmt.Errorf("track: convert event: %w", err)
	}
	return e.Enqueue(ctx, tev)
}

// Enqueue submits a single tracking event for delivery.
func (e Enqueuer) Enqueue(ctx context.Context, ev Event) error {
	if e.Client == nil {
		return errors.New("track: asynq client not configured")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("track: marshal event: %w", err)
	}
	opts := []asynq.Option{}
	if e.Queue != "" {
		opts = append(opts, asynq.Queue(e.Queue))
	}
	if e.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(e.MaxRetry))
	}
	_, err = e.Client.EnqueueContext(ctx, asynq.NewTask(TaskTypeDeliver, payload), opts...)
	if err != nil {
		return fmt.Errorf("track: enqueue delivery: %w", err)
	}
	return nil
}
