// Package track delivers analytics events to an external collector.
// Events are queued through asynq and posted as JSON by the worker.
package track

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/noah-isme/backend-numis/internal/events"
)

// TaskTypeDeliver is the asynq task type for collector deliveries.
const TaskTypeDeliver = "track:deliver"

// Event is the collector payload.
type Event struct {
	Name       string         `json:"name"`
	Payload    map[string]any `json:"payload"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// FromDomainEvent converts an emitted domain event into its tracking
// shape. Topic dots become underscores: voucher.applied is shipped as
// voucher_applied.
func FromDomainEvent(ev events.Event) (Event, error) {
	var payload map[string]any
	if len(ev.Payload) > 0 {
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			return Event{}, err
		}
	}
	return Event{
		Name:       strings.ReplaceAll(ev.Topic, ".", "_"),
		Payload:    payload,
		OccurredAt: ev.OccurredAt,
	}, nil
}
