package track

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Worker consumes delivery tasks and posts them to the collector.
type Worker struct {
	Collector Collector
	Logger    zerolog.Logger
}

// HandleDeliver processes a single track:deliver task.
func (w Worker) HandleDeliver(ctx context.Context, task *asynq.Task) error {
	var ev Event
	if err := json.Unmarshal(task.Payload(), &ev); err != nil {
		// Malformed payloads will never succeed; skip retries.
		return fmt.Errorf("track: decode task: %v: %w", err, asynq.SkipRetry)
	}
	if err := w.Collector.Deliver(ctx, ev); err != nil {
		w.Logger.Warn().Err(err).Str("event", ev.Name).Msg("collector delivery failed")
		return err
	}
	w.Logger.Debug().Str("event", ev.Name).Msg("collector delivery ok")
	return nil
}

// NewServeMux registers the track handlers on an asynq mux.
func (w Worker) NewServeMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeDeliver, w.HandleDeliver)
	return mux
}
