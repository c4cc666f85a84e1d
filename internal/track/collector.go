package track

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/noah-isme/backend-numis/internal/obs"
	"github.com/noah-isme/backend-numis/internal/resilience"
)

// Collector posts tracking events to the configured endpoint. Retries
// and circuit breaking are handled by the wrapped HTTP client; asynq
// adds its own retry schedule on top for queue-level redelivery.
type Collector struct {
	URL  string
	HTTP resilience.HTTPClient
}

// Deliver posts one event. A non-2xx response is an error so the task
// gets retried.
func (c Collector) Deliver(ctx context.Context, ev Event) error {
	if c.URL == "" {
		return errors.New("track: collector url not configured")
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("track: marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("track: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(ctx, req)
	elapsed := float64(time.Since(start)) / float64(time.Millisecond)
	if err != nil {
		recordDelivery("error", elapsed)
		return fmt.Errorf("track: deliver %s: %w", ev.Name, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		recordDelivery("rejected", elapsed)
		return fmt.Errorf("track: collector responded %s for %s", resp.Status, ev.Name)
	}
	recordDelivery("ok", elapsed)
	return nil
}

func recordDelivery(result string, elapsedMs float64) {
	if obs.TrackDeliveriesTotal != nil {
		obs.TrackDeliveriesTotal.WithLabelValues(result).Inc()
	}
	if obs.TrackDeliveryLatency != nil {
		obs.TrackDeliveryLatency.WithLabelValues(result).Observe(elapsedMs)
	}
}
