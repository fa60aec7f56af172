// Package notifications posts content-change events to configured webhooks,
// for example to trigger a static rebuild or purge a CDN.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Dispatcher delivers change events to webhook subscribers.
type Dispatcher struct {
	urls   []string
	client *http.Client
	logger *zap.Logger
}

// NewDispatcher creates a Dispatcher for the given webhook URLs.
func NewDispatcher(urls []string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		urls: urls,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Dispatch sends c to every subscriber once. Delivery failures are logged
// and joined into the returned error; there are no retries.
func (d *Dispatcher) Dispatch(ctx context.Context, c Change) error {
	if len(d.urls) == 0 {
		return nil
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling change: %w", err)
	}

	var errs []error
	for _, url := range d.urls {
		if err := d.SendWebhook(ctx, url, payload); err != nil {
			d.logger.Warn("webhook delivery failed", zap.String("url", url), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SendWebhook POSTs payload to the given URL.
func (d *Dispatcher) SendWebhook(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
