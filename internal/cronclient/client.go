// Package cronclient triggers the reminder sweep of a running server over
// HTTP.  It is the body of the reminder-cron binary.
package cronclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/medialab/equipment-booking/internal/handler"
	"github.com/medialab/equipment-booking/internal/service"
)

// Client calls POST /v1/reminders/send with the shared cron secret.
type Client struct {
	url    string
	secret string
	http   *http.Client
	log    *zap.Logger
}

func New(url, secret string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{url: url, secret: secret, http: &http.Client{Timeout: timeout}, log: log}
}

// StatusError is returned for any non-200 answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reminder sweep answered %d: %s", e.Code, e.Body)
}

// Trigger runs one sweep and returns its summary.
func (c *Client) Trigger(ctx context.Context) (service.SweepResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, http.NoBody)
	if err != nil {
		return service.SweepResult{}, err
	}
	req.Header.Set(handler.CronSecretHeader, c.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return service.SweepResult{}, fmt.Errorf("call reminder sweep: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return service.SweepResult{}, fmt.Errorf("read reminder sweep response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return service.SweepResult{}, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	var res service.SweepResult
	if err := json.Unmarshal(body, &res); err != nil {
		return service.SweepResult{}, fmt.Errorf("decode reminder sweep response: %w", err)
	}
	return res, nil
}

// Run triggers a sweep immediately and then every interval until ctx is
// cancelled.  Failed calls are logged; the loop keeps going.
func (c *Client) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		c.once(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (c *Client) once(ctx context.Context) {
	res, err := c.Trigger(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Error("reminder sweep failed", zap.Error(err))
		}
		return
	}
	c.log.Info("reminder sweep done", zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
	for _, f := range res.Failures {
		c.log.Warn("reminder not delivered",
			zap.String("reservation_id", f.ReservationID), zap.String("email", f.Email), zap.String("error", f.Error))
	}
}
