package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer reads events from the queue and appends one human readable
// line per event to a log file (logs/events.log by default).
type Consumer struct {
	url     string
	queue   string
	logPath string
	log     *zap.Logger

	mu sync.Mutex // serializes writes to logPath
}

// NewConsumer returns a consumer for queue on the broker at url.
func NewConsumer(url, queue, logPath string, log *zap.Logger) *Consumer {
	if queue == "" {
		queue = DefaultQueue
	}
	if logPath == "" {
		logPath = filepath.Join("logs", "events.log")
	}
	return &Consumer{url: url, queue: queue, logPath: logPath, log: log}
}

// Run connects, declares the durable queue and consumes until ctx is
// cancelled.  Connection failures are retried with exponential backoff
// capped at 30 seconds.  Run returns nil once ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn, err := dial(ctx, c.url)
		if err != nil {
			c.log.Warn("events consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn("events consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleepCtx(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("events consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				c.log.Error("events consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatLine renders ev as a single line, listing only populated fields.
func formatLine(ev Event) string {
	parts := []string{fmt.Sprintf("[%s] %s", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type)}
	if ev.HoldID != "" {
		parts = append(parts, "hold_id="+ev.HoldID)
	}
	if ev.ReservationID != "" {
		parts = append(parts, "reservation_id="+ev.ReservationID)
	}
	if ev.UserID != 0 {
		parts = append(parts, fmt.Sprintf("user_id=%d", ev.UserID))
	}
	if ev.UnitID != 0 {
		parts = append(parts, fmt.Sprintf("unit_id=%d", ev.UnitID))
	}
	if ev.ConsoleTypeID != 0 {
		parts = append(parts, fmt.Sprintf("console_type_id=%d", ev.ConsoleTypeID))
	}
	if ev.ExpiresAt != nil {
		parts = append(parts, "expires_at="+ev.ExpiresAt.UTC().Format(time.RFC3339))
	}
	if ev.StartsAt != nil {
		parts = append(parts, "starts_at="+ev.StartsAt.UTC().Format(time.RFC3339))
	}
	if ev.Email != "" {
		parts = append(parts, fmt.Sprintf("email=%q", ev.Email))
	}
	return strings.Join(parts, " | ") + "\n"
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
