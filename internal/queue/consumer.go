package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// BookingLogFile is the file name events are appended to inside the log
// directory.
const BookingLogFile = "booking.log"

// Consumer drains BookingEventQueue and appends one line per event to
// Dir/booking.log.
type Consumer struct {
	URL    string
	Dir    string
	Logger *log.Logger
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes
// until ctx is cancelled.  Broker outages are retried with exponential
// backoff capped at 30s; a message that cannot be handled is rejected
// without requeue so the consumer never spins on it.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warnf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warnf("booking-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Logger.Warnf("booking-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(BookingEventQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(BookingEventQueue, "", false, false, false, false, nil)
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
			if err := c.handleMessage(d.Body); err != nil {
				c.Logger.Errorf("booking-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	return AppendEvent(c.Dir, ev)
}

// AppendEvent writes ev as one line to dir/booking.log, creating the
// directory when needed.
func AppendEvent(dir string, ev BookingEvent) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, BookingLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev in the single-line, human-friendly log format.
func FormatLine(ev BookingEvent) string {
	line := fmt.Sprintf("[%s] %s | booking_id=%d | requester_id=%d | resource=%q | date=%s | slot=%q | status=%s",
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.BookingID, ev.RequesterID,
		resourceLabel(ev), ev.Date, ev.Slot, ev.Status)
	if ev.ActorID != 0 && ev.ActorID != ev.RequesterID {
		line += fmt.Sprintf(" | actor_id=%d", ev.ActorID)
	}
	if ev.Note != "" {
		line += fmt.Sprintf(" | note=%q", ev.Note)
	}
	return line + "\n"
}

func resourceLabel(ev BookingEvent) string {
	if ev.ResourceName == "" {
		return ev.ResourceID
	}
	return ev.ResourceName + " (" + ev.ResourceID + ")"
}
