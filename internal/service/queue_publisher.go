// Package queue_publisher delivers booking lifecycle events on behalf of
// the reservation engine.  Errors are logged and returned so the engine
// can ignore them without interrupting the request that caused the event.
package queue_publisher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/resource-reservation/internal/queue"
)

// Publisher sends BookingEvents to the durable booking.events queue.  Each
// publish dials its own connection; event volume is a handful per booking,
// so no connection is kept open between requests.
type Publisher struct {
	URL    string
	Logger *log.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, logger *log.Logger) *Publisher {
	return &Publisher{URL: url, Logger: logger}
}

// Notify publishes ev as a persistent JSON message.
func (p *Publisher) Notify(ctx context.Context, ev q.BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.Logger.Errorf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Logger.Warnf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Logger.Warnf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		q.BookingEventQueue, // name
		true,                // durable
		false,               // autoDelete
		false,               // exclusive
		false,               // noWait
		nil,                 // args
	); err != nil {
		p.Logger.Warnf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ch.PublishWithContext(ctx,
		"",                  // default exchange
		q.BookingEventQueue, // routing key = queue name
		false,               // mandatory
		false,               // immediate
		pub,
	); err != nil {
		p.Logger.Warnf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// FileNotifier appends events straight to the booking log.  It stands in
// for the broker when no RabbitMQ URL is configured.
type FileNotifier struct {
	Dir string
	mu  sync.Mutex
}

// NewFileNotifier returns a FileNotifier writing to dir/booking.log.
func NewFileNotifier(dir string) *FileNotifier {
	return &FileNotifier{Dir: dir}
}

// Notify writes ev; concurrent events are serialized so lines never
// interleave.
func (f *FileNotifier) Notify(_ context.Context, ev q.BookingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return q.AppendEvent(f.Dir, ev)
}
