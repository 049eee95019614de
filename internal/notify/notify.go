// Package notify delivers best-effort notifications off the request path.
// Callers hand a Message to a Dispatcher and never learn its fate; delivery
// errors are logged and counted, never returned.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is a single outbound notification.
type Message struct {
	ID        string `json:"id"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Text      string `json:"text"`
	HTML      string `json:"html,omitempty"`
	BookingID int64  `json:"booking_id,omitempty"`
	Kind      string `json:"kind"` // created, canceled, ...
}

// Sink performs the actual delivery (email API, message broker, ...).
type Sink interface {
	Deliver(ctx context.Context, m Message) error
}

// Recorder receives delivery outcomes; *metrics.Metrics satisfies it.
type Recorder interface {
	IncNotification(outcome string)
}

// Dispatcher queues messages and delivers them from a single background
// worker.  Notify never blocks: when the buffer is full the message is
// dropped and logged.
type Dispatcher struct {
	sink    Sink
	log     *slog.Logger
	rec     Recorder
	timeout time.Duration
	queue   chan Message

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher builds a dispatcher.  A nil sink yields a dispatcher whose
// Notify is a silent no-op, which is how missing email configuration
// disables notifications.
func NewDispatcher(sink Sink, size int, timeout time.Duration, log *slog.Logger, rec Recorder) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		sink:    sink,
		log:     log,
		rec:     rec,
		timeout: timeout,
		queue:   make(chan Message, size),
		done:    make(chan struct{}),
	}
}

// Enabled reports whether messages go anywhere.
func (d *Dispatcher) Enabled() bool { return d != nil && d.sink != nil }

// Notify enqueues m.  Messages without a recipient are ignored.
func (d *Dispatcher) Notify(m Message) {
	if !d.Enabled() || m.To == "" {
		return
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- m:
	default:
		d.record("dropped")
		d.log.Warn("notification queue full, dropping message", "id", m.ID, "kind", m.Kind, "booking_id", m.BookingID)
	}
}

// Run delivers queued messages until Close is called and the queue is
// drained.  It is meant to run in its own goroutine.
func (d *Dispatcher) Run() {
	defer close(d.done)
	for m := range d.queue {
		d.deliver(m)
	}
}

// Close stops accepting messages, waits for the worker to drain the queue
// or for ctx to end, whichever comes first.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(m Message) {
	defer func() {
		if r := recover(); r != nil {
			d.record("failed")
			d.log.Error("notification delivery panicked", "id", m.ID, "panic", fmt.Sprint(r))
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.sink.Deliver(ctx, m); err != nil {
		d.record("failed")
		d.log.Warn("notification delivery failed", "id", m.ID, "kind", m.Kind, "to", m.To, "err", err)
		return
	}
	d.record("sent")
	d.log.Info("notification sent", "id", m.ID, "kind", m.Kind, "to", m.To)
}

func (d *Dispatcher) record(outcome string) {
	if d.rec != nil {
		d.rec.IncNotification(outcome)
	}
}
