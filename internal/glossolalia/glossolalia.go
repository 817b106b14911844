// Package glossolalia forwards clinical change events to upstream
// integration services.
package glossolalia

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/wardbook/pkg/metrics"
)

type Event string

const (
	EventAdmit     Event = "admit"
	EventDischarge Event = "discharge"
	EventChange    Event = "change"
	EventTransfer  Event = "transfer"
)

// Message is one change event. Admit and discharge carry only Post.
type Message struct {
	Event      Event
	Pre        map[string]any
	Post       map[string]any
	OccurredAt time.Time
}

// Data is the JSON document sent upstream: the episode for admit and
// discharge, {"pre", "post"} for change and transfer.
func (m *Message) Data() ([]byte, error) {
	switch m.Event {
	case EventAdmit, EventDischarge:
		return json.Marshal(m.Post)
	}
	return json.Marshal(map[string]any{"pre": m.Pre, "post": m.Post})
}

// Key groups messages for one episode on partitioned sinks.
func (m *Message) Key() string {
	for _, d := range []map[string]any{m.Post, m.Pre} {
		if id, ok := d["id"]; ok {
			b, _ := json.Marshal(id)
			return string(b)
		}
	}
	return ""
}

type Sink interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
	Close() error
}

const (
	defaultBufferSize  = 1_000
	defaultSendTimeout = 5 * time.Second
)

type Options struct {
	BufferSize  int
	SendTimeout time.Duration
	Metrics     *metrics.Collector
}

// Dispatcher queues messages and fans them out to every sink from a single
// worker. A dispatcher with no sinks drops everything silently.
type Dispatcher struct {
	sinks    []Sink
	log      *zap.Logger
	metrics  *metrics.Collector
	timeout  time.Duration
	messages chan *Message
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(log *zap.Logger, opts Options, sinks ...Sink) *Dispatcher {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	d := &Dispatcher{
		sinks:   sinks,
		log:     log,
		metrics: opts.Metrics,
		timeout: opts.SendTimeout,
	}
	if len(sinks) == 0 {
		return d
	}
	d.messages = make(chan *Message, opts.BufferSize)
	d.done = make(chan struct{})
	go d.worker()
	return d
}

func (d *Dispatcher) Enabled() bool {
	return d.messages != nil
}

func (d *Dispatcher) Admit(episode map[string]any) {
	d.publish(&Message{Event: EventAdmit, Post: episode})
}

func (d *Dispatcher) Discharge(episode map[string]any) {
	d.publish(&Message{Event: EventDischarge, Post: episode})
}

func (d *Dispatcher) Change(pre, post map[string]any) {
	d.publish(&Message{Event: EventChange, Pre: pre, Post: post})
}

func (d *Dispatcher) Transfer(pre, post map[string]any) {
	d.publish(&Message{Event: EventTransfer, Pre: pre, Post: post})
}

func (d *Dispatcher) publish(msg *Message) {
	if !d.Enabled() {
		return
	}
	msg.OccurredAt = time.Now().UTC()

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.NotificationDiscarded(string(msg.Event))
		d.log.Warn("glossolalia is shut down, dropping message", zap.String("event", string(msg.Event)))
		return
	}
	select {
	case d.messages <- msg:
	default:
		d.metrics.NotificationDiscarded(string(msg.Event))
		d.log.Warn("glossolalia buffer full, dropping message", zap.String("event", string(msg.Event)))
	}
}

// Shutdown drains queued messages and closes the sinks. Messages published
// afterwards are dropped.
func (d *Dispatcher) Shutdown() {
	if !d.Enabled() {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.messages)
	d.mu.Unlock()

	select {
	case <-d.done:
	case <-time.After(10 * time.Second):
		d.log.Warn("glossolalia shutdown timed out; some messages may be lost")
	}
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			d.log.Warn("closing glossolalia sink", zap.String("sink", s.Name()), zap.Error(err))
		}
	}
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for msg := range d.messages {
		for _, s := range d.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			err := s.Send(ctx, msg)
			cancel()
			d.metrics.NotificationSent(s.Name(), string(msg.Event), err)
			if err != nil {
				d.log.Error("glossolalia delivery failed",
					zap.String("sink", s.Name()),
					zap.String("event", string(msg.Event)),
					zap.Error(err),
				)
			}
		}
	}
}
