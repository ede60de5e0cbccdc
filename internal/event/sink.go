package event

import (
	"context"
	"errors"
	"sync"
)

// ErrSinkClosed is returned by sinks whose consumer has gone away.
var ErrSinkClosed = errors.New("event: sink closed")

// Sink receives the events of one run, in order.
type Sink interface {
	Emit(ctx context.Context, e Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, e Event) error

func (f SinkFunc) Emit(ctx context.Context, e Event) error { return f(ctx, e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) error { return nil })

// Collector keeps every event in memory.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *Collector) Emit(_ context.Context, e Event) error {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	return nil
}

// Events returns a copy of what has been collected.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Tags returns the collected tags in order.
func (c *Collector) Tags() []Tag {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Tag, len(c.events))
	for i, e := range c.events {
		out[i] = e.Tag
	}
	return out
}

// Channel forwards events to a consumer goroutine. Emit blocks until the
// consumer takes the event or ctx ends; after Close it reports
// ErrSinkClosed.
type Channel struct {
	ch     chan Event
	done   chan struct{}
	once   sync.Once
	closed sync.Once
}

// NewChannel creates a channel sink with the given buffer size.
func NewChannel(size int) *Channel {
	if size < 0 {
		size = 0
	}
	return &Channel{ch: make(chan Event, size), done: make(chan struct{})}
}

// Events is the consumer side. It is closed by CloseSend.
func (c *Channel) Events() <-chan Event { return c.ch }

func (c *Channel) Emit(ctx context.Context, e Event) error {
	select {
	case <-c.done:
		return ErrSinkClosed
	default:
	}
	select {
	case c.ch <- e:
		return nil
	case <-c.done:
		return ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseSend is called by the producer once the run has finished.
func (c *Channel) CloseSend() {
	c.once.Do(func() { close(c.ch) })
}

// Close is called by the consumer when it stops reading. Pending and
// future Emit calls return ErrSinkClosed.
func (c *Channel) Close() {
	c.closed.Do(func() { close(c.done) })
}

// Multi emits to every sink in order and returns the first error. Later
// sinks still receive the event.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, e Event) error {
		var first error
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := s.Emit(ctx, e); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
