// Package notify implements frame-buffered broadcast channels. Every reader
// keeps its own cursor, so one event can be consumed by any number of
// listeners in the frame it was sent or in a later retained frame.
package notify

import (
	"sync"

	"github.com/zeusync/spatial/internal/core/events/bus"
	"github.com/zeusync/spatial/internal/core/observability/log"
)

// DefaultRetainFrames keeps an event readable in the frame it was sent and the next one.
const DefaultRetainFrames = 2

type stamped[T any] struct {
	seq   uint64
	frame uint64
	value T
}

// ChannelConfig holds settings applied by Option values.
type ChannelConfig struct {
	RetainFrames int
	Bus          bus.EventBus
	Topic        string
	EventType    string
	Logger       log.Log
}

// Option configures a Channel.
type Option func(*ChannelConfig)

// WithRetainFrames sets how many Advance calls an event survives. Values
// below 1 are treated as 1.
func WithRetainFrames(frames int) Option {
	return func(c *ChannelConfig) { c.RetainFrames = frames }
}

// WithBus mirrors every sent value onto b as an event of eventType in topic.
func WithBus(b bus.EventBus, topic, eventType string) Option {
	return func(c *ChannelConfig) {
		c.Bus = b
		c.Topic = topic
		c.EventType = eventType
	}
}

func WithLogger(l log.Log) Option {
	return func(c *ChannelConfig) { c.Logger = l }
}

// Channel is a broadcast queue of T values stamped with the frame they were sent in.
type Channel[T any] struct {
	mu     sync.Mutex
	name   string
	cfg    ChannelConfig
	frame  uint64
	next   uint64
	events []stamped[T]
}

func NewChannel[T any](name string, opts ...Option) *Channel[T] {
	cfg := ChannelConfig{RetainFrames: DefaultRetainFrames}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.RetainFrames < 1 {
		cfg.RetainFrames = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	if cfg.EventType == "" {
		cfg.EventType = name
	}
	return &Channel[T]{name: name, cfg: cfg}
}

func (c *Channel[T]) Name() string { return c.name }

// Frame reports how many times Advance has been called.
func (c *Channel[T]) Frame() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Send queues v for every reader. When a bus is attached the value is also
// published there; handler errors are returned but the value stays queued.
func (c *Channel[T]) Send(v T) error {
	c.mu.Lock()
	frame := c.frame
	c.events = append(c.events, stamped[T]{seq: c.next, frame: frame, value: v})
	c.next++
	c.mu.Unlock()

	if c.cfg.Bus == nil {
		return nil
	}
	err := c.cfg.Bus.PublishToTopic(c.cfg.Topic, bus.NewEvent(c.cfg.EventType, c.name, frame, v))
	if err != nil {
		c.cfg.Logger.Warn("notification handler failed",
			log.String("channel", c.name),
			log.Uint64("frame", frame),
			log.Error(err),
		)
	}
	return err
}

// Advance closes the current frame and drops events older than the retention window.
func (c *Channel[T]) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame++
	keep := uint64(c.cfg.RetainFrames)
	cut := 0
	for cut < len(c.events) && c.events[cut].frame+keep <= c.frame {
		cut++
	}
	if cut > 0 {
		clear(c.events[:cut])
		c.events = c.events[cut:]
	}
}

// Len reports the number of retained events.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

// Clear drops every retained event. Readers skip anything they had not read.
func (c *Channel[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}

// Reader returns a cursor positioned at the oldest retained event.
func (c *Channel[T]) Reader() *Reader[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := &Reader[T]{ch: c, cursor: c.next}
	if len(c.events) > 0 {
		r.cursor = c.events[0].seq
	}
	return r
}

// Reader consumes a Channel independently of other readers. A Reader is not
// safe for concurrent use by multiple goroutines.
type Reader[T any] struct {
	ch     *Channel[T]
	cursor uint64
	missed uint64
}

// Read returns every retained value this reader has not seen yet, oldest first.
func (r *Reader[T]) Read() []T {
	c := r.ch
	c.mu.Lock()
	defer c.mu.Unlock()

	start := r.unreadIndexLocked()
	if start == len(c.events) {
		r.cursor = c.next
		return nil
	}
	out := make([]T, 0, len(c.events)-start)
	for _, ev := range c.events[start:] {
		out = append(out, ev.value)
	}
	r.cursor = c.next
	return out
}

// Len reports how many values Read would return.
func (r *Reader[T]) Len() int {
	c := r.ch
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events) - r.unreadIndexLocked()
}

// Missed reports how many values expired before this reader got to them.
func (r *Reader[T]) Missed() uint64 {
	c := r.ch
	c.mu.Lock()
	defer c.mu.Unlock()
	r.unreadIndexLocked()
	return r.missed
}

func (r *Reader[T]) unreadIndexLocked() int {
	events := r.ch.events
	if len(events) == 0 {
		if r.cursor < r.ch.next {
			r.missed += r.ch.next - r.cursor
			r.cursor = r.ch.next
		}
		return 0
	}
	oldest := events[0].seq
	if r.cursor < oldest {
		r.missed += oldest - r.cursor
		r.cursor = oldest
	}
	return int(r.cursor - oldest)
}
