// Package logcapture turns the text a run writes into ordered line events
// for a single subscriber running on the interactive loop.
package logcapture

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/san-kum/expressfrac/internal/mailbox"
)

const (
	DefaultCapacity = 10000
	maxPartial      = 64 * 1024
)

// Line is one captured unit of text, without its trailing newline.
type Line struct {
	Seq  uint64
	Time time.Time
	Text string
}

type Option func(*Stream)

// WithCapacity bounds the number of undelivered lines.
func WithCapacity(n int) Option {
	return func(s *Stream) { s.capacity = n }
}

// Stream queues lines from the active Capture and hands them to the
// subscriber when Pump is called. Writers never block on the subscriber.
type Stream struct {
	capacity int
	now      func() time.Time
	box      *mailbox.Mailbox[Line]

	mu         sync.Mutex
	subscriber func(Line)
	active     *Capture
	seq        uint64
}

func NewStream(opts ...Option) *Stream {
	s := &Stream{capacity: DefaultCapacity, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.box = mailbox.NewBounded[Line](s.capacity)
	return s
}

// Subscribe installs fn as the only subscriber. A nil fn detaches the
// current one; lines captured while detached are dropped.
func (s *Stream) Subscribe(fn func(Line)) {
	s.mu.Lock()
	s.subscriber = fn
	s.mu.Unlock()
}

// Begin starts a capture. Any capture still active is ended first, so at
// most one producer feeds the stream.
func (s *Stream) Begin() *Capture {
	s.mu.Lock()
	prev := s.active
	s.mu.Unlock()
	if prev != nil {
		prev.End()
	}

	c := &Capture{stream: s}
	s.mu.Lock()
	s.active = c
	s.mu.Unlock()
	return c
}

// Active reports whether a capture is installed.
func (s *Stream) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

func (s *Stream) release(c *Capture) {
	s.mu.Lock()
	if s.active == c {
		s.active = nil
	}
	s.mu.Unlock()
}

func (s *Stream) publish(text string) {
	s.mu.Lock()
	if s.subscriber == nil {
		s.mu.Unlock()
		return
	}
	defer s.mu.Unlock()
	s.seq++
	s.box.Post(Line{Seq: s.seq, Time: s.now(), Text: text})
}

// Pump delivers every pending line to the subscriber in arrival order and
// returns how many were delivered. It must be called from the goroutine
// that owns the subscriber.
func (s *Stream) Pump() int {
	lines, dropped := s.box.Drain()
	s.mu.Lock()
	fn := s.subscriber
	s.mu.Unlock()
	if fn == nil {
		return 0
	}
	for _, l := range lines {
		fn(l)
	}
	if dropped > 0 {
		fn(Line{Time: s.now(), Text: fmt.Sprintf("... %d log lines dropped", dropped)})
		return len(lines) + 1
	}
	return len(lines)
}

// Announce queues text behind every line captured so far and delivers the
// queue, so notes from the interactive loop interleave with the captured
// output in sequence order. A note is never dropped for capacity. Call it
// from the subscriber's goroutine.
func (s *Stream) Announce(text string) {
	s.mu.Lock()
	if s.subscriber == nil {
		s.mu.Unlock()
		return
	}
	s.seq++
	s.box.Push(Line{Seq: s.seq, Time: s.now(), Text: text})
	s.mu.Unlock()
	s.Pump()
}

// Pending is the number of lines waiting for Pump.
func (s *Stream) Pending() int {
	return s.box.Len()
}

func (s *Stream) Ready() <-chan struct{} {
	return s.box.Ready()
}

func (s *Stream) Wait(ctx context.Context) error {
	return s.box.Wait(ctx)
}

// Capture is the io.Writer handed to a run. Text is split on newlines;
// an unterminated tail is held until the next newline or End.
type Capture struct {
	stream *Stream

	mu      sync.Mutex
	partial []byte
	ended   bool
}

// Write never blocks and never fails. After End it discards its input.
func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ended {
		return len(p), nil
	}

	data := p
	for len(data) > 0 {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			c.partial = append(c.partial, data...)
			if len(c.partial) >= maxPartial {
				c.flushLocked()
			}
			break
		}
		c.partial = append(c.partial, data[:i]...)
		c.flushLocked()
		data = data[i+1:]
	}
	return len(p), nil
}

func (c *Capture) flushLocked() {
	text := string(bytes.TrimRight(c.partial, "\r"))
	c.partial = c.partial[:0]
	c.stream.publish(text)
}

// End flushes any unterminated text and detaches the capture. It is safe
// to call more than once and from any goroutine.
func (c *Capture) End() {
	c.mu.Lock()
	if c.ended {
		c.mu.Unlock()
		return
	}
	if len(c.partial) > 0 {
		c.flushLocked()
	}
	c.ended = true
	c.mu.Unlock()
	c.stream.release(c)
}

func (c *Capture) Ended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}
