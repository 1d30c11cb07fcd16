// Package realtimetest provides an in-memory realtime connection for tests.
package realtimetest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/mbeoliero/xchange/internal/realtime"
)

const barrierEvent = "__barrier"

// DeliverTimeout bounds how long Deliver waits for the read loop
var DeliverTimeout = 2 * time.Second

// Conn is an in-memory realtime.Conn. Frames written by the client are recorded;
// frames injected with Deliver are read by the channel's read loop.
type Conn struct {
	inbox     chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	sent []*realtime.Frame
}

func NewConn() *Conn {
	return &Conn{
		inbox:  make(chan []byte),
		closed: make(chan struct{}),
	}
}

func (c *Conn) ReadMessage() ([]byte, error) {
	select {
	case msg := <-c.inbox:
		return msg, nil
	case <-c.closed:
		return nil, realtime.ErrConnClosed
	}
}

func (c *Conn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return realtime.ErrConnClosed
	default:
	}
	frame, err := realtime.DecodeFrame(data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.sent = append(c.sent, frame)
	c.mu.Unlock()
	return nil
}

func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// IsClosed reports whether Close was called
func (c *Conn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Conn) push(data []byte) error {
	select {
	case c.inbox <- data:
		return nil
	case <-c.closed:
		return realtime.ErrConnClosed
	case <-time.After(DeliverTimeout):
		return errors.New("realtimetest: read loop did not take the frame")
	}
}

// Deliver injects an inbound event and returns once every handler for it has run
func (c *Conn) Deliver(event string, payload interface{}) error {
	data, err := realtime.EncodeFrame(event, "", payload)
	if err != nil {
		return err
	}
	if err := c.push(data); err != nil {
		return err
	}
	// the loop reads the barrier only after dispatching the previous frame
	barrier, _ := realtime.EncodeFrame(barrierEvent, "", nil)
	return c.push(barrier)
}

// DeliverRaw injects raw bytes, for malformed frame tests
func (c *Conn) DeliverRaw(data []byte) error {
	if err := c.push(data); err != nil {
		return err
	}
	barrier, _ := realtime.EncodeFrame(barrierEvent, "", nil)
	return c.push(barrier)
}

// Sent returns the frames written so far
func (c *Conn) Sent() []*realtime.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*realtime.Frame, len(c.sent))
	copy(out, c.sent)
	return out
}

// SentEvents returns the event names written so far
func (c *Conn) SentEvents() []string {
	frames := c.Sent()
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Event)
	}
	return out
}

// SentOf returns the payloads written for event
func (c *Conn) SentOf(event string) []json.RawMessage {
	var out []json.RawMessage
	for _, f := range c.Sent() {
		if f.Event == event {
			out = append(out, f.Data)
		}
	}
	return out
}

// Reset forgets the recorded frames
func (c *Conn) Reset() {
	c.mu.Lock()
	c.sent = nil
	c.mu.Unlock()
}

// Dialer hands out Conn on every dial
type Dialer struct {
	mu     sync.Mutex
	Err    error
	conns  []*Conn
	tokens []string
}

func NewDialer() *Dialer {
	return &Dialer{}
}

func (d *Dialer) Dial(_ context.Context, token string) (realtime.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	c := NewConn()
	d.conns = append(d.conns, c)
	d.tokens = append(d.tokens, token)
	return c, nil
}

// Dials returns the number of successful dials
func (d *Dialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

// Last returns the most recent connection, or nil
func (d *Dialer) Last() *Conn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

// Tokens returns the tokens passed to each dial
func (d *Dialer) Tokens() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.tokens...)
}
