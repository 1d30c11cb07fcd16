package realtime

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/mbeoliero/kit/log"

	"github.com/mbeoliero/xchange/pkg/constant"
	"github.com/mbeoliero/xchange/pkg/idgen"
)

// Handler receives the payload of one inbound event.
// Handlers run on the channel's read loop, one at a time, in arrival order.
type Handler func(ctx context.Context, data json.RawMessage)

// Disposer removes a listener. Calling it more than once is harmless.
type Disposer func()

func newDisposer(fn func()) Disposer {
	var once sync.Once
	return func() { once.Do(fn) }
}

type listener struct {
	id      uint64
	handler Handler
}

// Channel is the process-wide handle to the realtime server for one signed-in user
type Channel struct {
	dialer Dialer

	mu        sync.RWMutex
	conn      Conn
	userId    string
	token     string
	rooms     map[string]struct{}
	listeners map[string]map[uint64]*listener
	nextId    uint64
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewChannel creates an unconnected channel
func NewChannel(dialer Dialer) *Channel {
	ctx, cancel := context.WithCancel(context.Background())
	return &Channel{
		dialer:    dialer,
		rooms:     make(map[string]struct{}),
		listeners: make(map[string]map[uint64]*listener),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect opens the connection for userId and announces presence.
// Calling it again for the same user while connected is a no-op.
func (c *Channel) Connect(ctx context.Context, userId, token string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrChannelClosed
	}
	if c.conn != nil {
		bound := c.userId
		c.mu.Unlock()
		if bound == userId {
			return nil
		}
		return ErrUserMismatch
	}
	c.mu.Unlock()

	conn, err := c.dialer.Dial(ctx, token)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed || c.conn != nil {
		c.mu.Unlock()
		_ = conn.Close()
		if c.closed {
			return ErrChannelClosed
		}
		return nil
	}
	c.conn = conn
	c.userId = userId
	c.token = token
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.readLoop(conn, done)

	log.CtxInfo(ctx, "realtime connected: user_id=%s", userId)
	return c.Emit(constant.EventUserOnline, userId)
}

// UserId returns the user the channel is bound to
func (c *Channel) UserId() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userId
}

// Connected reports whether a live connection exists
func (c *Channel) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil
}

// Emit publishes an event without waiting for any acknowledgement
func (c *Channel) Emit(event string, payload interface{}) error {
	c.mu.RLock()
	conn, closed := c.conn, c.closed
	c.mu.RUnlock()
	if closed {
		return ErrChannelClosed
	}
	if conn == nil {
		return ErrNotConnected
	}

	data, err := EncodeFrame(event, idgen.OperationId(), payload)
	if err != nil {
		return err
	}
	return conn.WriteMessage(data)
}

// JoinRoom asks the server to deliver message events of a conversation
func (c *Channel) JoinRoom(conversationId string) error {
	if err := c.Emit(constant.EventJoinConversation, conversationId); err != nil {
		return err
	}
	c.mu.Lock()
	c.rooms[conversationId] = struct{}{}
	c.mu.Unlock()
	return nil
}

// LeaveRoom stops delivery for a conversation
func (c *Channel) LeaveRoom(conversationId string) error {
	c.mu.Lock()
	delete(c.rooms, conversationId)
	c.mu.Unlock()
	return c.Emit(constant.EventLeaveConversation, conversationId)
}

// Rooms lists the joined conversation ids
func (c *Channel) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rooms := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	sort.Strings(rooms)
	return rooms
}

// On registers handler for event and returns its disposer.
// On a closed channel the handler is never registered.
func (c *Channel) On(event string, handler Handler) Disposer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}

	c.nextId++
	l := &listener{id: c.nextId, handler: handler}
	if c.listeners[event] == nil {
		c.listeners[event] = make(map[uint64]*listener)
	}
	c.listeners[event][l.id] = l

	return newDisposer(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if ls := c.listeners[event]; ls != nil {
			delete(ls, l.id)
			if len(ls) == 0 {
				delete(c.listeners, event)
			}
		}
	})
}

// ListenerCount returns the number of handlers registered for event
func (c *Channel) ListenerCount(event string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listeners[event])
}

// snapshot returns the handlers of event in registration order
func (c *Channel) snapshot(event string) []*listener {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	ls := make([]*listener, 0, len(c.listeners[event]))
	for _, l := range c.listeners[event] {
		ls = append(ls, l)
	}
	sort.Slice(ls, func(i, j int) bool { return ls[i].id < ls[j].id })
	return ls
}

// alive reports whether listener id of event is still registered
func (c *Channel) alive(event string, id uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	_, ok := c.listeners[event][id]
	return ok
}

func (c *Channel) readLoop(conn Conn, done chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			log.CtxError(c.ctx, "realtime read loop panic: user_id=%s, error=%v", c.UserId(), r)
		}
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
			c.rooms = make(map[string]struct{})
		}
		c.mu.Unlock()
		_ = conn.Close()
		close(done)
	}()

	for {
		message, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() == nil {
				log.Warn("realtime read error: user_id=%s, error=%v", c.UserId(), err)
			}
			return
		}

		frame, err := DecodeFrame(message)
		if err != nil {
			log.Debug("realtime drop frame: error=%v", err)
			continue
		}
		c.dispatch(frame)
	}
}

func (c *Channel) dispatch(frame *Frame) {
	for _, l := range c.snapshot(frame.Event) {
		// a handler earlier in this dispatch may have disposed a later one
		if !c.alive(frame.Event, l.id) {
			continue
		}
		c.invoke(frame, l)
	}
}

func (c *Channel) invoke(frame *Frame, l *listener) {
	defer func() {
		if r := recover(); r != nil {
			log.CtxError(c.ctx, "realtime handler panic: event=%s, error=%v", frame.Event, r)
		}
	}()
	l.handler(c.ctx, frame.Data)
}

// Close tears the connection down and detaches every listener. It is safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.listeners = make(map[string]map[uint64]*listener)
	c.rooms = make(map[string]struct{})
	c.mu.Unlock()

	c.cancel()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Done is closed when the current connection's read loop exits
func (c *Channel) Done() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.done == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}
