package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mbeoliero/kit/log"
)

// Conn is a message oriented connection to the realtime server
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens a Conn for a signed-in user
type Dialer interface {
	Dial(ctx context.Context, token string) (Conn, error)
}

// ConnOptions tunes the websocket connection
type ConnOptions struct {
	HandshakeTimeout time.Duration
	MaxMessageSize   int64
	WriteWait        time.Duration
	PongWait         time.Duration
	PingPeriod       time.Duration
	WriteChannelSize int
}

func (o *ConnOptions) withDefaults() ConnOptions {
	out := *o
	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = 10 * time.Second
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = 51200
	}
	if out.WriteWait <= 0 {
		out.WriteWait = 10 * time.Second
	}
	if out.PongWait <= 0 {
		out.PongWait = 60 * time.Second
	}
	if out.PingPeriod <= 0 || out.PingPeriod >= out.PongWait {
		out.PingPeriod = out.PongWait * 9 / 10
	}
	if out.WriteChannelSize <= 0 {
		out.WriteChannelSize = 256
	}
	return out
}

// WebsocketDialer dials the realtime endpoint with gorilla/websocket
type WebsocketDialer struct {
	url  string
	opts ConnOptions
}

// NewWebsocketDialer creates a dialer for rawURL (ws:// or wss://)
func NewWebsocketDialer(rawURL string, opts ConnOptions) *WebsocketDialer {
	return &WebsocketDialer{url: rawURL, opts: opts.withDefaults()}
}

// Dial connects, passing the token both as bearer header and as query parameter
func (d *WebsocketDialer) Dial(ctx context.Context, token string) (Conn, error) {
	u, err := url.Parse(d.url)
	if err != nil {
		return nil, fmt.Errorf("invalid realtime url: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.opts.HandshakeTimeout,
	}
	ws, resp, err := dialer.DialContext(ctx, u.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial realtime server: %w", err)
	}
	return newWebsocketConn(ws, d.opts), nil
}

// websocketConn implements Conn on gorilla/websocket
type websocketConn struct {
	conn       *websocket.Conn
	writeChan  chan []byte
	writeMu    sync.Mutex
	closeOnce  sync.Once
	closed     bool
	pingPeriod time.Duration
	pongWait   time.Duration
	writeWait  time.Duration
}

func newWebsocketConn(conn *websocket.Conn, opts ConnOptions) *websocketConn {
	c := &websocketConn{
		conn:       conn,
		writeChan:  make(chan []byte, opts.WriteChannelSize),
		pingPeriod: opts.PingPeriod,
		pongWait:   opts.PongWait,
		writeWait:  opts.WriteWait,
	}

	conn.SetReadLimit(opts.MaxMessageSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	go c.writeLoop()

	return c
}

// writeLoop is the only writer on the socket
func (c *websocketConn) writeLoop() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.writeChan:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn("realtime write error: %v", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("realtime ping error: %v", err)
				return
			}
		}
	}
}

func (c *websocketConn) ReadMessage() ([]byte, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	_, message, err := c.conn.ReadMessage()
	return message, err
}

// WriteMessage queues data for the write loop without blocking
func (c *websocketConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return ErrConnClosed
	}

	select {
	case c.writeChan <- data:
		return nil
	default:
		return ErrWriteChannelFull
	}
}

// Close flushes the close frame through the write loop
func (c *websocketConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		c.closed = true
		close(c.writeChan)
		c.writeMu.Unlock()
	})
	return nil
}
