package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrTransportClosed is returned by Send once the connection is gone.
// The client never reconnects on its own: a closed connection is surfaced
// upward and the surrounding application decides whether to re-establish it,
// so no message is ever silently lost.
var ErrTransportClosed = errors.New("transport closed")

const (
	defaultPingInterval = 5 * time.Second
	defaultWriteTimeout = 10 * time.Second
	sendBuffer          = 256
)

// Options configures a Client. All fields are optional.
type Options struct {
	// OnClose is invoked exactly once when the connection closes
	// unexpectedly. A deliberate Close does not trigger it.
	OnClose func(error)
	// OnMessage receives raw inbound frames. Inbound traffic is outside
	// this client's contract; it is handed off verbatim.
	OnMessage func([]byte)
	Logger    *zap.SugaredLogger
	// PingInterval overrides the 5-second keep-alive cadence (tests only).
	PingInterval time.Duration
}

// Client owns the single persistent connection to one backend endpoint.
// Sends are serialized through one write pump, preserving per-caller
// submission order, with a {op:"ping"} keep-alive on a fixed interval.
type Client struct {
	conn *websocket.Conn
	opts Options

	send   chan []byte
	closed chan struct{}

	closeOnce  sync.Once
	deliberate bool
}

// Dial connects to the backend and starts the read/write pumps.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		conn:   conn,
		opts:   opts,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
	go c.writePump()
	go c.readPump()
	opts.Logger.Infow("connected", "url", url)
	return c, nil
}

// Send serializes and queues a message. Fire-and-forget: a nil return means
// the message was accepted for transmission, not that the backend saw it.
func (c *Client) Send(m Message) error {
	if m.Args == nil {
		m.Args = []any{}
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", m.Op, err)
	}
	// Check closed first on its own: once the pumps are gone the buffered
	// send channel stays accepting, and a two-way select would sometimes
	// enqueue onto a channel nothing drains.
	select {
	case <-c.closed:
		return ErrTransportClosed
	default:
	}
	select {
	case <-c.closed:
		return ErrTransportClosed
	case c.send <- payload:
		return nil
	}
}

// Close shuts the connection down deliberately. OnClose is not invoked.
func (c *Client) Close() error {
	c.shutdown(nil, true)
	return nil
}

// Closed reports whether the connection is gone.
func (c *Client) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Client) shutdown(err error, deliberate bool) {
	c.closeOnce.Do(func() {
		c.deliberate = deliberate
		close(c.closed)
		c.conn.Close()
		if !deliberate {
			c.opts.Logger.Warnw("connection closed", "err", err)
			if c.opts.OnClose != nil {
				go c.opts.OnClose(err)
			}
		}
	})
}

// writePump drains the send queue onto the socket and emits the protocol
// keep-alive. It is the only goroutine that writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	ping, _ := json.Marshal(Ping())
	for {
		select {
		case <-c.closed:
			return
		case payload := <-c.send:
			if err := c.write(payload); err != nil {
				c.shutdown(err, false)
				return
			}
		case <-ticker.C:
			if err := c.write(ping); err != nil {
				c.shutdown(err, false)
				return
			}
		}
	}
}

func (c *Client) write(payload []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// readPump exists to detect close and hand inbound frames off. The protocol
// has no request/response correlation, so nothing in here blocks a sender.
func (c *Client) readPump() {
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(err, false)
			return
		}
		if c.opts.OnMessage != nil {
			c.opts.OnMessage(message)
		}
	}
}
