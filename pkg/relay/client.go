package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ha1tch/mimic-toolkit/internal/logging"
	"github.com/ha1tch/mimic-toolkit/pkg/diagram"
)

// ErrClosed is returned by Run once the client has been closed.
var ErrClosed = errors.New("relay client closed")

// Client is one peer's connection to a relay. Publishing never blocks:
// when the outbound buffer is full the message is dropped and a warning
// logged.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	log  *logging.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial connects to a relay WebSocket endpoint such as ws://host:8000/ws.
func Dial(ctx context.Context, url string, log *logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.Named("relay.client")
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		log:    log,
		closed: make(chan struct{}),
	}
	go c.writeLoop()
	log.Info("connected to %s", url)
	return c, nil
}

// Publish queues msg for the relay. It reports whether msg was queued.
func (c *Client) Publish(msg []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("relay send buffer full; dropping %d-byte message", len(msg))
		return false
	}
}

// PublishState queues a full diagram document.
func (c *Client) PublishState(s *diagram.State) bool {
	data, err := EncodeState(s)
	if err != nil {
		c.log.Error("encode state: %v", err)
		return false
	}
	return c.Publish(data)
}

// PublishToggle queues a component state change.
func (c *Client) PublishToggle(id string, on bool) bool {
	return c.Publish(Toggle{ID: id, IsOn: on}.Encode())
}

// Attach publishes the model's state after every publishable change.
func (c *Client) Attach(m *diagram.Model) {
	m.Subscribe(func(ch diagram.Change) {
		if Publishable(ch.Op) {
			c.PublishState(ch.State)
		}
	})
}

// Run reads inbound messages and hands each to handle until the
// connection fails, ctx is done or the client is closed.
func (c *Client) Run(ctx context.Context, handle func([]byte)) error {
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.closed:
		}
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrClosed
			default:
			}
			c.Close()
			return fmt.Errorf("relay read: %w", err)
		}
		handle(msg)
	}
}

// Close shuts the connection down. It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = c.conn.Close()
	})
	return err
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Warn("relay write: %v", err)
				c.Close()
				return
			}
		}
	}
}

// Applier applies inbound relay messages to a model.
type Applier struct {
	Model *diagram.Model
	Log   *logging.Logger
}

// Apply handles one inbound message. Toggles for known components are
// applied without propagation or history; everything else is ignored.
// The returned bool reports whether the model changed.
func (a *Applier) Apply(msg []byte) (bool, error) {
	t, ok, err := DecodeToggle(msg)
	if err != nil {
		return false, err
	}
	if !ok {
		a.logger().Debug("ignoring non-toggle message (%d bytes)", len(msg))
		return false, nil
	}
	if err := a.Model.ApplyRemoteToggle(t.ID, t.IsOn); err != nil {
		if errors.Is(err, diagram.ErrUnknownEntity) {
			a.logger().Debug("ignoring toggle for %s: %v", t.ID, err)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *Applier) logger() *logging.Logger {
	if a.Log == nil {
		a.Log = logging.Named("relay.apply")
	}
	return a.Log
}
