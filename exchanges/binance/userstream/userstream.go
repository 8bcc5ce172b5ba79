// Package userstream consumes a Binance user data stream opened with a
// listen key. It holds no key lifecycle: starting the stream and keeping
// the key alive remain the caller's obligation through the margin client.
package userstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/thrasher-corp/binancemargin/exchanges/binance"
	"github.com/thrasher-corp/binancemargin/log"
)

const (
	defaultEventBuffer   = 64
	defaultHandshake     = 10 * time.Second
	closeMessageDeadline = time.Second
)

var (
	errListenKeyRequired = errors.New("listen key required")
	errInvalidStreamURL  = errors.New("invalid stream url")
	errDial              = errors.New("user data stream dial failed")
)

// Client dials user data streams
type Client struct {
	streamURL string
	dialer    *websocket.Dialer
	buffer    int
	verbose   bool
}

// Option configures a Client
type Option func(*Client)

// WithDialer overrides the websocket dialer
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// WithEventBuffer sets the capacity of the event channel
func WithEventBuffer(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.buffer = n
		}
	}
}

// WithVerbose logs every received message name
func WithVerbose(v bool) Option {
	return func(c *Client) {
		c.verbose = v
	}
}

// New returns a Client for a ws or wss base url such as
// wss://stream.binance.com:9443/ws
func New(streamURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(streamURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidStreamURL, err)
	}
	if (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", errInvalidStreamURL, streamURL)
	}
	c := &Client{
		streamURL: strings.TrimSuffix(streamURL, "/"),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: defaultHandshake,
		},
		buffer: defaultEventBuffer,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Stream is a connected user data stream. Events is closed when the
// connection ends; Err then reports why.
type Stream struct {
	conn      *websocket.Conn
	events    chan Event
	done      chan struct{}
	closing   atomic.Bool
	closeOnce sync.Once
	verbose   bool

	mu  sync.Mutex
	err error
}

// Connect dials <streamURL>/<key> and starts delivering events. Cancelling
// ctx closes the stream.
func (c *Client) Connect(ctx context.Context, key binance.ListenKey) (*Stream, error) {
	if key == "" {
		return nil, errListenKeyRequired
	}
	target := c.streamURL + "/" + url.PathEscape(string(key))
	conn, resp, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: %s status %d: %w", errDial, c.streamURL, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", errDial, c.streamURL, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	log.Infof(log.StreamSys, "user data stream connected to %s", c.streamURL)

	s := &Stream{
		conn:    conn,
		events:  make(chan Event, c.buffer),
		done:    make(chan struct{}),
		verbose: c.verbose,
	}
	go s.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
	return s, nil
}

// Events returns the channel of decoded events in arrival order
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Err returns the error that ended the stream, nil when it was closed
// locally. It is only meaningful once Events has been closed.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close sends a close frame and releases the connection
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		close(s.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeMessageDeadline))
		err = s.conn.Close()
	})
	return err
}

func (s *Stream) readLoop() {
	defer close(s.events)
	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closing.Load() {
				s.setErr(err)
				log.Warnf(log.StreamSys, "user data stream ended: %v", err)
				_ = s.Close()
			}
			return
		}
		ev, err := Parse(msg)
		if err != nil {
			log.Errorf(log.StreamSys, "user data stream: %v", err)
			continue
		}
		if s.verbose {
			log.Debugf(log.StreamSys, "user data stream event %s", ev.Kind())
		}
		if _, ok := ev.(*ListenKeyExpired); ok {
			log.Warn(log.StreamSys, "user data stream listen key expired")
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
