// internal/client/client.go
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/minhhoangcong/Nhom6-GameRock-Paper-Scissors/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultReconnect is the fixed wait between connection attempts.
	DefaultReconnect = 3 * time.Second
	// DefaultPingInterval is how often latency is probed.
	DefaultPingInterval = 5 * time.Second

	writeTimeout = 5 * time.Second
)

// ErrNotConnected is returned by Send while no connection is up.
var ErrNotConnected = errors.New("not connected")

// Config holds the connection settings of a Client.
type Config struct {
	URL          string
	Reconnect    time.Duration
	PingInterval time.Duration
}

// Handler receives every event the server sends, in order.
type Handler func(ev models.Event)

// Client keeps one websocket session to the server alive. When the
// connection drops it waits a fixed interval and dials again; the server
// then hands out a fresh identity and room list. Mid-round state is never
// resumed.
type Client struct {
	cfg     Config
	handler Handler
	log     logrus.FieldLogger

	mu   sync.Mutex
	conn *websocket.Conn
	id   string

	rtt atomic.Int64
}

// New returns a client that feeds events to handler. Zero durations fall back
// to the defaults.
func New(cfg Config, handler Handler, logger logrus.FieldLogger) *Client {
	if cfg.Reconnect <= 0 {
		cfg.Reconnect = DefaultReconnect
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}
	return &Client{cfg: cfg, handler: handler, log: logger}
}

// Run connects and serves until ctx is cancelled, reconnecting after every
// loss. It always returns ctx's error.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.WithError(err).Warnf("Connection lost. Reconnecting in %s.", c.cfg.Reconnect)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.Reconnect):
		}
	}
}

// Send writes one message on the current connection.
func (c *Client) Send(ctx context.Context, msg models.ClientMessage) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

// ID is the identity assigned by the server on the current connection.
func (c *Client) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// RTT is the last measured round-trip time, or zero before the first pong.
func (c *Client) RTT() time.Duration {
	return time.Duration(c.rtt.Load())
}

// session serves one connection from dial to loss.
func (c *Client) session(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	c.log.Infof("Connected to %s.", c.cfg.URL)

	c.mu.Lock()
	c.conn = conn
	c.id = ""
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.pinger(sctx)

	for {
		var ev models.Event
		if err := wsjson.Read(sctx, conn, &ev); err != nil {
			return err
		}
		switch ev.Type {
		case models.EventPong:
			if ev.T > 0 {
				c.rtt.Store(int64(time.Since(time.UnixMilli(ev.T))))
			}
		case models.EventPlayerID:
			c.mu.Lock()
			c.id = ev.PlayerID
			c.mu.Unlock()
		}
		if c.handler != nil {
			c.handler(ev)
		}
	}
}

// pinger sends a ping carrying the local clock on every tick.
func (c *Client) pinger(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := models.ClientMessage{Type: models.MsgPing, T: time.Now().UnixMilli()}
			if err := c.Send(ctx, msg); err != nil {
				c.log.Debugf("Ping failed: %v", err)
			}
		}
	}
}
