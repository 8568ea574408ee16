package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/paho"
)

// ErrNotConnected is returned by Publish while the broker connection is down.
var ErrNotConnected = errors.New("mqtt: not connected")

// Config holds broker connection settings.
type Config struct {
	Broker    string // host:port
	ClientID  string
	Username  string
	Password  string
	KeepAlive time.Duration
}

// Handler is called with the payload of each message received on a
// subscribed topic. Handlers run on the client's receive goroutine and must
// not block.
type Handler func(payload []byte)

// Client is a reconnecting MQTT v5 client. Register handlers with Handle,
// then call Run to connect; Run re-subscribes all registered topics after
// every reconnect.
type Client struct {
	cfg  Config
	dial func(ctx context.Context) (net.Conn, error) // injectable for tests

	mu       sync.RWMutex
	paho     *paho.Client // nil while disconnected
	handlers map[string]Handler
}

// New creates a Client for the given broker settings.
func New(cfg Config) *Client {
	c := &Client{cfg: cfg, handlers: make(map[string]Handler)}
	c.dial = func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", cfg.Broker)
	}
	return c
}

// Handle registers h for messages published to topic (exact match, no
// wildcards). Must be called before Run.
func (c *Client) Handle(topic string, h func(payload []byte)) {
	c.handlers[topic] = h
}

// Run maintains the broker connection: connect, subscribe registered topics,
// and reconnect with exponential backoff when the connection is lost.
// Run blocks until ctx is cancelled.
func (c *Client) Run(ctx context.Context) {
	bo := newBackoff()

	for {
		if ctx.Err() != nil {
			return
		}

		done, err := c.connect(ctx)
		if err != nil {
			wait := bo.next()
			slog.Error("mqtt: connect failed, will retry",
				"broker", c.cfg.Broker, "err", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
				continue
			}
		}

		slog.Info("mqtt: connected", "broker", c.cfg.Broker, "client_id", c.cfg.ClientID)
		bo.reset()

		select {
		case <-ctx.Done():
			c.disconnect()
			return
		case <-done:
			c.clearClient()
			wait := bo.next()
			slog.Warn("mqtt: connection lost, will reconnect",
				"broker", c.cfg.Broker, "retry_in", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

// Publish sends payload to topic at QoS 0. Returns ErrNotConnected while the
// connection is down; delivery is best-effort either way.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.RLock()
	p := c.paho
	c.mu.RUnlock()
	if p == nil {
		return ErrNotConnected
	}
	_, err := p.Publish(ctx, &paho.Publish{Topic: topic, Payload: payload})
	return err
}

// connect dials the broker, performs the MQTT connect handshake, and
// subscribes to all registered topics. The returned channel is closed when
// the connection dies.
func (c *Client) connect(ctx context.Context) (<-chan struct{}, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	done := make(chan struct{})
	var once sync.Once
	lost := func(err error) {
		once.Do(func() {
			if err != nil {
				slog.Warn("mqtt: connection error", "err", err)
			}
			close(done)
		})
	}

	p := paho.NewClient(paho.ClientConfig{
		ClientID: c.cfg.ClientID,
		Conn:     conn,
		OnClientError: func(err error) {
			lost(err)
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			lost(fmt.Errorf("server disconnect (reason %d)", d.ReasonCode))
		},
	})

	for topic, h := range c.handlers {
		topic, h := topic, h
		p.AddOnPublishReceived(func(pr paho.PublishReceived) (bool, error) {
			if pr.Packet.Topic != topic {
				return false, nil
			}
			h(pr.Packet.Payload)
			return true, nil
		})
	}

	connect := &paho.Connect{
		ClientID:   c.cfg.ClientID,
		CleanStart: true,
		KeepAlive:  uint16(c.cfg.KeepAlive.Seconds()),
	}
	if c.cfg.Username != "" {
		connect.Username = c.cfg.Username
		connect.UsernameFlag = true
	}
	if c.cfg.Password != "" {
		connect.Password = []byte(c.cfg.Password)
		connect.PasswordFlag = true
	}

	ca, err := p.Connect(ctx, connect)
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("connect: %w", err)
	}
	if ca != nil && ca.ReasonCode != 0 {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("connect rejected: reason %d", ca.ReasonCode)
	}

	if len(c.handlers) > 0 {
		subs := make([]paho.SubscribeOptions, 0, len(c.handlers))
		for topic := range c.handlers {
			subs = append(subs, paho.SubscribeOptions{Topic: topic})
		}
		if _, err := p.Subscribe(ctx, &paho.Subscribe{Subscriptions: subs}); err != nil {
			_ = p.Disconnect(&paho.Disconnect{})
			return nil, fmt.Errorf("subscribe: %w", err)
		}
	}

	c.mu.Lock()
	c.paho = p
	c.mu.Unlock()
	return done, nil
}

func (c *Client) disconnect() {
	c.mu.Lock()
	p := c.paho
	c.paho = nil
	c.mu.Unlock()
	if p != nil {
		_ = p.Disconnect(&paho.Disconnect{})
	}
}

func (c *Client) clearClient() {
	c.mu.Lock()
	c.paho = nil
	c.mu.Unlock()
}
