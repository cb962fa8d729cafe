// Package nats wraps a JetStream connection for relaying kernel events
// to external consumers, adapted from a general-purpose OMS message bus
// down to the single event subject the broadcaster relay publishes on.
package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Config holds the connection and stream parameters for the event relay.
type Config struct {
	URL      string
	ClientID string
	Stream   StreamConfig
}

// StreamConfig defines the JetStream stream the relay publishes into.
type StreamConfig struct {
	Name      string
	Subjects  []string
	Retention nats.RetentionPolicy
	MaxAge    time.Duration
	MaxMsgs   int64
}

// Client wraps a NATS connection plus JetStream context.
type Client struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
	config *Config
}

// NewClient connects, opens a JetStream context, and ensures the
// configured stream exists.
func NewClient(config *Config) (*Client, error) {
	logger := logrus.WithField("component", "nats-client")

	opts := []nats.Option{
		nats.Name(config.ClientID),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Errorf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Errorf("NATS error: %v", err)
		}),
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &Client{conn: conn, js: js, logger: logger, config: config}

	if err := client.ensureStream(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize stream: %w", err)
	}

	return client, nil
}

func (c *Client) ensureStream() error {
	sc := c.config.Stream
	streamCfg := &nats.StreamConfig{
		Name:      sc.Name,
		Subjects:  sc.Subjects,
		Retention: sc.Retention,
		MaxAge:    sc.MaxAge,
		MaxMsgs:   sc.MaxMsgs,
		Storage:   nats.FileStorage,
		Replicas:  1,
	}

	if _, err := c.js.StreamInfo(sc.Name); err == nil {
		if _, err := c.js.UpdateStream(streamCfg); err != nil {
			return fmt.Errorf("failed to update stream %s: %w", sc.Name, err)
		}
		c.logger.Infof("updated stream: %s", sc.Name)
	} else {
		if _, err := c.js.AddStream(streamCfg); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", sc.Name, err)
		}
		c.logger.Infof("created stream: %s", sc.Name)
	}
	return nil
}

// Close closes the underlying connection.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// Publish marshals data as JSON and publishes it to subject via
// JetStream, for at-least-once delivery to relay consumers.
func (c *Client) Publish(subject string, data interface{}) error {
	msg, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if _, err := c.js.Publish(subject, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	c.logger.Debugf("published to %s", subject)
	return nil
}

// MessageHandler processes one incoming message.
type MessageHandler func(subject string, data []byte) error

// Subscription wraps a durable JetStream subscription.
type Subscription struct {
	sub    *nats.Subscription
	logger *logrus.Entry
}

// Subscribe creates a durable JetStream subscription on subject.
func (c *Client) Subscribe(subject string, handler MessageHandler) (*Subscription, error) {
	sub, err := c.js.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(msg.Subject, msg.Data); err != nil {
			c.logger.Errorf("handler error for %s: %v", msg.Subject, err)
		}
		msg.Ack()
	}, nats.Durable(fmt.Sprintf("mm-kernel-%s", sanitizeDurable(subject))))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	c.logger.Infof("subscribed to %s", subject)
	return &Subscription{sub: sub, logger: c.logger}, nil
}

// Unsubscribe removes the subscription.
func (s *Subscription) Unsubscribe() error {
	if err := s.sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	s.logger.Info("unsubscribed")
	return nil
}

func sanitizeDurable(subject string) string {
	out := make([]rune, 0, len(subject))
	for _, r := range subject {
		if r == '.' || r == '*' || r == '>' {
			out = append(out, '-')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
