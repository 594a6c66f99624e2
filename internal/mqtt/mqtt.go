package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/othaldo/luftcheck/internal/config"
)

const (
	qosAtLeastOnce = byte(1)
	tokenTimeout   = 5 * time.Second

	ventilationTopicFormat = "stations/%s/ventilation"
)

var (
	ErrNotConnected = errors.New("mqtt client not connected")
	ErrStopped      = errors.New("mqtt client stopped")
)

// MessageHandler is called for each valid telemetry message.
type MessageHandler func(telemetry Telemetry) error

// Client subscribes to station telemetry and publishes ventilation advice.
type Client struct {
	client    mqtt.Client
	cfg       config.Config
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool
	lost      bool
	handler   MessageHandler

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewClient(cfg config.Config, logger *slog.Logger) (*Client, error) {
	if cfg.MQTTTelemetryTopic == "" {
		return nil, fmt.Errorf("mqtt telemetry topic is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort))
	opts.SetClientID(cfg.MQTTClientID)

	// Session settings
	opts.SetCleanSession(true)

	// Handlers publish replies and wait for the PUBACK, so each message needs
	// its own goroutine or the router stalls behind the callback.
	opts.SetOrderMatters(false)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		resubscribe := c.markConnected()
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)

		// A clean session drops subscriptions with the connection.
		if resubscribe {
			if err := c.subscribe(); err != nil {
				logger.Error("mqtt resubscribe failed", "error", err)
			}
		}
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.mu.Lock()
		c.connected = false
		c.lost = true
		c.mu.Unlock()
		logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = mqtt.NewClient(opts)
	return c, nil
}

// SetMessageHandler registers the telemetry handler. Set it before Connect so
// no message delivered right after CONNACK is dropped.
func (c *Client) SetMessageHandler(handler MessageHandler) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

// Connect establishes the broker connection and subscribes to the telemetry topic.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return ErrStopped
	default:
	}

	if c.IsConnected() {
		return nil
	}

	token := c.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			break
		}

		select {
		case <-ctx.Done():
			c.client.Disconnect(0)
			return ctx.Err()
		case <-c.stopCh:
			c.client.Disconnect(0)
			return ErrStopped
		default:
		}
	}

	// The OnConnect callback may still be pending.
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	if err := c.subscribe(); err != nil {
		c.client.Disconnect(0)
		return fmt.Errorf("subscribe: %w", err)
	}

	return nil
}

func (c *Client) subscribe() error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	topic := c.cfg.MQTTTelemetryTopic

	token := c.client.Subscribe(topic, qosAtLeastOnce, func(_ mqtt.Client, msg mqtt.Message) {
		c.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(tokenTimeout) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, token.Error())
	}

	c.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qosAtLeastOnce)
	return nil
}

func (c *Client) handleMessage(topic string, payload []byte) {
	c.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	var telemetry Telemetry
	if err := json.Unmarshal(payload, &telemetry); err != nil {
		c.logger.Warn("failed to parse telemetry message",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}

	if err := validateTelemetry(telemetry); err != nil {
		c.logger.Warn("invalid telemetry message",
			"topic", topic,
			"station_id", telemetry.StationID,
			"error", err,
		)
		return
	}

	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()
	if handler == nil {
		return
	}

	if err := handler(telemetry); err != nil {
		c.logger.Error("message handler failed",
			"topic", topic,
			"station_id", telemetry.StationID,
			"error", err,
		)
		return
	}
	c.logger.Debug("processed telemetry message",
		"station_id", telemetry.StationID,
		"timestamp", telemetry.Timestamp,
	)
}

// PublishRecommendation publishes payload as JSON, retained, to the station's
// ventilation topic so late subscribers see the latest advice.
func (c *Client) PublishRecommendation(stationID string, payload any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	topic := fmt.Sprintf(ventilationTopicFormat, stationID)

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal recommendation: %w", err)
	}

	token := c.client.Publish(topic, qosAtLeastOnce, true, data)
	if !token.WaitTimeout(tokenTimeout) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if token.Error() != nil {
		c.logger.Error("failed to publish recommendation", "topic", topic, "error", token.Error())
		return fmt.Errorf("publish recommendation: %w", token.Error())
	}

	c.logger.Debug("published recommendation", "topic", topic, "station_id", stationID)
	return nil
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect stops the client and closes the MQTT connection.
// Idempotent and safe to call multiple times.
func (c *Client) Disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })

	if c.IsConnected() {
		token := c.client.Unsubscribe(c.cfg.MQTTTelemetryTopic)
		token.WaitTimeout(2 * time.Second)
	}

	// Disconnect without holding c.mu to avoid lock contention/deadlocks.
	c.client.Disconnect(250)

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.logger.Info("mqtt client disconnected")
}

// markConnected records a successful (re)connect and reports whether the
// connection had been lost before.
func (c *Client) markConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	wasLost := c.lost
	c.lost = false
	return wasLost
}
