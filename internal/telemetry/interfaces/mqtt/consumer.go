// Package mqtt subscribes to the controller's topic tree and feeds every
// message into the ingest queue.
package mqtt

import (
	"errors"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Sink receives raw transport messages.
type Sink interface {
	Enqueue(topic string, payload []byte)
}

// Config holds broker connection settings.
type Config struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	Topic     string
}

// Consumer bridges the broker subscription to the ingest pipeline.
type Consumer struct {
	client paho.Client
	cfg    Config
	sink   Sink
	logger *log.Logger
}

// NewConsumer constructs a consumer. Connect happens in Start.
func NewConsumer(cfg Config, sink Sink, logger *log.Logger) (*Consumer, error) {
	if cfg.BrokerURL == "" {
		return nil, errors.New("mqtt: empty broker url")
	}
	if cfg.Topic == "" {
		return nil, errors.New("mqtt: empty topic")
	}
	if sink == nil {
		return nil, errors.New("mqtt: nil sink")
	}
	if logger == nil {
		return nil, errors.New("mqtt: nil logger")
	}

	c := &Consumer{cfg: cfg, sink: sink, logger: logger}

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Printf("mqtt: connection lost: %v", err)
	})

	c.client = paho.NewClient(opts)
	return c, nil
}

// Start connects to the broker. The subscription is re-established on every
// reconnect by the connect handler.
func (c *Consumer) Start() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (c *Consumer) onConnect(client paho.Client) {
	token := client.Subscribe(c.cfg.Topic, 0, func(_ paho.Client, msg paho.Message) {
		c.sink.Enqueue(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		c.logger.Printf("mqtt: subscribe %s failed: %v", c.cfg.Topic, token.Error())
		return
	}
	c.logger.Printf("mqtt: subscribed to %s", c.cfg.Topic)
}

// Close disconnects from the broker.
func (c *Consumer) Close() {
	if c == nil || c.client == nil {
		return
	}
	c.client.Disconnect(250)
}
