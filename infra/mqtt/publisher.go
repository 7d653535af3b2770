package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremetrics "github.com/kilianp07/parkagent/core/metrics"
	coremon "github.com/kilianp07/parkagent/core/monitoring"
	"github.com/kilianp07/parkagent/infra/logger"
	"github.com/kilianp07/parkagent/internal/eventbus"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher sends events as JSON to <topic>/decisions and <topic>/payments.
type Publisher struct {
	cli        pahoClient
	topic      string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// NewPublisher connects to the broker.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Publisher{
		cli:        c,
		topic:      cfg.Topic,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}, nil
}

// TopicFor returns the topic an event is published to.
func (p *Publisher) TopicFor(ev coremetrics.Event) (string, error) {
	switch ev.(type) {
	case coremetrics.DecisionEvent:
		return p.topic + "/decisions", nil
	case coremetrics.PaymentEvent:
		return p.topic + "/payments", nil
	default:
		return "", fmt.Errorf("unsupported event %T", ev)
	}
}

// Publish sends ev, retrying with exponential backoff. A final failure is
// reported to the monitor. Cancelling ctx abandons the pending wait or
// backoff and returns ctx.Err().
func (p *Publisher) Publish(ctx context.Context, ev coremetrics.Event) error {
	topic, err := p.TopicFor(ev)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qos, p.retain, payload)
		select {
		case <-token.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		if publishErr = token.Error(); publishErr == nil {
			p.log.Debugw("event published", map[string]any{"topic": topic, "bytes": len(payload)})
			return nil
		}
		p.log.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.maxRetries {
			if err := sleepCtx(ctx, p.backoff*time.Duration(1<<attempt)); err != nil {
				return err
			}
		}
	}
	coremon.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": topic})
	return publishErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Forward publishes every event from bus until ctx is done or the bus is
// closed. The returned channel is closed when forwarding stops.
func (p *Publisher) Forward(ctx context.Context, bus *eventbus.Bus[coremetrics.Event]) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				_ = p.Publish(ctx, ev)
			}
		}
	}()
	return done
}

// Disconnect gracefully closes the MQTT connection.
func (p *Publisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
