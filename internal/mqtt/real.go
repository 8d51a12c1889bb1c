package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// DefaultBufferSize is the number of publishes held while offline.
const DefaultBufferSize = 32

// Options configures a RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	BufferSize int

	// WillTopic, if set, registers WillPayload as the retained last will.
	WillTopic   string
	WillPayload string
}

// RealPublisher publishes to an actual MQTT broker. Publishes made while the
// connection is down are buffered and sent once it is back.
type RealPublisher struct {
	client paho.Client

	mu   sync.Mutex
	buf  *ringBuffer
	subs map[string]func(Command)
}

// NewRealPublisher creates a publisher connected to the given broker. If the
// broker is unreachable it keeps retrying in the background.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	if o.Broker == "" {
		return nil, fmt.Errorf("no broker configured")
	}
	size := o.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	p := &RealPublisher{
		buf:  newRingBuffer(size),
		subs: make(map[string]func(Command)),
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			slog.Warn("mqtt: connection lost", "err", err)
		})
	if o.WillTopic != "" {
		opts.SetWill(o.WillTopic, o.WillPayload, AtLeastOnce, true)
	}

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		slog.Warn("mqtt: broker not reachable yet, buffering", "broker", o.Broker)
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buf.drainAll()
	subs := make(map[string]func(Command), len(p.subs))
	for t, h := range p.subs {
		subs[t] = h
	}
	p.mu.Unlock()

	slog.Info("mqtt: connected", "buffered", len(pending))
	for topic, h := range subs {
		if err := p.subscribe(topic, h); err != nil {
			slog.Error("mqtt: resubscribe failed", "topic", topic, "err", err)
		}
	}
	for _, m := range pending {
		if err := p.publish(m.topic, m.payload, m.retained, m.qos); err != nil {
			slog.Error("mqtt: replay failed", "topic", m.topic, "err", err)
		}
	}
}

// Publish sends payload to topic, or buffers it while offline.
func (p *RealPublisher) Publish(topic, payload string, retain bool, qos byte) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retain})
		p.mu.Unlock()
		slog.Debug("mqtt: offline, buffered", "topic", topic)
		return nil
	}
	p.mu.Unlock()
	return p.publish(topic, payload, retain, qos)
}

func (p *RealPublisher) publish(topic, payload string, retain bool, qos byte) error {
	token := p.client.Publish(topic, qos, retain, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers h for commands on topic. The subscription is renewed on
// every reconnect.
func (p *RealPublisher) Subscribe(topic string, h func(Command)) error {
	p.mu.Lock()
	p.subs[topic] = h
	p.mu.Unlock()

	if !p.client.IsConnectionOpen() {
		return nil
	}
	return p.subscribe(topic, h)
}

func (p *RealPublisher) subscribe(topic string, h func(Command)) error {
	token := p.client.Subscribe(topic, AtLeastOnce, func(_ paho.Client, m paho.Message) {
		cmd, ok := ParseCommand(string(m.Payload()))
		if !ok {
			slog.Debug("mqtt: empty command", "topic", m.Topic())
			return
		}
		h(cmd)
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}
