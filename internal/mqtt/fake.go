package mqtt

import "sync"

// Message is a recorded publish.
type Message struct {
	Topic    string
	Payload  string
	Retained bool
	QoS      byte
}

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Messages contains all messages that were published.
	Messages []Message

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	subs map[string]func(Command)
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{subs: make(map[string]func(Command))}
}

// Publish records the message.
func (f *FakePublisher) Publish(topic, payload string, retain bool, qos byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Messages = append(f.Messages, Message{Topic: topic, Payload: payload, Retained: retain, QoS: qos})
	return nil
}

// Sent returns a copy of the messages published to topic.
func (f *FakePublisher) Sent(topic string) []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Message
	for _, m := range f.Messages {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// Subscribe records the handler for topic.
func (f *FakePublisher) Subscribe(topic string, h func(Command)) error {
	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[string]func(Command))
	}
	f.subs[topic] = h
	f.mu.Unlock()
	return nil
}

// Deliver simulates a message arriving on topic. Returns false if nothing is
// subscribed or the payload is empty.
func (f *FakePublisher) Deliver(topic, payload string) bool {
	f.mu.Lock()
	h := f.subs[topic]
	f.mu.Unlock()
	if h == nil {
		return false
	}
	cmd, ok := ParseCommand(payload)
	if !ok {
		return false
	}
	h(cmd)
	return true
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = nil
	f.Closed = false
	f.PublishError = nil
	f.Connected = false
}
