// Package mqtt publishes device messages to the broker and receives remote
// commands, with abstraction for testing.
package mqtt

import (
	"strconv"
	"strings"
)

// QoS levels used by the device.
const (
	AtMostOnce  byte = 0
	AtLeastOnce byte = 1
)

// LightOff is the light switch payload that turns the light off.
const LightOff = "0"

// Publisher publishes messages to the broker.
type Publisher interface {
	// Publish sends payload to topic. Returns error if publishing fails
	// (should not crash the process).
	Publish(topic, payload string, retain bool, qos byte) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Subscriber delivers commands received on a topic.
type Subscriber interface {
	// Subscribe registers h for topic. h runs on the client's delivery
	// goroutine and must hand work off rather than block.
	Subscribe(topic string, h func(Command)) error
}

// FormatValue encodes a light switch value as a payload.
func FormatValue(v int) string {
	return strconv.Itoa(v)
}

// Command is a remote command of the form "cmd[ arg]".
type Command struct {
	Name string // lower case
	Arg  string
}

// ParseCommand splits payload into a command and its optional argument.
// Returns false for an empty payload.
func ParseCommand(payload string) (Command, bool) {
	fields := strings.Fields(payload)
	if len(fields) == 0 {
		return Command{}, false
	}
	cmd := Command{Name: strings.ToLower(fields[0])}
	if len(fields) > 1 {
		cmd.Arg = strings.Join(fields[1:], " ")
	}
	return cmd, true
}

// Nop discards everything. Used when the device runs without a network.
type Nop struct{}

func (Nop) Publish(topic, payload string, retain bool, qos byte) error { return nil }
func (Nop) Subscribe(topic string, h func(Command)) error              { return nil }
func (Nop) Close() error                                               { return nil }
func (Nop) IsConnected() bool                                          { return false }
