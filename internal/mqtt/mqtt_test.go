package mqtt

import (
	"errors"
	"testing"
)

func TestFormatValue(t *testing.T) {
	if got := FormatValue(0); got != LightOff {
		t.Errorf("FormatValue(0): got %q, want %q", got, LightOff)
	}
	if got := FormatValue(42); got != "42" {
		t.Errorf("FormatValue(42): got %q, want 42", got)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		payload string
		want    Command
		ok      bool
	}{
		{"reboot", Command{Name: "reboot"}, true},
		{"  REBOOT  ", Command{Name: "reboot"}, true},
		{"switchap guest", Command{Name: "switchap", Arg: "guest"}, true},
		{"rescanwifi a  b", Command{Name: "rescanwifi", Arg: "a b"}, true},
		{"", Command{}, false},
		{"   ", Command{}, false},
	}

	for _, tt := range tests {
		got, ok := ParseCommand(tt.payload)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseCommand(%q): got (%+v, %v), want (%+v, %v)", tt.payload, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	if err := f.Publish("lightswitchfeed", "0", true, AtLeastOnce); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Publish("loggingfeed", "rebooting", true, AtLeastOnce); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(f.Messages))
	}
	got := f.Sent("lightswitchfeed")
	if len(got) != 1 {
		t.Fatalf("expected 1 lightswitch message, got %d", len(got))
	}
	want := Message{Topic: "lightswitchfeed", Payload: "0", Retained: true, QoS: 1}
	if got[0] != want {
		t.Errorf("got %+v, want %+v", got[0], want)
	}
}

func TestFakePublisherError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")

	if err := f.Publish("t", "0", true, AtLeastOnce); err == nil {
		t.Error("expected error to be returned")
	}
	if len(f.Messages) != 0 {
		t.Error("failed publish should not be recorded")
	}
}

func TestFakePublisherDeliver(t *testing.T) {
	f := NewFakePublisher()
	var got []Command
	f.Subscribe("cmdfeed", func(c Command) { got = append(got, c) })

	if !f.Deliver("cmdfeed", "Reset now") {
		t.Fatal("Deliver should reach the subscriber")
	}
	if f.Deliver("other", "reboot") {
		t.Error("Deliver to unsubscribed topic should fail")
	}
	if f.Deliver("cmdfeed", "") {
		t.Error("empty payload should not be delivered")
	}

	if len(got) != 1 || got[0] != (Command{Name: "reset", Arg: "now"}) {
		t.Errorf("commands: got %+v", got)
	}
}

func TestFakePublisherCloseAndReset(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true
	f.Publish("t", "1", false, AtMostOnce)
	f.Close()

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
	f.Reset()
	if f.Closed || f.Connected || len(f.Messages) != 0 {
		t.Errorf("Reset left state: closed=%v connected=%v messages=%d", f.Closed, f.Connected, len(f.Messages))
	}
}

func TestNop(t *testing.T) {
	var n Nop
	if err := n.Publish("t", "0", true, AtLeastOnce); err != nil {
		t.Errorf("Publish: %v", err)
	}
	if n.IsConnected() {
		t.Error("Nop should report disconnected")
	}
}

func TestNewRealPublisherNeedsBroker(t *testing.T) {
	if _, err := NewRealPublisher(Options{}); err == nil {
		t.Error("expected error without broker")
	}
}
