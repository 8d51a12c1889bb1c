package button

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptPin returns scripted levels, repeating the last one when exhausted.
type scriptPin struct {
	levels []bool
	i      int
	err    error
}

func (p *scriptPin) Level() (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	v := p.levels[p.i]
	if p.i < len(p.levels)-1 {
		p.i++
	}
	return v, nil
}

func reader(levels []bool) func() (bool, error) {
	p := &scriptPin{levels: levels}
	return p.Level
}

func repeat(v bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func alternating(start bool, n int) []bool {
	out := make([]bool, n)
	v := start
	for i := range out {
		out[i] = v
		v = !v
	}
	return out
}

func noWait() {}

func TestSettleStableImmediately(t *testing.T) {
	res, err := Settle(reader([]bool{false}), noWait, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Settled || res.High {
		t.Errorf("got %+v, want settled low", res)
	}
	if res.Samples != 20 {
		t.Errorf("Samples: got %d, want 20", res.Samples)
	}
}

func TestSettleAfterBounce(t *testing.T) {
	for _, level := range []bool{true, false} {
		// bounce for fewer than threshold samples, then hold level
		samples := append(alternating(!level, 13), repeat(level, 40)...)
		res, err := Settle(reader(samples), noWait, 20, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Settled {
			t.Fatalf("level %v: did not settle", level)
		}
		if res.High != level {
			t.Errorf("level %v: settled to %v", level, res.High)
		}
	}
}

func TestSettleResetsOnToggle(t *testing.T) {
	// 15 stable, one glitch, then stable again: counter must restart
	samples := append(repeat(false, 16), true)
	samples = append(samples, repeat(false, 40)...)
	res, err := Settle(reader(samples), noWait, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.High {
		t.Error("settled high, want low")
	}
	if res.Samples <= 20 {
		t.Errorf("Samples: got %d, want more than 20 after glitch", res.Samples)
	}
}

func TestSettlePureAlternationNeverSettles(t *testing.T) {
	res, err := Settle(reader(alternating(true, 1000)), noWait, 20, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Settled {
		t.Errorf("alternating input settled: %+v", res)
	}
	if res.Samples != 200 {
		t.Errorf("Samples: got %d, want limit 200", res.Samples)
	}
}

func TestSettleReadError(t *testing.T) {
	p := &scriptPin{err: errors.New("line closed")}
	_, err := Settle(p.Level, noWait, 20, 0)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSettleWaitsBetweenSamples(t *testing.T) {
	waits := 0
	_, err := Settle(reader([]bool{true}), func() { waits++ }, 5, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waits != 5 {
		t.Errorf("waits: got %d, want 5", waits)
	}
}

func newTestDebouncer(pin Pin, got *[]bool) *Debouncer {
	return New(pin, Config{Sleep: func(time.Duration) {}}, func(pressed bool) {
		*got = append(*got, pressed)
	})
}

func TestDebouncerReportsPressThenRelease(t *testing.T) {
	pin := &scriptPin{levels: append(alternating(true, 7), repeat(false, 30)...)}
	var got []bool
	d := newTestDebouncer(pin, &got)

	d.settleOnce()
	// second edge of the same press settles to the same level: no report
	pin.levels, pin.i = repeat(false, 30), 0
	d.settleOnce()
	// release
	pin.levels, pin.i = append(alternating(false, 5), repeat(true, 30)...), 0
	d.settleOnce()

	want := []bool{true, false}
	if len(got) != len(want) {
		t.Fatalf("reports: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("report %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDebouncerNoClickOnNoise(t *testing.T) {
	pin := &scriptPin{levels: alternating(false, 2000)}
	var got []bool
	d := newTestDebouncer(pin, &got)

	d.settleOnce()
	if len(got) != 0 {
		t.Errorf("noise produced reports: %v", got)
	}
}

func TestDebouncerEdgeCoalesces(t *testing.T) {
	d := New(&scriptPin{levels: []bool{true}}, Config{}, func(bool) {})
	for i := 0; i < 10; i++ {
		d.Edge()
	}
	if len(d.kick) != 1 {
		t.Errorf("pending kicks: got %d, want 1", len(d.kick))
	}
}

func TestDebouncerRun(t *testing.T) {
	pin := &scriptPin{levels: []bool{false}}
	done := make(chan bool, 1)
	d := New(pin, Config{Sleep: func(time.Duration) {}}, func(pressed bool) {
		done <- pressed
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	d.Edge()
	select {
	case pressed := <-done:
		if !pressed {
			t.Error("expected pressed report")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for settle")
	}
}

func TestNewDefaults(t *testing.T) {
	d := New(&scriptPin{levels: []bool{true}}, Config{}, func(bool) {})
	if d.interval != DefaultInterval {
		t.Errorf("interval: got %v, want %v", d.interval, DefaultInterval)
	}
	if d.threshold != DefaultThreshold {
		t.Errorf("threshold: got %d, want %d", d.threshold, DefaultThreshold)
	}
	if d.limit != DefaultLimit {
		t.Errorf("limit: got %d, want %d", d.limit, DefaultLimit)
	}
}
