// Package status provides a thread-safe status tracker for the light-delay
// daemon. It is read by the HTTP handlers and the status feed.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/light-delay/internal/countdown"
)

// NetworkInfo contains network state as reported by the host.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Hostname            string
	Broker              string
	HTTPAddr            string
	MinVal              int
	MaxVal              int
	RangeMode           string
	GraceSeconds        int
	WakePin             int
	ForceRestartSeconds int
}

// LightStats counts clicks and light-off attempts since startup.
type LightStats struct {
	Clicks   int
	Offs     int
	Failures int
	LastOff  time.Time // zero until the first successful light off
}

// Snapshot is a copy of daemon state taken under the tracker lock.
type Snapshot struct {
	Value         int
	Countdown     countdown.Snapshot
	Light         LightStats
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update sets the dialed value and the countdown state.
// Called from the session loop after every repaint check.
func (t *Tracker) Update(value int, cd countdown.Snapshot) {
	t.mu.Lock()
	t.snap.Value = value
	t.snap.Countdown = cd
	t.mu.Unlock()
}

// RecordClick counts a settled switch press.
func (t *Tracker) RecordClick() {
	t.mu.Lock()
	t.snap.Light.Clicks++
	t.mu.Unlock()
}

// RecordLightOff counts a light-off publish. A failed publish only bumps
// Failures; LastOff keeps the time of the last one that went out.
func (t *Tracker) RecordLightOff(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.snap.Light.Failures++
		return
	}
	t.snap.Light.Offs++
	t.snap.Light.LastOff = t.now()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
