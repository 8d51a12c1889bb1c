package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Phase         string       `json:"phase"`
	Value         int          `json:"value"`
	Timer         *TimerJSON   `json:"timer,omitempty"`
	SleepIn       *TimerJSON   `json:"sleep_in,omitempty"`
	Light         LightJSON    `json:"light"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// TimerJSON is an armed countdown.
type TimerJSON struct {
	RemainingSeconds int `json:"remaining_seconds"`
}

// LightJSON reports clicks and light-off results.
type LightJSON struct {
	Clicks   int    `json:"clicks"`
	Offs     int    `json:"offs"`
	Failures int    `json:"failures"`
	LastOff  string `json:"last_off,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Hostname            string `json:"hostname"`
	Broker              string `json:"broker"`
	HTTPAddr            string `json:"http_addr"`
	MinVal              int    `json:"min_val"`
	MaxVal              int    `json:"max_val"`
	RangeMode           string `json:"range_mode"`
	GraceSeconds        int    `json:"grace_seconds"`
	WakePin             int    `json:"wake_pin"`
	ForceRestartSeconds int    `json:"forcerestart_seconds,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Phase:         snap.Countdown.Phase.String(),
		Value:         snap.Value,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Hostname:            snap.Config.Hostname,
			Broker:              snap.Config.Broker,
			HTTPAddr:            snap.Config.HTTPAddr,
			MinVal:              snap.Config.MinVal,
			MaxVal:              snap.Config.MaxVal,
			RangeMode:           snap.Config.RangeMode,
			GraceSeconds:        snap.Config.GraceSeconds,
			WakePin:             snap.Config.WakePin,
			ForceRestartSeconds: snap.Config.ForceRestartSeconds,
		},
	}
	inner.Light = LightJSON{
		Clicks:   snap.Light.Clicks,
		Offs:     snap.Light.Offs,
		Failures: snap.Light.Failures,
	}
	if !snap.Light.LastOff.IsZero() {
		inner.Light.LastOff = snap.Light.LastOff.UTC().Format(time.RFC3339)
	}
	if a := snap.Countdown.Active; a.Armed {
		inner.Timer = &TimerJSON{RemainingSeconds: a.Remaining}
	}
	if s := snap.Countdown.Sleep; s.Armed {
		inner.SleepIn = &TimerJSON{RemainingSeconds: s.Remaining}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for a status feed event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
