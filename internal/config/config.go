// Package config loads the device configuration from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// DefaultPath is where the daemon looks for its configuration.
const DefaultPath = "/etc/light-delay/config.yaml"

// Config is the full device configuration.
type Config struct {
	Hostname                        string `yaml:"hostname"`
	ForceRestartAfterRunningSeconds int    `yaml:"forcerestart_after_running_seconds"`
	DisableInet                     bool   `yaml:"disable_inet"`

	Log     Log     `yaml:"log"`
	HTTP    HTTP    `yaml:"http"`
	GPIO    GPIO    `yaml:"gpio"`
	I2C     I2C     `yaml:"i2c"`
	SSD1306 SSD1306 `yaml:"ssd1306"`
	Rotary  Rotary  `yaml:"rotary"`
	Wakeup  Wakeup  `yaml:"wakeup_deepsleep_pin"`
	Radio   Radio   `yaml:"radio"`
	MQTT    MQTT    `yaml:"mqtt"`
}

// Log selects the log level: debug, info, warn or error.
type Log struct {
	Level string `yaml:"level"`
}

// HTTP configures the status server. An empty Addr disables it.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// GPIO names the character device chip.
type GPIO struct {
	Chip string `yaml:"chip"`
}

// I2C selects the display bus. An empty Bus opens the first bus found.
type I2C struct {
	Enabled bool   `yaml:"enabled"`
	Bus     string `yaml:"bus"`
}

// SSD1306 describes the OLED panel.
type SSD1306 struct {
	Enabled bool `yaml:"enabled"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
	Address int  `yaml:"address"`
	FlipEn  bool `yaml:"flip_en"`
}

// Rotary describes the encoder and its switch.
type Rotary struct {
	Enabled   bool   `yaml:"enabled"`
	ClkPin    int    `yaml:"clk_pin"`
	DtPin     int    `yaml:"dt_pin"`
	SwPin     int    `yaml:"sw_pin"`
	MinVal    int    `yaml:"min_val"`
	MaxVal    int    `yaml:"max_val"`
	InitValue *int   `yaml:"init_value"`
	Reverse   bool   `yaml:"reverse"`
	RangeMode string `yaml:"range_mode"`
}

// Wakeup describes the external wake pin. Trigger 1 wakes on high, anything
// else on low; absent means high.
type Wakeup struct {
	InputPin       int  `yaml:"input_pin"`
	Trigger        *int `yaml:"trigger"`
	DisableHandler bool `yaml:"disable_handler"`
	Suspend        bool `yaml:"suspend"`
}

// Radio holds the command that switches the wireless radio off.
type Radio struct {
	RFKill []string `yaml:"rfkill"`
}

// MQTT configures the broker connection and logical feeds.
type MQTT struct {
	Broker   string            `yaml:"broker"`
	ClientID string            `yaml:"client_id"`
	Feeds    map[string]string `yaml:"feeds"`
}

// Feed names.
const (
	FeedLightSwitch = "lightswitchfeed"
	FeedLogging     = "loggingfeed"
	FeedCmd         = "cmdfeed"
	FeedStatus      = "statusfeed"
)

// Default returns the built-in configuration.
func Default() Config {
	initValue := 15
	return Config{
		Hostname: "josolightesp32",
		Log:      Log{Level: "debug"},
		HTTP:     HTTP{Addr: ":80"},
		GPIO:     GPIO{Chip: "gpiochip0"},
		I2C:      I2C{Enabled: true},
		SSD1306:  SSD1306{Enabled: true, Width: 128, Height: 64, Address: 0x3C},
		Rotary: Rotary{
			Enabled:   true,
			ClkPin:    25,
			DtPin:     26,
			SwPin:     27,
			MinVal:    0,
			MaxVal:    180,
			InitValue: &initValue,
			Reverse:   true,
			RangeMode: "bounded",
		},
		Wakeup: Wakeup{InputPin: 33},
		Radio:  Radio{RFKill: []string{"rfkill", "block", "wifi"}},
		MQTT: MQTT{
			Broker: "tcp://127.0.0.1:1883",
			Feeds: map[string]string{
				FeedLightSwitch: FeedLightSwitch,
				FeedLogging:     FeedLogging,
				FeedCmd:         FeedCmd,
			},
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = cfg.Hostname
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the device cannot run with.
func (c Config) Validate() error {
	r := c.Rotary
	if r.Enabled {
		pins := map[string]int{"clk_pin": r.ClkPin, "dt_pin": r.DtPin, "sw_pin": r.SwPin, "input_pin": c.Wakeup.InputPin}
		seen := make(map[int]string, len(pins))
		for _, name := range []string{"clk_pin", "dt_pin", "sw_pin", "input_pin"} {
			pin := pins[name]
			if pin < 0 {
				return fmt.Errorf("config: %s must be non-negative, got %d", name, pin)
			}
			if other, dup := seen[pin]; dup {
				return fmt.Errorf("config: %s and %s share pin %d", other, name, pin)
			}
			seen[pin] = name
		}
		if r.MinVal >= r.MaxVal {
			return fmt.Errorf("config: rotary min_val %d must be below max_val %d", r.MinVal, r.MaxVal)
		}
		switch strings.ToLower(r.RangeMode) {
		case "", "wrap", "bounded", "unbounded":
		default:
			return fmt.Errorf("config: unknown rotary range_mode %q", r.RangeMode)
		}
	}
	if c.Wakeup.InputPin < 0 {
		return fmt.Errorf("config: input_pin must be non-negative, got %d", c.Wakeup.InputPin)
	}
	if !c.DisableInet && c.MQTT.Broker == "" {
		return fmt.Errorf("config: mqtt broker required unless disable_inet is set")
	}
	if c.ForceRestartAfterRunningSeconds < 0 {
		return fmt.Errorf("config: forcerestart_after_running_seconds must be non-negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	return nil
}

// Feed resolves a logical feed name to its topic, falling back to the name
// itself.
func (c Config) Feed(name string) string {
	if t, ok := c.MQTT.Feeds[name]; ok && t != "" {
		return t
	}
	return name
}

// HasFeed reports whether name is explicitly configured.
func (c Config) HasFeed(name string) bool {
	return c.MQTT.Feeds[name] != ""
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
