// Command light-delay runs the rotary light-delay appliance: dial minutes on a
// rotary encoder, click to start, and the light is switched off over MQTT when
// the countdown ends. After a grace period the device goes to sleep until its
// wake pin fires.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dikkadev/prettyslog"

	"github.com/sweeney/light-delay/internal/button"
	"github.com/sweeney/light-delay/internal/clock"
	"github.com/sweeney/light-delay/internal/config"
	"github.com/sweeney/light-delay/internal/countdown"
	"github.com/sweeney/light-delay/internal/display"
	"github.com/sweeney/light-delay/internal/encoder"
	"github.com/sweeney/light-delay/internal/gpio"
	"github.com/sweeney/light-delay/internal/mqtt"
	"github.com/sweeney/light-delay/internal/power"
	"github.com/sweeney/light-delay/internal/queue"
	"github.com/sweeney/light-delay/internal/status"
	"github.com/sweeney/light-delay/internal/web"
)

// Loop periods.
const (
	pollPeriod = 50 * time.Millisecond
	tickPeriod = time.Second
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the YAML configuration")
	httpAddr := flag.String("http", "=config", `HTTP status address ("=config" uses http.addr, empty to disable)`)
	printConfig := flag.Bool("print-config", false, "Print the effective configuration and exit")

	flag.Parse()

	setupLogging("debug")
	if err := run(*configPath, *httpAddr, *printConfig); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	logger := slog.New(prettyslog.NewPrettyslogHandler("light",
		prettyslog.WithLevel(parseLevel(level)),
	))
	slog.SetDefault(logger)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelDebug
}

func run(configPath, httpAddr string, printConfig bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if httpAddr != "=config" {
		cfg.HTTP.Addr = httpAddr
	}
	setupLogging(cfg.Log.Level)

	if printConfig {
		out, err := cfg.Marshal()
		if err != nil {
			return fmt.Errorf("render config: %w", err)
		}
		fmt.Print(string(out))
		return nil
	}
	slog.Info("starting", "hostname", cfg.Hostname, "config", configPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.NewMonotonic()
	tasks := queue.New(queue.DefaultCapacity)

	// Messaging
	var pub interface {
		mqtt.Publisher
		mqtt.Subscriber
		mqtt.ConnectionStatus
	} = mqtt.Nop{}
	if !cfg.DisableInet {
		opts := mqtt.Options{Broker: cfg.MQTT.Broker, ClientID: cfg.MQTT.ClientID}
		if cfg.HasFeed(config.FeedStatus) {
			opts.WillTopic = cfg.Feed(config.FeedStatus)
			opts.WillPayload = `{"status":{"event":"OFFLINE"}}`
		}
		p, err := mqtt.NewRealPublisher(opts)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		pub = p
	}
	defer pub.Close()

	// Display
	var canvas display.Canvas = display.Headless{W: cfg.SSD1306.Width, H: cfg.SSD1306.Height}
	if cfg.I2C.Enabled && cfg.SSD1306.Enabled {
		oled, err := display.OpenOLED(display.OLEDConfig{
			Bus:     cfg.I2C.Bus,
			Address: uint16(cfg.SSD1306.Address),
			Width:   cfg.SSD1306.Width,
			Height:  cfg.SSD1306.Height,
			Flip:    cfg.SSD1306.FlipEn,
		})
		if err != nil {
			return fmt.Errorf("init display: %w", err)
		}
		defer oled.Close()
		canvas = oled
	}

	// Encoder
	mode, err := encoder.ParseRangeMode(cfg.Rotary.RangeMode)
	if err != nil {
		return err
	}
	decoder, err := encoder.New(encoder.Config{
		Min:     cfg.Rotary.MinVal,
		Max:     cfg.Rotary.MaxVal,
		Mode:    mode,
		Reverse: cfg.Rotary.Reverse,
		Init:    cfg.Rotary.InitValue,
	})
	if err != nil {
		return fmt.Errorf("init encoder: %w", err)
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		Hostname:            cfg.Hostname,
		Broker:              brokerOrEmpty(cfg),
		HTTPAddr:            cfg.HTTP.Addr,
		MinVal:              cfg.Rotary.MinVal,
		MaxVal:              cfg.Rotary.MaxVal,
		RangeMode:           mode.String(),
		GraceSeconds:        int(countdown.DefaultGrace / time.Second),
		WakePin:             cfg.Wakeup.InputPin,
		ForceRestartSeconds: cfg.ForceRestartAfterRunningSeconds,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	s := &session{
		cfg:       cfg,
		decoder:   decoder,
		presenter: display.NewPresenter(canvas, clk, display.Options{}),
		tracker:   tracker,
		tasks:     tasks,
		pub:       pub,
		conn:      pub,
		pause:     time.Sleep,
	}
	s.sched = countdown.New(clk, countdown.LightSwitchFunc(s.lightOff), countdown.Options{})
	s.rebooter = power.NewRebooter(s.announce, power.ResetFunc(power.ExecReset))

	// Wake pin monitor
	wake, err := gpio.NewRealWake(cfg.GPIO.Chip)
	if err != nil {
		return fmt.Errorf("init wake pin: %w", err)
	}
	defer wake.Close()
	if !cfg.Wakeup.DisableHandler {
		if err := wake.Watch(cfg.Wakeup.InputPin); err != nil {
			return fmt.Errorf("watch wake pin: %w", err)
		}
	}

	// Encoder lines and switch
	var enc gpio.Encoder
	var sw gpio.Switch
	if cfg.Rotary.Enabled {
		enc, err = gpio.NewRealEncoder(cfg.GPIO.Chip, cfg.Rotary.ClkPin, cfg.Rotary.DtPin, decoder)
		if err != nil {
			return fmt.Errorf("init encoder lines: %w", err)
		}
		defer enc.Close()

		sw, err = gpio.NewRealSwitch(cfg.GPIO.Chip, cfg.Rotary.SwPin)
		if err != nil {
			return fmt.Errorf("init switch: %w", err)
		}
		defer sw.Close()

		deb := button.New(sw, button.Config{}, s.onPress)
		sw.OnEdge(deb.Edge)
		go deb.Run(ctx)
	}

	// Remote commands
	if err := pub.Subscribe(cfg.Feed(config.FeedCmd), s.onCommand); err != nil {
		slog.Error("failed to subscribe to commands", "err", err)
	}

	// Forced reboot timer
	if secs := cfg.ForceRestartAfterRunningSeconds; secs > 0 {
		t := time.AfterFunc(time.Duration(secs)*time.Second, func() {
			tasks.Post(func() { s.reboot("forced restart timer") })
		})
		defer t.Stop()
		slog.Info("forced reboot armed", "after", time.Duration(secs)*time.Second)
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("http server error", "err", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		slog.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	s.publishStatus("STARTUP", "")

	poll := time.NewTicker(pollPeriod)
	defer poll.Stop()
	tick := time.NewTicker(tickPeriod)
	defer tick.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if !runLoop(s, poll.C, tick.C, sigCh) {
		return nil
	}

	// Detach the switch before powering down.
	if sw != nil {
		sw.OnEdge(nil)
	}
	cancel()
	s.publishStatus("SLEEP", "grace period expired")

	ctrl := power.NewController(
		power.NewNetRadio(pub, cfg.Radio.RFKill),
		s.presenter,
		wake,
		power.NewWakeSleeper(wake, power.ResetFunc(power.ExecReset), cfg.Wakeup.Suspend),
		power.Config{
			WakePin: cfg.Wakeup.InputPin,
			Trigger: power.TriggerFromConfig(cfg.Wakeup.Trigger),
		},
	)
	return ctrl.Shutdown()
}

// runLoop services the rotary session until sleep is requested or a signal
// arrives. It reports whether the device should go to sleep.
func runLoop(s *session, poll, tick <-chan time.Time, sig <-chan os.Signal) bool {
	s.start()

	for {
		select {
		case sg := <-sig:
			slog.Info("received signal, shutting down", "signal", sg)
			return false

		case task := <-s.tasks.C():
			task()

		case <-tick:
			s.tick()

		case <-poll:
			s.poll()
		}

		if s.sched.Shutdown() {
			s.finish()
			return true
		}
	}
}

func brokerOrEmpty(cfg config.Config) string {
	if cfg.DisableInet {
		return ""
	}
	return cfg.MQTT.Broker
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
