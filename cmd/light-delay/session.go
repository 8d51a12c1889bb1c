package main

import (
	"log/slog"
	"time"

	"github.com/sweeney/light-delay/internal/config"
	"github.com/sweeney/light-delay/internal/countdown"
	"github.com/sweeney/light-delay/internal/display"
	"github.com/sweeney/light-delay/internal/encoder"
	"github.com/sweeney/light-delay/internal/mqtt"
	"github.com/sweeney/light-delay/internal/power"
	"github.com/sweeney/light-delay/internal/queue"
	"github.com/sweeney/light-delay/internal/status"
)

// errorPause is how long the loop backs off after a failed iteration.
const errorPause = 50 * time.Millisecond

// session is the rotary loop state. Except for onPress and onCommand, every
// method runs on the main loop goroutine.
type session struct {
	cfg       config.Config
	decoder   *encoder.Decoder
	sched     *countdown.Scheduler
	presenter *display.Presenter
	tracker   *status.Tracker
	tasks     *queue.Queue
	pub       mqtt.Publisher
	conn      mqtt.ConnectionStatus
	rebooter  *power.Rebooter
	pause     func(time.Duration)

	value int // last value seen by poll
}

// start paints the splash screen and records the starting value.
func (s *session) start() {
	s.value = s.decoder.Value()
	if err := s.presenter.Splash(s.decoder.Min()); err != nil {
		slog.Error("session: splash failed", "err", err)
	}
	slog.Info("session: started", "value", s.value, "min", s.decoder.Min(), "max", s.decoder.Max())
}

// poll is one pass of the rotary loop: report a value change, then run the
// loop handler.
func (s *session) poll() {
	if dir, moved := s.decoder.TakeChanged(); moved {
		if v := s.decoder.Value(); v != s.value {
			slog.Debug("session: value changed", "old", s.value, "new", v, "dir", int(dir))
			s.presenter.Changed(s.value, v)
			s.value = v
		}
	}

	if err := s.loopHandler(s.value); err != nil {
		slog.Error("session: loop iteration failed", "err", err)
		s.pause(errorPause)
	}
}

func (s *session) loopHandler(value int) error {
	snap := s.sched.Snapshot()
	if s.tracker != nil {
		s.tracker.Update(value, snap)
		if s.conn != nil {
			s.tracker.SetMQTTConnected(s.conn.IsConnected())
		}
	}
	_, err := s.presenter.Repaint(value, snap)
	return err
}

// tick advances the countdowns.
func (s *session) tick() {
	s.sched.Tick()
}

// finish is the loop handler's exit call.
func (s *session) finish() {
	slog.Info("session: loop ended, shutting down", "phase", s.sched.Phase())
	if s.tracker != nil {
		s.tracker.Update(s.value, s.sched.Snapshot())
	}
}

// onPress receives settled switch levels from the debouncer goroutine.
func (s *session) onPress(pressed bool) {
	if !pressed {
		return
	}
	if !s.tasks.Post(s.click) {
		slog.Warn("session: queue full, click dropped")
	}
}

func (s *session) click() {
	v := s.decoder.Value()
	slog.Debug("session: click", "value", v)
	if s.tracker != nil {
		s.tracker.RecordClick()
	}
	s.sched.Click(v)
}

// lightOff publishes the retained light-off message.
func (s *session) lightOff() error {
	topic := s.cfg.Feed(config.FeedLightSwitch)
	slog.Info("session: sending light off", "topic", topic)
	err := s.pub.Publish(topic, mqtt.FormatValue(0), true, mqtt.AtLeastOnce)
	if s.tracker != nil {
		s.tracker.RecordLightOff(err)
	}
	return err
}

// announce publishes a retained line on the logging feed.
func (s *session) announce(msg string) error {
	return s.pub.Publish(s.cfg.Feed(config.FeedLogging), msg, true, mqtt.AtLeastOnce)
}

// publishStatus sends a retained status event when a status feed is set.
func (s *session) publishStatus(event, reason string) {
	if s.tracker == nil || !s.cfg.HasFeed(config.FeedStatus) {
		return
	}
	if s.conn != nil {
		s.tracker.SetMQTTConnected(s.conn.IsConnected())
	}
	payload := status.FormatStatusEvent(s.tracker.Snapshot(), event, reason)
	if err := s.pub.Publish(s.cfg.Feed(config.FeedStatus), string(payload), true, mqtt.AtLeastOnce); err != nil {
		slog.Error("failed to publish status event", "event", event, "err", err)
		return
	}
	slog.Info("published status event", "event", event)
}

// onCommand receives remote commands from the messaging goroutine.
func (s *session) onCommand(cmd mqtt.Command) {
	if !s.tasks.Post(func() { s.handleCommand(cmd) }) {
		slog.Warn("session: queue full, command dropped", "cmd", cmd.Name)
	}
}

func (s *session) handleCommand(cmd mqtt.Command) {
	slog.Info("command received", "cmd", cmd.Name, "arg", cmd.Arg)
	switch cmd.Name {
	case "reboot", "reset":
		s.reboot("command " + cmd.Name)
	case "switchap", "rescanwifi":
		slog.Info("command acknowledged, network is managed by the host", "cmd", cmd.Name)
	default:
		slog.Warn("unknown command", "cmd", cmd.Name, "arg", cmd.Arg)
	}
}

func (s *session) reboot(reason string) {
	if s.rebooter == nil {
		slog.Warn("reboot requested but no rebooter configured", "reason", reason)
		return
	}
	if err := s.rebooter.Reboot(reason); err != nil {
		slog.Error("reboot failed", "err", err)
	}
}
