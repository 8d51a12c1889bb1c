package web

import (
	"html/template"
	"io"
	"log/slog"
	"time"

	"github.com/sweeney/light-delay/internal/countdown"
	"github.com/sweeney/light-delay/internal/display"
	"github.com/sweeney/light-delay/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	// 1h2m3s style, whole seconds.
	"uptime": func(d time.Duration) string {
		return d.Truncate(time.Second).String()
	},
	"phaseClass": func(p countdown.Phase) string {
		switch p {
		case countdown.CountingDown:
			return "active"
		case countdown.GracePeriod, countdown.SleepRequested:
			return "grace"
		}
		return "idle"
	},
	"minsec": display.MinSec,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Light Delay</title>
<style>
body { font-family: monospace; background: #111; color: #ddd; max-width: 480px; margin: 1em auto; padding: 0 1em; }
h1, h2 { font-weight: normal; }
h2 { font-size: 1em; color: #999; border-bottom: 1px solid #333; }
table { width: 100%; }
th { text-align: left; font-weight: normal; color: #999; width: 45%; }
.idle { color: #777; }
.active { color: #6f6; }
.grace { color: #fb3; }
.connected { color: #6f6; }
.disconnected { color: #f66; }
</style>
</head>
<body>
<h1>Light Delay{{if .Config.Hostname}} ({{.Config.Hostname}}){{end}}</h1>

<h2>Timer</h2>
<table>
<tr><th>Phase</th><td id="phase" class="{{phaseClass .Countdown.Phase}}">{{.Countdown.Phase}}</td></tr>
<tr><th>Value</th><td id="value">{{.Value}}m</td></tr>
<tr><th>Light off in</th><td id="timer">{{if .Countdown.Active.Armed}}{{minsec .Countdown.Active.Remaining}}{{else}}-{{end}}</td></tr>
<tr><th>Sleep in</th><td id="sleep-in">{{if .Countdown.Sleep.Armed}}{{minsec .Countdown.Sleep.Remaining}}{{else}}-{{end}}</td></tr>
<tr><th>Clicks</th><td id="clicks">{{.Light.Clicks}}</td></tr>
<tr><th>Lights off</th><td id="offs">{{.Light.Offs}}{{if .Light.Failures}} ({{.Light.Failures}} failed){{end}}{{if not .Light.LastOff.IsZero}}, last {{.Light.LastOff.UTC.Format "15:04:05Z"}}{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Range</th><td>{{.Config.MinVal}}..{{.Config.MaxVal}} ({{.Config.RangeMode}})</td></tr>
<tr><th>Grace</th><td>{{.Config.GraceSeconds}}s</td></tr>
<tr><th>Wake pin</th><td>{{.Config.WakePin}}</td></tr>
<tr><th>Forced restart</th><td>{{if eq .Config.ForceRestartSeconds 0}}disabled{{else}}{{.Config.ForceRestartSeconds}}s{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/countdown">countdown</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		slog.Warn("web: render status page", "err", err)
	}
}
