package health

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>40 Acres · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <meta http-equiv="refresh" content="15">
  <style>
    :root { --green: #2F5D3A; --earth: #8B5E34; --bg: #F7F4EE; --muted: #6B7280; }
    body { background: var(--bg); color: #1F2937; font-family: Georgia, serif; margin: 0; padding: 40px 20px; }
    .wrap { max-width: 960px; margin: 0 auto; }
    h1 { color: var(--green); font-size: 40px; margin: 0 0 6px; }
    .sub { color: var(--muted); margin: 0 0 30px; }
    .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(260px, 1fr)); gap: 18px; }
    .card { background: #fff; border-radius: 16px; padding: 24px; box-shadow: 0 10px 30px rgba(47,93,58,0.08); }
    .label { text-transform: uppercase; font-size: 11px; letter-spacing: 2px; color: var(--earth); margin-bottom: 14px; }
    .big { font-size: 34px; font-weight: bold; margin-bottom: 8px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; border-bottom: 1px solid #F1EDE4; font-size: 14px; }
    .ok { color: var(--green); font-weight: bold; }
    .err { color: #B91C1C; font-weight: bold; }
    footer { margin-top: 24px; font-family: monospace; font-size: 12px; color: var(--muted); }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>{{if eq .Status "ok"}}All Systems Operational{{else}}Degraded Performance{{end}}</h1>
    <p class="sub">40 Acres investment API · uptime {{.Uptime}}</p>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="big">{{.Traffic.TotalRequests}}</div>
        <div class="row"><span>Successful</span><span class="ok">{{.Traffic.SuccessCount}}</span></div>
        <div class="row"><span>Failed</span><span class="err">{{.Traffic.FailedCount}}</span></div>
        <div class="row"><span>Success rate</span><span>{{.Traffic.SuccessRate}}%</span></div>
        <div class="row"><span>Avg latency</span><span>{{.AvgLatency}} ms</span></div>
      </div>
      <div class="card">
        <div class="label">Withdrawals</div>
        <div class="big">{{.Workflow.PendingWithdrawals}}</div>
        <div class="row"><span>Awaiting review</span><span>{{.Workflow.PendingWithdrawals}}</span></div>
        <div class="row"><span>Heap used</span><span>{{.Runtime.Memory.HeapUsed}} MB</span></div>
        <div class="row"><span>Goroutines</span><span>{{.Runtime.Goroutines}}</span></div>
        <div class="row"><span>Runtime</span><span>{{.Runtime.GoVersion}}</span></div>
      </div>
      <div class="card">
        <div class="label">Dependencies</div>
        {{range .Deps}}
        <div class="row"><span>{{.Name}}</span><span class="{{if .Healthy}}ok{{else}}err{{end}}">{{.Status}}{{if .Ping}} · {{.Ping}} ms{{end}}</span></div>
        {{end}}
      </div>
    </div>
    <footer>last request: {{.LastMethod}} {{.LastPath}} from {{.LastIP}} · <a href="/health/json">json</a> · <a href="/health/errors">errors</a></footer>
  </div>
</body>
</html>`))

type depRow struct {
	Name    string
	Status  string
	Ping    string
	Healthy bool
}

// RenderDashboardHTML renders the status page served at GET /.
func RenderDashboardHTML(health CollectResult) string {
	deps := make([]depRow, 0, len(health.Dependencies))
	for name, d := range health.Dependencies {
		row := depRow{Name: name, Status: d.Status, Healthy: d.Status == "connected" || d.Status == "reachable"}
		if ms, ok := d.PingMs.(*int64); ok && ms != nil {
			row.Ping = fmt.Sprint(*ms)
		}
		deps = append(deps, row)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })

	lastMethod, lastPath, lastIP := "-", "-", "-"
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		if v, ok := m["method"].(string); ok {
			lastMethod = v
		}
		if v, ok := m["path"].(string); ok {
			lastPath = v
		}
		if v, ok := m["ip"].(string); ok {
			lastIP = v
		}
	}

	up := health.Runtime.UptimeSeconds
	var buf bytes.Buffer
	err := dashboardTmpl.Execute(&buf, map[string]interface{}{
		"Status":     health.Status,
		"Traffic":    health.Traffic,
		"Workflow":   health.Workflow,
		"Runtime":    health.Runtime,
		"AvgLatency": fmt.Sprint(health.Traffic.AvgResponseTime),
		"Uptime":     fmt.Sprintf("%dh %dm %ds", up/3600, (up%3600)/60, up%60),
		"Deps":       deps,
		"LastMethod": lastMethod,
		"LastPath":   lastPath,
		"LastIP":     lastIP,
	})
	if err != nil {
		return "<!DOCTYPE html><p>status unavailable</p>"
	}
	return buf.String()
}
