package metrics

import (
	"math"
	"sort"

	"uptimeboard/internal/models"
)

// ServiceUptime summarises health of a monitored target.
type ServiceUptime struct {
	URL              string  `json:"url"`
	Name             string  `json:"name"`
	UptimePercent    float64 `json:"uptime_percent"`
	TotalChecks      int     `json:"total_checks"`
	Passing          int     `json:"passing"`
	Failing          int     `json:"failing"`
	AverageLatencyMS float64 `json:"average_latency_ms"`
	LastOK           bool    `json:"last_ok"`
	LastChecked      string  `json:"last_checked,omitempty"`
}

// ComputeUptime aggregates uptime statistics per URL from history events.
// Events are expected in check order; the last one per URL wins for name and state.
func ComputeUptime(events []models.CheckResult) []ServiceUptime {
	type acc struct {
		name       string
		passing    int
		failing    int
		latencySum float64
		lastOK     bool
		lastTime   string
	}
	state := make(map[string]*acc)
	for _, ev := range events {
		target := state[ev.URL]
		if target == nil {
			target = &acc{}
			state[ev.URL] = target
		}
		if ev.OK {
			target.passing++
		} else {
			target.failing++
		}
		target.latencySum += ev.LatencyMS
		target.name = ev.Name
		target.lastOK = ev.OK
		target.lastTime = ev.Timestamp
	}
	if len(state) == 0 {
		return []ServiceUptime{}
	}

	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([]ServiceUptime, 0, len(keys))
	for _, url := range keys {
		data := state[url]
		total := data.passing + data.failing
		results = append(results, ServiceUptime{
			URL:              url,
			Name:             data.name,
			UptimePercent:    round2(float64(data.passing) / float64(total) * 100),
			TotalChecks:      total,
			Passing:          data.passing,
			Failing:          data.failing,
			AverageLatencyMS: round2(data.latencySum / float64(total)),
			LastOK:           data.lastOK,
			LastChecked:      data.lastTime,
		})
	}
	return results
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
