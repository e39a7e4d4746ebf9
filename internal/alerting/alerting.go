// Package alerting turns consecutive failures into alert and recovery requests.
package alerting

import "uptimeboard/internal/models"

// DefaultThreshold is the number of consecutive failures that raises an alert.
const DefaultThreshold = 3

// Outcome lists the requests produced by one evaluation.
type Outcome struct {
	Alerts     []models.Alert
	Recoveries []models.Recovery
}

// Evaluate updates state with results in order and returns the requests they trigger.
// Streaks are keyed by target URL. Open alerts are owned by whoever consumes the
// alerts file, so Evaluate only reads them.
func Evaluate(state *models.StreakState, results []models.CheckResult, threshold int) Outcome {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if state.Streaks == nil {
		state.Streaks = map[string]int{}
	}

	out := Outcome{
		Alerts:     []models.Alert{},
		Recoveries: []models.Recovery{},
	}
	for _, res := range results {
		key := res.URL
		prev := state.Streaks[key]
		issue, open := state.OpenAlerts[key]

		if res.OK {
			if prev > 0 && open {
				out.Recoveries = append(out.Recoveries, models.Recovery{
					Name:        res.Name,
					URL:         res.URL,
					IssueNumber: issue,
					Timestamp:   res.Timestamp,
					StatusCode:  res.StatusCode,
					LatencyMS:   res.LatencyMS,
				})
			}
			state.Streaks[key] = 0
			continue
		}

		streak := prev + 1
		state.Streaks[key] = streak
		if streak >= threshold && !open {
			out.Alerts = append(out.Alerts, models.Alert{
				Name:           res.Name,
				URL:            res.URL,
				Streak:         streak,
				LastStatusCode: res.StatusCode,
				LastError:      res.Error,
				LastLatencyMS:  res.LatencyMS,
				Timestamp:      res.Timestamp,
			})
		}
	}
	return out
}
