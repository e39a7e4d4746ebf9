package models

// StreakState tracks consecutive failures and open alert issues per target URL.
type StreakState struct {
	Streaks    map[string]int `json:"streaks"`
	OpenAlerts map[string]int `json:"open_alerts"`
}

// NewStreakState returns an empty state with initialised maps.
func NewStreakState() StreakState {
	return StreakState{
		Streaks:    map[string]int{},
		OpenAlerts: map[string]int{},
	}
}

// Alert asks an external collaborator to open an issue for a failing target.
type Alert struct {
	Name           string  `json:"name"`
	URL            string  `json:"url"`
	Streak         int     `json:"streak"`
	LastStatusCode *int    `json:"last_status_code"`
	LastError      *string `json:"last_error"`
	LastLatencyMS  float64 `json:"last_latency_ms"`
	Timestamp      string  `json:"timestamp"`
}

// Recovery asks an external collaborator to close the issue of a recovered target.
type Recovery struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	IssueNumber int     `json:"issue_number"`
	Timestamp   string  `json:"timestamp"`
	StatusCode  *int    `json:"status_code"`
	LatencyMS   float64 `json:"latency_ms"`
}

// AlertsFile is the alerts.json document.
type AlertsFile struct {
	GeneratedAt string  `json:"generated_at"`
	Alerts      []Alert `json:"alerts"`
}

// RecoveriesFile is the recoveries.json document.
type RecoveriesFile struct {
	GeneratedAt string     `json:"generated_at"`
	Recoveries  []Recovery `json:"recoveries"`
}
