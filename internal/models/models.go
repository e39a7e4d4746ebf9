package models

// Target defines a monitored HTTP endpoint.
type Target struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// CheckResult captures the outcome of a single target check.
//
// Timestamp is kept as the raw ISO-8601 text so a malformed value from an
// external producer still reaches the renderer.
type CheckResult struct {
	Name       string  `json:"name"`
	URL        string  `json:"url"`
	Timestamp  string  `json:"timestamp"`
	StatusCode *int    `json:"status_code"`
	LatencyMS  float64 `json:"latency_ms"`
	OK         bool    `json:"ok"`
	Error      *string `json:"error"`
}

// CheckSnapshot is the latest.json document: one entry per target, in display order.
type CheckSnapshot struct {
	GeneratedAt string        `json:"generated_at,omitempty"`
	Results     []CheckResult `json:"results"`
}

// History is the rolling log of every check result ever recorded.
type History struct {
	Events []CheckResult `json:"events"`
}
