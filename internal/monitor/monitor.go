package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"uptimeboard/internal/alerting"
	"uptimeboard/internal/models"
	"uptimeboard/internal/storage"
)

// Options tunes a Monitor. Zero values fall back to defaults.
type Options struct {
	Timeout       time.Duration
	UserAgent     string
	FailThreshold int
	HistoryLimit  int
	Client        *http.Client
	Now           func() time.Time
}

// Monitor checks targets once per run and publishes the results.
type Monitor struct {
	targets   []models.Target
	docs      *storage.Documents
	history   storage.HistoryStore
	log       *slog.Logger
	client    *http.Client
	timeout   time.Duration
	userAgent string
	threshold int
	limit     int
	now       func() time.Time
}

// New creates a monitor for the given targets.
func New(targets []models.Target, docs *storage.Documents, history storage.HistoryStore, log *slog.Logger, opts Options) *Monitor {
	m := &Monitor{
		targets:   targets,
		docs:      docs,
		history:   history,
		log:       log,
		client:    opts.Client,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		threshold: opts.FailThreshold,
		limit:     opts.HistoryLimit,
		now:       opts.Now,
	}
	if m.client == nil {
		m.client = &http.Client{}
	}
	if m.timeout <= 0 {
		m.timeout = 10 * time.Second
	}
	if m.userAgent == "" {
		m.userAgent = "uptimeboard"
	}
	if m.threshold <= 0 {
		m.threshold = alerting.DefaultThreshold
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Check runs every target in order without persisting anything.
func (m *Monitor) Check(ctx context.Context) []models.CheckResult {
	results := make([]models.CheckResult, 0, len(m.targets))
	for _, t := range m.targets {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		res := m.checkTarget(checkCtx, t)
		cancel()

		m.log.Debug("target checked", "name", res.Name, "url", res.URL, "ok", res.OK, "latency_ms", res.LatencyMS)
		results = append(results, res)
	}
	return results
}

// RunOnce checks all targets, updates failure streaks and writes every document.
func (m *Monitor) RunOnce(ctx context.Context) (models.CheckSnapshot, error) {
	snap := models.CheckSnapshot{GeneratedAt: m.timestamp()}
	snap.Results = m.Check(ctx)

	state, err := m.docs.LoadState()
	if err != nil {
		return snap, err
	}
	outcome := alerting.Evaluate(&state, snap.Results, m.threshold)

	if err := m.docs.WriteLatest(snap); err != nil {
		return snap, err
	}
	if err := m.history.Append(ctx, snap.Results, m.limit); err != nil {
		return snap, fmt.Errorf("append history: %w", err)
	}
	if err := m.docs.SaveState(state); err != nil {
		return snap, err
	}
	generated := m.timestamp()
	if err := m.docs.WriteAlerts(models.AlertsFile{GeneratedAt: generated, Alerts: outcome.Alerts}); err != nil {
		return snap, err
	}
	if err := m.docs.WriteRecoveries(models.RecoveriesFile{GeneratedAt: generated, Recoveries: outcome.Recoveries}); err != nil {
		return snap, err
	}

	failing := 0
	for _, r := range snap.Results {
		if !r.OK {
			failing++
		}
	}
	m.log.Info("check run complete",
		"targets", len(snap.Results),
		"failing", failing,
		"alerts", len(outcome.Alerts),
		"recoveries", len(outcome.Recoveries),
	)
	return snap, nil
}

// checkTarget treats any 2xx response as healthy. Transport failures carry no status code.
func (m *Monitor) checkTarget(ctx context.Context, target models.Target) models.CheckResult {
	start := time.Now()
	res := models.CheckResult{
		Name: target.Name,
		URL:  target.URL,
	}

	fail := func(err error) models.CheckResult {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "request timed out"
		}
		res.Error = &msg
		res.LatencyMS = elapsedMS(start)
		res.Timestamp = m.timestamp()
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		return fail(err)
	}
	req.Header.Set("User-Agent", m.userAgent)

	response, err := m.client.Do(req)
	if err != nil {
		return fail(err)
	}
	_, _ = io.Copy(io.Discard, response.Body)
	response.Body.Close()

	code := response.StatusCode
	res.StatusCode = &code
	res.OK = code >= 200 && code < 300
	res.LatencyMS = elapsedMS(start)
	res.Timestamp = m.timestamp()
	return res
}

func (m *Monitor) timestamp() string {
	return m.now().UTC().Format(time.RFC3339)
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Milliseconds())
}
