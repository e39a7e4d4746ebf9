package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"uptimeboard/internal/models"
)

// Document names under the data directory.
const (
	LatestFile     = "latest.json"
	HistoryFile    = "history.json"
	StateFile      = "state.json"
	AlertsFile     = "alerts.json"
	RecoveriesFile = "recoveries.json"
)

// ErrUnknownDocument is returned by Read for names outside the published set.
var ErrUnknownDocument = errors.New("unknown document")

var published = map[string]bool{
	LatestFile:     true,
	HistoryFile:    true,
	StateFile:      true,
	AlertsFile:     true,
	RecoveriesFile: true,
}

// Documents reads and writes the JSON files the dashboard publishes.
type Documents struct {
	dir string
}

// NewDocuments ensures the data directory exists.
func NewDocuments(dir string) (*Documents, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}
	return &Documents{dir: dir}, nil
}

// Path returns the absolute location of a document.
func (d *Documents) Path(name string) string {
	return filepath.Join(d.dir, name)
}

// Read returns the raw bytes of a published document.
func (d *Documents) Read(name string) ([]byte, error) {
	if !published[name] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, name)
	}
	return os.ReadFile(d.Path(name))
}

// WriteLatest replaces latest.json.
func (d *Documents) WriteLatest(snap models.CheckSnapshot) error {
	if snap.Results == nil {
		snap.Results = []models.CheckResult{}
	}
	return writeJSON(d.Path(LatestFile), snap)
}

// LoadState reads state.json, returning an empty state when it is missing.
func (d *Documents) LoadState() (models.StreakState, error) {
	state := models.NewStreakState()
	if err := loadJSON(d.Path(StateFile), &state); err != nil {
		return models.StreakState{}, err
	}
	if state.Streaks == nil {
		state.Streaks = map[string]int{}
	}
	if state.OpenAlerts == nil {
		state.OpenAlerts = map[string]int{}
	}
	return state, nil
}

// SaveState replaces state.json.
func (d *Documents) SaveState(state models.StreakState) error {
	return writeJSON(d.Path(StateFile), state)
}

// WriteAlerts replaces alerts.json.
func (d *Documents) WriteAlerts(doc models.AlertsFile) error {
	if doc.Alerts == nil {
		doc.Alerts = []models.Alert{}
	}
	return writeJSON(d.Path(AlertsFile), doc)
}

// WriteRecoveries replaces recoveries.json.
func (d *Documents) WriteRecoveries(doc models.RecoveriesFile) error {
	if doc.Recoveries == nil {
		doc.Recoveries = []models.Recovery{}
	}
	return writeJSON(d.Path(RecoveriesFile), doc)
}

// loadJSON decodes path into dest. Missing or empty files leave dest untouched.
func loadJSON(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON replaces path atomically via a temp file and rename.
func writeJSON(path string, payload any) error {
	name := filepath.Base(path)
	bytes, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure data directory: %w", err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write temp %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
