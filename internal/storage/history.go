package storage

import (
	"context"
	"sync"

	"uptimeboard/internal/models"
)

// HistoryStore keeps the rolling log of check results.
type HistoryStore interface {
	// Append adds events and keeps only the newest limit entries. limit <= 0 keeps everything.
	Append(ctx context.Context, events []models.CheckResult, limit int) error
	// Events returns the newest limit events in check order. limit <= 0 returns all.
	Events(ctx context.Context, limit int) ([]models.CheckResult, error)
	Close() error
}

// JSONHistory stores history as history.json next to the other documents.
type JSONHistory struct {
	mu   sync.Mutex
	path string
}

// NewJSONHistory returns a history store backed by the history.json document.
func NewJSONHistory(docs *Documents) *JSONHistory {
	return &JSONHistory{path: docs.Path(HistoryFile)}
}

// Append implements HistoryStore.
func (h *JSONHistory) Append(ctx context.Context, events []models.CheckResult, limit int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	history, err := h.load()
	if err != nil {
		return err
	}
	history.Events = tail(append(history.Events, events...), limit)
	return writeJSON(h.path, history)
}

// Events implements HistoryStore.
func (h *JSONHistory) Events(ctx context.Context, limit int) ([]models.CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	history, err := h.load()
	if err != nil {
		return nil, err
	}
	events := tail(history.Events, limit)
	out := make([]models.CheckResult, len(events))
	copy(out, events)
	return out, nil
}

// Close implements HistoryStore.
func (h *JSONHistory) Close() error { return nil }

func (h *JSONHistory) load() (models.History, error) {
	history := models.History{Events: []models.CheckResult{}}
	if err := loadJSON(h.path, &history); err != nil {
		return models.History{}, err
	}
	if history.Events == nil {
		history.Events = []models.CheckResult{}
	}
	return history, nil
}

func tail(events []models.CheckResult, limit int) []models.CheckResult {
	if limit <= 0 || len(events) <= limit {
		return events
	}
	return events[len(events)-limit:]
}
