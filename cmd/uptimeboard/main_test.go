package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"uptimeboard/internal/logx"
	"uptimeboard/internal/storage/sqlite"
)

const latest = `{"results":[
{"name":"API","url":"https://api.example.com","ok":true,"status_code":200,"latency_ms":42,"timestamp":"2024-01-01T00:00:00Z"},
{"name":"DB","url":"https://db.example.com","ok":false,"status_code":null,"error":"timeout","latency_ms":5000,"timestamp":"2024-01-01T00:00:00Z"}
]}`

func TestRunRender_IsIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "latest.json")
	if err := os.WriteFile(src, []byte(latest), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("dashboard:\n  time_zone: UTC\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var first, second bytes.Buffer
	args := []string{"-config", cfgPath, "-source", src}
	if err := runRender(context.Background(), logx.Discard(), args, &first); err != nil {
		t.Fatalf("render: %v", err)
	}
	if err := runRender(context.Background(), logx.Discard(), args, &second); err != nil {
		t.Fatalf("render again: %v", err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatalf("render output differs between runs")
	}
	page := first.String()
	if strings.Count(page, `<div class="card">`) != 2 {
		t.Fatalf("expected two cards:\n%s", page)
	}

	out := filepath.Join(dir, "site", "index.html")
	if err := runRender(context.Background(), logx.Discard(), append(args, "-out", out), nil); err != nil {
		t.Fatalf("render to file: %v", err)
	}
	written, err := os.ReadFile(out)
	if err != nil || !bytes.Equal(written, first.Bytes()) {
		t.Fatalf("file output mismatch: %v", err)
	}
}

func TestRunRender_FetchFailure(t *testing.T) {
	dir := t.TempDir()
	args := []string{"-config", filepath.Join(dir, "none.yaml"), "-source", filepath.Join(dir, "absent.json")}
	var out bytes.Buffer
	if err := runRender(context.Background(), logx.Discard(), args, &out); err == nil {
		t.Fatalf("expected error")
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should be written on failure")
	}
}

func TestRunCheck_RequiresTargets(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("data_directory: "+filepath.Join(dir, "data")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := runCheck(context.Background(), logx.Discard(), []string{"-config", cfgPath})
	if err == nil || !strings.Contains(err.Error(), "at least one target") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRunCheck_SQLiteHistory(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "data_directory: " + data + "\nhistory_backend: sqlite\ntargets:\n  - name: API\n    url: " + target.URL + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := runCheck(context.Background(), logx.Discard(), []string{"-config", cfgPath}); err != nil {
			t.Fatalf("check: %v", err)
		}
	}
	for _, name := range []string{"latest.json", "state.json", "alerts.json", "recoveries.json"} {
		if _, err := os.Stat(filepath.Join(data, name)); err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
	}

	store, err := sqlite.New(context.Background(), filepath.Join(data, "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	events, err := store.Events(context.Background(), 0)
	if err != nil || len(events) != 2 || !events[1].OK {
		t.Fatalf("events = %+v, %v", events, err)
	}
}
