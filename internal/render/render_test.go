package render

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"uptimeboard/internal/models"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func utcRenderer() *Renderer {
	return New(Options{Title: "Uptime", Location: time.UTC})
}

func countCards(s string) int {
	return strings.Count(s, `<div class="card">`)
}

func hasErrorLine(s string) bool {
	return strings.Contains(s, "Error: ")
}

var numericCode = regexp.MustCompile(`HTTP: \d`)

func apiResult() models.CheckResult {
	return models.CheckResult{
		Name:       "API",
		URL:        "https://api.example.com",
		OK:         true,
		StatusCode: intPtr(200),
		LatencyMS:  42,
		Timestamp:  "2024-01-01T00:00:00Z",
	}
}

func dbResult() models.CheckResult {
	return models.CheckResult{
		Name:      "DB",
		URL:       "https://db.example.com",
		OK:        false,
		Error:     strPtr("timeout"),
		LatencyMS: 5000,
		Timestamp: "2024-01-01T00:00:00Z",
	}
}

func TestCard_HealthyExample(t *testing.T) {
	out := utcRenderer().Card(apiResult())
	for _, want := range []string{"API", "OK", `class="ok"`, "HTTP: 200", "42 ms", "Checked: 1/1/2024, 12:00:00 AM"} {
		if !strings.Contains(out, want) {
			t.Errorf("card missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "DOWN") || hasErrorLine(out) {
		t.Fatalf("healthy card has failure markers:\n%s", out)
	}
	if !strings.Contains(out, `<a href="https://api.example.com" target="_blank" rel="noopener noreferrer">API</a>`) {
		t.Fatalf("unexpected link markup:\n%s", out)
	}
}

func TestCard_FailingExample(t *testing.T) {
	out := utcRenderer().Card(dbResult())
	for _, want := range []string{"DOWN", `class="bad"`, "HTTP: " + MissingCode, `<div class="muted">Error: timeout</div>`, "5000 ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("card missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "OK") {
		t.Fatalf("failing card contains OK:\n%s", out)
	}
	if numericCode.MatchString(out) {
		t.Fatalf("failing card without status code shows a number:\n%s", out)
	}
}

func TestCard_StatusLabelFollowsOK(t *testing.T) {
	r := utcRenderer()
	for _, ok := range []bool{true, false} {
		for _, code := range []*int{nil, intPtr(200), intPtr(503)} {
			for _, errText := range []*string{nil, strPtr(""), strPtr("boom")} {
				res := models.CheckResult{Name: "svc", URL: "https://svc", OK: ok, StatusCode: code, Error: errText, Timestamp: "2024-01-01T00:00:00Z"}
				out := r.Card(res)
				if strings.Contains(out, StatusOK) != ok || strings.Contains(out, StatusDown) == ok {
					t.Fatalf("ok=%v code=%v err=%v rendered wrong label:\n%s", ok, code, errText, out)
				}
				wantErr := errText != nil && *errText != ""
				if hasErrorLine(out) != wantErr {
					t.Fatalf("error line present=%v, want %v:\n%s", hasErrorLine(out), wantErr, out)
				}
				if code == nil && (numericCode.MatchString(out) || !strings.Contains(out, "HTTP: "+MissingCode)) {
					t.Fatalf("missing code not rendered as placeholder:\n%s", out)
				}
			}
		}
	}
}

func TestCard_EscapesUntrustedData(t *testing.T) {
	res := models.CheckResult{
		Name:      `<script>alert(1)</script>`,
		URL:       `javascript:alert(1)`,
		Error:     strPtr(`<img src=x onerror=alert(1)>`),
		Timestamp: "2024-01-01T00:00:00Z",
	}
	out := utcRenderer().Card(res)
	if strings.Contains(out, "<script>") || strings.Contains(out, "<img") {
		t.Fatalf("markup not escaped:\n%s", out)
	}
	if strings.Contains(out, `href="javascript:`) {
		t.Fatalf("unsafe url kept:\n%s", out)
	}
}

func TestCard_LatencyFormatting(t *testing.T) {
	r := utcRenderer()
	res := apiResult()
	res.LatencyMS = 12.5
	if out := r.Card(res); !strings.Contains(out, "Latency: 12.5 ms") {
		t.Fatalf("fractional latency:\n%s", out)
	}
}

func TestFormatTimestamp(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	r := New(Options{Location: tokyo, TimeLayout: time.DateTime})
	cases := map[string]string{
		"2024-01-01T00:00:00Z":             "2024-01-01 09:00:00",
		"2024-01-01T00:00:00.123456+00:00": "2024-01-01 09:00:00",
		"2024-01-01T08:00:00":              "2024-01-01 08:00:00",
		"2024-01-01":                       "2024-01-01 09:00:00",
		"yesterday":                        InvalidDate,
		"":                                 InvalidDate,
	}
	for in, want := range cases {
		if got := r.FormatTimestamp(in); got != want {
			t.Errorf("FormatTimestamp(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCards_OrderAndCount(t *testing.T) {
	r := utcRenderer()
	results := []models.CheckResult{apiResult(), dbResult(), apiResult()}
	out := r.Cards(results)
	if n := countCards(out); n != len(results) {
		t.Fatalf("got %d cards, want %d", n, len(results))
	}
	want := r.Card(results[0]) + r.Card(results[1]) + r.Card(results[2])
	if out != want {
		t.Fatalf("cards not concatenated in order without separators")
	}
	if r.Cards(nil) != "" {
		t.Fatalf("empty snapshot should render nothing")
	}
}

func TestPage_InjectsIntoContainer(t *testing.T) {
	r := utcRenderer()
	snap := models.CheckSnapshot{
		GeneratedAt: "2024-01-01T00:05:00Z",
		Results:     []models.CheckResult{apiResult(), dbResult()},
	}
	page, err := r.Page(snap)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	s := string(page)
	start := strings.Index(s, `<div id="status">`)
	if start < 0 {
		t.Fatalf("container missing:\n%s", s)
	}
	if countCards(s[start:]) != 2 {
		t.Fatalf("expected 2 cards inside container:\n%s", s)
	}
	if strings.Index(s, ">API<") > strings.Index(s, ">DB<") {
		t.Fatalf("cards out of order")
	}
	if !strings.Contains(s, "Generated: 1/1/2024, 12:05:00 AM") {
		t.Fatalf("generated_at missing:\n%s", s)
	}

	again, err := r.Page(snap)
	if err != nil || !bytes.Equal(page, again) {
		t.Fatalf("rendering is not deterministic")
	}
}

func TestInject_ReplacesExistingContent(t *testing.T) {
	r := New(Options{ContainerID: "board"})
	host := []byte(`<html><body><section id="board"><p>loading</p></section><footer>f</footer></body></html>`)
	out, err := r.Inject(host, `<div class="card">x</div>`)
	if err != nil {
		t.Fatalf("Inject: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "loading") {
		t.Fatalf("old content kept:\n%s", s)
	}
	if !strings.Contains(s, `<section id="board"><div class="card">x</div></section><footer>f</footer>`) {
		t.Fatalf("unexpected output:\n%s", s)
	}

	if _, err := New(Options{ContainerID: "absent"}).Inject(host, ""); err == nil {
		t.Fatalf("expected error for missing container")
	}
}
