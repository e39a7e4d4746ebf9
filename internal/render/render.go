// Package render turns check results into dashboard cards and places them in
// the status container of a page.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"uptimeboard/internal/models"
)

const (
	StatusOK   = "OK"
	StatusDown = "DOWN"

	ClassOK  = "ok"
	ClassBad = "bad"

	// MissingCode is shown in place of an absent HTTP status code.
	MissingCode = "—"
	// InvalidDate is shown when a timestamp cannot be parsed.
	InvalidDate = "Invalid Date"

	DefaultContainerID = "status"
	DefaultTimeLayout  = "1/2/2006, 3:04:05 PM"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// timestampLayouts are tried in order. Date-only values are UTC, values without
// an offset are read in the viewer's zone.
var timestampLayouts = []struct {
	layout string
	local  bool
}{
	{layout: time.RFC3339Nano},
	{layout: "2006-01-02 15:04:05.999999999Z07:00"},
	{layout: "2006-01-02T15:04:05.999999999", local: true},
	{layout: "2006-01-02"},
}

// Options configures a Renderer. Zero values fall back to defaults.
type Options struct {
	Title       string
	ContainerID string
	Location    *time.Location
	TimeLayout  string
}

// Renderer formats cards and pages. It holds no mutable state.
type Renderer struct {
	title       string
	containerID string
	loc         *time.Location
	layout      string
}

type cardView struct {
	Name    string
	URL     string
	Class   string
	Status  string
	Code    string
	Latency string
	Checked string
	Error   string
}

type pageView struct {
	Title       string
	ContainerID string
	GeneratedAt string
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	r := &Renderer{
		title:       opts.Title,
		containerID: opts.ContainerID,
		loc:         opts.Location,
		layout:      opts.TimeLayout,
	}
	if r.containerID == "" {
		r.containerID = DefaultContainerID
	}
	if r.loc == nil {
		r.loc = time.Local
	}
	if r.layout == "" {
		r.layout = DefaultTimeLayout
	}
	return r
}

// Card renders a single result.
func (r *Renderer) Card(result models.CheckResult) string {
	var buf strings.Builder
	r.writeCard(&buf, result)
	return buf.String()
}

// Cards renders every result in order and joins them with no separator.
func (r *Renderer) Cards(results []models.CheckResult) string {
	var buf strings.Builder
	for _, result := range results {
		r.writeCard(&buf, result)
	}
	return buf.String()
}

// Page renders the full dashboard page for a snapshot.
func (r *Renderer) Page(snap models.CheckSnapshot) ([]byte, error) {
	var host bytes.Buffer
	view := pageView{Title: r.title, ContainerID: r.containerID}
	if snap.GeneratedAt != "" {
		view.GeneratedAt = r.FormatTimestamp(snap.GeneratedAt)
	}
	if err := templates.ExecuteTemplate(&host, "page.html", view); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return r.Inject(host.Bytes(), r.Cards(snap.Results))
}

// Inject replaces the children of the container element in page with fragment.
func (r *Renderer) Inject(page []byte, fragment string) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	container := findByID(doc, r.containerID)
	if container == nil {
		return nil, fmt.Errorf("container #%s not found", r.containerID)
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), container)
	if err != nil {
		return nil, fmt.Errorf("parse cards: %w", err)
	}
	for child := container.FirstChild; child != nil; child = container.FirstChild {
		container.RemoveChild(child)
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return out.Bytes(), nil
}

// FormatTimestamp renders an ISO-8601 value in the configured zone and layout.
func (r *Renderer) FormatTimestamp(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, candidate := range timestampLayouts {
		loc := time.UTC
		if candidate.local {
			loc = r.loc
		}
		ts, err := time.ParseInLocation(candidate.layout, raw, loc)
		if err == nil {
			return ts.In(r.loc).Format(r.layout)
		}
	}
	return InvalidDate
}

func (r *Renderer) writeCard(buf *strings.Builder, result models.CheckResult) {
	view := cardView{
		Name:    result.Name,
		URL:     result.URL,
		Class:   ClassBad,
		Status:  StatusDown,
		Code:    MissingCode,
		Latency: strconv.FormatFloat(result.LatencyMS, 'f', -1, 64),
		Checked: r.FormatTimestamp(result.Timestamp),
	}
	if result.OK {
		view.Class = ClassOK
		view.Status = StatusOK
	}
	if result.StatusCode != nil {
		view.Code = strconv.Itoa(*result.StatusCode)
	}
	if result.Error != nil {
		view.Error = *result.Error
	}
	// card.html reads plain string fields only.
	_ = templates.ExecuteTemplate(buf, "card.html", view)
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom != atom.Script {
		for _, attr := range n.Attr {
			if attr.Namespace == "" && attr.Key == "id" && attr.Val == id {
				return n
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}
