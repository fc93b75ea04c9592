package view

import (
	"embed"
	"html/template"
	"io"
	"sync"

	"weather-dashboard/internal/station"
)

const (
	headerTagline = "Real-time Weather"
	forecastTitle = "5-Day Forecast"
	footerNote    = "Weather data simulated for demonstration"
)

// Header carries the static station identity shown at the top of the page.
type Header struct {
	City      string
	LocalName string
}

// Page is everything the dashboard template needs for one render.
type Page struct {
	Tagline       string
	City          string
	LocalName     string
	Gradient      template.CSS
	Updating      bool
	LastUpdated   string
	SnapshotID    string
	Card          Card
	Metrics       []Metric
	ForecastTitle string
	Forecast      []ForecastRow
	Footer        string
}

// NewPage composes the display primitives for snap. A nil snapshot renders an
// empty shell.
func NewPage(h Header, snap *station.Snapshot, updating bool) Page {
	p := Page{
		Tagline:       headerTagline,
		City:          h.City,
		LocalName:     h.LocalName,
		Gradient:      template.CSS(station.Sunny.Gradient()),
		Updating:      updating,
		ForecastTitle: forecastTitle,
		Footer:        footerNote,
	}
	if snap == nil {
		return p
	}

	c := snap.Current
	p.Gradient = template.CSS(c.Condition.Gradient())
	p.LastUpdated = snap.LastUpdated
	p.SnapshotID = snap.ID
	p.Card = NewCard(c.Condition.Icon(), c.Temp, string(c.Condition), c.FeelsLike, updating)
	p.Metrics = Metrics(c)

	p.Forecast = make([]ForecastRow, 0, len(snap.Forecast))
	for i, day := range snap.Forecast {
		p.Forecast = append(p.Forecast, NewForecastRow(day, i == len(snap.Forecast)-1))
	}
	return p
}

// StatusClass colours the header status dot.
func (p Page) StatusClass() string {
	if p.Updating {
		return "status updating"
	}
	return "status idle"
}

//go:embed templates/*.html
var templateFS embed.FS

var (
	templatesOnce sync.Once
	templates     *template.Template
)

// Templates returns the parsed template set: page, dashboard, card, metric and
// forecast_row.
func Templates() *template.Template {
	templatesOnce.Do(func() {
		templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))
	})
	return templates
}

// Render executes the named template with data.
func Render(w io.Writer, name string, data any) error {
	return Templates().ExecuteTemplate(w, name, data)
}
