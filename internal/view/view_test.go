package view

import (
	"bytes"
	"strings"
	"testing"

	"weather-dashboard/internal/station"
)

func TestBarWidth(t *testing.T) {
	tests := []struct {
		name string
		high int
		low  int
		want int
	}{
		{name: "ten degree range", high: 30, low: 20, want: 90},
		{name: "one degree range", high: 22, low: 21, want: 45},
		{name: "clamped", high: 40, low: 10, want: 100},
		{name: "exactly full", high: 32, low: 20, want: 100},
		{name: "flat day", high: 25, low: 25, want: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BarWidth(tt.high, tt.low); got != tt.want {
				t.Errorf("BarWidth(%d, %d) = %d, want %d", tt.high, tt.low, got, tt.want)
			}
		})
	}
}

func TestUVWarning(t *testing.T) {
	tests := []struct {
		uv   int
		want bool
	}{
		{uv: 3, want: false},
		{uv: 7, want: false},
		{uv: 8, want: true},
		{uv: 10, want: true},
	}

	for _, tt := range tests {
		if got := UVWarning(tt.uv); got != tt.want {
			t.Errorf("UVWarning(%d) = %v, want %v", tt.uv, got, tt.want)
		}
	}
}

func TestMetrics(t *testing.T) {
	c := station.CurrentConditions{
		Temp: 28, Condition: station.Sunny, Humidity: 80, WindSpeed: 15,
		UVIndex: 8, Visibility: 12, FeelsLike: 27, Pressure: 1015,
	}

	got := Metrics(c)
	want := []Metric{
		{Label: "Humidity", Value: 80, Unit: "%", Icon: "💧"},
		{Label: "Wind Speed", Value: 15, Unit: " km/h", Icon: "💨"},
		{Label: "UV Index", Value: 8, Unit: "", Icon: "☀", Warning: true},
		{Label: "Visibility", Value: 12, Unit: " km", Icon: "👁"},
		{Label: "Pressure", Value: 1015, Unit: " hPa", Icon: "📊"},
		{Label: "Feels Like", Value: 27, Unit: "°", Icon: "🌡"},
	}

	if len(got) != len(want) {
		t.Fatalf("got %d tiles, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tile %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	c.UVIndex = 7
	for _, m := range Metrics(c) {
		if m.Warning {
			t.Errorf("%s should not warn at uv 7", m.Label)
		}
	}
}

func TestCardClass(t *testing.T) {
	idle := NewCard("☀", 28, "Sunny", 27, false)
	busy := NewCard("☀", 28, "Sunny", 27, true)

	if idle.Class() != "card" {
		t.Errorf("idle class = %q", idle.Class())
	}
	if !strings.Contains(busy.Class(), "updating") {
		t.Errorf("updating class = %q", busy.Class())
	}
}

func TestNewForecastRow(t *testing.T) {
	day := station.ForecastDay{Day: "Wed", High: 29, Low: 23, Condition: station.LightRain}

	row := NewForecastRow(day, false)
	if row.Icon != "🌧" || row.Condition != "Light Rain" {
		t.Errorf("unexpected row %+v", row)
	}
	if row.BarWidth != 70 {
		t.Errorf("bar width = %d, want 70", row.BarWidth)
	}
	if !strings.Contains(row.Class(), "divided") {
		t.Error("non-final row should draw a divider")
	}
	if strings.Contains(NewForecastRow(day, true).Class(), "divided") {
		t.Error("final row should not draw a divider")
	}
}

func sampleSnapshot() *station.Snapshot {
	return &station.Snapshot{
		ID:          "snap-1",
		LastUpdated: "14:05",
		Current: station.CurrentConditions{
			Temp: 30, Condition: station.Thunderstorm, Humidity: 90, WindSpeed: 25,
			UVIndex: 9, Visibility: 10, FeelsLike: 31, Pressure: 1012,
		},
		Forecast: []station.ForecastDay{
			{Day: "Today", High: 32, Low: 26, Condition: station.PartlyCloudy},
			{Day: "Tomorrow", High: 37, Low: 27, Condition: station.Sunny},
			{Day: "Wed", High: 31, Low: 25, Condition: station.LightRain},
			{Day: "Thu", High: 30, Low: 26, Condition: station.Cloudy},
			{Day: "Fri", High: 34, Low: 28, Condition: station.Sunny},
		},
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage(Header{City: "Hong Kong", LocalName: "香港"}, sampleSnapshot(), true)

	if !p.Card.Updating || p.StatusClass() != "status updating" {
		t.Error("page should reflect the updating flag")
	}
	if string(p.Gradient) != station.Thunderstorm.Gradient() {
		t.Errorf("gradient = %q", p.Gradient)
	}
	if len(p.Metrics) != 6 || len(p.Forecast) != 5 {
		t.Fatalf("got %d metrics and %d rows", len(p.Metrics), len(p.Forecast))
	}
	for i, row := range p.Forecast {
		if row.Last != (i == 4) {
			t.Errorf("row %d last = %v", i, row.Last)
		}
	}
}

func TestRenderPage(t *testing.T) {
	p := NewPage(Header{City: "Hong Kong", LocalName: "香港"}, sampleSnapshot(), false)

	var buf bytes.Buffer
	if err := Render(&buf, "page", p); err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"Real-time Weather", "Hong Kong", "香港", "Last updated: 14:05", "Refresh",
		"Thunderstorm", "Feels like", "5-Day Forecast", "Tomorrow", "width: 90%",
		"High", "Weather data simulated for demonstration", `class="status idle"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
	if strings.Contains(html, "ZgotmplZ") {
		t.Error("template escaped an unsafe value")
	}
}

func TestRefreshButtonDisabledWhileUpdating(t *testing.T) {
	h := Header{City: "Hong Kong"}

	var idle, busy bytes.Buffer
	if err := Render(&idle, "dashboard", NewPage(h, sampleSnapshot(), false)); err != nil {
		t.Fatalf("Render idle: %v", err)
	}
	if err := Render(&busy, "dashboard", NewPage(h, sampleSnapshot(), true)); err != nil {
		t.Fatalf("Render updating: %v", err)
	}

	if strings.Contains(idle.String(), "disabled") {
		t.Error("refresh button should be enabled while idle")
	}
	if !strings.Contains(busy.String(), `id="refresh" type="button" disabled`) {
		t.Error("refresh button should be disabled while updating")
	}
}

func TestRenderEmptyPage(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "dashboard", NewPage(Header{City: "Hong Kong"}, nil, false)); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "Hong Kong") {
		t.Error("empty page should still render the header")
	}
}
