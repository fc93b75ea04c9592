package view

import (
	"weather-dashboard/internal/station"
)

// Card is the primary conditions panel.
type Card struct {
	Icon      string
	Temp      int
	Condition string
	FeelsLike int
	Updating  bool
}

// NewCard builds the main panel from already-derived values.
func NewCard(icon string, temp int, condition string, feelsLike int, updating bool) Card {
	return Card{
		Icon:      icon,
		Temp:      temp,
		Condition: condition,
		FeelsLike: feelsLike,
		Updating:  updating,
	}
}

// Class is the CSS class list; updating dims and shrinks the card.
func (c Card) Class() string {
	if c.Updating {
		return "card updating"
	}
	return "card"
}

// Metric is one labelled reading tile.
type Metric struct {
	Label   string
	Value   int
	Unit    string
	Icon    string
	Warning bool
}

// NewMetric builds a tile. Warning adds a "High" badge.
func NewMetric(label string, value int, unit, icon string, warning bool) Metric {
	return Metric{
		Label:   label,
		Value:   value,
		Unit:    unit,
		Icon:    icon,
		Warning: warning,
	}
}

// UVHighThreshold is the largest UV index rendered without a warning badge.
const UVHighThreshold = 7

// UVWarning reports whether the UV tile carries the "High" badge.
func UVWarning(uvIndex int) bool {
	return uvIndex > UVHighThreshold
}

// Metrics returns the six detail tiles in display order.
func Metrics(c station.CurrentConditions) []Metric {
	return []Metric{
		NewMetric("Humidity", c.Humidity, "%", "💧", false),
		NewMetric("Wind Speed", c.WindSpeed, " km/h", "💨", false),
		NewMetric("UV Index", c.UVIndex, "", "☀", UVWarning(c.UVIndex)),
		NewMetric("Visibility", c.Visibility, " km", "👁", false),
		NewMetric("Pressure", c.Pressure, " hPa", "📊", false),
		NewMetric("Feels Like", c.FeelsLike, "°", "🌡", false),
	}
}

// ForecastRow is one day of the outlook table.
type ForecastRow struct {
	Day       string
	Icon      string
	Condition string
	High      int
	Low       int
	BarWidth  int
	Last      bool
}

// BarWidth encodes the daily temperature range as a percentage, capped at 100.
func BarWidth(high, low int) int {
	return min(100, (high-low)*5+40)
}

// NewForecastRow builds a row; isLast suppresses the divider below it.
func NewForecastRow(day station.ForecastDay, isLast bool) ForecastRow {
	return ForecastRow{
		Day:       day.Day,
		Icon:      day.Condition.Icon(),
		Condition: string(day.Condition),
		High:      day.High,
		Low:       day.Low,
		BarWidth:  BarWidth(day.High, day.Low),
		Last:      isLast,
	}
}

// Class is the CSS class list for the row.
func (r ForecastRow) Class() string {
	if r.Last {
		return "forecast-row"
	}
	return "forecast-row divided"
}
