package station

import "time"

// CurrentConditions holds the readings shown on the main card and metric tiles.
type CurrentConditions struct {
	Temp       int       `json:"temp"`
	Condition  Condition `json:"condition"`
	Humidity   int       `json:"humidity"`
	WindSpeed  int       `json:"wind_speed"`
	UVIndex    int       `json:"uv_index"`
	Visibility int       `json:"visibility"`
	FeelsLike  int       `json:"feels_like"`
	Pressure   int       `json:"pressure"`
}

// ForecastDay is one row of the five-day outlook.
type ForecastDay struct {
	Day       string    `json:"day"`
	High      int       `json:"high"`
	Low       int       `json:"low"`
	Condition Condition `json:"condition"`
}

// Snapshot is one complete set of simulated readings.
// It is never modified after Generate returns; refreshes replace it wholesale.
type Snapshot struct {
	ID          string            `json:"id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Current     CurrentConditions `json:"current"`
	LastUpdated string            `json:"last_updated"`
	Forecast    []ForecastDay     `json:"forecast"`
}

// ForecastDays is the number of entries in every Snapshot.Forecast.
const ForecastDays = 5

type forecastPlan struct {
	day       string
	high      int
	low       int
	condition Condition
}

// Offsets are relative to the base temperature of the snapshot.
var forecastPlans = [ForecastDays]forecastPlan{
	{day: "Today", high: 2, low: -4, condition: PartlyCloudy},
	{day: "Tomorrow", high: 3, low: -3, condition: Sunny},
	{day: "Wed", high: 1, low: -5, condition: LightRain},
	{day: "Thu", high: 0, low: -4, condition: Cloudy},
	{day: "Fri", high: 4, low: -2, condition: Sunny},
}

// ForecastLabels returns the fixed day labels in chronological order.
func ForecastLabels() []string {
	labels := make([]string, 0, ForecastDays)
	for _, p := range forecastPlans {
		labels = append(labels, p.day)
	}
	return labels
}

func buildForecast(baseTemp int) []ForecastDay {
	days := make([]ForecastDay, 0, ForecastDays)
	for _, p := range forecastPlans {
		days = append(days, ForecastDay{
			Day:       p.day,
			High:      baseTemp + p.high,
			Low:       baseTemp + p.low,
			Condition: p.condition,
		})
	}
	return days
}
