package storage

import (
	"time"

	"gorm.io/gorm"

	"weather-dashboard/internal/station"
)

type SnapshotRecord struct {
	gorm.Model
	SnapshotID  string    `gorm:"uniqueIndex;size:64" json:"snapshot_id"`
	GeneratedAt time.Time `gorm:"index" json:"generated_at"`
	LastUpdated string    `gorm:"size:5" json:"last_updated"`

	// Current conditions
	Temp       int    `json:"temp"`
	Condition  string `gorm:"size:32" json:"condition"`
	Humidity   int    `json:"humidity"`
	WindSpeed  int    `json:"wind_speed"`
	UVIndex    int    `json:"uv_index"`
	Visibility int    `json:"visibility"`
	FeelsLike  int    `json:"feels_like"`
	Pressure   int    `json:"pressure"`

	Forecast []station.ForecastDay `gorm:"serializer:json" json:"forecast"`
}

func (SnapshotRecord) TableName() string {
	return "snapshots"
}

func newSnapshotRecord(snap *station.Snapshot) *SnapshotRecord {
	c := snap.Current
	return &SnapshotRecord{
		SnapshotID:  snap.ID,
		GeneratedAt: snap.GeneratedAt.UTC(),
		LastUpdated: snap.LastUpdated,
		Temp:        c.Temp,
		Condition:   string(c.Condition),
		Humidity:    c.Humidity,
		WindSpeed:   c.WindSpeed,
		UVIndex:     c.UVIndex,
		Visibility:  c.Visibility,
		FeelsLike:   c.FeelsLike,
		Pressure:    c.Pressure,
		Forecast:    snap.Forecast,
	}
}

// Snapshot converts the row back into the domain type.
func (r *SnapshotRecord) Snapshot() *station.Snapshot {
	return &station.Snapshot{
		ID:          r.SnapshotID,
		GeneratedAt: r.GeneratedAt.UTC(),
		LastUpdated: r.LastUpdated,
		Current: station.CurrentConditions{
			Temp:       r.Temp,
			Condition:  station.Condition(r.Condition),
			Humidity:   r.Humidity,
			WindSpeed:  r.WindSpeed,
			UVIndex:    r.UVIndex,
			Visibility: r.Visibility,
			FeelsLike:  r.FeelsLike,
			Pressure:   r.Pressure,
		},
		Forecast: r.Forecast,
	}
}
