package sensor

import (
	"strings"

	"github.com/mr1hm/disaster-response-agents/internal/config"
	"github.com/mr1hm/disaster-response-agents/internal/models"
)

// Thresholds are exclusive: a reading equal to its threshold is normal.
type Thresholds struct {
	Temperature float64 // °C
	WindSpeed   float64 // km/h
	AirQuality  float64 // AQI
	Seismic     float64 // Richter
	WaterLevel  float64 // meters above normal
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Temperature: 40,
		WindSpeed:   60,
		AirQuality:  200,
		Seismic:     3.0,
		WaterLevel:  0.5,
	}
}

func ThresholdsFromConfig(c config.ThresholdsConfig) Thresholds {
	return Thresholds{
		Temperature: c.Temperature,
		WindSpeed:   c.WindSpeed,
		AirQuality:  c.AirQuality,
		Seismic:     c.Seismic,
		WaterLevel:  c.WaterLevel,
	}
}

type Anomalies struct {
	HighTemperature bool
	HighWind        bool
	PoorAirQuality  bool
	Seismic         bool
	RisingWater     bool
	Smoke           bool
}

func (t Thresholds) Evaluate(p models.EnvironmentPercept) Anomalies {
	return Anomalies{
		HighTemperature: p.Temperature > t.Temperature,
		HighWind:        p.WindSpeed > t.WindSpeed,
		PoorAirQuality:  p.AirQuality > t.AirQuality,
		Seismic:         p.SeismicActivity > t.Seismic,
		RisingWater:     p.WaterLevel > t.WaterLevel,
		Smoke:           p.SmokeDetected,
	}
}

func (a Anomalies) Any() bool {
	return a.HighTemperature || a.HighWind || a.PoorAirQuality || a.Seismic || a.RisingWater || a.Smoke
}

func (a Anomalies) String() string {
	var flags []string
	if a.HighTemperature {
		flags = append(flags, "temperature")
	}
	if a.HighWind {
		flags = append(flags, "wind")
	}
	if a.PoorAirQuality {
		flags = append(flags, "air_quality")
	}
	if a.Seismic {
		flags = append(flags, "seismic")
	}
	if a.RisingWater {
		flags = append(flags, "water_level")
	}
	if a.Smoke {
		flags = append(flags, "smoke")
	}
	return strings.Join(flags, ",")
}
