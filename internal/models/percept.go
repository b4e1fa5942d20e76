package models

import (
	"fmt"
	"time"
)

// EnvironmentPercept is a single snapshot of readings at one location.
type EnvironmentPercept struct {
	Timestamp       time.Time
	Location        Location
	Temperature     float64 // Celsius
	Humidity        float64 // percentage
	WindSpeed       float64 // km/h
	AirQuality      float64 // AQI (0-500)
	SeismicActivity float64 // Richter (0-10)
	WaterLevel      float64 // meters above normal
	SmokeDetected   bool
	ActiveDisasters []DisasterEvent
}

func (p EnvironmentPercept) String() string {
	return fmt.Sprintf("Percept @ %s - %s: Temp=%.1f°C, Humidity=%.0f%%, Active Disasters=%d",
		p.Timestamp.Format("15:04:05"), p.Location.Name, p.Temperature, p.Humidity, len(p.ActiveDisasters))
}
