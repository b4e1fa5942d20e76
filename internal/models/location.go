package models

import (
	"fmt"

	"github.com/paulmach/orb"
)

type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
}

func (l Location) Point() orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}

func (l Location) String() string {
	return fmt.Sprintf("%s (%.4f, %.4f)", l.Name, l.Latitude, l.Longitude)
}

// DefaultLocations are the monitored cities.
func DefaultLocations() []Location {
	return []Location{
		{Name: "Accra", Latitude: 5.6037, Longitude: -0.1870},
		{Name: "Kumasi", Latitude: 6.6944, Longitude: -1.5547},
		{Name: "Tema", Latitude: 5.6260, Longitude: 0.0091},
		{Name: "Tamale", Latitude: 9.2619, Longitude: -0.8406},
		{Name: "Cape Coast", Latitude: 5.1143, Longitude: -1.2440},
	}
}
