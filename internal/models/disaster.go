package models

import (
	"fmt"
	"strings"
	"time"
)

type DisasterType string

const (
	DisasterTypeFlood      DisasterType = "Flood"
	DisasterTypeEarthquake DisasterType = "Earthquake"
	DisasterTypeFire       DisasterType = "Fire"
	DisasterTypeDrought    DisasterType = "Drought"
	DisasterTypeStorm      DisasterType = "Storm"
)

var DisasterTypes = []DisasterType{
	DisasterTypeFlood,
	DisasterTypeEarthquake,
	DisasterTypeFire,
	DisasterTypeDrought,
	DisasterTypeStorm,
}

func ParseDisasterType(s string) (DisasterType, bool) {
	for _, t := range DisasterTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

// Severity is an ordinal tier, 1 (Low) through 5 (Catastrophic).
type Severity int

const (
	SeverityLow          Severity = 1
	SeverityModerate     Severity = 2
	SeverityHigh         Severity = 3
	SeverityCritical     Severity = 4
	SeverityCatastrophic Severity = 5
)

var Severities = []Severity{
	SeverityLow,
	SeverityModerate,
	SeverityHigh,
	SeverityCritical,
	SeverityCatastrophic,
}

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityModerate:
		return "MODERATE"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	case SeverityCatastrophic:
		return "CATASTROPHIC"
	default:
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
}

func ParseSeverity(s string) (Severity, bool) {
	for _, sev := range Severities {
		if strings.EqualFold(sev.String(), s) {
			return sev, true
		}
	}
	return 0, false
}

type Resources struct {
	MedicalKits  int `json:"medical_kits"`
	FoodPackages int `json:"food_packages"`
	WaterBottles int `json:"water_bottles"`
	RescueTeams  int `json:"rescue_teams"`
}

// DisasterEvent is created once by the environment and never mutated.
type DisasterEvent struct {
	ID                   string // Sequential, e.g. "D0001"
	Type                 DisasterType
	Location             Location
	Severity             Severity
	Timestamp            time.Time
	AffectedArea         float64 // km²
	Casualties           int
	InfrastructureDamage float64 // percentage (0-100)
	Resources            Resources
}

func (d *DisasterEvent) String() string {
	return fmt.Sprintf("Event #%s: %s [Severity: %s] at %s", d.ID, d.Type, d.Severity, d.Location.Name)
}
