package models

import "time"

type AlertLevel string

const (
	AlertLevelWarning  AlertLevel = "WARNING"
	AlertLevelCritical AlertLevel = "CRITICAL"
)

// AlertLevelFor routes High and above to CRITICAL.
func AlertLevelFor(s Severity) AlertLevel {
	if s >= SeverityHigh {
		return AlertLevelCritical
	}
	return AlertLevelWarning
}

type Alert struct {
	ID        string
	EventID   string
	SensorID  string
	Level     AlertLevel
	Event     DisasterEvent
	CreatedAt time.Time
}
