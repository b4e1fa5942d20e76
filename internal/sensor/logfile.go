package sensor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mr1hm/disaster-response-agents/internal/models"
)

const (
	KindPercept  = "Percept"
	KindWarning  = string(models.AlertLevelWarning)
	KindCritical = string(models.AlertLevelCritical)
)

// TextLog appends "[HH:MM:SS] <agent>: <kind> | <fields>" lines.
type TextLog struct {
	path    string
	agentID string
	mu      sync.Mutex
}

func NewTextLog(dir, agentID string) (*TextLog, error) {
	path := filepath.Join(dir, agentID+"_log.txt")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening text log: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("opening text log: %w", err)
	}
	return &TextLog{path: path, agentID: agentID}, nil
}

func (l *TextLog) Path() string { return l.path }

func FormatLine(at time.Time, agentID, kind, fields string) string {
	return fmt.Sprintf("[%s] %s: %s | %s", at.Format("15:04:05"), agentID, kind, fields)
}

// Write appends one line and returns it.
func (l *TextLog) Write(at time.Time, kind, fields string) (string, error) {
	line := FormatLine(at, l.agentID, kind, fields)

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening text log: %w", err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return "", fmt.Errorf("writing text log: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing text log: %w", err)
	}
	return line, nil
}

type EventRecord struct {
	EventID                 string           `json:"event_id"`
	DisasterType            string           `json:"disaster_type"`
	Location                string           `json:"location"`
	Severity                string           `json:"severity"`
	Timestamp               time.Time        `json:"timestamp"`
	AffectedAreaKm2         float64          `json:"affected_area_km2"`
	Casualties              int              `json:"casualties"`
	InfrastructureDamagePct float64          `json:"infrastructure_damage_pct"`
	ResourcesNeeded         models.Resources `json:"resources_needed"`
	DetectedBy              string           `json:"detected_by"`
}

func NewEventRecord(d models.DisasterEvent, detectedBy string) EventRecord {
	return EventRecord{
		EventID:                 d.ID,
		DisasterType:            string(d.Type),
		Location:                d.Location.String(),
		Severity:                d.Severity.String(),
		Timestamp:               d.Timestamp,
		AffectedAreaKm2:         d.AffectedArea,
		Casualties:              d.Casualties,
		InfrastructureDamagePct: d.InfrastructureDamage,
		ResourcesNeeded:         d.Resources,
		DetectedBy:              detectedBy,
	}
}

// EventLog keeps a JSON array of EventRecords on disk. The file is replaced
// atomically on every append, so readers always see a complete array.
type EventLog struct {
	path string
	mu   sync.Mutex
}

func NewEventLog(dir, agentID string) (*EventLog, error) {
	l := &EventLog{path: filepath.Join(dir, agentID+"_events.json")}
	if err := l.write([]EventRecord{}); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *EventLog) Path() string { return l.path }

func (l *EventLog) Append(rec EventRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read()
	if err != nil {
		return err
	}
	return l.write(append(records, rec))
}

func (l *EventLog) Records() ([]EventRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

func (l *EventLog) read() ([]EventRecord, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading event log: %w", err)
	}
	var records []EventRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding event log: %w", err)
	}
	return records, nil
}

func (l *EventLog) write(records []EventRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding event log: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing event log: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing event log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing event log: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("replacing event log: %w", err)
	}
	return nil
}
