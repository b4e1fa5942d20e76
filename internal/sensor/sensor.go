// Package sensor implements the sensor agent: a periodic loop that perceives
// its assigned location, flags anomalous readings, and records every newly
// observed disaster to its text and JSON logs.
package sensor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mr1hm/disaster-response-agents/internal/agent"
	"github.com/mr1hm/disaster-response-agents/internal/models"
)

type Environment interface {
	Sense(ctx context.Context, loc models.Location) (models.EnvironmentPercept, error)
	AdvanceTime(ctx context.Context) (*models.DisasterEvent, error)
}

// Publisher receives every alert the sensor raises.
type Publisher interface {
	Publish(a *models.Alert)
}

type Options struct {
	ID          string
	Location    models.Location
	Environment Environment
	LogDir      string
	Thresholds  Thresholds
	// AdvanceEnvironment makes each cycle tick the environment first, used
	// when the environment has no schedule of its own.
	AdvanceEnvironment bool
	Publisher          Publisher
	Console            io.Writer
	Now                func() time.Time
}

type Sensor struct {
	id         string
	location   models.Location
	env        Environment
	thresholds Thresholds
	advance    bool
	publisher  Publisher
	console    io.Writer
	now        func() time.Time
	logger     *slog.Logger

	textLog  *TextLog
	eventLog *EventLog

	lifecycle agent.Lifecycle

	mu       sync.Mutex
	cancel   context.CancelFunc
	seen     map[string]struct{}
	detected []models.DisasterEvent
	readings int
	alerts   map[models.AlertLevel]int
}

func New(opts Options) (*Sensor, error) {
	if opts.ID == "" {
		return nil, fmt.Errorf("sensor id is required")
	}
	if opts.Environment == nil {
		return nil, fmt.Errorf("sensor %s: environment is required", opts.ID)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}

	if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	textLog, err := NewTextLog(opts.LogDir, opts.ID)
	if err != nil {
		return nil, err
	}
	eventLog, err := NewEventLog(opts.LogDir, opts.ID)
	if err != nil {
		return nil, err
	}

	return &Sensor{
		id:         opts.ID,
		location:   opts.Location,
		env:        opts.Environment,
		thresholds: opts.Thresholds,
		advance:    opts.AdvanceEnvironment,
		publisher:  opts.Publisher,
		console:    opts.Console,
		now:        opts.Now,
		logger:     slog.With("sensor", opts.ID, "location", opts.Location.Name),
		textLog:    textLog,
		eventLog:   eventLog,
		seen:       make(map[string]struct{}),
		alerts:     make(map[models.AlertLevel]int),
	}, nil
}

func (s *Sensor) ID() string                { return s.id }
func (s *Sensor) Location() models.Location { return s.location }
func (s *Sensor) State() agent.State        { return s.lifecycle.State() }
func (s *Sensor) TextLogPath() string       { return s.textLog.Path() }
func (s *Sensor) EventLogPath() string      { return s.eventLog.Path() }

// Run loops until duration elapses, Stop is called, or ctx is cancelled.
func (s *Sensor) Run(ctx context.Context, duration, interval time.Duration) error {
	if !s.lifecycle.Start() {
		return fmt.Errorf("sensor %s: already %s", s.id, s.lifecycle.State())
	}

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	s.logger.Info("sensor monitoring", "duration", duration, "interval", interval)
	if s.console != nil {
		fmt.Fprintf(s.console, "\n%s: Monitoring %s...\n", s.id, s.location.Name)
	}

	loop := &agent.Periodic{
		Interval: interval,
		Duration: duration,
		Tick: func(ctx context.Context, _ int) error {
			return s.Cycle(ctx)
		},
	}
	err := loop.Run(ctx)

	s.lifecycle.Stop()
	s.logger.Info("sensor agent stopped", "readings", s.Readings(), "events", len(s.DetectedEvents()))
	return err
}

func (s *Sensor) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Cycle performs one perceive -> evaluate -> log pass.
func (s *Sensor) Cycle(ctx context.Context) error {
	if s.advance {
		if _, err := s.env.AdvanceTime(ctx); err != nil {
			return fmt.Errorf("sensor %s: %w", s.id, err)
		}
	}

	percept, err := s.env.Sense(ctx, s.location)
	if err != nil {
		return fmt.Errorf("sensor %s: %w", s.id, err)
	}
	return s.Analyze(percept)
}

// Analyze evaluates a percept and records disasters this sensor has not seen.
func (s *Sensor) Analyze(p models.EnvironmentPercept) error {
	s.mu.Lock()
	s.readings++
	s.mu.Unlock()

	anomalies := s.thresholds.Evaluate(p)
	if anomalies.Any() {
		fields := fmt.Sprintf("Temp: %.0f°C | Wind: %.0fkm/h | AQI: %.0f | Humidity: %.0f%% | Flags: %s",
			p.Temperature, p.WindSpeed, p.AirQuality, p.Humidity, anomalies)
		if err := s.logLine(KindPercept, fields); err != nil {
			return err
		}
	}

	for _, d := range p.ActiveDisasters {
		if s.hasSeen(d.ID) {
			continue
		}
		if err := s.eventLog.Append(NewEventRecord(d, s.id)); err != nil {
			return fmt.Errorf("sensor %s: %w", s.id, err)
		}
		s.markSeen(d)
		if err := s.raiseAlert(d); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sensor) hasSeen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok
}

// markSeen is called only once the event is in the JSON log, so the summary
// never counts an event the log is missing.
func (s *Sensor) markSeen(d models.DisasterEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[d.ID] = struct{}{}
	s.detected = append(s.detected, d)
}

func (s *Sensor) raiseAlert(d models.DisasterEvent) error {
	level := models.AlertLevelFor(d.Severity)

	fields := fmt.Sprintf("%s at %s | Severity: %s | People Affected: %d | Resources: %d teams",
		d.Type, d.Location.Name, d.Severity, d.Casualties, d.Resources.RescueTeams)
	if err := s.logLine(string(level), fields); err != nil {
		return err
	}

	alert := &models.Alert{
		ID:        uuid.NewString(),
		EventID:   d.ID,
		SensorID:  s.id,
		Level:     level,
		Event:     d,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.alerts[level]++
	s.mu.Unlock()

	if level == models.AlertLevelCritical {
		s.logger.Warn("critical disaster detected", "event_id", d.ID, "type", d.Type, "severity", d.Severity.String())
	} else {
		s.logger.Info("disaster detected", "event_id", d.ID, "type", d.Type, "severity", d.Severity.String())
	}

	if s.publisher != nil {
		s.publisher.Publish(alert)
	}
	return nil
}

func (s *Sensor) logLine(kind, fields string) error {
	line, err := s.textLog.Write(s.now(), kind, fields)
	if err != nil {
		return fmt.Errorf("sensor %s: %w", s.id, err)
	}
	if s.console != nil {
		fmt.Fprintln(s.console, line)
	}
	return nil
}

func (s *Sensor) Readings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readings
}

func (s *Sensor) DetectedEvents() []models.DisasterEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DisasterEvent, len(s.detected))
	copy(out, s.detected)
	return out
}

func (s *Sensor) AlertCount(level models.AlertLevel) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alerts[level]
}

func (s *Sensor) Summary() string {
	events := s.DetectedEvents()
	rule := strings.Repeat("=", 80)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nSENSOR: %s | EVENTS DETECTED: %d | READINGS: %d\n%s\n",
		rule, s.id, len(events), s.Readings(), rule)

	if len(events) == 0 {
		b.WriteString("STATUS: No disasters detected during monitoring period.\n")
	}
	for i, e := range events {
		fmt.Fprintf(&b, "\nEvent %d:\n", i+1)
		fmt.Fprintf(&b, "  Timestamp:       %s\n", e.Timestamp.Format("15:04:05"))
		fmt.Fprintf(&b, "  Type:            %s\n", e.Type)
		fmt.Fprintf(&b, "  Location:        %s\n", e.Location.Name)
		fmt.Fprintf(&b, "  Severity:        %s (Level %d)\n", e.Severity, int(e.Severity))
		fmt.Fprintf(&b, "  People Affected: %d\n", e.Casualties)
		fmt.Fprintf(&b, "  Resources:       %d rescue teams\n", e.Resources.RescueTeams)
	}
	b.WriteString(rule + "\n")
	return b.String()
}
