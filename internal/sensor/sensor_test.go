package sensor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mr1hm/disaster-response-agents/internal/agent"
	"github.com/mr1hm/disaster-response-agents/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var accra = models.Location{Name: "Accra", Latitude: 5.6037, Longitude: -0.1870}

// fakeEnv replays the scripted percepts, repeating the last one.
type fakeEnv struct {
	mu       sync.Mutex
	percepts []models.EnvironmentPercept
	calls    int
	advances int
	err      error
}

func (f *fakeEnv) Sense(ctx context.Context, loc models.Location) (models.EnvironmentPercept, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.EnvironmentPercept{}, f.err
	}
	i := min(f.calls, len(f.percepts)-1)
	f.calls++
	return f.percepts[i], nil
}

func (f *fakeEnv) AdvanceTime(ctx context.Context) (*models.DisasterEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advances++
	return nil, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	alerts []*models.Alert
}

func (p *recordingPublisher) Publish(a *models.Alert) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, a)
}

func calmPercept() models.EnvironmentPercept {
	return models.EnvironmentPercept{
		Timestamp:   time.Now(),
		Location:    accra,
		Temperature: 30,
		Humidity:    70,
		WindSpeed:   10,
		AirQuality:  80,
	}
}

func event(id string, sev models.Severity) models.DisasterEvent {
	return models.DisasterEvent{
		ID:        id,
		Type:      models.DisasterTypeFire,
		Location:  accra,
		Severity:  sev,
		Timestamp: time.Now(),
		Resources: models.Resources{MedicalKits: 10, FoodPackages: 50, WaterBottles: 100, RescueTeams: 3},
	}
}

func newTestSensor(t *testing.T, env Environment, pub Publisher) *Sensor {
	t.Helper()
	s, err := New(Options{
		ID:          "SENSOR-001",
		Location:    accra,
		Environment: env,
		LogDir:      t.TempDir(),
		Publisher:   pub,
	})
	require.NoError(t, err)
	return s
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.NoError(t, sc.Err())
	return lines
}

func readEvents(t *testing.T, s *Sensor) []EventRecord {
	t.Helper()
	records, err := s.eventLog.Records()
	require.NoError(t, err, "event log must be valid JSON")
	return records
}

func TestThresholds_StrictBoundaries(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name  string
		mod   func(p *models.EnvironmentPercept, delta float64)
		check func(a Anomalies) bool
	}{
		{"temperature", func(p *models.EnvironmentPercept, d float64) { p.Temperature = 40 + d }, func(a Anomalies) bool { return a.HighTemperature }},
		{"wind", func(p *models.EnvironmentPercept, d float64) { p.WindSpeed = 60 + d }, func(a Anomalies) bool { return a.HighWind }},
		{"air quality", func(p *models.EnvironmentPercept, d float64) { p.AirQuality = 200 + d }, func(a Anomalies) bool { return a.PoorAirQuality }},
		{"seismic", func(p *models.EnvironmentPercept, d float64) { p.SeismicActivity = 3.0 + d }, func(a Anomalies) bool { return a.Seismic }},
		{"water level", func(p *models.EnvironmentPercept, d float64) { p.WaterLevel = 0.5 + d }, func(a Anomalies) bool { return a.RisingWater }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := calmPercept()
			tt.mod(&at, 0)
			a := th.Evaluate(at)
			assert.False(t, tt.check(a), "value equal to threshold must not trigger")
			assert.False(t, a.Any())

			above := calmPercept()
			tt.mod(&above, 0.01)
			a = th.Evaluate(above)
			assert.True(t, tt.check(a), "value above threshold must trigger")
			assert.True(t, a.Any())
		})
	}

	t.Run("smoke", func(t *testing.T) {
		p := calmPercept()
		assert.False(t, th.Evaluate(p).Smoke)
		p.SmokeDetected = true
		a := th.Evaluate(p)
		assert.True(t, a.Smoke)
		assert.Equal(t, "smoke", a.String())
	})
}

func TestNew_CreatesLogFiles(t *testing.T) {
	s := newTestSensor(t, &fakeEnv{percepts: []models.EnvironmentPercept{calmPercept()}}, nil)

	assert.True(t, strings.HasSuffix(s.TextLogPath(), "SENSOR-001_log.txt"))
	assert.True(t, strings.HasSuffix(s.EventLogPath(), "SENSOR-001_events.json"))
	assert.Empty(t, readLines(t, s.TextLogPath()))
	assert.Empty(t, readEvents(t, s))
	assert.Equal(t, agent.StateInit, s.State())
}

func TestAnalyze_CalmPerceptWritesNothing(t *testing.T) {
	s := newTestSensor(t, &fakeEnv{}, nil)

	require.NoError(t, s.Analyze(calmPercept()))

	assert.Empty(t, readLines(t, s.TextLogPath()))
	assert.Equal(t, 1, s.Readings())
}

func TestAnalyze_AnomalyWritesPerceptLine(t *testing.T) {
	s := newTestSensor(t, &fakeEnv{}, nil)

	p := calmPercept()
	p.Temperature = 41.2
	require.NoError(t, s.Analyze(p))

	lines := readLines(t, s.TextLogPath())
	require.Len(t, lines, 1)
	assert.Regexp(t, regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] SENSOR-001: Percept \| Temp: 41°C \| Wind: 10km/h \| AQI: 80 \| Humidity: 70% \| Flags: temperature$`), lines[0])
}

func TestAnalyze_DeduplicatesByEventID(t *testing.T) {
	pub := &recordingPublisher{}
	s := newTestSensor(t, &fakeEnv{}, pub)

	p := calmPercept()
	p.ActiveDisasters = []models.DisasterEvent{event("D0001", models.SeverityCatastrophic)}
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Analyze(p))
	}

	require.Len(t, pub.alerts, 1)
	assert.Equal(t, models.AlertLevelCritical, pub.alerts[0].Level)
	assert.Equal(t, "D0001", pub.alerts[0].EventID)
	assert.Equal(t, "SENSOR-001", pub.alerts[0].SensorID)
	assert.NotEmpty(t, pub.alerts[0].ID)
	assert.Equal(t, 1, s.AlertCount(models.AlertLevelCritical))

	critical := 0
	for _, line := range readLines(t, s.TextLogPath()) {
		if strings.Contains(line, ": CRITICAL | ") {
			critical++
		}
	}
	assert.Equal(t, 1, critical)
	assert.Len(t, readEvents(t, s), 1)
}

func TestAnalyze_EventLogMatchesDistinctDisasters(t *testing.T) {
	s := newTestSensor(t, &fakeEnv{}, nil)

	p1 := calmPercept()
	p1.ActiveDisasters = []models.DisasterEvent{event("D0001", models.SeverityLow)}
	p2 := calmPercept()
	p2.ActiveDisasters = []models.DisasterEvent{event("D0001", models.SeverityLow), event("D0004", models.SeverityHigh)}
	p3 := calmPercept()
	p3.ActiveDisasters = []models.DisasterEvent{event("D0004", models.SeverityHigh), event("D0007", models.SeverityModerate)}

	for _, p := range []models.EnvironmentPercept{p1, p2, p3} {
		require.NoError(t, s.Analyze(p))
		records := readEvents(t, s)
		assert.Len(t, records, len(s.DetectedEvents()))
	}

	records := readEvents(t, s)
	require.Len(t, records, 3)
	assert.Equal(t, "D0001", records[0].EventID)
	assert.Equal(t, "D0004", records[1].EventID)
	assert.Equal(t, "D0007", records[2].EventID)

	r := records[1]
	assert.Equal(t, "Fire", r.DisasterType)
	assert.Equal(t, "Accra (5.6037, -0.1870)", r.Location)
	assert.Equal(t, "HIGH", r.Severity)
	assert.Equal(t, "SENSOR-001", r.DetectedBy)
	assert.Equal(t, 3, r.ResourcesNeeded.RescueTeams)
}

func TestAnalyze_EventLogFailureLeavesEventUnseen(t *testing.T) {
	pub := &recordingPublisher{}
	s := newTestSensor(t, &fakeEnv{}, pub)

	require.NoError(t, os.Remove(s.EventLogPath()))

	p := calmPercept()
	p.ActiveDisasters = []models.DisasterEvent{event("D0001", models.SeverityHigh)}
	require.Error(t, s.Analyze(p))

	assert.Empty(t, s.DetectedEvents())
	assert.Empty(t, pub.alerts)
	assert.Contains(t, s.Summary(), "No disasters detected")

	// once the log is writable again the same event is recorded
	require.NoError(t, os.WriteFile(s.EventLogPath(), []byte("[]"), 0o644))
	require.NoError(t, s.Analyze(p))

	assert.Len(t, s.DetectedEvents(), 1)
	assert.Len(t, readEvents(t, s), 1)
	assert.Len(t, pub.alerts, 1)
}

func TestEventLog_JSONFieldNames(t *testing.T) {
	s := newTestSensor(t, &fakeEnv{}, nil)

	p := calmPercept()
	p.ActiveDisasters = []models.DisasterEvent{event("D0001", models.SeverityLow)}
	require.NoError(t, s.Analyze(p))

	data, err := os.ReadFile(s.EventLogPath())
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 1)

	for _, key := range []string{
		"event_id", "disaster_type", "location", "severity", "timestamp", "affected_area_km2",
		"casualties", "infrastructure_damage_pct", "resources_needed", "detected_by",
	} {
		assert.Contains(t, raw[0], key)
	}
	resources, ok := raw[0]["resources_needed"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"medical_kits", "food_packages", "water_bottles", "rescue_teams"} {
		assert.Contains(t, resources, key)
	}
}

func TestAlertLevelRouting(t *testing.T) {
	tests := []struct {
		sev  models.Severity
		want models.AlertLevel
	}{
		{models.SeverityLow, models.AlertLevelWarning},
		{models.SeverityModerate, models.AlertLevelWarning},
		{models.SeverityHigh, models.AlertLevelCritical},
		{models.SeverityCritical, models.AlertLevelCritical},
		{models.SeverityCatastrophic, models.AlertLevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.sev.String(), func(t *testing.T) {
			pub := &recordingPublisher{}
			s := newTestSensor(t, &fakeEnv{}, pub)

			p := calmPercept()
			p.ActiveDisasters = []models.DisasterEvent{event("D0001", tt.sev)}
			require.NoError(t, s.Analyze(p))

			require.Len(t, pub.alerts, 1)
			assert.Equal(t, tt.want, pub.alerts[0].Level)

			lines := readLines(t, s.TextLogPath())
			require.Len(t, lines, 1)
			assert.Contains(t, lines[0], "SENSOR-001: "+string(tt.want)+" | Fire at Accra | Severity: "+tt.sev.String()+" | People Affected: 0 | Resources: 3 teams")
		})
	}
}

func TestCycle_AdvancesEnvironmentWhenConfigured(t *testing.T) {
	env := &fakeEnv{percepts: []models.EnvironmentPercept{calmPercept()}}
	s, err := New(Options{
		ID:                 "SENSOR-002",
		Location:           accra,
		Environment:        env,
		LogDir:             t.TempDir(),
		AdvanceEnvironment: true,
	})
	require.NoError(t, err)

	require.NoError(t, s.Cycle(context.Background()))
	require.NoError(t, s.Cycle(context.Background()))

	assert.Equal(t, 2, env.advances)
	assert.Equal(t, 2, env.calls)
}

func TestCycle_SenseError(t *testing.T) {
	boom := errors.New("registry unavailable")
	s := newTestSensor(t, &fakeEnv{err: boom}, nil)

	err := s.Cycle(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestRun_StopsAfterDuration(t *testing.T) {
	env := &fakeEnv{percepts: []models.EnvironmentPercept{calmPercept()}}
	s := newTestSensor(t, env, nil)

	err := s.Run(context.Background(), 60*time.Millisecond, 10*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, agent.StateStopped, s.State())
	assert.GreaterOrEqual(t, s.Readings(), 2)

	assert.Error(t, s.Run(context.Background(), time.Second, time.Millisecond), "a stopped sensor cannot restart")
}

func TestRun_Stop(t *testing.T) {
	env := &fakeEnv{percepts: []models.EnvironmentPercept{calmPercept()}}
	s := newTestSensor(t, env, nil)

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), time.Hour, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return s.State() == agent.StateRunning }, time.Second, time.Millisecond)
	s.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Equal(t, agent.StateStopped, s.State())
}

func TestSummary(t *testing.T) {
	s := newTestSensor(t, &fakeEnv{}, nil)
	assert.Contains(t, s.Summary(), "No disasters detected")

	p := calmPercept()
	p.ActiveDisasters = []models.DisasterEvent{event("D0002", models.SeverityCritical)}
	require.NoError(t, s.Analyze(p))

	summary := s.Summary()
	assert.Contains(t, summary, "SENSOR: SENSOR-001 | EVENTS DETECTED: 1 | READINGS: 1")
	assert.Contains(t, summary, "Severity:        CRITICAL (Level 4)")
	assert.Contains(t, summary, "Resources:       3 rescue teams")
}
