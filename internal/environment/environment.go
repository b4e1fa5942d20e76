// Package environment simulates a disaster-prone region. It owns the registry
// of active disasters and answers perception queries from sensor agents.
package environment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mr1hm/disaster-response-agents/internal/models"
	"github.com/mr1hm/disaster-response-agents/internal/repository"
)

var ErrUnknownLocation = errors.New("unknown location")

const DefaultGenerationProbability = 0.10

// Rand is the subset of *math/rand/v2.Rand the simulation draws from.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type Options struct {
	Locations []models.Location // defaults to models.DefaultLocations
	// GenerationProbability is the chance per tick of a new disaster. Nil
	// means DefaultGenerationProbability; a pointer to 0 disables generation.
	GenerationProbability *float64
	Now                   func() time.Time
}

type conditions struct {
	temperature float64
	humidity    float64
	windSpeed   float64
	airQuality  float64
}

type Environment struct {
	mu          sync.Mutex
	repo        repository.DisasterRepository
	rng         Rand
	locations   []models.Location
	conditions  map[string]*conditions
	counter     int
	probability float64
	now         func() time.Time
}

func New(repo repository.DisasterRepository, rng Rand, opts Options) *Environment {
	locations := opts.Locations
	if len(locations) == 0 {
		locations = models.DefaultLocations()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	probability := DefaultGenerationProbability
	if opts.GenerationProbability != nil {
		probability = *opts.GenerationProbability
	}

	e := &Environment{
		repo:        repo,
		rng:         rng,
		locations:   locations,
		conditions:  make(map[string]*conditions, len(locations)),
		probability: probability,
		now:         now,
	}
	for _, loc := range locations {
		e.conditions[loc.Name] = &conditions{
			temperature: e.uniform(25, 35),
			humidity:    e.uniform(60, 90),
			windSpeed:   e.uniform(0, 30),
			airQuality:  e.uniform(50, 150),
		}
	}
	return e
}

func (e *Environment) Locations() []models.Location {
	out := make([]models.Location, len(e.locations))
	copy(out, e.locations)
	return out
}

func (e *Environment) Location(name string) (models.Location, error) {
	for _, loc := range e.locations {
		if loc.Name == name {
			return loc, nil
		}
	}
	return models.Location{}, fmt.Errorf("%w: %s", ErrUnknownLocation, name)
}

// AdvanceTime drifts the baseline conditions and, with the configured
// probability, generates one new disaster. It returns the new event or nil.
func (e *Environment) AdvanceTime(ctx context.Context) (*models.DisasterEvent, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, loc := range e.locations {
		c := e.conditions[loc.Name]
		c.temperature = clamp(c.temperature+e.uniform(-2, 2), 20, 45)
		c.humidity = clamp(c.humidity+e.uniform(-5, 5), 30, 100)
		c.windSpeed = max(0, c.windSpeed+e.uniform(-5, 5))
		c.airQuality = clamp(c.airQuality+e.uniform(-10, 10), 0, 500)
	}

	if e.rng.Float64() >= e.probability {
		return nil, nil
	}

	event := e.generate()
	if err := e.repo.Add(ctx, event); err != nil {
		// the ID stays burned so identifiers remain unique
		return nil, fmt.Errorf("registering disaster: %w", err)
	}

	slog.Info("disaster generated",
		"id", event.ID,
		"type", event.Type,
		"location", event.Location.Name,
		"severity", event.Severity.String(),
	)
	return event, nil
}

// Run advances the environment on its own schedule until ctx is cancelled.
func (e *Environment) Run(ctx context.Context, interval time.Duration) {
	slog.Info("environment ticking", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("environment stopped")
			return
		case <-ticker.C:
			if _, err := e.AdvanceTime(ctx); err != nil {
				slog.Error("advance failed", "error", err)
			}
		}
	}
}

func (e *Environment) ActiveDisasters(ctx context.Context) ([]models.DisasterEvent, error) {
	return e.repo.ListDisasters(ctx, repository.Filter{})
}

func (e *Environment) Summary(ctx context.Context) (string, error) {
	active, err := e.ActiveDisasters(ctx)
	if err != nil {
		return "", err
	}

	rule := strings.Repeat("=", 70)
	line := strings.Repeat("-", 70)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nENVIRONMENT STATUS SUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Active Disasters: %d\n", len(active))
	fmt.Fprintf(&b, "Monitored Locations: %d\n", len(e.locations))
	fmt.Fprintf(&b, "Timestamp: %s\n%s\n\n", e.now().Format("2006-01-02 15:04:05"), rule)

	if len(active) == 0 {
		fmt.Fprintf(&b, "No active disasters - All locations clear\n%s\n", line)
		return b.String(), nil
	}

	fmt.Fprintf(&b, "ACTIVE DISASTERS:\n%s\n", line)
	for _, d := range active {
		fmt.Fprintf(&b, "%s\n", d.String())
		fmt.Fprintf(&b, "  Casualties: %d, Damage: %.1f%%, Area: %.1f km²\n",
			d.Casualties, d.InfrastructureDamage, d.AffectedArea)
	}
	fmt.Fprintf(&b, "%s\n", line)
	return b.String(), nil
}

func (e *Environment) uniform(lo, hi float64) float64 {
	return lo + e.rng.Float64()*(hi-lo)
}

// intBetween draws from [lo, hi] inclusive.
func (e *Environment) intBetween(lo, hi int) int {
	return lo + e.rng.IntN(hi-lo+1)
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
