package environment

import (
	"context"
	"fmt"

	"github.com/mr1hm/disaster-response-agents/internal/models"
	"github.com/mr1hm/disaster-response-agents/internal/repository"
)

// Sense returns a fresh percept for loc together with the disasters active there.
func (e *Environment) Sense(ctx context.Context, loc models.Location) (models.EnvironmentPercept, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.conditions[loc.Name]
	if !ok {
		return models.EnvironmentPercept{}, fmt.Errorf("%w: %s", ErrUnknownLocation, loc.Name)
	}

	name := loc.Name
	active, err := e.repo.ListDisasters(ctx, repository.Filter{Location: &name})
	if err != nil {
		return models.EnvironmentPercept{}, fmt.Errorf("sensing %s: %w", loc.Name, err)
	}

	p := models.EnvironmentPercept{
		Timestamp:       e.now(),
		Location:        loc,
		Temperature:     c.temperature + e.uniform(-0.5, 0.5),
		Humidity:        c.humidity + e.uniform(-1, 1),
		WindSpeed:       c.windSpeed + e.uniform(-1, 1),
		AirQuality:      c.airQuality + e.uniform(-5, 5),
		SeismicActivity: e.uniform(0, 1),
		WaterLevel:      e.uniform(-0.1, 0.2),
		ActiveDisasters: active,
	}

	for _, d := range active {
		e.bias(&p, d.Type)
	}

	p.Temperature = clamp(p.Temperature, 15, 60)
	p.Humidity = clamp(p.Humidity, 0, 100)
	p.WindSpeed = clamp(p.WindSpeed, 0, 200)
	p.AirQuality = clamp(p.AirQuality, 0, 500)
	p.SeismicActivity = clamp(p.SeismicActivity, 0, 10)
	p.WaterLevel = clamp(p.WaterLevel, -1, 10)

	return p, nil
}

// bias pushes readings toward the anomaly signature of the disaster type.
func (e *Environment) bias(p *models.EnvironmentPercept, typ models.DisasterType) {
	switch typ {
	case models.DisasterTypeFlood:
		p.WaterLevel = max(p.WaterLevel, e.uniform(1, 5))
		p.Humidity += 20
	case models.DisasterTypeFire:
		p.SmokeDetected = true
		p.Temperature += e.uniform(10, 30)
		p.AirQuality += e.uniform(100, 300)
	case models.DisasterTypeEarthquake:
		p.SeismicActivity = max(p.SeismicActivity, e.uniform(3, 8))
	case models.DisasterTypeDrought:
		p.Temperature += e.uniform(5, 15)
		p.Humidity = max(20, p.Humidity-30)
	case models.DisasterTypeStorm:
		p.WindSpeed = max(p.WindSpeed, e.uniform(50, 150))
		p.Humidity += 15
	}
}
