package environment

import (
	"fmt"

	"github.com/mr1hm/disaster-response-agents/internal/models"
)

// generate draws a new event. Caller holds e.mu.
func (e *Environment) generate() *models.DisasterEvent {
	e.counter++

	typ := models.DisasterTypes[e.rng.IntN(len(models.DisasterTypes))]
	loc := e.locations[e.rng.IntN(len(e.locations))]
	sev := models.Severities[e.rng.IntN(len(models.Severities))]

	return e.eventFor(fmt.Sprintf("D%04d", e.counter), typ, loc, sev)
}

// eventFor derives the severity-scaled figures for an event. Every range
// scales linearly with the tier, so higher tiers never need less.
func (e *Environment) eventFor(id string, typ models.DisasterType, loc models.Location, sev models.Severity) *models.DisasterEvent {
	s := int(sev)
	sf := float64(sev)

	return &models.DisasterEvent{
		ID:                   id,
		Type:                 typ,
		Location:             loc,
		Severity:             sev,
		Timestamp:            e.now(),
		AffectedArea:         e.uniform(0.1*sf, 10*sf),
		Casualties:           e.intBetween(0, 50*s),
		InfrastructureDamage: min(e.uniform(5*sf, 20*sf), 100),
		Resources: models.Resources{
			MedicalKits:  e.intBetween(2*s, 20*s),
			FoodPackages: e.intBetween(10*s, 100*s),
			WaterBottles: e.intBetween(20*s, 200*s),
			RescueTeams:  e.intBetween(s, 4*s),
		},
	}
}
