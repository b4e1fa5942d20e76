package api

import (
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/mr1hm/disaster-response-agents/internal/models"
)

func toGeoJSON(disasters []models.DisasterEvent) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, d := range disasters {
		fc.Append(toFeature(d))
	}

	return fc
}

func toFeature(d models.DisasterEvent) *geojson.Feature {
	f := geojson.NewFeature(d.Location.Point())
	f.ID = d.ID
	f.Properties["id"] = d.ID
	f.Properties["type"] = strings.ToLower(string(d.Type))
	f.Properties["location"] = d.Location.Name
	f.Properties["severity"] = d.Severity.String()
	f.Properties["severity_level"] = int(d.Severity)
	f.Properties["casualties"] = d.Casualties
	f.Properties["affected_area_km2"] = d.AffectedArea
	f.Properties["infrastructure_damage_pct"] = d.InfrastructureDamage
	f.Properties["resources_needed"] = d.Resources
	f.Properties["timestamp"] = d.Timestamp
	return f
}
