package repository

import (
	"context"
	"errors"

	"github.com/mr1hm/disaster-response-agents/internal/models"
)

var ErrNotFound = errors.New("not found")

type Filter struct {
	Limit       int
	Location    *string
	Type        *models.DisasterType
	MinSeverity *models.Severity // >= this tier
	Level       *models.AlertLevel
	SensorID    *string
}

// DisasterRepository is the environment's registry of active disasters.
// It is append-only.
type DisasterRepository interface {
	Add(ctx context.Context, d *models.DisasterEvent) error
	GetByID(ctx context.Context, id string) (*models.DisasterEvent, error)
	ListDisasters(ctx context.Context, opts Filter) ([]models.DisasterEvent, error)
	Count(ctx context.Context) (int, error)
}

type AlertRepository interface {
	AddAlert(ctx context.Context, a *models.Alert) error
	AlertExists(ctx context.Context, id string) (bool, error)
	GetByEventID(ctx context.Context, eventID string) ([]models.Alert, error)
	ListAlerts(ctx context.Context, opts Filter) ([]models.Alert, error)
}
