package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mr1hm/disaster-response-agents/internal/models"
)

func (s *SQLiteDB) AddAlert(ctx context.Context, a *models.Alert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, event_id, sensor_id, level, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.EventID, a.SensorID, string(a.Level), a.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("error inserting alert %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteDB) AlertExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM alerts WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error checking alert %s: %w", id, err)
	}
	return n > 0, nil
}

func (s *SQLiteDB) GetByEventID(ctx context.Context, eventID string) ([]models.Alert, error) {
	return s.queryAlerts(ctx, " WHERE a.event_id = ?", []any{eventID}, 0)
}

func (s *SQLiteDB) ListAlerts(ctx context.Context, opts Filter) ([]models.Alert, error) {
	var (
		where []string
		args  []any
	)
	if opts.Level != nil {
		where = append(where, "a.level = ?")
		args = append(args, string(*opts.Level))
	}
	if opts.SensorID != nil {
		where = append(where, "a.sensor_id = ?")
		args = append(args, *opts.SensorID)
	}
	if opts.Location != nil {
		where = append(where, "d.location_name = ?")
		args = append(args, *opts.Location)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	return s.queryAlerts(ctx, clause, args, opts.Limit)
}

func (s *SQLiteDB) queryAlerts(ctx context.Context, clause string, args []any, limit int) ([]models.Alert, error) {
	query := `SELECT a.id, a.event_id, a.sensor_id, a.level, a.created_at, ` + disasterColumns + `
		FROM alerts a JOIN disasters d ON d.id = a.event_id` + clause + ` ORDER BY a.created_at, a.id`
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var (
			a         models.Alert
			level     string
			createdAt int64
			typ       string
			severity  int
			ts        int64
		)
		d := &a.Event
		err := rows.Scan(
			&a.ID, &a.EventID, &a.SensorID, &level, &createdAt,
			&d.ID, &typ, &d.Location.Name, &d.Location.Latitude, &d.Location.Longitude, &severity, &ts,
			&d.AffectedArea, &d.Casualties, &d.InfrastructureDamage,
			&d.Resources.MedicalKits, &d.Resources.FoodPackages, &d.Resources.WaterBottles, &d.Resources.RescueTeams,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning alert: %w", err)
		}
		a.Level = models.AlertLevel(level)
		a.CreatedAt = time.Unix(0, createdAt)
		d.Type = models.DisasterType(typ)
		d.Severity = models.Severity(severity)
		d.Timestamp = time.Unix(0, ts)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
