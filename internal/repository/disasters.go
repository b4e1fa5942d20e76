package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mr1hm/disaster-response-agents/internal/models"
)

const disasterColumns = `d.id, d.type, d.location_name, d.latitude, d.longitude, d.severity, d.timestamp,
	d.affected_area, d.casualties, d.infrastructure_damage,
	d.medical_kits, d.food_packages, d.water_bottles, d.rescue_teams`

func (s *SQLiteDB) Add(ctx context.Context, d *models.DisasterEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO disasters (id, type, location_name, latitude, longitude, severity, timestamp,
			affected_area, casualties, infrastructure_damage,
			medical_kits, food_packages, water_bottles, rescue_teams)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, string(d.Type), d.Location.Name, d.Location.Latitude, d.Location.Longitude,
		int(d.Severity), d.Timestamp.UnixNano(),
		d.AffectedArea, d.Casualties, d.InfrastructureDamage,
		d.Resources.MedicalKits, d.Resources.FoodPackages, d.Resources.WaterBottles, d.Resources.RescueTeams,
	)
	if err != nil {
		return fmt.Errorf("error inserting disaster %s: %w", d.ID, err)
	}
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.DisasterEvent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+disasterColumns+` FROM disasters d WHERE d.id = ?`, id)
	d, err := scanDisaster(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("disaster %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading disaster %s: %w", id, err)
	}
	return d, nil
}

func (s *SQLiteDB) ListDisasters(ctx context.Context, opts Filter) ([]models.DisasterEvent, error) {
	var (
		where []string
		args  []any
	)
	if opts.Location != nil {
		where = append(where, "d.location_name = ?")
		args = append(args, *opts.Location)
	}
	if opts.Type != nil {
		where = append(where, "d.type = ?")
		args = append(args, string(*opts.Type))
	}
	if opts.MinSeverity != nil {
		where = append(where, "d.severity >= ?")
		args = append(args, int(*opts.MinSeverity))
	}

	query := `SELECT ` + disasterColumns + ` FROM disasters d`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY d.id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing disasters: %w", err)
	}
	defer rows.Close()

	var disasters []models.DisasterEvent
	for rows.Next() {
		d, err := scanDisaster(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning disaster: %w", err)
		}
		disasters = append(disasters, *d)
	}
	return disasters, rows.Err()
}

func (s *SQLiteDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM disasters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting disasters: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDisaster(row scanner) (*models.DisasterEvent, error) {
	var (
		d        models.DisasterEvent
		typ      string
		severity int
		ts       int64
	)
	err := row.Scan(
		&d.ID, &typ, &d.Location.Name, &d.Location.Latitude, &d.Location.Longitude, &severity, &ts,
		&d.AffectedArea, &d.Casualties, &d.InfrastructureDamage,
		&d.Resources.MedicalKits, &d.Resources.FoodPackages, &d.Resources.WaterBottles, &d.Resources.RescueTeams,
	)
	if err != nil {
		return nil, err
	}
	d.Type = models.DisasterType(typ)
	d.Severity = models.Severity(severity)
	d.Timestamp = time.Unix(0, ts)
	return &d, nil
}
