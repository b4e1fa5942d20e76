package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the registry in process memory; nothing outlives the run.
const MemoryDSN = ":memory:"

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// every new connection to :memory: would get its own empty database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS disasters (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			location_name TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			severity INTEGER NOT NULL,
			timestamp INTEGER NOT NULL,
			affected_area REAL NOT NULL,
			casualties INTEGER NOT NULL,
			infrastructure_damage REAL NOT NULL,
			medical_kits INTEGER NOT NULL,
			food_packages INTEGER NOT NULL,
			water_bottles INTEGER NOT NULL,
			rescue_teams INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			event_id TEXT NOT NULL,
			sensor_id TEXT NOT NULL,
			level TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE (event_id, sensor_id),
			FOREIGN KEY (event_id) REFERENCES disasters(id)
		);

		CREATE INDEX IF NOT EXISTS idx_disasters_location ON disasters(location_name);
		CREATE INDEX IF NOT EXISTS idx_disasters_type ON disasters(type);
		CREATE INDEX IF NOT EXISTS idx_alerts_event_id ON alerts(event_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
