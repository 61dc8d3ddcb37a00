package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,

	// daily_vehicle_km is owned by the route app, which keeps odometer
	// readings current. Created here only so a fresh install boots; this
	// service never writes to it.
	`CREATE TABLE IF NOT EXISTS daily_vehicle_km (
		id          UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		plate       TEXT NOT NULL,
		current_km  INT NOT NULL DEFAULT 0,
		last_update TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_daily_vehicle_km_plate ON daily_vehicle_km(plate);`,

	// fleet_legal_status - document expirations per vehicle. Date columns are
	// TEXT on purpose: the legacy sheet sync writes DD/MM/YYYY strings and
	// interpretation belongs to the application's date normalizer.
	`CREATE TABLE IF NOT EXISTS fleet_legal_status (
		plate              TEXT PRIMARY KEY,
		next_itv_date      TEXT,
		next_tacho_date    TEXT,
		next_atp_date      TEXT,
		next_oil_change_km INT,
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,

	// intervention_types - catalog backing the smart list in the form
	`CREATE TABLE IF NOT EXISTS intervention_types (
		id         SERIAL PRIMARY KEY,
		category   TEXT NOT NULL,
		name       TEXT NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT false
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_intervention_types_category_name ON intervention_types(category, lower(name));`,

	// maintenance_logs - workshop entries, append-mostly (edited, never deleted)
	`CREATE TABLE IF NOT EXISTS maintenance_logs (
		id                   UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		plate                TEXT NOT NULL,
		user_id              TEXT NOT NULL,
		km_at_service        INT NOT NULL,
		category             TEXT NOT NULL,
		intervention_type_id INT REFERENCES intervention_types(id) ON DELETE SET NULL,
		description          TEXT NOT NULL DEFAULT '',
		attachment_url       TEXT,
		tire_positions       JSONB,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_logs_plate_created ON maintenance_logs(plate, created_at DESC);`,

	// notification_logs - dedup guard for the expiry scan. The unique index is
	// the at-most-once backstop when two scan invocations overlap.
	`CREATE TABLE IF NOT EXISTS notification_logs (
		id          UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		plate       TEXT NOT NULL,
		alert_type  TEXT NOT NULL,
		expiry_date TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_notification_logs_tuple ON notification_logs(plate, alert_type, expiry_date);`,

	// device_tokens - registered FCM devices; every device gets every alert
	`CREATE TABLE IF NOT EXISTS device_tokens (
		token      TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,

	// Default intervention type catalog
	`INSERT INTO intervention_types (category, name, is_default) VALUES
		('MECANICA', 'Cambio de aceite', true),
		('MECANICA', 'Filtros', true),
		('MECANICA', 'Frenos', true),
		('NEUMATICOS', 'Cambio', true),
		('NEUMATICOS', 'Rotación', true),
		('NEUMATICOS', 'Pinchazo', true),
		('LEGAL', 'ITV', true),
		('LEGAL', 'Tacógrafo', true),
		('FRIGO', 'ATP', true),
		('FRIGO', 'Revisión equipo frío', true),
		('LAVADO_ENGRASE', 'Lavado y engrase', true),
		('LAVADO_ENGRASE', 'Lavado, engrase y interior caja', true),
		('LAVADO_ENGRASE', 'Lavado', true),
		('LAVADO_ENGRASE', 'Engrase', true)
	ON CONFLICT DO NOTHING;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
