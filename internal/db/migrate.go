package db

import (
	"github.com/eero-drew/eero-business-dashboard/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	if err := db.Gorm.AutoMigrate(
		&models.Network{},
		&models.Metric{},
		&models.UptimeIncident{},
		&models.Alert{},
	); err != nil {
		return err
	}

	// Partial unique indexes back up the in-process serialization: a network
	// can never hold two open incidents, or two unresolved alerts of the same
	// kind, even if a concurrency bug slips past the keyed locks.
	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_incident_per_network
			ON uptime_incidents (network_id) WHERE closed_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_unresolved_alert_per_network_kind
			ON alerts (network_id, kind) WHERE resolved_at IS NULL`,
	}
	for _, stmt := range stmts {
		if err := db.Gorm.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
