package models

import "time"

// UptimeIncident is a contiguous span of non-Healthy tier for a network.
// Rows are append-only: an incident is opened once, closed once, never
// deleted or reopened. At most one row per network has ClosedAt = NULL;
// migrate.go installs a partial unique index as the storage-level backstop.
type UptimeIncident struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	NetworkID string    `gorm:"type:varchar(100);not null;index:idx_incidents_network_time,priority:1"`
	OpenedAt  time.Time `gorm:"type:timestamptz;not null;index:idx_incidents_network_time,priority:2"`

	ClosedAt        *time.Time `gorm:"type:timestamptz"`
	DurationSeconds *int64

	// TierAtOpen is the tier that opened the incident. WorstTier tracks the
	// most severe tier seen while open; severity-only changes never close or
	// reopen the incident.
	TierAtOpen string `gorm:"type:varchar(10);not null"`
	WorstTier  string `gorm:"type:varchar(10);not null"`

	Cause string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (UptimeIncident) TableName() string {
	return "uptime_incidents"
}
