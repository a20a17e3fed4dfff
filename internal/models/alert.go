package models

import "time"

// Alert kinds. An alert is an operator-facing action item, distinct from an
// incident (which is historical fact).
const (
	AlertKindOffline   = "offline"
	AlertKindDegraded  = "degraded"
	AlertKindBandwidth = "bandwidth"
)

// Alert severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Alert is one raised alert for a network. At most one unresolved row exists
// per (network_id, kind); repeat occurrences of the same condition refresh the
// open row instead of inserting a duplicate. Acknowledgment is independent of
// resolution and survives it for audit.
type Alert struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	NetworkID string    `gorm:"type:varchar(100);not null;index:idx_alerts_network_time,priority:1"`
	Kind      string    `gorm:"type:varchar(20);not null;index"`
	Severity  string    `gorm:"type:varchar(10);not null"`
	Message   string    `gorm:"type:text;not null"`
	RaisedAt  time.Time `gorm:"type:timestamptz;not null;index:idx_alerts_network_time,priority:2"`

	AcknowledgedAt *time.Time `gorm:"type:timestamptz"`
	ResolvedAt     *time.Time `gorm:"type:timestamptz"`

	// LastSeenAt is refreshed each poll while the condition persists.
	LastSeenAt time.Time `gorm:"type:timestamptz;not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Alert) TableName() string {
	return "alerts"
}

// Acknowledged reports whether the alert has been acknowledged.
func (a Alert) Acknowledged() bool {
	return a.AcknowledgedAt != nil
}

// Resolved reports whether the underlying condition has cleared.
func (a Alert) Resolved() bool {
	return a.ResolvedAt != nil
}
