package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Metric is one persisted poll reading for a network. Timestamp is the
// snapshot's own timestamp, never the insert time, so backfills stay correct.
type Metric struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	NetworkID string    `gorm:"type:varchar(100);not null;index:idx_metrics_network_time,priority:1"`
	Timestamp time.Time `gorm:"type:timestamptz;not null;index:idx_metrics_network_time,priority:2"`

	TotalDevices    *int
	WirelessDevices *int
	WiredDevices    *int

	// Bandwidth figures are stored as numeric to avoid float drift in
	// long-horizon aggregates.
	BandwidthUsageMbps    decimal.Decimal `gorm:"type:numeric(12,3)"`
	BandwidthCapacityMbps decimal.Decimal `gorm:"type:numeric(12,3)"`
	BandwidthUtilization  float64         `gorm:"not null"`

	AvgSignal float64 `gorm:"not null"`

	// Nodes is the raw per-node status list (online, signal, firmware)
	// exactly as scored, for drill-down and replay.
	Nodes datatypes.JSON `gorm:"type:jsonb"`

	HealthScore int    `gorm:"not null"`
	HealthTier  string `gorm:"type:varchar(10);not null;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Metric) TableName() string {
	return "metrics"
}
