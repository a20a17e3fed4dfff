package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/eero-drew/eero-business-dashboard/internal/models"
)

// ListAlertsParams filters the alert listing endpoints.
type ListAlertsParams struct {
	NetworkID  *string
	Kind       *string
	Unresolved *bool
	Since      *time.Time
	Limit      int
	Offset     int
}

// Repository is the storage surface of the engine. The tracker and alert
// manager are the only writers of incidents and alerts; everything the
// insights aggregator needs is read-only. Methods suffixed Tx run inside a
// caller-owned transaction so one snapshot's incident update and alert
// decisions commit atomically.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Networks
	UpsertNetwork(ctx context.Context, item *models.Network) error
	GetNetworkByID(ctx context.Context, id string) (*models.Network, error)
	ListNetworks(ctx context.Context) ([]models.Network, error)

	// Metrics
	InsertMetricTx(tx *gorm.DB, item *models.Metric) error
	GetLatestMetric(ctx context.Context, networkID string) (*models.Metric, error)
	ListMetrics(ctx context.Context, networkID string, start, end time.Time) ([]models.Metric, error)
	ListMetricsForNetworks(ctx context.Context, networkIDs []string, start, end time.Time) ([]models.Metric, error)
	DeleteMetricsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Uptime incidents
	GetOpenIncident(ctx context.Context, networkID string) (*models.UptimeIncident, error)
	GetOpenIncidentTx(tx *gorm.DB, networkID string) (*models.UptimeIncident, error)
	GetIncidentByIDTx(tx *gorm.DB, id uint64) (*models.UptimeIncident, error)
	OpenIncidentTx(tx *gorm.DB, item *models.UptimeIncident) error
	UpdateIncidentWorstTierTx(tx *gorm.DB, id uint64, worstTier string) error
	CloseIncidentTx(tx *gorm.DB, id uint64, closedAt time.Time, durationSeconds int64) error
	ListIncidentsOverlapping(ctx context.Context, networkID string, start, end time.Time) ([]models.UptimeIncident, error)

	// Alerts
	GetUnresolvedAlertTx(tx *gorm.DB, networkID, kind string) (*models.Alert, error)
	InsertAlertTx(tx *gorm.DB, item *models.Alert) error
	TouchAlertTx(tx *gorm.DB, id uint64, lastSeenAt time.Time) error
	ResolveAlertsTx(tx *gorm.DB, networkID string, kinds []string, resolvedAt time.Time) ([]models.Alert, error)
	GetAlertByID(ctx context.Context, id uint64) (*models.Alert, error)
	AcknowledgeAlert(ctx context.Context, id uint64, at time.Time) error
	ListAlerts(ctx context.Context, params ListAlertsParams) ([]models.Alert, error)
	CountUnacknowledgedAlerts(ctx context.Context) (int64, error)
	CountAlertsRaisedSince(ctx context.Context, networkID string, since time.Time) (int64, error)
}
