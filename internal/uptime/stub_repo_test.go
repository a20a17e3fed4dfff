package uptime

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/eero-drew/eero-business-dashboard/internal/models"
	"github.com/eero-drew/eero-business-dashboard/internal/repository"
)

// stubRepo keeps incidents in memory and ignores the transaction handle, so
// tracker tests can drive Apply with a nil tx.
type stubRepo struct {
	incidents map[uint64]*models.UptimeIncident
	nextID    uint64
}

var _ repository.Repository = (*stubRepo)(nil)

func newStubRepo() *stubRepo {
	return &stubRepo{incidents: map[uint64]*models.UptimeIncident{}}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (s *stubRepo) GetOpenIncident(ctx context.Context, networkID string) (*models.UptimeIncident, error) {
	return s.GetOpenIncidentTx(nil, networkID)
}

func (s *stubRepo) GetOpenIncidentTx(tx *gorm.DB, networkID string) (*models.UptimeIncident, error) {
	for _, inc := range s.incidents {
		if inc.NetworkID == networkID && inc.ClosedAt == nil {
			cp := *inc
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) GetIncidentByIDTx(tx *gorm.DB, id uint64) (*models.UptimeIncident, error) {
	inc, ok := s.incidents[id]
	if !ok {
		return nil, nil
	}
	cp := *inc
	return &cp, nil
}

func (s *stubRepo) OpenIncidentTx(tx *gorm.DB, item *models.UptimeIncident) error {
	s.nextID++
	item.ID = s.nextID
	cp := *item
	s.incidents[item.ID] = &cp
	return nil
}

func (s *stubRepo) UpdateIncidentWorstTierTx(tx *gorm.DB, id uint64, worstTier string) error {
	if inc, ok := s.incidents[id]; ok {
		inc.WorstTier = worstTier
	}
	return nil
}

func (s *stubRepo) CloseIncidentTx(tx *gorm.DB, id uint64, closedAt time.Time, durationSeconds int64) error {
	if inc, ok := s.incidents[id]; ok && inc.ClosedAt == nil {
		at := closedAt
		d := durationSeconds
		inc.ClosedAt = &at
		inc.DurationSeconds = &d
	}
	return nil
}

func (s *stubRepo) ListIncidentsOverlapping(ctx context.Context, networkID string, start, end time.Time) ([]models.UptimeIncident, error) {
	return nil, nil
}

func (s *stubRepo) openCount(networkID string) int {
	n := 0
	for _, inc := range s.incidents {
		if inc.NetworkID == networkID && inc.ClosedAt == nil {
			n++
		}
	}
	return n
}

// Unused surface.

func (s *stubRepo) UpsertNetwork(ctx context.Context, item *models.Network) error { return nil }
func (s *stubRepo) GetNetworkByID(ctx context.Context, id string) (*models.Network, error) {
	return nil, nil
}
func (s *stubRepo) ListNetworks(ctx context.Context) ([]models.Network, error) { return nil, nil }
func (s *stubRepo) InsertMetricTx(tx *gorm.DB, item *models.Metric) error      { return nil }
func (s *stubRepo) GetLatestMetric(ctx context.Context, networkID string) (*models.Metric, error) {
	return nil, nil
}
func (s *stubRepo) ListMetrics(ctx context.Context, networkID string, start, end time.Time) ([]models.Metric, error) {
	return nil, nil
}
func (s *stubRepo) ListMetricsForNetworks(ctx context.Context, networkIDs []string, start, end time.Time) ([]models.Metric, error) {
	return nil, nil
}
func (s *stubRepo) DeleteMetricsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}
func (s *stubRepo) GetUnresolvedAlertTx(tx *gorm.DB, networkID, kind string) (*models.Alert, error) {
	return nil, nil
}
func (s *stubRepo) InsertAlertTx(tx *gorm.DB, item *models.Alert) error            { return nil }
func (s *stubRepo) TouchAlertTx(tx *gorm.DB, id uint64, lastSeenAt time.Time) error { return nil }
func (s *stubRepo) ResolveAlertsTx(tx *gorm.DB, networkID string, kinds []string, resolvedAt time.Time) ([]models.Alert, error) {
	return nil, nil
}
func (s *stubRepo) GetAlertByID(ctx context.Context, id uint64) (*models.Alert, error) {
	return nil, nil
}
func (s *stubRepo) AcknowledgeAlert(ctx context.Context, id uint64, at time.Time) error { return nil }
func (s *stubRepo) ListAlerts(ctx context.Context, params repository.ListAlertsParams) ([]models.Alert, error) {
	return nil, nil
}
func (s *stubRepo) CountUnacknowledgedAlerts(ctx context.Context) (int64, error) { return 0, nil }
func (s *stubRepo) CountAlertsRaisedSince(ctx context.Context, networkID string, since time.Time) (int64, error) {
	return 0, nil
}
