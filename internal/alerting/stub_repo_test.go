package alerting

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/eero-drew/eero-business-dashboard/internal/models"
	"github.com/eero-drew/eero-business-dashboard/internal/repository"
)

// stubRepo keeps alerts in memory and ignores the transaction handle.
type stubRepo struct {
	alerts map[uint64]*models.Alert
	nextID uint64
}

var _ repository.Repository = (*stubRepo)(nil)

func newStubRepo() *stubRepo {
	return &stubRepo{alerts: map[uint64]*models.Alert{}}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (s *stubRepo) GetUnresolvedAlertTx(tx *gorm.DB, networkID, kind string) (*models.Alert, error) {
	for _, a := range s.alerts {
		if a.NetworkID == networkID && a.Kind == kind && a.ResolvedAt == nil {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) InsertAlertTx(tx *gorm.DB, item *models.Alert) error {
	s.nextID++
	item.ID = s.nextID
	cp := *item
	s.alerts[item.ID] = &cp
	return nil
}

func (s *stubRepo) TouchAlertTx(tx *gorm.DB, id uint64, lastSeenAt time.Time) error {
	if a, ok := s.alerts[id]; ok {
		a.LastSeenAt = lastSeenAt
	}
	return nil
}

func (s *stubRepo) ResolveAlertsTx(tx *gorm.DB, networkID string, kinds []string, resolvedAt time.Time) ([]models.Alert, error) {
	var resolved []models.Alert
	for _, a := range s.alerts {
		if a.NetworkID != networkID || a.ResolvedAt != nil {
			continue
		}
		for _, k := range kinds {
			if a.Kind == k {
				at := resolvedAt
				a.ResolvedAt = &at
				resolved = append(resolved, *a)
				break
			}
		}
	}
	return resolved, nil
}

func (s *stubRepo) GetAlertByID(ctx context.Context, id uint64) (*models.Alert, error) {
	a, ok := s.alerts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *stubRepo) AcknowledgeAlert(ctx context.Context, id uint64, at time.Time) error {
	if a, ok := s.alerts[id]; ok && a.AcknowledgedAt == nil {
		ackAt := at
		a.AcknowledgedAt = &ackAt
	}
	return nil
}

func (s *stubRepo) unresolvedCount(networkID, kind string) int {
	n := 0
	for _, a := range s.alerts {
		if a.NetworkID == networkID && a.Kind == kind && a.ResolvedAt == nil {
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
func (s *stubRepo) GetOpenIncident(ctx context.Context, networkID string) (*models.UptimeIncident, error) {
	return nil, nil
}
func (s *stubRepo) GetOpenIncidentTx(tx *gorm.DB, networkID string) (*models.UptimeIncident, error) {
	return nil, nil
}
func (s *stubRepo) GetIncidentByIDTx(tx *gorm.DB, id uint64) (*models.UptimeIncident, error) {
	return nil, nil
}
func (s *stubRepo) OpenIncidentTx(tx *gorm.DB, item *models.UptimeIncident) error { return nil }
func (s *stubRepo) UpdateIncidentWorstTierTx(tx *gorm.DB, id uint64, worstTier string) error {
	return nil
}
func (s *stubRepo) CloseIncidentTx(tx *gorm.DB, id uint64, closedAt time.Time, durationSeconds int64) error {
	return nil
}
func (s *stubRepo) ListIncidentsOverlapping(ctx context.Context, networkID string, start, end time.Time) ([]models.UptimeIncident, error) {
	return nil, nil
}
func (s *stubRepo) ListAlerts(ctx context.Context, params repository.ListAlertsParams) ([]models.Alert, error) {
	return nil, nil
}
func (s *stubRepo) CountUnacknowledgedAlerts(ctx context.Context) (int64, error) { return 0, nil }
func (s *stubRepo) CountAlertsRaisedSince(ctx context.Context, networkID string, since time.Time) (int64, error) {
	return 0, nil
}
