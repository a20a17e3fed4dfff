package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/eero-drew/eero-business-dashboard/internal/models"
	"github.com/eero-drew/eero-business-dashboard/internal/repository"
)

var errMetricInsert = errors.New("metric insert refused")

// stubRepo implements the slice of the repository the poll cycle touches.
// InTx runs the callback with a nil handle and discards staged rows when the
// callback fails, mimicking a rollback.
type stubRepo struct {
	mu        sync.Mutex // serializes whole transactions across networks
	networks  []models.Network
	metrics   []models.Metric
	incidents map[uint64]*models.UptimeIncident
	alerts    map[uint64]*models.Alert
	nextID    uint64

	failMetricInsert bool
}

var _ repository.Repository = (*stubRepo)(nil)

func newStubRepo() *stubRepo {
	return &stubRepo{
		incidents: map[uint64]*models.UptimeIncident{},
		alerts:    map[uint64]*models.Alert{},
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	metrics := len(s.metrics)
	incidents := snapshotIncidents(s.incidents)
	alerts := snapshotAlerts(s.alerts)
	if err := fn(nil); err != nil {
		s.metrics = s.metrics[:metrics]
		s.incidents = incidents
		s.alerts = alerts
		return err
	}
	return nil
}

func snapshotIncidents(in map[uint64]*models.UptimeIncident) map[uint64]*models.UptimeIncident {
	out := make(map[uint64]*models.UptimeIncident, len(in))
	for k, v := range in {
		cp := *v
		out[k] = &cp
	}
	return out
}

func snapshotAlerts(in map[uint64]*models.Alert) map[uint64]*models.Alert {
	out := make(map[uint64]*models.Alert, len(in))
	for k, v := range in {
		cp := *v
		out[k] = &cp
	}
	return out
}

func (s *stubRepo) ListNetworks(ctx context.Context) ([]models.Network, error) {
	return s.networks, nil
}

func (s *stubRepo) InsertMetricTx(tx *gorm.DB, item *models.Metric) error {
	if s.failMetricInsert {
		return errMetricInsert
	}
	s.metrics = append(s.metrics, *item)
	return nil
}

func (s *stubRepo) DeleteMetricsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	kept := s.metrics[:0]
	deleted := int64(0)
	for _, m := range s.metrics {
		if m.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, m)
	}
	s.metrics = kept
	return deleted, nil
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

// Unused surface.

func (s *stubRepo) UpsertNetwork(ctx context.Context, item *models.Network) error { return nil }
func (s *stubRepo) GetNetworkByID(ctx context.Context, id string) (*models.Network, error) {
	return nil, nil
}
func (s *stubRepo) GetLatestMetric(ctx context.Context, networkID string) (*models.Metric, error) {
	return nil, nil
}
func (s *stubRepo) ListMetrics(ctx context.Context, networkID string, start, end time.Time) ([]models.Metric, error) {
	return nil, nil
}
func (s *stubRepo) ListMetricsForNetworks(ctx context.Context, networkIDs []string, start, end time.Time) ([]models.Metric, error) {
	return nil, nil
}
func (s *stubRepo) GetOpenIncident(ctx context.Context, networkID string) (*models.UptimeIncident, error) {
	return s.GetOpenIncidentTx(nil, networkID)
}
func (s *stubRepo) ListIncidentsOverlapping(ctx context.Context, networkID string, start, end time.Time) ([]models.UptimeIncident, error) {
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
