package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eero-drew/eero-business-dashboard/internal/models"
	"github.com/eero-drew/eero-business-dashboard/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Networks ---------------------------------------------------------------

func (s *Store) UpsertNetwork(ctx context.Context, item *models.Network) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.ID) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"email",
			"site_type",
			"address_street",
			"address_city",
			"address_state",
			"address_zip",
			"address_country",
			"address_formatted",
			"latitude",
			"longitude",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetNetworkByID(ctx context.Context, id string) (*models.Network, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Network
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListNetworks(ctx context.Context) ([]models.Network, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Network
	if err := s.db.WithContext(ctx).
		Model(&models.Network{}).
		Order("name asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Metrics ----------------------------------------------------------------

func (s *Store) InsertMetricTx(tx *gorm.DB, item *models.Metric) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Create(item).Error
}

func (s *Store) GetLatestMetric(ctx context.Context, networkID string) (*models.Metric, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Metric
	err := s.db.WithContext(ctx).
		Where("network_id = ?", networkID).
		Order("timestamp desc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListMetrics(ctx context.Context, networkID string, start, end time.Time) ([]models.Metric, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Metric
	if err := s.db.WithContext(ctx).
		Model(&models.Metric{}).
		Where("network_id = ?", networkID).
		Where("timestamp >= ? AND timestamp < ?", start, end).
		Order("timestamp asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListMetricsForNetworks(ctx context.Context, networkIDs []string, start, end time.Time) ([]models.Metric, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Metric{}).
		Where("timestamp >= ? AND timestamp < ?", start, end)
	if len(networkIDs) > 0 {
		query = query.Where("network_id IN ?", networkIDs)
	}
	var items []models.Metric
	if err := query.Order("timestamp asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeleteMetricsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.Metric{})
	return res.RowsAffected, res.Error
}

// --- Uptime incidents -------------------------------------------------------

func (s *Store) GetOpenIncident(ctx context.Context, networkID string) (*models.UptimeIncident, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	return openIncident(s.db.WithContext(ctx), networkID)
}

func (s *Store) GetOpenIncidentTx(tx *gorm.DB, networkID string) (*models.UptimeIncident, error) {
	if tx == nil {
		return nil, nil
	}
	return openIncident(tx, networkID)
}

func openIncident(db *gorm.DB, networkID string) (*models.UptimeIncident, error) {
	var item models.UptimeIncident
	err := db.
		Where("network_id = ?", networkID).
		Where("closed_at IS NULL").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetIncidentByIDTx(tx *gorm.DB, id uint64) (*models.UptimeIncident, error) {
	if tx == nil {
		return nil, nil
	}
	var item models.UptimeIncident
	err := tx.Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) OpenIncidentTx(tx *gorm.DB, item *models.UptimeIncident) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Create(item).Error
}

func (s *Store) UpdateIncidentWorstTierTx(tx *gorm.DB, id uint64, worstTier string) error {
	if tx == nil {
		return nil
	}
	return tx.Model(&models.UptimeIncident{}).
		Where("id = ?", id).
		Update("worst_tier", worstTier).Error
}

func (s *Store) CloseIncidentTx(tx *gorm.DB, id uint64, closedAt time.Time, durationSeconds int64) error {
	if tx == nil {
		return nil
	}
	return tx.Model(&models.UptimeIncident{}).
		Where("id = ?", id).
		Where("closed_at IS NULL").
		Updates(map[string]any{
			"closed_at":        closedAt,
			"duration_seconds": durationSeconds,
		}).Error
}

// ListIncidentsOverlapping returns incidents whose span intersects
// [start, end): any incident opened before the window end that is still open
// or closed after the window start.
func (s *Store) ListIncidentsOverlapping(ctx context.Context, networkID string, start, end time.Time) ([]models.UptimeIncident, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.UptimeIncident
	if err := s.db.WithContext(ctx).
		Model(&models.UptimeIncident{}).
		Where("network_id = ?", networkID).
		Where("opened_at < ?", end).
		Where("closed_at IS NULL OR closed_at >= ?", start).
		Order("opened_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- Alerts -----------------------------------------------------------------

func (s *Store) GetUnresolvedAlertTx(tx *gorm.DB, networkID, kind string) (*models.Alert, error) {
	if tx == nil {
		return nil, nil
	}
	var item models.Alert
	err := tx.
		Where("network_id = ?", networkID).
		Where("kind = ?", kind).
		Where("resolved_at IS NULL").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) InsertAlertTx(tx *gorm.DB, item *models.Alert) error {
	if tx == nil || item == nil {
		return nil
	}
	return tx.Create(item).Error
}

func (s *Store) TouchAlertTx(tx *gorm.DB, id uint64, lastSeenAt time.Time) error {
	if tx == nil {
		return nil
	}
	return tx.Model(&models.Alert{}).
		Where("id = ?", id).
		Update("last_seen_at", lastSeenAt).Error
}

// ResolveAlertsTx resolves all unresolved alerts of the given kinds and
// returns the rows it resolved so callers can notify on each.
func (s *Store) ResolveAlertsTx(tx *gorm.DB, networkID string, kinds []string, resolvedAt time.Time) ([]models.Alert, error) {
	if tx == nil || len(kinds) == 0 {
		return nil, nil
	}
	var items []models.Alert
	if err := tx.
		Where("network_id = ?", networkID).
		Where("kind IN ?", kinds).
		Where("resolved_at IS NULL").
		Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	ids := make([]uint64, 0, len(items))
	for _, a := range items {
		ids = append(ids, a.ID)
	}
	if err := tx.Model(&models.Alert{}).
		Where("id IN ?", ids).
		Update("resolved_at", resolvedAt).Error; err != nil {
		return nil, err
	}
	for i := range items {
		at := resolvedAt
		items[i].ResolvedAt = &at
	}
	return items, nil
}

func (s *Store) GetAlertByID(ctx context.Context, id uint64) (*models.Alert, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Alert
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) AcknowledgeAlert(ctx context.Context, id uint64, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("id = ?", id).
		Where("acknowledged_at IS NULL").
		Update("acknowledged_at", at).Error
}

func (s *Store) ListAlerts(ctx context.Context, params repository.ListAlertsParams) ([]models.Alert, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Alert{})
	if params.NetworkID != nil && strings.TrimSpace(*params.NetworkID) != "" {
		query = query.Where("network_id = ?", strings.TrimSpace(*params.NetworkID))
	}
	if params.Kind != nil && strings.TrimSpace(*params.Kind) != "" {
		query = query.Where("kind = ?", strings.TrimSpace(*params.Kind))
	}
	if params.Unresolved != nil && *params.Unresolved {
		query = query.Where("resolved_at IS NULL")
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("raised_at >= ?", *params.Since)
	}
	limit := params.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	var items []models.Alert
	if err := query.Order("raised_at desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountUnacknowledgedAlerts(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("acknowledged_at IS NULL").
		Where("resolved_at IS NULL").
		Count(&n).Error
	return n, err
}

func (s *Store) CountAlertsRaisedSince(ctx context.Context, networkID string, since time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Alert{}).
		Where("raised_at >= ?", since)
	if strings.TrimSpace(networkID) != "" {
		query = query.Where("network_id = ?", networkID)
	}
	var n int64
	err := query.Count(&n).Error
	return n, err
}
