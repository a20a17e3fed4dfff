package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/eero-drew/eero-business-dashboard/internal/alerting"
	"github.com/eero-drew/eero-business-dashboard/internal/config"
	"github.com/eero-drew/eero-business-dashboard/internal/health"
	"github.com/eero-drew/eero-business-dashboard/internal/models"
	"github.com/eero-drew/eero-business-dashboard/internal/repository"
	"github.com/eero-drew/eero-business-dashboard/internal/uptime"
)

// ErrUpstreamUnavailable wraps a failed snapshot fetch. The cycle is skipped
// with prior state intact; it is never interpreted as the network being down.
var ErrUpstreamUnavailable = errors.New("upstream metrics unavailable")

// SnapshotFetcher is the boundary to the metrics upstream.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, networkID string) (health.Snapshot, error)
}

// Poller runs one scoring/incident/alert cycle per network per tick.
// Networks are polled concurrently, but each network's state transitions are
// applied under a per-network lock and in snapshot-timestamp order, and each
// snapshot's incident update, alert decisions and metric row commit in a
// single transaction.
type Poller struct {
	Fetcher SnapshotFetcher
	Repo    repository.Repository
	Tracker *uptime.Tracker
	Alerts  *alerting.Manager
	Scoring config.ScoringConfig
	Logger  *zap.Logger

	locks sync.Map // network id -> *sync.Mutex
}

// PollAll fetches and processes every known network once.
func (p *Poller) PollAll(ctx context.Context) {
	if p == nil || p.Repo == nil {
		return
	}
	networks, err := p.Repo.ListNetworks(ctx)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Warn("poll: list networks failed", zap.Error(err))
		}
		return
	}

	var wg sync.WaitGroup
	for _, n := range networks {
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.PollOne(ctx, n.ID, n.Name); err != nil && p.Logger != nil {
				p.Logger.Warn("poll cycle failed",
					zap.String("network_id", n.ID),
					zap.Error(err),
				)
			}
		}()
	}
	wg.Wait()
}

// PollOne runs one full cycle for a single network: fetch, score, apply.
// A fetch failure returns ErrUpstreamUnavailable with nothing recorded.
func (p *Poller) PollOne(ctx context.Context, networkID, networkName string) error {
	snap, err := p.Fetcher.FetchSnapshot(ctx, networkID)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, networkID, err)
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}
	return p.Process(ctx, snap, networkName)
}

// Process scores a snapshot and commits the resulting incident and alert
// state atomically. It is the replay/backfill entry point as well: all time
// attribution comes from the snapshot's own timestamp.
func (p *Poller) Process(ctx context.Context, snap health.Snapshot, networkName string) error {
	mu := p.lock(snap.NetworkID)
	mu.Lock()
	defer mu.Unlock()

	result := health.Score(snap, p.Scoring)
	if result.FirmwareMixed && p.Logger != nil {
		p.Logger.Info("firmware versions inconsistent",
			zap.String("network_id", snap.NetworkID),
			zap.Strings("versions", result.FirmwareVersions),
		)
	}

	var (
		transition uptime.Transition
		outcome    alerting.Outcome
	)
	err := p.Repo.InTx(ctx, func(tx *gorm.DB) error {
		var err error
		// Incident state first: alert decisions depend on what the network
		// was before this snapshot.
		transition, err = p.Tracker.Apply(tx, snap.NetworkID, result.Tier, snap.Timestamp, causeFor(result))
		if err != nil {
			return err
		}
		outcome, err = p.Alerts.Apply(tx, transition, result.Utilization, networkName)
		if err != nil {
			return err
		}
		return p.Repo.InsertMetricTx(tx, metricRow(snap, result))
	})
	if err != nil {
		return err
	}

	p.Tracker.Confirm(transition)
	p.Alerts.Confirm(outcome)
	return nil
}

// Prune deletes metric rows older than the retention horizon.
func (p *Poller) Prune(ctx context.Context, retentionDays int) {
	if p == nil || p.Repo == nil || retentionDays < 1 {
		return
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	n, err := p.Repo.DeleteMetricsBefore(ctx, cutoff)
	if p.Logger == nil {
		return
	}
	if err != nil {
		p.Logger.Warn("metric prune failed", zap.Error(err))
		return
	}
	if n > 0 {
		p.Logger.Info("pruned metric history", zap.Int64("rows", n), zap.Time("cutoff", cutoff))
	}
}

func (p *Poller) lock(networkID string) *sync.Mutex {
	v, _ := p.locks.LoadOrStore(networkID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func causeFor(result health.Result) string {
	if result.Tier == health.TierOffline {
		return fmt.Sprintf("score %d: no nodes reachable", result.Score)
	}
	return fmt.Sprintf("score %d below healthy cutoff", result.Score)
}

func metricRow(snap health.Snapshot, result health.Result) *models.Metric {
	total := snap.TotalDevices
	wireless := snap.WirelessDevices
	wired := snap.WiredDevices
	nodes, _ := json.Marshal(snap.Nodes)
	return &models.Metric{
		NetworkID:             snap.NetworkID,
		Timestamp:             snap.Timestamp,
		TotalDevices:          &total,
		WirelessDevices:       &wireless,
		WiredDevices:          &wired,
		BandwidthUsageMbps:    decimal.NewFromFloat(snap.BandwidthUsageMbps),
		BandwidthCapacityMbps: decimal.NewFromFloat(snap.BandwidthCapacityMbps),
		BandwidthUtilization:  result.Utilization,
		AvgSignal:             result.AvgSignal,
		Nodes:                 datatypes.JSON(nodes),
		HealthScore:           result.Score,
		HealthTier:            string(result.Tier),
	}
}
