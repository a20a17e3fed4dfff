package alerting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eero-drew/eero-business-dashboard/internal/config"
	"github.com/eero-drew/eero-business-dashboard/internal/health"
	"github.com/eero-drew/eero-business-dashboard/internal/models"
	"github.com/eero-drew/eero-business-dashboard/internal/repository"
	"github.com/eero-drew/eero-business-dashboard/internal/uptime"
)

var (
	// ErrNotFound means the alert id does not exist.
	ErrNotFound = errors.New("alert not found")
	// ErrAlreadyAcknowledged means the alert was acknowledged before.
	ErrAlreadyAcknowledged = errors.New("alert already acknowledged")
)

// Notifier receives every newly raised and newly resolved alert. Delivery is
// fire-and-forget: the engine never learns whether it succeeded.
type Notifier interface {
	AlertRaised(alert models.Alert)
	AlertResolved(alert models.Alert)
}

// Outcome is the staged result of one alert evaluation cycle. Like the uptime
// tracker, nothing takes effect in memory (and nothing is delivered) until
// the caller confirms the surrounding transaction committed.
type Outcome struct {
	NetworkID string
	Raised    []models.Alert
	Resolved  []models.Alert

	breachCount int
}

// Manager decides whether tier transitions and bandwidth readings turn into
// alerts. Dedup rule: at most one unresolved alert per (network, kind);
// repeats refresh the open row. Callers serialize per network id.
type Manager struct {
	Config   config.AlertingConfig
	Repo     repository.Repository
	Logger   *zap.Logger
	Notifier Notifier

	mu       sync.Mutex
	breaches map[string]int
}

func NewManager(cfg config.AlertingConfig, repo repository.Repository, logger *zap.Logger, notifier Notifier) *Manager {
	return &Manager{
		Config:   cfg,
		Repo:     repo,
		Logger:   logger,
		Notifier: notifier,
		breaches: map[string]int{},
	}
}

// Apply evaluates one confirmed tier transition plus the snapshot's bandwidth
// reading. It stages all writes on tx; call Confirm after the commit.
func (m *Manager) Apply(tx *gorm.DB, tr uptime.Transition, utilization float64, networkName string) (Outcome, error) {
	out := Outcome{NetworkID: tr.NetworkID}

	if err := m.applyTransition(tx, tr, networkName, &out); err != nil {
		return Outcome{}, err
	}
	if err := m.applyBandwidth(tx, tr, utilization, networkName, &out); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (m *Manager) applyTransition(tx *gorm.DB, tr uptime.Transition, networkName string, out *Outcome) error {
	switch {
	case tr.To == health.TierOffline && tr.Changed:
		return m.raiseOrTouch(tx, out, models.Alert{
			NetworkID: tr.NetworkID,
			Kind:      models.AlertKindOffline,
			Severity:  models.SeverityCritical,
			Message:   fmt.Sprintf("%s has gone offline: all nodes are unreachable.", networkName),
			RaisedAt:  tr.At,
		})

	case tr.To == health.TierDegraded && tr.Changed && tr.From != health.TierOffline:
		// Offline -> Degraded is a severity-only improvement; the offline
		// alert stays unresolved and no degraded alert is added on top.
		return m.raiseOrTouch(tx, out, models.Alert{
			NetworkID: tr.NetworkID,
			Kind:      models.AlertKindDegraded,
			Severity:  models.SeverityWarning,
			Message:   fmt.Sprintf("%s is degraded: health score fell below the healthy cutoff.", networkName),
			RaisedAt:  tr.At,
		})

	case tr.To == health.TierHealthy && tr.Changed:
		resolved, err := m.Repo.ResolveAlertsTx(tx, tr.NetworkID,
			[]string{models.AlertKindOffline, models.AlertKindDegraded}, tr.At)
		if err != nil {
			return err
		}
		out.Resolved = append(out.Resolved, resolved...)
	}
	return nil
}

func (m *Manager) applyBandwidth(tx *gorm.DB, tr uptime.Transition, utilization float64, networkName string, out *Outcome) error {
	threshold := m.Config.BandwidthThresholdPct
	need := m.Config.ConsecutiveBreaches
	if need < 1 {
		need = 1
	}

	// A reading at the threshold counts as a breach.
	if utilization < threshold {
		out.breachCount = 0
		resolved, err := m.Repo.ResolveAlertsTx(tx, tr.NetworkID,
			[]string{models.AlertKindBandwidth}, tr.At)
		if err != nil {
			return err
		}
		out.Resolved = append(out.Resolved, resolved...)
		return nil
	}

	out.breachCount = m.breachCount(tr.NetworkID) + 1
	if out.breachCount < need {
		// Suppress until confirmed: a single spike is noise.
		return nil
	}
	return m.raiseOrTouch(tx, out, models.Alert{
		NetworkID: tr.NetworkID,
		Kind:      models.AlertKindBandwidth,
		Severity:  models.SeverityCritical,
		Message:   fmt.Sprintf("%s bandwidth at %.1f%%: at or above the %.0f%% threshold for %d consecutive checks.", networkName, utilization, threshold, out.breachCount),
		RaisedAt:  tr.At,
	})
}

// raiseOrTouch inserts a new alert unless an unresolved one of the same kind
// exists, in which case the open row's last-seen time is refreshed.
func (m *Manager) raiseOrTouch(tx *gorm.DB, out *Outcome, alert models.Alert) error {
	existing, err := m.Repo.GetUnresolvedAlertTx(tx, alert.NetworkID, alert.Kind)
	if err != nil {
		return err
	}
	if existing != nil {
		return m.Repo.TouchAlertTx(tx, existing.ID, alert.RaisedAt)
	}
	alert.LastSeenAt = alert.RaisedAt
	if err := m.Repo.InsertAlertTx(tx, &alert); err != nil {
		return err
	}
	out.Raised = append(out.Raised, alert)
	return nil
}

// Confirm commits the staged outcome: advances the breach counter and hands
// raised/resolved alerts to the notifier. Call only after the transaction
// that carried Apply has committed.
func (m *Manager) Confirm(out Outcome) {
	m.mu.Lock()
	m.breaches[out.NetworkID] = out.breachCount
	m.mu.Unlock()

	for _, a := range out.Raised {
		if m.Logger != nil {
			m.Logger.Warn("alert raised",
				zap.String("network_id", a.NetworkID),
				zap.String("kind", a.Kind),
				zap.String("severity", a.Severity),
				zap.String("message", a.Message),
			)
		}
		if m.Notifier != nil {
			m.Notifier.AlertRaised(a)
		}
	}
	for _, a := range out.Resolved {
		if m.Logger != nil {
			m.Logger.Info("alert resolved",
				zap.String("network_id", a.NetworkID),
				zap.String("kind", a.Kind),
			)
		}
		if m.Notifier != nil {
			m.Notifier.AlertResolved(a)
		}
	}
}

func (m *Manager) breachCount(networkID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.breaches[networkID]
}

// Acknowledge marks an alert as seen by an operator. It never resolves: the
// underlying condition clears on its own schedule.
func (m *Manager) Acknowledge(ctx context.Context, id uint64, at time.Time) (*models.Alert, error) {
	alert, err := m.Repo.GetAlertByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, ErrNotFound
	}
	if alert.AcknowledgedAt != nil {
		return nil, ErrAlreadyAcknowledged
	}
	if err := m.Repo.AcknowledgeAlert(ctx, id, at); err != nil {
		return nil, err
	}
	ackAt := at
	alert.AcknowledgedAt = &ackAt
	return alert, nil
}
