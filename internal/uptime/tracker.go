package uptime

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eero-drew/eero-business-dashboard/internal/health"
	"github.com/eero-drew/eero-business-dashboard/internal/models"
	"github.com/eero-drew/eero-business-dashboard/internal/repository"
)

// ErrStaleSnapshot rejects a snapshot whose timestamp is older than the last
// one processed for the same network. Applying it would corrupt incident
// boundaries, so the caller must drop it and keep prior state.
var ErrStaleSnapshot = errors.New("stale snapshot: timestamp not after last processed")

// Transition is the outcome of applying one snapshot's tier to a network.
// From is empty on the first observation after startup with no open incident.
type Transition struct {
	NetworkID string
	From      health.Tier
	To        health.Tier
	At        time.Time

	// Changed is true when To differs from the previous tier (or on a
	// non-Healthy first observation).
	Changed bool

	// Opened/Closed are set when this transition opened or closed an
	// incident. Never both.
	Opened *models.UptimeIncident
	Closed *models.UptimeIncident

	// staged in-memory state, applied by Confirm after the tx commits.
	nextIncidentID uint64
}

type networkState struct {
	tier       health.Tier
	known      bool
	lastTS     time.Time
	incidentID uint64 // 0 when no open incident
}

// Tracker maintains the per-network incident state machine. All writes happen
// on the transaction handed to Apply; in-memory state advances only when the
// caller confirms the commit, so a rolled-back cycle leaves the tracker
// exactly where it was.
//
// Callers must serialize Apply/Confirm per network id; the poller holds a
// keyed lock across the whole cycle.
type Tracker struct {
	Repo   repository.Repository
	Logger *zap.Logger

	mu    sync.Mutex
	state map[string]*networkState
}

func NewTracker(repo repository.Repository, logger *zap.Logger) *Tracker {
	return &Tracker{
		Repo:   repo,
		Logger: logger,
		state:  map[string]*networkState{},
	}
}

func (t *Tracker) get(networkID string) *networkState {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.state[networkID]
	if !ok {
		st = &networkState{}
		t.state[networkID] = st
	}
	return st
}

// hydrate recovers state after a restart: an open incident in storage means
// the network was last seen at that incident's worst tier.
func (t *Tracker) hydrate(tx *gorm.DB, st *networkState, networkID string) error {
	if st.known {
		return nil
	}
	open, err := t.Repo.GetOpenIncidentTx(tx, networkID)
	if err != nil {
		return err
	}
	if open != nil {
		st.tier = health.Tier(open.WorstTier)
		st.known = true
		st.incidentID = open.ID
		st.lastTS = open.OpenedAt
	}
	return nil
}

// Apply advances the state machine for one snapshot. It stages all storage
// writes on tx and returns the transition; the caller must invoke Confirm
// once the transaction has committed (and discard the transition otherwise).
func (t *Tracker) Apply(tx *gorm.DB, networkID string, tier health.Tier, ts time.Time, cause string) (Transition, error) {
	st := t.get(networkID)

	if err := t.hydrate(tx, st, networkID); err != nil {
		return Transition{}, err
	}
	if !st.lastTS.IsZero() && !ts.After(st.lastTS) {
		return Transition{}, ErrStaleSnapshot
	}

	tr := Transition{
		NetworkID:      networkID,
		To:             tier,
		At:             ts,
		nextIncidentID: st.incidentID,
	}
	if st.known {
		tr.From = st.tier
	}

	switch {
	case !st.known && tier != health.TierHealthy:
		// Cold start in a bad state: the incident begins at this snapshot,
		// never at some assumed earlier time.
		tr.Changed = true
		inc, err := t.open(tx, networkID, tier, ts, cause)
		if err != nil {
			return Transition{}, err
		}
		tr.Opened = inc
		tr.nextIncidentID = inc.ID

	case st.known && st.tier == tier:
		// Repeated identical tier: idempotent no-op.

	case tier == health.TierHealthy:
		tr.Changed = st.known
		if st.incidentID != 0 {
			closed, err := t.close(tx, st.incidentID, ts)
			if err != nil {
				return Transition{}, err
			}
			tr.Closed = closed
			tr.nextIncidentID = 0
		}

	case st.known && st.tier != health.TierHealthy:
		// Degraded <-> Offline while an incident is open: the incident stays
		// open and only its worst tier may ratchet up.
		tr.Changed = true
		if st.incidentID != 0 {
			open, err := t.Repo.GetOpenIncidentTx(tx, networkID)
			if err != nil {
				return Transition{}, err
			}
			if open != nil {
				worst := health.Worse(health.Tier(open.WorstTier), tier)
				if string(worst) != open.WorstTier {
					if err := t.Repo.UpdateIncidentWorstTierTx(tx, open.ID, string(worst)); err != nil {
						return Transition{}, err
					}
				}
			}
		}

	default:
		// Healthy (or unknown-healthy) -> Degraded/Offline: open.
		tr.Changed = true
		inc, err := t.open(tx, networkID, tier, ts, cause)
		if err != nil {
			return Transition{}, err
		}
		tr.Opened = inc
		tr.nextIncidentID = inc.ID
	}

	return tr, nil
}

// Confirm applies the staged transition to in-memory state. Call it only
// after the transaction that carried Apply has committed.
func (t *Tracker) Confirm(tr Transition) {
	st := t.get(tr.NetworkID)
	t.mu.Lock()
	st.tier = tr.To
	st.known = true
	st.lastTS = tr.At
	st.incidentID = tr.nextIncidentID
	t.mu.Unlock()

	if t.Logger != nil && tr.Changed {
		t.Logger.Info("tier transition",
			zap.String("network_id", tr.NetworkID),
			zap.String("from", string(tr.From)),
			zap.String("to", string(tr.To)),
			zap.Time("at", tr.At),
		)
	}
}

func (t *Tracker) open(tx *gorm.DB, networkID string, tier health.Tier, ts time.Time, cause string) (*models.UptimeIncident, error) {
	inc := &models.UptimeIncident{
		NetworkID:  networkID,
		OpenedAt:   ts,
		TierAtOpen: string(tier),
		WorstTier:  string(tier),
		Cause:      cause,
	}
	if err := t.Repo.OpenIncidentTx(tx, inc); err != nil {
		return nil, err
	}
	return inc, nil
}

func (t *Tracker) close(tx *gorm.DB, incidentID uint64, ts time.Time) (*models.UptimeIncident, error) {
	open, err := t.Repo.GetIncidentByIDTx(tx, incidentID)
	if err != nil {
		return nil, err
	}
	duration := int64(0)
	if open != nil {
		duration = int64(ts.Sub(open.OpenedAt).Seconds())
		if duration < 0 {
			duration = 0
		}
	}
	if err := t.Repo.CloseIncidentTx(tx, incidentID, ts, duration); err != nil {
		return nil, err
	}
	if open != nil {
		closedAt := ts
		open.ClosedAt = &closedAt
		open.DurationSeconds = &duration
	}
	return open, nil
}
