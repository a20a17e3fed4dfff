package uptime

import (
	"errors"
	"testing"
	"time"

	"github.com/eero-drew/eero-business-dashboard/internal/health"
	"github.com/eero-drew/eero-business-dashboard/internal/models"
)

var t0 = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func apply(t *testing.T, tr *Tracker, tier health.Tier, at time.Time) Transition {
	t.Helper()
	transition, err := tr.Apply(nil, "n1", tier, at, "test")
	if err != nil {
		t.Fatalf("apply %s at %s: %v", tier, at, err)
	}
	tr.Confirm(transition)
	return transition
}

func TestTracker_HealthyStartOpensNothing(t *testing.T) {
	repo := newStubRepo()
	tr := NewTracker(repo, nil)

	transition := apply(t, tr, health.TierHealthy, t0)
	if transition.Changed {
		t.Fatalf("healthy cold start must not count as a change")
	}
	if transition.Opened != nil || transition.Closed != nil {
		t.Fatalf("healthy cold start opened/closed an incident")
	}
	if repo.openCount("n1") != 0 {
		t.Fatalf("open incidents=%d want=0", repo.openCount("n1"))
	}
}

func TestTracker_ColdStartBadStateOpensAtSnapshot(t *testing.T) {
	repo := newStubRepo()
	tr := NewTracker(repo, nil)

	transition := apply(t, tr, health.TierOffline, t0)
	if !transition.Changed {
		t.Fatalf("cold start in a bad state must report a change")
	}
	if transition.From != "" {
		t.Fatalf("from=%q want empty on first observation", transition.From)
	}
	if transition.Opened == nil {
		t.Fatalf("expected an opened incident")
	}
	if !transition.Opened.OpenedAt.Equal(t0) {
		t.Fatalf("opened_at=%s want=%s (never an assumed earlier time)", transition.Opened.OpenedAt, t0)
	}
}

func TestTracker_OpenAndClose(t *testing.T) {
	repo := newStubRepo()
	tr := NewTracker(repo, nil)

	apply(t, tr, health.TierHealthy, t0)
	down := apply(t, tr, health.TierDegraded, t0.Add(time.Minute))
	if down.Opened == nil {
		t.Fatalf("degraded transition must open an incident")
	}
	if down.Opened.TierAtOpen != string(health.TierDegraded) {
		t.Fatalf("tier_at_open=%s want=degraded", down.Opened.TierAtOpen)
	}

	up := apply(t, tr, health.TierHealthy, t0.Add(11*time.Minute))
	if up.Closed == nil {
		t.Fatalf("healthy transition must close the incident")
	}
	if up.Closed.DurationSeconds == nil || *up.Closed.DurationSeconds != 600 {
		t.Fatalf("duration=%v want=600", up.Closed.DurationSeconds)
	}
	if repo.openCount("n1") != 0 {
		t.Fatalf("open incidents=%d want=0 after recovery", repo.openCount("n1"))
	}
}

func TestTracker_RepeatedTierIsIdempotent(t *testing.T) {
	repo := newStubRepo()
	tr := NewTracker(repo, nil)

	apply(t, tr, health.TierOffline, t0)
	for i := 1; i <= 3; i++ {
		transition := apply(t, tr, health.TierOffline, t0.Add(time.Duration(i)*time.Minute))
		if transition.Changed {
			t.Fatalf("repeat %d marked as change", i)
		}
		if transition.Opened != nil {
			t.Fatalf("repeat %d opened another incident", i)
		}
	}
	if repo.openCount("n1") != 1 {
		t.Fatalf("open incidents=%d want=1", repo.openCount("n1"))
	}
}

func TestTracker_SeverityChangeKeepsIncidentOpen(t *testing.T) {
	repo := newStubRepo()
	tr := NewTracker(repo, nil)

	down := apply(t, tr, health.TierDegraded, t0)
	worse := apply(t, tr, health.TierOffline, t0.Add(time.Minute))
	if worse.Opened != nil || worse.Closed != nil {
		t.Fatalf("severity escalation must not open or close an incident")
	}
	inc, _ := repo.GetIncidentByIDTx(nil, down.Opened.ID)
	if inc.WorstTier != string(health.TierOffline) {
		t.Fatalf("worst_tier=%s want=offline", inc.WorstTier)
	}

	// Improvement back to degraded: still the same incident, worst stays.
	better := apply(t, tr, health.TierDegraded, t0.Add(2*time.Minute))
	if better.Opened != nil || better.Closed != nil {
		t.Fatalf("severity improvement must not open or close an incident")
	}
	inc, _ = repo.GetIncidentByIDTx(nil, down.Opened.ID)
	if inc.WorstTier != string(health.TierOffline) {
		t.Fatalf("worst_tier=%s want=offline after improvement", inc.WorstTier)
	}
	if repo.openCount("n1") != 1 {
		t.Fatalf("open incidents=%d want=1", repo.openCount("n1"))
	}
}

func TestTracker_StaleSnapshotRejected(t *testing.T) {
	repo := newStubRepo()
	tr := NewTracker(repo, nil)

	apply(t, tr, health.TierHealthy, t0)
	_, err := tr.Apply(nil, "n1", health.TierOffline, t0.Add(-time.Minute), "test")
	if !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("err=%v want ErrStaleSnapshot", err)
	}
	// Equal timestamp is stale too.
	_, err = tr.Apply(nil, "n1", health.TierOffline, t0, "test")
	if !errors.Is(err, ErrStaleSnapshot) {
		t.Fatalf("err=%v want ErrStaleSnapshot for equal timestamp", err)
	}
	if repo.openCount("n1") != 0 {
		t.Fatalf("stale snapshot mutated state")
	}
}

func TestTracker_HydratesFromOpenIncident(t *testing.T) {
	repo := newStubRepo()
	seed := &models.UptimeIncident{
		NetworkID:  "n1",
		OpenedAt:   t0,
		TierAtOpen: string(health.TierDegraded),
		WorstTier:  string(health.TierOffline),
	}
	if err := repo.OpenIncidentTx(nil, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Fresh tracker, as after a restart.
	tr := NewTracker(repo, nil)
	up := apply(t, tr, health.TierHealthy, t0.Add(time.Hour))
	if up.From != health.TierOffline {
		t.Fatalf("from=%s want=offline (recovered from worst tier)", up.From)
	}
	if up.Closed == nil || up.Closed.ID != seed.ID {
		t.Fatalf("restart recovery must close the pre-existing incident")
	}
	if repo.openCount("n1") != 0 {
		t.Fatalf("open incidents=%d want=0", repo.openCount("n1"))
	}
}

func TestTracker_RollbackLeavesStateUntouched(t *testing.T) {
	repo := newStubRepo()
	tr := NewTracker(repo, nil)

	apply(t, tr, health.TierHealthy, t0)

	// Apply without Confirm simulates a rolled-back transaction.
	if _, err := tr.Apply(nil, "n1", health.TierOffline, t0.Add(time.Minute), "test"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// The same snapshot must be re-appliable: in-memory lastTS did not move.
	transition, err := tr.Apply(nil, "n1", health.TierOffline, t0.Add(time.Minute), "test")
	if err != nil {
		t.Fatalf("re-apply after rollback: %v", err)
	}
	if !transition.Changed {
		t.Fatalf("re-applied transition lost its change flag")
	}
}
