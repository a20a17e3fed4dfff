package insights

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eero-drew/eero-business-dashboard/internal/config"
	"github.com/eero-drew/eero-business-dashboard/internal/repository"
)

// Aggregator answers dashboard and report queries from persisted history.
// It only ever reads; invalid or empty windows yield zero-filled results
// rather than errors so a dashboard can always render.
type Aggregator struct {
	Repo   repository.Repository
	Config config.ScorecardConfig
	Logger *zap.Logger
}

// Heatmap averages device counts into 7x24 weekday/hour buckets over
// [start, end), optionally restricted to the given network ids.
func (a *Aggregator) Heatmap(ctx context.Context, networkIDs []string, start, end time.Time) (Heatmap, error) {
	if a == nil || a.Repo == nil || !end.After(start) {
		return Heatmap{}, nil
	}
	metrics, err := a.Repo.ListMetricsForNetworks(ctx, networkIDs, start, end)
	if err != nil {
		return Heatmap{}, err
	}
	return buildHeatmap(metrics), nil
}

// UptimeTimeline returns the gap-free tier cover of [start, end) for one
// network.
func (a *Aggregator) UptimeTimeline(ctx context.Context, networkID string, start, end time.Time) ([]Segment, error) {
	if a == nil || a.Repo == nil || !end.After(start) {
		return nil, nil
	}
	incidents, err := a.Repo.ListIncidentsOverlapping(ctx, networkID, start, end)
	if err != nil {
		return nil, err
	}
	return buildTimeline(incidents, start, end), nil
}

// Scorecards grades every network over the trailing configured window
// ending at now.
func (a *Aggregator) Scorecards(ctx context.Context, now time.Time) ([]Scorecard, error) {
	if a == nil || a.Repo == nil {
		return nil, nil
	}
	networks, err := a.Repo.ListNetworks(ctx)
	if err != nil {
		return nil, err
	}
	start := now.AddDate(0, 0, -a.Config.WindowDays)

	cards := make([]Scorecard, 0, len(networks))
	for _, n := range networks {
		metrics, err := a.Repo.ListMetrics(ctx, n.ID, start, now)
		if err != nil {
			return nil, err
		}
		incidents, err := a.Repo.ListIncidentsOverlapping(ctx, n.ID, start, now)
		if err != nil {
			return nil, err
		}
		alertCount, err := a.Repo.CountAlertsRaisedSince(ctx, n.ID, start)
		if err != nil {
			return nil, err
		}
		cards = append(cards, buildScorecard(n.ID, n.Name, metrics, incidents, alertCount, start, now, a.Config))
	}
	return cards, nil
}

// AlertTrend returns daily alert-raised counts for the trailing `days` days,
// oldest first, zero-filled.
func (a *Aggregator) AlertTrend(ctx context.Context, now time.Time, days int) (dates []string, counts []int, err error) {
	if a == nil || a.Repo == nil || days <= 0 {
		return nil, nil, nil
	}
	since := now.AddDate(0, 0, -days)
	alerts, err := a.Repo.ListAlerts(ctx, repository.ListAlertsParams{
		Since: &since,
		Limit: 1000,
	})
	if err != nil {
		return nil, nil, err
	}
	dates, counts = buildTrend(alerts, now, days)
	return dates, counts, nil
}
