package insights

import (
	"math"
	"time"

	"github.com/eero-drew/eero-business-dashboard/internal/config"
	"github.com/eero-drew/eero-business-dashboard/internal/health"
	"github.com/eero-drew/eero-business-dashboard/internal/models"
)

// HeatmapCell is one weekday x hour bucket. Samples distinguishes a bucket
// that truly averaged zero from one that had no data at all.
type HeatmapCell struct {
	Avg     float64 `json:"avg"`
	Samples int     `json:"samples"`
}

// Heatmap holds 7x24 buckets of average device count. Day 0 is Monday,
// matching how store-traffic weeks are read.
type Heatmap struct {
	Cells    [7][24]HeatmapCell `json:"cells"`
	MaxValue float64            `json:"max_value"`
}

// Segment is one contiguous span of a single tier within a window.
type Segment struct {
	Start time.Time   `json:"start"`
	End   time.Time   `json:"end"`
	Tier  health.Tier `json:"tier"`
}

// Scorecard is the windowed weighted grade for one network.
type Scorecard struct {
	NetworkID string  `json:"network_id"`
	Name      string  `json:"name"`
	Grade     string  `json:"grade"`
	Score     float64 `json:"score"`

	UptimeScore    float64 `json:"uptime_score"`
	SignalScore    float64 `json:"signal_score"`
	IncidentScore  float64 `json:"incident_score"`
	BandwidthScore float64 `json:"bandwidth_score"`

	Samples int `json:"samples"`
}

// GradeNA is returned when a window holds too few samples to grade fairly.
const GradeNA = "N/A"

// buildHeatmap averages device counts into weekday x hour buckets. Metrics
// without a device count are skipped.
func buildHeatmap(metrics []models.Metric) Heatmap {
	var sums [7][24]float64
	var counts [7][24]int

	for _, m := range metrics {
		if m.TotalDevices == nil {
			continue
		}
		day := mondayWeekday(m.Timestamp)
		hour := m.Timestamp.Hour()
		sums[day][hour] += float64(*m.TotalDevices)
		counts[day][hour]++
	}

	var hm Heatmap
	for day := 0; day < 7; day++ {
		for hour := 0; hour < 24; hour++ {
			if counts[day][hour] == 0 {
				continue
			}
			avg := math.Round(sums[day][hour]/float64(counts[day][hour])*10) / 10
			hm.Cells[day][hour] = HeatmapCell{Avg: avg, Samples: counts[day][hour]}
			if avg > hm.MaxValue {
				hm.MaxValue = avg
			}
		}
	}
	return hm
}

// mondayWeekday maps time.Weekday (Sunday=0) onto Monday=0..Sunday=6.
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// buildTimeline converts a network's incidents into an ordered, gap-free,
// non-overlapping cover of [start, end): incident spans carry the incident's
// worst tier, everything else is healthy. Incidents are clamped to the
// window; a still-open incident extends to the window end.
func buildTimeline(incidents []models.UptimeIncident, start, end time.Time) []Segment {
	if !end.After(start) {
		return nil
	}

	type span struct {
		start, end time.Time
		tier       health.Tier
	}
	var spans []span
	for _, inc := range incidents {
		s := inc.OpenedAt
		e := end
		if inc.ClosedAt != nil {
			e = *inc.ClosedAt
		}
		if s.Before(start) {
			s = start
		}
		if e.After(end) {
			e = end
		}
		if !s.Before(e) {
			continue
		}
		spans = append(spans, span{start: s, end: e, tier: health.Tier(inc.WorstTier)})
	}

	// Incidents never overlap by invariant, but merge defensively so the
	// output cover stays well-formed even over damaged history.
	merged := spans[:0]
	for _, sp := range spans {
		if n := len(merged); n > 0 && !sp.start.After(merged[n-1].end) {
			if sp.end.After(merged[n-1].end) {
				merged[n-1].end = sp.end
			}
			merged[n-1].tier = health.Worse(merged[n-1].tier, sp.tier)
			continue
		}
		merged = append(merged, sp)
	}

	var segments []Segment
	cursor := start
	for _, sp := range merged {
		if cursor.Before(sp.start) {
			segments = append(segments, Segment{Start: cursor, End: sp.start, Tier: health.TierHealthy})
		}
		segments = append(segments, Segment{Start: sp.start, End: sp.end, Tier: sp.tier})
		cursor = sp.end
	}
	if cursor.Before(end) {
		segments = append(segments, Segment{Start: cursor, End: end, Tier: health.TierHealthy})
	}
	return segments
}

// uptimeRatio returns the fraction of [start, end) not covered by incidents,
// as a 0-100 score.
func uptimeRatio(incidents []models.UptimeIncident, start, end time.Time) float64 {
	total := end.Sub(start).Seconds()
	if total <= 0 {
		return 100
	}
	down := 0.0
	for _, seg := range buildTimeline(incidents, start, end) {
		if seg.Tier != health.TierHealthy {
			down += seg.End.Sub(seg.Start).Seconds()
		}
	}
	return clampScore((total - down) / total * 100)
}

// buildScorecard computes the weighted window grade for one network.
func buildScorecard(
	networkID, name string,
	metrics []models.Metric,
	incidents []models.UptimeIncident,
	alertCount int64,
	start, end time.Time,
	cfg config.ScorecardConfig,
) Scorecard {
	card := Scorecard{NetworkID: networkID, Name: name, Samples: len(metrics)}

	if len(metrics) < cfg.MinSamples {
		card.Grade = GradeNA
		return card
	}

	card.UptimeScore = uptimeRatio(incidents, start, end)

	signalSum, signalN := 0.0, 0
	bwSum, bwN := 0.0, 0
	for _, m := range metrics {
		signalSum += m.AvgSignal
		signalN++
		bwSum += m.BandwidthUtilization
		bwN++
	}
	card.SignalScore = clampScore(signalSum / float64(signalN))
	card.BandwidthScore = clampScore(100 - bwSum/float64(bwN))
	card.IncidentScore = clampScore(100 - float64(alertCount)*10)

	card.Score = math.Round((card.UptimeScore*cfg.UptimeWeight+
		card.SignalScore*cfg.SignalWeight+
		card.IncidentScore*cfg.IncidentWeight+
		card.BandwidthScore*cfg.BandwidthWeight)*10) / 10
	card.Grade = letterGrade(card.Score, cfg)
	return card
}

func letterGrade(score float64, cfg config.ScorecardConfig) string {
	switch {
	case score >= cfg.GradeACutoff:
		return "A"
	case score >= cfg.GradeBCutoff:
		return "B"
	case score >= cfg.GradeCCutoff:
		return "C"
	case score >= cfg.GradeDCutoff:
		return "D"
	default:
		return "F"
	}
}

// buildTrend counts alerts raised per day over the trailing `days` days
// ending at `now`, oldest first, zero-filled.
func buildTrend(alerts []models.Alert, now time.Time, days int) (dates []string, counts []int) {
	if days <= 0 {
		return nil, nil
	}
	dates = make([]string, 0, days)
	counts = make([]int, days)
	index := map[string]int{}
	for i := days; i > 0; i-- {
		d := now.AddDate(0, 0, -i).Format("2006-01-02")
		index[d] = len(dates)
		dates = append(dates, d)
	}
	for _, a := range alerts {
		d := a.RaisedAt.Format("2006-01-02")
		if i, ok := index[d]; ok {
			counts[i]++
		}
	}
	return dates, counts
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
