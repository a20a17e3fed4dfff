package health

import (
	"math"
	"time"

	"github.com/eero-drew/eero-business-dashboard/internal/config"
)

// NodeStatus is one eero node's contribution to a snapshot. A node that did
// not report at all is represented as Online=false with Signal 0.
type NodeStatus struct {
	ID       string  `json:"id"`
	Online   bool    `json:"online"`
	Signal   float64 `json:"signal"` // normalized 0-100
	Firmware string  `json:"firmware"`
}

// Snapshot is the per-network reading consumed each polling cycle. It is
// immutable once produced; all derived state is attributed to Timestamp.
type Snapshot struct {
	NetworkID             string
	Nodes                 []NodeStatus
	TotalDevices          int
	WirelessDevices       int
	WiredDevices          int
	BandwidthUsageMbps    float64
	BandwidthCapacityMbps float64
	Timestamp             time.Time
}

// Result is the outcome of scoring one snapshot.
type Result struct {
	Score int
	Tier  Tier

	// Factor breakdown for dashboard gauges.
	OnlineRatio float64
	AvgSignal   float64
	Utilization float64

	// FirmwareMixed flags nodes reporting more than one distinct firmware
	// version. Advisory only; it never affects Score.
	FirmwareMixed    bool
	FirmwareVersions []string
}

// Score computes the composite health score for a snapshot.
//
// The score is a weighted blend of the node-online ratio and the mean node
// signal, minus a flat penalty when bandwidth utilization exceeds the
// configured threshold, clamped to [0,100]. A network with zero online nodes
// is forced to the offline tier regardless of the numeric score.
//
// Score is total: it never fails, and missing or partial node data degrades
// to the worst case (a silent node counts as offline with zero signal).
func Score(snap Snapshot, cfg config.ScoringConfig) Result {
	online := 0
	signalSum := 0.0
	for _, n := range snap.Nodes {
		if n.Online {
			online++
		}
		signalSum += clamp(n.Signal, 0, 100)
	}

	onlineRatio := 0.0
	avgSignal := 0.0
	if len(snap.Nodes) > 0 {
		onlineRatio = float64(online) / float64(len(snap.Nodes))
		avgSignal = signalSum / float64(len(snap.Nodes))
	}

	utilization := Utilization(snap.BandwidthUsageMbps, snap.BandwidthCapacityMbps)

	score := cfg.NodeWeight*onlineRatio*100 + cfg.SignalWeight*avgSignal
	if utilization > cfg.BandwidthPenaltyThreshold {
		score -= cfg.BandwidthPenalty
	}
	rounded := int(math.Round(clamp(score, 0, 100)))

	tier := tierForScore(rounded, cfg)
	if online == 0 {
		// Hard rule: a full outage is offline no matter what the blend says.
		tier = TierOffline
	}

	mixed, versions := firmwareConsistency(snap.Nodes)

	return Result{
		Score:            rounded,
		Tier:             tier,
		OnlineRatio:      onlineRatio,
		AvgSignal:        avgSignal,
		Utilization:      utilization,
		FirmwareMixed:    mixed,
		FirmwareVersions: versions,
	}
}

func tierForScore(score int, cfg config.ScoringConfig) Tier {
	switch {
	case score >= cfg.HealthyCutoff:
		return TierHealthy
	case score >= cfg.DegradedCutoff:
		return TierDegraded
	default:
		return TierOffline
	}
}

// Utilization returns bandwidth utilization as a percentage clamped to
// [0,100]. Zero or negative capacity yields 0, not an error.
func Utilization(usageMbps, capacityMbps float64) float64 {
	if capacityMbps <= 0 {
		return 0
	}
	return clamp(usageMbps/capacityMbps*100, 0, 100)
}

// firmwareConsistency reports whether the nodes run more than one distinct
// firmware version. Nodes with an empty firmware string are skipped.
func firmwareConsistency(nodes []NodeStatus) (mixed bool, versions []string) {
	seen := map[string]struct{}{}
	for _, n := range nodes {
		if n.Firmware == "" {
			continue
		}
		if _, ok := seen[n.Firmware]; ok {
			continue
		}
		seen[n.Firmware] = struct{}{}
		versions = append(versions, n.Firmware)
	}
	return len(versions) > 1, versions
}

// SignalScoreFromDBm maps a raw eero signal reading in dBm onto the 0-100
// scale used by the scorer: -90 dBm -> 0, -30 dBm -> 100.
func SignalScoreFromDBm(dbm float64) float64 {
	return clamp((dbm+90)/60*100, 0, 100)
}

// SignalQuality returns the human label shown next to a dBm reading.
func SignalQuality(dbm float64) string {
	switch {
	case dbm >= -50:
		return "Excellent"
	case dbm >= -60:
		return "Very Good"
	case dbm >= -70:
		return "Good"
	case dbm >= -80:
		return "Fair"
	default:
		return "Poor"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
