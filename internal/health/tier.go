package health

// Tier is the discrete health classification of a network.
type Tier string

const (
	TierHealthy  Tier = "healthy"
	TierDegraded Tier = "degraded"
	TierOffline  Tier = "offline"
)

// Severity returns an ordering for tiers: higher is worse.
func (t Tier) Severity() int {
	switch t {
	case TierOffline:
		return 2
	case TierDegraded:
		return 1
	default:
		return 0
	}
}

// Worse returns the more severe of two tiers.
func Worse(a, b Tier) Tier {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}
