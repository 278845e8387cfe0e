package services

// Tier is a named loyalty status derived deterministically from lifetime
// earned points. Ranks are ordered so callers can compare tiers directly.
type Tier int

const (
	TierBronze Tier = iota
	TierSilver
	TierGold
	TierPlatinum
)

func (t Tier) String() string {
	switch t {
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	case TierPlatinum:
		return "platinum"
	default:
		return "bronze"
	}
}

// Ascending thresholds. Everyone starts at bronze.
const (
	silverThreshold   = 1000
	goldThreshold     = 5000
	platinumThreshold = 15000
)

// TierFor maps a point total to its tier. Pure and stable: historical
// reporting replays it on old totals and must get the same answers.
func TierFor(points int64) Tier {
	switch {
	case points >= platinumThreshold:
		return TierPlatinum
	case points >= goldThreshold:
		return TierGold
	case points >= silverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// NextThreshold returns the point total needed for the next tier, or 0 when
// the user has reached platinum.
func NextThreshold(points int64) int64 {
	switch {
	case points < silverThreshold:
		return silverThreshold
	case points < goldThreshold:
		return goldThreshold
	case points < platinumThreshold:
		return platinumThreshold
	default:
		return 0
	}
}
