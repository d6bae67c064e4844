package pipeline

// Tier names an extraction strategy.
type Tier string

const (
	TierTable Tier = "table"
	TierText  Tier = "text-pattern"
	TierAI    Tier = "ai"
	// TierNone is reported when no tier produced anything.
	TierNone Tier = "none"
)

// next returns the tier to escalate to, or TierNone after the last one.
func (t Tier) next() Tier {
	switch t {
	case TierTable:
		return TierText
	case TierText:
		return TierAI
	default:
		return TierNone
	}
}

// Stats summarizes a tier's output.
type Stats struct {
	Lines        int
	Tables       int
	Transactions int
}

// Sufficient reports whether a tier's output is good enough to stop escalating.
func Sufficient(tier Tier, s Stats, minTextLines int) bool {
	switch tier {
	case TierTable:
		return s.Tables >= 1 && s.Transactions >= 1
	case TierText:
		return s.Lines >= minTextLines && s.Transactions >= 1
	case TierAI:
		return s.Transactions >= 1
	default:
		return false
	}
}
