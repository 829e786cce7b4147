package game

// Tier buckets a running total by how close it is to the elimination
// threshold.
type Tier int

const (
	Safe    Tier = iota // below 50% of the threshold
	Caution             // below 80%
	Danger              // 80% or more
	Out                 // at or over the threshold
)

// String returns the string representation of a tier
func (t Tier) String() string {
	switch t {
	case Safe:
		return "safe"
	case Caution:
		return "caution"
	case Danger:
		return "danger"
	case Out:
		return "out"
	default:
		return "unknown"
	}
}

// Color is the progress colour for the tier.
func (t Tier) Color() string {
	switch t {
	case Safe:
		return "#2ecc40"
	case Caution:
		return "#f1c40f"
	default:
		return "#e74c3c"
	}
}

// Class is the severity class name presentation layers style totals with.
func (t Tier) Class() string {
	switch t {
	case Safe:
		return "count-green"
	case Caution:
		return "count-yellow"
	case Danger:
		return "count-red"
	default:
		return "count-max"
	}
}

// TierFor classifies total against threshold.
func TierFor(total, threshold int) Tier {
	switch {
	case total >= threshold:
		return Out
	case total*10 < threshold*5:
		return Safe
	case total*10 < threshold*8:
		return Caution
	default:
		return Danger
	}
}

// Progress is total as a fraction of threshold, clamped to [0, 1].
func Progress(total, threshold int) float64 {
	if threshold <= 0 || total >= threshold {
		return 1
	}
	if total <= 0 {
		return 0
	}
	return float64(total) / float64(threshold)
}
