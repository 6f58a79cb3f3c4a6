package commission

// Rates are integer basis points of the remaining amount at each hop
// (1000 = 10%). Amounts are int64 minor units throughout, so a hop's
// commission is remaining*bp/10000 with the fraction truncated; subtracting
// it back from remaining keeps the conservation law exact.
const RateDivisor = 10000

const (
	highSellThroughPct = 65
	midSellThroughPct  = 45
)

// Rate maps (sell-through percentage, hop level) to a commission rate in
// basis points. Level 1 is the agent who made the sale; every level beyond 1
// uses the ancestor row. Pure and total: any finite non-negative percentage
// is accepted, including inconsistent values above 100.
func Rate(sellThroughPct float64, level int) int64 {
	switch {
	case sellThroughPct >= highSellThroughPct:
		if level == 1 {
			return 1000
		}
		return 500
	case sellThroughPct >= midSellThroughPct:
		if level == 1 {
			return 850
		}
		return 350
	default:
		if level == 1 {
			return 700
		}
		return 250
	}
}
