package domain

// BonusRange is an inclusive range of bonus percentages.
type BonusRange struct {
	Min int
	Max int
}

var (
	perfectBonus = BonusRange{Min: 10, Max: 90}
	goodBonus    = BonusRange{Min: 5, Max: 25}
)

// RewardTier picks the bonus range earned by correct answers out of total.
// A perfect run earns 10-90%, two thirds or better earns 5-25%, anything less
// earns nothing and the entry fee is kept.
func RewardTier(correct, total int) (BonusRange, bool) {
	switch {
	case total <= 0:
		return BonusRange{}, false
	case correct >= total:
		return perfectBonus, true
	case correct*3 >= total*2:
		return goodBonus, true
	}
	return BonusRange{}, false
}

// ComputeReward returns the total payout (fee back plus bonus) and the bonus.
// intn must return a value in [0, n).
func ComputeReward(paid int64, correct, total int, intn func(n int) int) (payout, bonus int64) {
	tier, ok := RewardTier(correct, total)
	if !ok || paid <= 0 {
		return 0, 0
	}
	pct := tier.Min + intn(tier.Max-tier.Min+1)
	bonus = paid * int64(pct) / 100
	return paid + bonus, bonus
}
