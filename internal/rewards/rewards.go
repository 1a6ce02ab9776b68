// Package rewards maps a creator's cumulative raised amount to reward tiers.
package rewards

import "github.com/shopspring/decimal"

type TierName string

const (
	Bronze   TierName = "Bronze"
	Silver   TierName = "Silver"
	Gold     TierName = "Gold"
	Platinum TierName = "Platinum"
)

type Tier struct {
	Name      TierName
	Threshold int64
}

// Tiers are ordered by ascending threshold.
var tiers = []Tier{
	{Bronze, 5_000},
	{Silver, 15_000},
	{Gold, 30_000},
	{Platinum, 50_000},
}

func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// UnlockedTiers returns every tier whose threshold is at most total, in
// ascending order.
func UnlockedTiers(total int64) []TierName {
	unlocked := []TierName{}
	for _, t := range tiers {
		if total >= t.Threshold {
			unlocked = append(unlocked, t.Name)
		}
	}
	return unlocked
}

type TierProgress struct {
	Tier
	Unlocked  bool
	Remaining int64
	// Progress is the percentage of the threshold reached, capped at 100
	// and truncated to two decimal places.
	Progress decimal.Decimal
}

type Summary struct {
	Total    int64
	Unlocked []TierName
	Tiers    []TierProgress
	// Next is the lowest tier not yet unlocked, nil once all are.
	Next *TierProgress
}

var hundred = decimal.NewFromInt(100)

func Evaluate(total int64) Summary {
	s := Summary{
		Total:    total,
		Unlocked: UnlockedTiers(total),
		Tiers:    make([]TierProgress, 0, len(tiers)),
	}

	for _, t := range tiers {
		p := TierProgress{Tier: t, Unlocked: total >= t.Threshold}
		if p.Unlocked {
			p.Progress = hundred
		} else {
			p.Remaining = t.Threshold - total
			if total > 0 {
				p.Progress = decimal.NewFromInt(total).
					Mul(hundred).
					DivRound(decimal.NewFromInt(t.Threshold), 4).
					Truncate(2)
			}
		}
		s.Tiers = append(s.Tiers, p)
	}

	for i := range s.Tiers {
		if !s.Tiers[i].Unlocked {
			s.Next = &s.Tiers[i]
			break
		}
	}
	return s
}
