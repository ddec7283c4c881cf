package service

import (
	"fmt"
	"sort"

	"goatedbot/models"
)

// Above SyntheticLadderBase, a virtual milestone exists at every
// SyntheticLadderStep with a flat bonus, so high-volume months keep paying
// without new definition rows.
const (
	SyntheticLadderBase  int64   = 100_000
	SyntheticLadderStep  int64   = 50_000
	SyntheticLadderBonus float64 = 50.0
)

func syntheticDescription(amount int64) string {
	return fmt.Sprintf("$%.0f bonus for %s wagered this month", SyntheticLadderBonus, formatThousands(amount))
}

func formatThousands(amount int64) string {
	s := fmt.Sprintf("%d", amount)
	n := len(s)
	if n <= 3 {
		return s
	}
	out := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}

// crossedThresholds returns, in ascending order, every threshold covered by
// the monthly wager that is not already achieved: active static definitions
// first, then the synthetic 50k ladder above 100k up to the largest multiple
// the wager covers.
func crossedThresholds(defs []*models.MilestoneDefinition, achieved map[int64]bool, monthlyWager float64) []*models.MilestoneDefinition {
	var crossed []*models.MilestoneDefinition

	for _, def := range defs {
		if !def.IsActive {
			continue
		}
		if monthlyWager >= float64(def.Amount) && !achieved[def.Amount] {
			crossed = append(crossed, def)
		}
	}

	if monthlyWager >= float64(SyntheticLadderBase) {
		rungs := int64(monthlyWager-float64(SyntheticLadderBase)) / SyntheticLadderStep
		for k := int64(1); k <= rungs; k++ {
			amount := SyntheticLadderBase + k*SyntheticLadderStep
			if achieved[amount] {
				continue
			}
			crossed = append(crossed, &models.MilestoneDefinition{
				Amount:      amount,
				BonusAmount: SyntheticLadderBonus,
				Description: syntheticDescription(amount),
				IsActive:    true,
			})
		}
	}

	sort.Slice(crossed, func(i, j int) bool { return crossed[i].Amount < crossed[j].Amount })
	return crossed
}

// nextThreshold returns the smallest unachieved threshold strictly above the
// monthly wager, drawn from the static definitions and, once the wager is at
// or past the ladder base, the synthetic ladder. Nil when the static set is
// exhausted and the ladder does not apply yet.
func nextThreshold(defs []*models.MilestoneDefinition, achieved map[int64]bool, monthlyWager float64) *models.NextMilestone {
	var static *models.MilestoneDefinition
	for _, def := range defs {
		if !def.IsActive || achieved[def.Amount] {
			continue
		}
		if float64(def.Amount) > monthlyWager {
			static = def
			break
		}
	}

	if monthlyWager >= float64(SyntheticLadderBase) {
		next := (int64(monthlyWager)/SyntheticLadderStep + 1) * SyntheticLadderStep
		if !achieved[next] && (static == nil || next < static.Amount) {
			return &models.NextMilestone{
				Amount:      next,
				BonusAmount: SyntheticLadderBonus,
				Description: syntheticDescription(next),
				Remaining:   float64(next) - monthlyWager,
				Progress:    monthlyWager / float64(next),
			}
		}
	}

	if static == nil {
		return nil
	}
	return &models.NextMilestone{
		Amount:      static.Amount,
		BonusAmount: static.BonusAmount,
		Description: static.Description,
		Remaining:   float64(static.Amount) - monthlyWager,
		Progress:    monthlyWager / float64(static.Amount),
	}
}
