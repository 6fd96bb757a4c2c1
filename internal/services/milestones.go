package services

import (
	"chowvest/internal/money"

	"github.com/shopspring/decimal"
)

// MilestoneThresholds are the progress percentages announced once per basket.
var MilestoneThresholds = []int{25, 50, 75, 100}

const goalThreshold = 100

// CrossedMilestones returns, in ascending order, every threshold t above
// highest for which previous < t% of goal <= current. The comparison is done
// on current*100 against goal*t so no percentage is ever rounded.
func CrossedMilestones(previous, current, goal money.Money, highest int) []int {
	if !goal.IsPositive() {
		return nil
	}
	hundred := decimal.NewFromInt(100)
	before := previous.Decimal().Mul(hundred)
	after := current.Decimal().Mul(hundred)

	var crossed []int
	for _, t := range MilestoneThresholds {
		if t <= highest {
			continue
		}
		mark := goal.Decimal().Mul(decimal.NewFromInt(int64(t)))
		if before.LessThan(mark) && after.GreaterThanOrEqual(mark) {
			crossed = append(crossed, t)
		}
	}
	return crossed
}

// announcements splits crossed thresholds into the milestone notices to send
// and whether the goal was completed. Completing the goal replaces every
// lower milestone of the same transfer.
func announcements(crossed []int) (milestones []int, completed bool) {
	milestones = []int{}
	for _, t := range crossed {
		if t == goalThreshold {
			return []int{}, true
		}
		milestones = append(milestones, t)
	}
	return milestones, false
}
