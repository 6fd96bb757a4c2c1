package models

import (
	"time"

	"chowvest/internal/money"

	"github.com/shopspring/decimal"
)

// BasketStatus is the lifecycle state of a savings basket.
type BasketStatus string

const (
	BasketStatusActive    BasketStatus = "ACTIVE"
	BasketStatusCompleted BasketStatus = "COMPLETED"
	BasketStatusPaused    BasketStatus = "PAUSED"
	BasketStatusCancelled BasketStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s BasketStatus) Valid() bool {
	switch s {
	case BasketStatusActive, BasketStatusCompleted, BasketStatusPaused, BasketStatusCancelled:
		return true
	}
	return false
}

// AutoSaveFrequency controls how often a recurring contribution is due.
type AutoSaveFrequency string

const (
	AutoSaveDaily   AutoSaveFrequency = "DAILY"
	AutoSaveWeekly  AutoSaveFrequency = "WEEKLY"
	AutoSaveMonthly AutoSaveFrequency = "MONTHLY"
)

func (f AutoSaveFrequency) Valid() bool {
	return f == AutoSaveDaily || f == AutoSaveWeekly || f == AutoSaveMonthly
}

// Next returns the first run after from.
func (f AutoSaveFrequency) Next(from time.Time) time.Time {
	switch f {
	case AutoSaveDaily:
		return from.AddDate(0, 0, 1)
	case AutoSaveWeekly:
		return from.AddDate(0, 0, 7)
	default:
		return from.AddDate(0, 1, 0)
	}
}

// Basket is a named savings goal funded from the owner's wallet.
type Basket struct {
	Base
	UserID        string       `gorm:"type:uuid;not null;index:idx_baskets_user_status,priority:1" json:"user_id"`
	Name          string       `gorm:"size:100;not null" json:"name"`
	Description   string       `gorm:"size:500" json:"description"`
	Category      string       `gorm:"size:50" json:"category"`
	GoalAmount    money.Money  `gorm:"type:decimal(20,2);not null" json:"goal_amount"`
	CurrentAmount money.Money  `gorm:"type:decimal(20,2);not null" json:"current_amount"`
	Status        BasketStatus `gorm:"size:20;not null;index:idx_baskets_user_status,priority:2" json:"status"`
	TargetDate    *time.Time   `json:"target_date,omitempty"`

	AutoSaveEnabled   bool               `gorm:"not null;default:false" json:"auto_save_enabled"`
	AutoSaveAmount    *money.Money       `gorm:"type:decimal(20,2)" json:"auto_save_amount,omitempty"`
	AutoSaveFrequency *AutoSaveFrequency `gorm:"size:10" json:"auto_save_frequency,omitempty"`
	NextAutoSaveAt    *time.Time         `json:"next_auto_save_at,omitempty"`

	// HighestMilestone is the largest progress threshold already announced.
	HighestMilestone int `gorm:"not null;default:0" json:"highest_milestone"`

	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	CancelledAt         *time.Time `json:"cancelled_at,omitempty"`
	DeliveryRequestedAt *time.Time `json:"delivery_requested_at,omitempty"`
}

// Progress returns current/goal as a percentage rounded to two places.
func (b *Basket) Progress() decimal.Decimal {
	if !b.GoalAmount.IsPositive() {
		return decimal.Zero
	}
	return b.CurrentAmount.Decimal().Mul(decimal.NewFromInt(100)).DivRound(b.GoalAmount.Decimal(), 2)
}

// Remaining returns how much is still needed to reach the goal, never negative.
func (b *Basket) Remaining() money.Money {
	return money.Max(b.GoalAmount.Sub(b.CurrentAmount), money.Zero)
}

// GoalReached reports whether the basket holds at least its goal.
func (b *Basket) GoalReached() bool {
	return b.CurrentAmount.GreaterThanOrEqual(b.GoalAmount)
}
