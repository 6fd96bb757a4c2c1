package models

import "chowvest/internal/money"

// Wallet is a user's internal cash balance and the only source of basket
// funding. There is at most one wallet per user.
type Wallet struct {
	Base
	UserID          string      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Balance         money.Money `gorm:"type:decimal(20,2);not null" json:"balance"`
	TotalDeposits   money.Money `gorm:"type:decimal(20,2);not null" json:"total_deposits"`
	TotalSpent      money.Money `gorm:"type:decimal(20,2);not null" json:"total_spent"`
	PendingDeposits money.Money `gorm:"type:decimal(20,2);not null" json:"pending_deposits"`
	Currency        string      `gorm:"size:3;not null" json:"currency"`
}

// NewWallet returns an empty NGN wallet for userID.
func NewWallet(userID string) *Wallet {
	return &Wallet{
		UserID:          userID,
		Balance:         money.Zero,
		TotalDeposits:   money.Zero,
		TotalSpent:      money.Zero,
		PendingDeposits: money.Zero,
		Currency:        "NGN",
	}
}
