package models

import (
	"time"

	"chowvest/internal/money"
)

// TransactionType represents the type of ledger entry
type TransactionType string

const (
	TransactionTypeDeposit            TransactionType = "DEPOSIT"
	TransactionTypeTransferToBasket   TransactionType = "TRANSFER_TO_BASKET"
	TransactionTypeTransferFromBasket TransactionType = "TRANSFER_FROM_BASKET"
	TransactionTypeMarketPurchase     TransactionType = "MARKET_PURCHASE"
	TransactionTypeRefund             TransactionType = "REFUND"
)

// CreditsWallet reports whether entries of this type increase the wallet balance.
func (t TransactionType) CreditsWallet() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeTransferFromBasket, TransactionTypeRefund:
		return true
	}
	return false
}

// Valid reports whether t is a known type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeTransferToBasket, TransactionTypeTransferFromBasket,
		TransactionTypeMarketPurchase, TransactionTypeRefund:
		return true
	}
	return false
}

// TransactionStatus is the settlement state of a ledger entry.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	}
	return false
}

// PaymentMethod is how a deposit is funded at the gateway.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// Valid reports whether m is a supported method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCard || m == PaymentMethodBankTransfer
}

// Channels returns the gateway channels offered for m.
func (m PaymentMethod) Channels() []string {
	if m == PaymentMethodBankTransfer {
		return []string{"bank", "bank_transfer"}
	}
	return []string{"card"}
}

// Transaction is an entry in the wallet ledger. Completed entries are never
// mutated except for ProcessorResponse, and never deleted.
type Transaction struct {
	Base
	UserID            string            `gorm:"type:uuid;not null;index" json:"user_id"`
	WalletID          string            `gorm:"type:uuid;not null;index" json:"wallet_id"`
	BasketID          *string           `gorm:"type:uuid;index" json:"basket_id,omitempty"`
	Type              TransactionType   `gorm:"size:30;not null" json:"type"`
	Amount            money.Money       `gorm:"type:decimal(20,2);not null" json:"amount"`
	Fee               money.Money       `gorm:"type:decimal(20,2);not null" json:"fee"`
	NetAmount         money.Money       `gorm:"type:decimal(20,2);not null" json:"net_amount"`
	Status            TransactionStatus `gorm:"size:20;not null;index" json:"status"`
	BalanceBefore     money.Money       `gorm:"type:decimal(20,2);not null" json:"balance_before"`
	BalanceAfter      money.Money       `gorm:"type:decimal(20,2);not null" json:"balance_after"`
	Description       string            `gorm:"size:255" json:"description"`
	ExternalReference *string           `gorm:"size:100;uniqueIndex" json:"external_reference,omitempty"`
	PaymentMethod     *PaymentMethod    `gorm:"size:20" json:"payment_method,omitempty"`
	ProcessorResponse string            `gorm:"type:text" json:"-"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`

	Basket *Basket `gorm:"foreignKey:BasketID" json:"basket,omitempty"`
}

// Reference returns the external reference or "".
func (t *Transaction) Reference() string {
	if t.ExternalReference == nil {
		return ""
	}
	return *t.ExternalReference
}
