package models

import "time"

// SavedPaymentMethod is a card or bank account a user stored with the
// processor for later deposits. Removal only deactivates the row.
type SavedPaymentMethod struct {
	Base
	UserID            string        `gorm:"type:uuid;not null;index:idx_payment_methods_user_active,priority:1" json:"user_id"`
	Type              PaymentMethod `gorm:"size:20;not null" json:"type"`
	Provider          string        `gorm:"size:30;not null" json:"provider"`
	AuthorizationCode string        `gorm:"size:100" json:"-"`
	Signature         string        `gorm:"size:100" json:"-"`
	CardBrand         string        `gorm:"size:30" json:"card_brand,omitempty"`
	CardLast4         string        `gorm:"size:4" json:"card_last4,omitempty"`
	CardExpMonth      string        `gorm:"size:2" json:"card_exp_month,omitempty"`
	CardExpYear       string        `gorm:"size:4" json:"card_exp_year,omitempty"`
	CardBin           string        `gorm:"size:6" json:"-"`
	CardBank          string        `gorm:"size:100" json:"card_bank,omitempty"`
	CardCountry       string        `gorm:"size:50" json:"-"`
	BankName          string        `gorm:"size:100" json:"bank_name,omitempty"`
	AccountNumber     string        `gorm:"size:20" json:"account_number,omitempty"`
	IsPrimary         bool          `gorm:"not null;default:false" json:"is_primary"`
	IsActive          bool          `gorm:"not null;default:true;index:idx_payment_methods_user_active,priority:2" json:"is_active"`
	LastUsedAt        *time.Time    `json:"last_used_at,omitempty"`
}

// TableName keeps the table named after the resource.
func (SavedPaymentMethod) TableName() string {
	return "payment_methods"
}
