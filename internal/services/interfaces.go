package services

import (
	"context"
	"time"

	"chowvest/internal/ledger"
	"chowvest/internal/models"
	"chowvest/internal/money"
	"chowvest/internal/pagination"
)

// WalletOverview is a wallet with its latest activity.
type WalletOverview struct {
	Wallet             *models.Wallet       `json:"wallet"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
}

// WalletServicer defines the contract for wallet reads.
type WalletServicer interface {
	GetWallet(ctx context.Context, userID string) (*WalletOverview, error)
	GetWalletTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter ledger.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	GetTransactionByReference(ctx context.Context, userID, reference string) (*models.Transaction, error)
}

// CreateBasketInput carries the fields of a new savings goal.
type CreateBasketInput struct {
	Name              string
	Description       string
	Category          string
	GoalAmount        money.Money
	TargetDate        *time.Time
	AutoSaveEnabled   bool
	AutoSaveAmount    *money.Money
	AutoSaveFrequency *models.AutoSaveFrequency
}

// BasketList is one page of baskets plus the wallet balance they draw from.
type BasketList struct {
	pagination.PageResponse[models.Basket]
	WalletBalance money.Money `json:"wallet_balance"`
}

// BasketServicer defines the contract for basket management.
type BasketServicer interface {
	CreateBasket(ctx context.Context, userID string, in CreateBasketInput) (*models.Basket, error)
	GetUserBaskets(ctx context.Context, userID string, page pagination.PageRequest, filter ledger.BasketFilter) (*BasketList, error)
	GetBasketByID(ctx context.Context, userID, basketID string) (*models.Basket, error)
	SetBasketStatus(ctx context.Context, userID, basketID string, status models.BasketStatus) (*models.Basket, error)
	CancelBasket(ctx context.Context, userID, basketID string) (*models.Basket, error)
	RequestDelivery(ctx context.Context, userID, basketID string) (*models.Basket, error)
}

// TransferResult is the committed outcome of a wallet to basket transfer.
type TransferResult struct {
	Wallet        *models.Wallet      `json:"wallet"`
	Basket        *models.Basket      `json:"basket"`
	Transaction   *models.Transaction `json:"transaction"`
	GoalCompleted bool                `json:"goal_completed"`
	Milestones    []int               `json:"milestones"`
}

// TransferServicer moves money from a wallet into a basket.
type TransferServicer interface {
	TransferToBasket(ctx context.Context, userID, basketID string, amount money.Money) (*TransferResult, error)
}

// InitiateDepositInput describes a deposit the user wants to make.
type InitiateDepositInput struct {
	UserID string
	Email  string
	Amount money.Money
	Method models.PaymentMethod
}

// DepositInitiation tells the client where to complete payment.
type DepositInitiation struct {
	AuthorizationURL string              `json:"authorization_url"`
	Reference        string              `json:"reference"`
	Transaction      *models.Transaction `json:"transaction"`
}

// DepositConfirmation is the state of a deposit after verification.
type DepositConfirmation struct {
	Transaction      *models.Transaction `json:"transaction"`
	Wallet           *models.Wallet      `json:"wallet"`
	AlreadyProcessed bool                `json:"already_processed"`
}

// DepositServicer brings external money into wallets.
type DepositServicer interface {
	InitiateDeposit(ctx context.Context, in InitiateDepositInput) (*DepositInitiation, error)
	ConfirmDeposit(ctx context.Context, reference string) (*DepositConfirmation, error)
}

// AuditEntry is one sensitive operation to record.
type AuditEntry struct {
	ActorID      string
	Action       string
	Category     models.AuditCategory
	Severity     models.AuditSeverity
	Description  string
	ResourceType string
	ResourceID   string
	Metadata     map[string]any
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Record(ctx context.Context, entry AuditEntry)
}

// NotificationInput is an in-app message to store for a user.
type NotificationInput struct {
	UserID   string
	Type     models.NotificationType
	Title    string
	Message  string
	Link     string
	Metadata map[string]any
}

// NotificationList is one page of notifications plus the unread total.
type NotificationList struct {
	pagination.PageResponse[models.Notification]
	UnreadCount int64 `json:"unread_count"`
}

// NotificationServicer defines the contract for in-app notifications.
type NotificationServicer interface {
	Notify(ctx context.Context, in NotificationInput) error
	GetUserNotifications(ctx context.Context, userID string, page pagination.PageRequest, unreadOnly bool) (*NotificationList, error)
	MarkAsRead(ctx context.Context, userID string, ids []string, all bool) (int64, error)
}

// AddPaymentMethodInput is a processor authorization the user wants to keep.
type AddPaymentMethodInput struct {
	Type              models.PaymentMethod
	Provider          string
	AuthorizationCode string
	Signature         string
	CardBrand         string
	CardLast4         string
	CardExpMonth      string
	CardExpYear       string
	CardBin           string
	CardBank          string
	CardCountry       string
	BankName          string
	AccountNumber     string
	IsPrimary         bool
}

// PaymentMethodServicer manages a user's saved payment methods.
type PaymentMethodServicer interface {
	ListPaymentMethods(ctx context.Context, userID string) ([]models.SavedPaymentMethod, error)
	AddPaymentMethod(ctx context.Context, userID string, in AddPaymentMethodInput) (*models.SavedPaymentMethod, error)
	RemovePaymentMethod(ctx context.Context, userID, methodID string) error
}
