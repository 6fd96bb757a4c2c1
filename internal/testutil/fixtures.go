package testutil

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"chowvest/internal/models"
	"chowvest/internal/money"
	"chowvest/internal/uuid"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewUserID returns a fresh user identifier. Users live in the identity
// provider, so there is no user row to create.
func NewUserID() string {
	return uuid.New()
}

// CreateTestWallet creates a wallet for userID holding balance.
func CreateTestWallet(t *testing.T, db *gorm.DB, userID, balance string) *models.Wallet {
	t.Helper()

	wallet := models.NewWallet(userID)
	wallet.Balance = money.MustParse(balance)
	wallet.TotalDeposits = wallet.Balance
	if err := db.Create(wallet).Error; err != nil {
		t.Fatalf("failed to create test wallet: %v", err)
	}
	return wallet
}

// CreateTestBasket creates an ACTIVE basket with the given goal and saved amount.
func CreateTestBasket(t *testing.T, db *gorm.DB, userID, goal, current string) *models.Basket {
	t.Helper()
	return CreateTestBasketWithStatus(t, db, userID, goal, current, models.BasketStatusActive)
}

// CreateTestBasketWithStatus creates a basket in an arbitrary state.
func CreateTestBasketWithStatus(t *testing.T, db *gorm.DB, userID, goal, current string, status models.BasketStatus) *models.Basket {
	t.Helper()

	basket := &models.Basket{
		UserID:        userID,
		Name:          fmt.Sprintf("Basket %d", nextID()),
		Category:      "Grains",
		GoalAmount:    money.MustParse(goal),
		CurrentAmount: money.MustParse(current),
		Status:        status,
	}
	if status == models.BasketStatusCompleted {
		now := time.Now()
		basket.CompletedAt = &now
		basket.HighestMilestone = 100
	}
	if err := db.Create(basket).Error; err != nil {
		t.Fatalf("failed to create test basket: %v", err)
	}
	return basket
}

// CreateTestPendingDeposit creates a PENDING deposit with reference ref.
func CreateTestPendingDeposit(t *testing.T, db *gorm.DB, wallet *models.Wallet, amount, ref string) *models.Transaction {
	t.Helper()

	method := models.PaymentMethodCard
	txn := &models.Transaction{
		UserID:            wallet.UserID,
		WalletID:          wallet.ID,
		Type:              models.TransactionTypeDeposit,
		Amount:            money.MustParse(amount),
		Fee:               money.Zero,
		NetAmount:         money.MustParse(amount),
		Status:            models.TransactionStatusPending,
		BalanceBefore:     wallet.Balance,
		BalanceAfter:      wallet.Balance,
		Description:       "Wallet deposit via card",
		ExternalReference: &ref,
		PaymentMethod:     &method,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test deposit: %v", err)
	}
	return txn
}

// CreateTestNotification creates an unread notification for userID.
func CreateTestNotification(t *testing.T, db *gorm.DB, userID string, notifType models.NotificationType) *models.Notification {
	t.Helper()

	meta, _ := json.Marshal(map[string]any{"seq": nextID()})
	n := &models.Notification{
		UserID:   userID,
		Type:     notifType,
		Title:    "Test notification",
		Message:  "Something happened",
		Metadata: string(meta),
	}
	if err := db.Create(n).Error; err != nil {
		t.Fatalf("failed to create test notification: %v", err)
	}
	return n
}

// CountRows returns the number of rows in model's table matching where.
func CountRows(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()

	var n int64
	q := db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}
