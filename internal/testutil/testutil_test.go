package testutil_test

import (
	"testing"

	"chowvest/internal/models"
	"chowvest/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)

	var count int64
	for _, table := range []string{"wallets", "baskets", "transactions", "audit_logs", "notifications"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	second := testutil.SetupTestDB(t)

	testutil.CreateTestWallet(t, first, testutil.NewUserID(), "100")

	if n := testutil.CountRows(t, second, &models.Wallet{}, ""); n != 0 {
		t.Errorf("expected a fresh database, found %d wallets", n)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	userID := testutil.NewUserID()

	wallet := testutil.CreateTestWallet(t, db, userID, "5000")
	if wallet.ID == "" {
		t.Fatal("wallet should have an ID")
	}

	var reloaded models.Wallet
	testutil.AssertNoError(t, db.First(&reloaded, "id = ?", wallet.ID).Error)
	testutil.AssertMoneyEqual(t, "balance", reloaded.Balance, "5000")

	basket := testutil.CreateTestBasket(t, db, userID, "10000", "8000")
	if basket.Status != models.BasketStatusActive {
		t.Errorf("expected ACTIVE basket, got %s", basket.Status)
	}

	done := testutil.CreateTestBasketWithStatus(t, db, userID, "100", "100", models.BasketStatusCompleted)
	if done.CompletedAt == nil {
		t.Error("completed basket should have completed_at")
	}

	txn := testutil.CreateTestPendingDeposit(t, db, wallet, "250.50", "CHW-TEST-1")
	if txn.Status != models.TransactionStatusPending {
		t.Errorf("expected PENDING, got %s", txn.Status)
	}

	n := testutil.CreateTestNotification(t, db, userID, models.NotificationTypeTransaction)
	if n.Read {
		t.Error("new notification should be unread")
	}
}
