package services

import (
	"context"
	"testing"

	"chowvest/internal/ledger"
	"chowvest/internal/models"
	"chowvest/internal/money"
	"chowvest/internal/pagination"
	"chowvest/internal/testutil"
)

func TestGetWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("creates_wallet_on_first_access", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()

		overview, err := h.wallets.GetWallet(ctx, userID)
		testutil.AssertNoError(t, err)
		testutil.AssertMoneyEqual(t, "balance", overview.Wallet.Balance, "0")
		if overview.Wallet.Currency != "NGN" {
			t.Errorf("expected NGN, got %s", overview.Wallet.Currency)
		}
		if overview.RecentTransactions == nil || len(overview.RecentTransactions) != 0 {
			t.Errorf("expected empty recent transactions, got %v", overview.RecentTransactions)
		}

		again, err := h.wallets.GetWallet(ctx, userID)
		testutil.AssertNoError(t, err)
		if again.Wallet.ID != overview.Wallet.ID {
			t.Error("expected the same wallet on second access")
		}
	})

	t.Run("includes_recent_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		testutil.CreateTestWallet(t, db, userID, "1000")
		basket := testutil.CreateTestBasket(t, db, userID, "5000", "0")
		for i := 0; i < 3; i++ {
			_, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("100"))
			testutil.AssertNoError(t, err)
		}

		overview, err := h.wallets.GetWallet(ctx, userID)
		testutil.AssertNoError(t, err)
		if len(overview.RecentTransactions) != 3 {
			t.Fatalf("expected 3 recent transactions, got %d", len(overview.RecentTransactions))
		}
		if overview.RecentTransactions[0].Basket == nil || overview.RecentTransactions[0].Basket.ID != basket.ID {
			t.Error("expected basket to be preloaded")
		}
		testutil.AssertMoneyEqual(t, "balance", overview.Wallet.Balance, "700")
	})
}

func TestGetWalletTransactions(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	h := newHarness(db)
	userID := testutil.NewUserID()
	wallet := testutil.CreateTestWallet(t, db, userID, "1000")
	basket := testutil.CreateTestBasket(t, db, userID, "5000", "0")
	testutil.CreateTestPendingDeposit(t, db, wallet, "300", "REF-W1")
	for i := 0; i < 4; i++ {
		_, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("50"))
		testutil.AssertNoError(t, err)
	}

	t.Run("paginates", func(t *testing.T) {
		page, err := h.wallets.GetWalletTransactions(ctx, userID, pagination.PageRequest{Page: 2, PageSize: 2}, ledger.TransactionFilter{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 5 || page.TotalPages != 3 || len(page.Data) != 2 {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("filters_by_type_and_status", func(t *testing.T) {
		deposit := models.TransactionTypeDeposit
		pending := models.TransactionStatusPending
		page, err := h.wallets.GetWalletTransactions(ctx, userID, pagination.PageRequest{}, ledger.TransactionFilter{Type: &deposit, Status: &pending})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 || page.Data[0].Reference() != "REF-W1" {
			t.Errorf("expected the pending deposit, got %+v", page.Data)
		}
	})
}

func TestGetTransaction(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	h := newHarness(db)
	owner, other := testutil.NewUserID(), testutil.NewUserID()
	wallet := testutil.CreateTestWallet(t, db, owner, "0")
	txn := testutil.CreateTestPendingDeposit(t, db, wallet, "300", "REF-T1")

	t.Run("by_id", func(t *testing.T) {
		got, err := h.wallets.GetTransactionByID(ctx, owner, txn.ID)
		testutil.AssertNoError(t, err)
		if got.ID != txn.ID {
			t.Errorf("expected %s, got %s", txn.ID, got.ID)
		}
		_, err = h.wallets.GetTransactionByID(ctx, other, txn.ID)
		testutil.AssertAppError(t, err, "NOT_FOUND")
	})

	t.Run("by_reference", func(t *testing.T) {
		got, err := h.wallets.GetTransactionByReference(ctx, owner, "REF-T1")
		testutil.AssertNoError(t, err)
		if got.ID != txn.ID {
			t.Errorf("expected %s, got %s", txn.ID, got.ID)
		}
		_, err = h.wallets.GetTransactionByReference(ctx, other, "REF-T1")
		testutil.AssertAppError(t, err, "NOT_FOUND")
	})
}
