package services

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	apperrors "chowvest/internal/errors"
	"chowvest/internal/events"
	"chowvest/internal/models"
	"chowvest/internal/money"
	"chowvest/internal/testutil"
)

func TestTransferToBasket(t *testing.T) {
	ctx := context.Background()

	t.Run("completes_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		testutil.CreateTestWallet(t, db, userID, "10000")
		basket := testutil.CreateTestBasket(t, db, userID, "10000", "8000")

		res, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("2000"))
		testutil.AssertNoError(t, err)

		testutil.AssertMoneyEqual(t, "basket current", res.Basket.CurrentAmount, "10000")
		testutil.AssertMoneyEqual(t, "wallet balance", res.Wallet.Balance, "8000")
		testutil.AssertMoneyEqual(t, "balance before", res.Transaction.BalanceBefore, "10000")
		testutil.AssertMoneyEqual(t, "balance after", res.Transaction.BalanceAfter, "8000")
		if res.Basket.Status != models.BasketStatusCompleted || res.Basket.CompletedAt == nil {
			t.Errorf("expected COMPLETED basket with completedAt, got %s", res.Basket.Status)
		}
		if !res.GoalCompleted {
			t.Error("expected goal completion to be reported")
		}
		if len(res.Milestones) != 0 {
			t.Errorf("completion must not be reported as a milestone, got %v", res.Milestones)
		}
		if res.Transaction.Type != models.TransactionTypeTransferToBasket || res.Transaction.Status != models.TransactionStatusCompleted {
			t.Errorf("unexpected transaction %s/%s", res.Transaction.Type, res.Transaction.Status)
		}

		stored, err := h.store.GetBasket(ctx, userID, basket.ID)
		testutil.AssertNoError(t, err)
		if stored.HighestMilestone != 100 {
			t.Errorf("expected highest milestone 100, got %d", stored.HighestMilestone)
		}
		if n := testutil.CountRows(t, db, &models.Transaction{}, "type = ?", models.TransactionTypeTransferToBasket); n != 1 {
			t.Errorf("expected 1 transfer row, got %d", n)
		}
		if n := testutil.CountRows(t, db, &models.Notification{}, "type = ?", models.NotificationTypeGoalCompleted); n != 1 {
			t.Errorf("expected 1 goal completion notification, got %d", n)
		}
		if n := testutil.CountRows(t, db, &models.Notification{}, "type = ?", models.NotificationTypeBasketMilestone); n != 0 {
			t.Errorf("expected no milestone notifications, got %d", n)
		}
		if n := testutil.CountRows(t, db, &models.AuditLog{}, "action = ?", "transfer_to_basket"); n != 1 {
			t.Errorf("expected 1 audit entry, got %d", n)
		}
		if h.publisher.count(events.TypeTransferCompleted) != 1 {
			t.Errorf("expected transfer event, got %v", h.publisher.types())
		}
	})

	t.Run("insufficient_funds_leaves_ledger_unchanged", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		testutil.CreateTestWallet(t, db, userID, "100")
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "0")

		_, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("100.01"))
		testutil.AssertAppError(t, err, "INSUFFICIENT_FUNDS")

		wallet, err := h.store.GetWallet(ctx, userID)
		testutil.AssertNoError(t, err)
		testutil.AssertMoneyEqual(t, "wallet balance", wallet.Balance, "100")
		stored, err := h.store.GetBasket(ctx, userID, basket.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertMoneyEqual(t, "basket current", stored.CurrentAmount, "0")
		if n := testutil.CountRows(t, db, &models.Transaction{}, ""); n != 0 {
			t.Errorf("expected no transaction rows, got %d", n)
		}
		if n := testutil.CountRows(t, db, &models.Notification{}, ""); n != 0 {
			t.Errorf("expected no notifications, got %d", n)
		}
	})

	t.Run("exact_balance_is_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		testutil.CreateTestWallet(t, db, userID, "250.50")
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "0")

		res, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("250.50"))
		testutil.AssertNoError(t, err)
		testutil.AssertMoneyEqual(t, "wallet balance", res.Wallet.Balance, "0")
	})

	t.Run("rejects_non_positive_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		testutil.CreateTestWallet(t, db, userID, "100")
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "0")

		_, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.Zero)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
		_, err = h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("-5"))
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("other_users_basket_is_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		owner, intruder := testutil.NewUserID(), testutil.NewUserID()
		testutil.CreateTestWallet(t, db, intruder, "1000")
		basket := testutil.CreateTestBasket(t, db, owner, "1000", "0")

		_, err := h.transfers.TransferToBasket(ctx, intruder, basket.ID, money.MustParse("10"))
		testutil.AssertAppError(t, err, "NOT_FOUND")
	})

	t.Run("non_active_basket_is_rejected", func(t *testing.T) {
		for _, status := range []models.BasketStatus{models.BasketStatusPaused, models.BasketStatusCompleted, models.BasketStatusCancelled} {
			t.Run(string(status), func(t *testing.T) {
				db := testutil.SetupTestDB(t)
				h := newHarness(db)
				userID := testutil.NewUserID()
				testutil.CreateTestWallet(t, db, userID, "1000")
				basket := testutil.CreateTestBasketWithStatus(t, db, userID, "1000", "0", status)

				_, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("10"))
				testutil.AssertAppError(t, err, "INVALID_STATE")
			})
		}
	})

	t.Run("precondition_order", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		testutil.CreateTestWallet(t, db, userID, "1")
		paused := testutil.CreateTestBasketWithStatus(t, db, userID, "1000", "0", models.BasketStatusPaused)

		// Paused and underfunded: the state check comes first.
		_, err := h.transfers.TransferToBasket(ctx, userID, paused.ID, money.MustParse("500"))
		testutil.AssertAppError(t, err, "INVALID_STATE")

		// Unknown basket with a bad amount: the amount check comes first.
		_, err = h.transfers.TransferToBasket(ctx, userID, "missing", money.Zero)
		testutil.AssertAppError(t, err, "INVALID_AMOUNT")
	})

	t.Run("missing_wallet_is_created_empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "0")

		_, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("1"))
		testutil.AssertAppError(t, err, "INSUFFICIENT_FUNDS")
		if n := testutil.CountRows(t, db, &models.Wallet{}, "user_id = ?", userID); n != 1 {
			t.Errorf("expected wallet to be created, got %d", n)
		}
	})
}

func TestTransferMilestones(t *testing.T) {
	ctx := context.Background()

	countMilestones := func(t *testing.T, h *harness) int64 {
		t.Helper()
		return testutil.CountRows(t, h.db, &models.Notification{}, "type = ?", models.NotificationTypeBasketMilestone)
	}

	t.Run("forty_to_sixty_fires_fifty_once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		testutil.CreateTestWallet(t, db, userID, "1000")
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "400")

		res, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("200"))
		testutil.AssertNoError(t, err)
		if len(res.Milestones) != 1 || res.Milestones[0] != 50 {
			t.Fatalf("expected milestones [50], got %v", res.Milestones)
		}
		if res.GoalCompleted {
			t.Error("goal must not be completed at 60%")
		}
		if n := countMilestones(t, h); n != 1 {
			t.Errorf("expected 1 milestone notification, got %d", n)
		}

		// A further transfer inside the same band announces nothing.
		res, err = h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("50"))
		testutil.AssertNoError(t, err)
		if len(res.Milestones) != 0 {
			t.Errorf("expected no milestones, got %v", res.Milestones)
		}
		if n := countMilestones(t, h); n != 1 {
			t.Errorf("expected still 1 milestone notification, got %d", n)
		}
	})

	t.Run("zero_to_hundred_fires_completion_only", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		testutil.CreateTestWallet(t, db, userID, "1000")
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "0")

		res, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("1000"))
		testutil.AssertNoError(t, err)
		if !res.GoalCompleted || len(res.Milestones) != 0 {
			t.Errorf("expected completion only, got completed=%v milestones=%v", res.GoalCompleted, res.Milestones)
		}
		if n := countMilestones(t, h); n != 0 {
			t.Errorf("expected no milestone notifications, got %d", n)
		}
		if n := testutil.CountRows(t, db, &models.Notification{}, "type = ?", models.NotificationTypeGoalCompleted); n != 1 {
			t.Errorf("expected 1 completion notification, got %d", n)
		}
	})

	t.Run("several_thresholds_in_one_transfer", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		testutil.CreateTestWallet(t, db, userID, "1000")
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "100")

		res, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("700"))
		testutil.AssertNoError(t, err)
		if len(res.Milestones) != 3 || res.Milestones[0] != 25 || res.Milestones[2] != 75 {
			t.Errorf("expected [25 50 75], got %v", res.Milestones)
		}
		if n := countMilestones(t, h); n != 3 {
			t.Errorf("expected 3 milestone notifications, got %d", n)
		}
	})

	t.Run("announced_threshold_never_refires", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		testutil.CreateTestWallet(t, db, userID, "1000")
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "400")
		if err := db.Model(basket).Update("highest_milestone", 50).Error; err != nil {
			t.Fatalf("failed to seed milestone: %v", err)
		}

		res, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("200"))
		testutil.AssertNoError(t, err)
		if len(res.Milestones) != 0 {
			t.Errorf("expected 50 to stay announced, got %v", res.Milestones)
		}
		if n := countMilestones(t, h); n != 0 {
			t.Errorf("expected no milestone notifications, got %d", n)
		}
	})
}

func TestTransferConcurrency(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	h := newHarness(db)
	userID := testutil.NewUserID()
	testutil.CreateTestWallet(t, db, userID, "1000")
	basket := testutil.CreateTestBasket(t, db, userID, "100000", "0")

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, money.MustParse("200"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperrors.ErrInsufficientFunds):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 5 || rejected != 5 {
		t.Errorf("expected 5 successes and 5 rejections, got %d/%d", succeeded, rejected)
	}
	wallet, err := h.store.GetWallet(ctx, userID)
	testutil.AssertNoError(t, err)
	testutil.AssertMoneyEqual(t, "wallet balance", wallet.Balance, "0")
	stored, err := h.store.GetBasket(ctx, userID, basket.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertMoneyEqual(t, "basket current", stored.CurrentAmount, "1000")
}

// Random sequences of deposits and transfers never drive a wallet negative,
// and the wallet always equals net deposits minus transfers.
func TestLedgerBalanceNeverNegative(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 5; run++ {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		wallet := testutil.CreateTestWallet(t, db, userID, "0")
		basket := testutil.CreateTestBasket(t, db, userID, "99999999", "0")
		expected := money.Zero

		for step := 0; step < 30; step++ {
			amount := money.FromMinorUnits(rng.Int63n(500000) + 1)
			if rng.Intn(2) == 0 {
				ref := testutil.NewUserID()
				testutil.CreateTestPendingDeposit(t, db, wallet, amount.String(), ref)
				h.gateway.verifyFn = succeeded(amount.MinorUnits(), 0)
				_, err := h.deposits.ConfirmDeposit(ctx, ref)
				testutil.AssertNoError(t, err)
				expected = expected.Add(amount)
			} else {
				_, err := h.transfers.TransferToBasket(ctx, userID, basket.ID, amount)
				if expected.LessThan(amount) {
					testutil.AssertAppError(t, err, "INSUFFICIENT_FUNDS")
				} else {
					testutil.AssertNoError(t, err)
					expected = expected.Sub(amount)
				}
			}

			current, err := h.store.GetWallet(ctx, userID)
			testutil.AssertNoError(t, err)
			if current.Balance.IsNegative() {
				t.Fatalf("run %d step %d: negative balance %s", run, step, current.Balance)
			}
			testutil.AssertMoneyEqual(t, "wallet balance", current.Balance, expected.String())
		}
	}
}
