package services

import (
	"context"
	"testing"
	"time"

	"chowvest/internal/events"
	"chowvest/internal/ledger"
	"chowvest/internal/models"
	"chowvest/internal/money"
	"chowvest/internal/pagination"
	"chowvest/internal/testutil"
)

func TestCreateBasket(t *testing.T) {
	ctx := context.Background()

	t.Run("creates_active_basket", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		target := time.Now().AddDate(0, 3, 0)

		basket, err := h.baskets.CreateBasket(ctx, userID, CreateBasketInput{
			Name:       "  Rice for December  ",
			Category:   "Grains",
			GoalAmount: money.MustParse("75000"),
			TargetDate: &target,
		})
		testutil.AssertNoError(t, err)

		if basket.ID == "" || basket.Status != models.BasketStatusActive {
			t.Errorf("unexpected basket %+v", basket)
		}
		if basket.Name != "Rice for December" {
			t.Errorf("expected trimmed name, got %q", basket.Name)
		}
		testutil.AssertMoneyEqual(t, "current", basket.CurrentAmount, "0")
		if basket.AutoSaveEnabled || basket.NextAutoSaveAt != nil {
			t.Error("auto-save must be off by default")
		}
		if n := testutil.CountRows(t, db, &models.AuditLog{}, "action = ?", "basket_created"); n != 1 {
			t.Errorf("expected audit entry, got %d", n)
		}
	})

	t.Run("schedules_auto_save", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		fixed := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)
		h.baskets.(*basketService).now = func() time.Time { return fixed }
		amount := money.MustParse("2500")
		freq := models.AutoSaveWeekly

		basket, err := h.baskets.CreateBasket(ctx, testutil.NewUserID(), CreateBasketInput{
			Name:              "Beans",
			GoalAmount:        money.MustParse("30000"),
			AutoSaveEnabled:   true,
			AutoSaveAmount:    &amount,
			AutoSaveFrequency: &freq,
		})
		testutil.AssertNoError(t, err)
		if basket.NextAutoSaveAt == nil || !basket.NextAutoSaveAt.Equal(fixed.AddDate(0, 0, 7)) {
			t.Errorf("expected next auto-save a week out, got %v", basket.NextAutoSaveAt)
		}
	})

	t.Run("validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		past := time.Now().Add(-time.Hour)
		big := money.MustParse("50000")
		small := money.MustParse("100")
		daily := models.AutoSaveDaily
		bogus := models.AutoSaveFrequency("HOURLY")
		goal := money.MustParse("10000")

		cases := []struct {
			name string
			in   CreateBasketInput
			code string
		}{
			{"blank_name", CreateBasketInput{Name: "   ", GoalAmount: goal}, "INVALID_INPUT"},
			{"long_name", CreateBasketInput{Name: string(make([]rune, 101)), GoalAmount: goal}, "INVALID_INPUT"},
			{"zero_goal", CreateBasketInput{Name: "Oil", GoalAmount: money.Zero}, "INVALID_AMOUNT"},
			{"past_target", CreateBasketInput{Name: "Oil", GoalAmount: goal, TargetDate: &past}, "INVALID_INPUT"},
			{"auto_save_without_frequency", CreateBasketInput{Name: "Oil", GoalAmount: goal, AutoSaveEnabled: true, AutoSaveAmount: &small}, "INVALID_INPUT"},
			{"auto_save_above_goal", CreateBasketInput{Name: "Oil", GoalAmount: goal, AutoSaveEnabled: true, AutoSaveAmount: &big, AutoSaveFrequency: &daily}, "INVALID_AMOUNT"},
			{"unknown_frequency", CreateBasketInput{Name: "Oil", GoalAmount: goal, AutoSaveEnabled: true, AutoSaveAmount: &small, AutoSaveFrequency: &bogus}, "INVALID_INPUT"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := h.baskets.CreateBasket(ctx, userID, tc.in)
				testutil.AssertAppError(t, err, tc.code)
			})
		}
		if n := testutil.CountRows(t, db, &models.Basket{}, ""); n != 0 {
			t.Errorf("expected no baskets, got %d", n)
		}
	})
}

func TestGetUserBaskets(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	h := newHarness(db)
	userID := testutil.NewUserID()
	testutil.CreateTestWallet(t, db, userID, "4200")
	testutil.CreateTestBasket(t, db, userID, "1000", "0")
	testutil.CreateTestBasketWithStatus(t, db, userID, "1000", "0", models.BasketStatusPaused)
	testutil.CreateTestBasketWithStatus(t, db, userID, "1000", "0", models.BasketStatusCancelled)
	testutil.CreateTestBasket(t, db, testutil.NewUserID(), "1000", "0")

	t.Run("excludes_cancelled_by_default", func(t *testing.T) {
		list, err := h.baskets.GetUserBaskets(ctx, userID, pagination.PageRequest{}, ledger.BasketFilter{})
		testutil.AssertNoError(t, err)
		if list.TotalItems != 2 || len(list.Data) != 2 {
			t.Errorf("expected 2 baskets, got %d", list.TotalItems)
		}
		testutil.AssertMoneyEqual(t, "wallet balance", list.WalletBalance, "4200")
	})

	t.Run("filters_by_status", func(t *testing.T) {
		status := models.BasketStatusCancelled
		list, err := h.baskets.GetUserBaskets(ctx, userID, pagination.PageRequest{}, ledger.BasketFilter{Status: &status})
		testutil.AssertNoError(t, err)
		if list.TotalItems != 1 || list.Data[0].Status != models.BasketStatusCancelled {
			t.Errorf("expected the cancelled basket, got %+v", list.Data)
		}
	})

	t.Run("rejects_unknown_status", func(t *testing.T) {
		status := models.BasketStatus("LOST")
		_, err := h.baskets.GetUserBaskets(ctx, userID, pagination.PageRequest{}, ledger.BasketFilter{Status: &status})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestSetBasketStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("pause_and_resume", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "10")

		paused, err := h.baskets.SetBasketStatus(ctx, userID, basket.ID, models.BasketStatusPaused)
		testutil.AssertNoError(t, err)
		if paused.Status != models.BasketStatusPaused {
			t.Errorf("expected PAUSED, got %s", paused.Status)
		}
		active, err := h.baskets.SetBasketStatus(ctx, userID, basket.ID, models.BasketStatusActive)
		testutil.AssertNoError(t, err)
		if active.Status != models.BasketStatusActive {
			t.Errorf("expected ACTIVE, got %s", active.Status)
		}
	})

	t.Run("completed_cannot_be_paused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		basket := testutil.CreateTestBasketWithStatus(t, db, userID, "1000", "1000", models.BasketStatusCompleted)

		_, err := h.baskets.SetBasketStatus(ctx, userID, basket.ID, models.BasketStatusPaused)
		testutil.AssertAppError(t, err, "INVALID_STATE")
	})

	t.Run("only_toggle_targets", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "0")

		_, err := h.baskets.SetBasketStatus(ctx, userID, basket.ID, models.BasketStatusCompleted)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("not_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		basket := testutil.CreateTestBasket(t, db, testutil.NewUserID(), "1000", "0")

		_, err := h.baskets.SetBasketStatus(ctx, testutil.NewUserID(), basket.ID, models.BasketStatusPaused)
		testutil.AssertAppError(t, err, "NOT_FOUND")
	})
}

func TestCancelBasket(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels_empty_basket_and_keeps_history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		wallet := testutil.CreateTestWallet(t, db, userID, "0")
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "0")
		testutil.CreateTestPendingDeposit(t, db, wallet, "100", "REF-C")

		cancelled, err := h.baskets.CancelBasket(ctx, userID, basket.ID)
		testutil.AssertNoError(t, err)
		if cancelled.Status != models.BasketStatusCancelled || cancelled.CancelledAt == nil {
			t.Errorf("expected CANCELLED with cancelledAt, got %s", cancelled.Status)
		}
		if n := testutil.CountRows(t, db, &models.Basket{}, "id = ?", basket.ID); n != 1 {
			t.Error("cancel must not delete the basket row")
		}
		if n := testutil.CountRows(t, db, &models.Transaction{}, ""); n != 1 {
			t.Errorf("expected transactions to be kept, got %d", n)
		}
		if n := testutil.CountRows(t, db, &models.AuditLog{}, "action = ?", "basket_cancelled"); n != 1 {
			t.Errorf("expected audit entry, got %d", n)
		}
		if h.publisher.count(events.TypeBasketCancelled) != 1 {
			t.Errorf("expected cancel event, got %v", h.publisher.types())
		}
	})

	t.Run("funded_basket_is_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "0.01")

		_, err := h.baskets.CancelBasket(ctx, userID, basket.ID)
		testutil.AssertAppError(t, err, "INVALID_STATE")

		stored, err := h.store.GetBasket(ctx, userID, basket.ID)
		testutil.AssertNoError(t, err)
		if stored.Status != models.BasketStatusActive {
			t.Errorf("expected basket to stay ACTIVE, got %s", stored.Status)
		}
	})

	t.Run("twice_is_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "0")

		_, err := h.baskets.CancelBasket(ctx, userID, basket.ID)
		testutil.AssertNoError(t, err)
		_, err = h.baskets.CancelBasket(ctx, userID, basket.ID)
		testutil.AssertAppError(t, err, "INVALID_STATE")
	})

	t.Run("not_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		basket := testutil.CreateTestBasket(t, db, testutil.NewUserID(), "1000", "0")

		_, err := h.baskets.CancelBasket(ctx, testutil.NewUserID(), basket.ID)
		testutil.AssertAppError(t, err, "NOT_FOUND")
	})
}

func TestRequestDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("completed_basket_once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		basket := testutil.CreateTestBasketWithStatus(t, db, userID, "1000", "1000", models.BasketStatusCompleted)

		updated, err := h.baskets.RequestDelivery(ctx, userID, basket.ID)
		testutil.AssertNoError(t, err)
		if updated.DeliveryRequestedAt == nil {
			t.Error("expected deliveryRequestedAt to be stamped")
		}
		if n := testutil.CountRows(t, db, &models.Notification{}, "type = ?", models.NotificationTypeDelivery); n != 1 {
			t.Errorf("expected delivery notification, got %d", n)
		}

		_, err = h.baskets.RequestDelivery(ctx, userID, basket.ID)
		testutil.AssertAppError(t, err, "INVALID_STATE")
	})

	t.Run("active_basket_is_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		h := newHarness(db)
		userID := testutil.NewUserID()
		basket := testutil.CreateTestBasket(t, db, userID, "1000", "500")

		_, err := h.baskets.RequestDelivery(ctx, userID, basket.ID)
		testutil.AssertAppError(t, err, "INVALID_STATE")
	})
}
