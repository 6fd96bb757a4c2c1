package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	apperrors "chowvest/internal/errors"
	"chowvest/internal/events"
	"chowvest/internal/hooks"
	"chowvest/internal/ledger"
	"chowvest/internal/metrics"
	"chowvest/internal/models"
	"chowvest/internal/money"

	"go.opentelemetry.io/otel/attribute"
)

// transferService moves wallet funds into savings baskets.
type transferService struct {
	store     *ledger.Store
	audit     AuditServicer
	notifier  NotificationServicer
	publisher events.Publisher
	hooks     hooks.Runner
	now       func() time.Time
}

// NewTransferService creates a new TransferServicer.
func NewTransferService(store *ledger.Store, audit AuditServicer, notifier NotificationServicer, publisher events.Publisher, runner hooks.Runner) TransferServicer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &transferService{
		store:     store,
		audit:     audit,
		notifier:  notifier,
		publisher: publisher,
		hooks:     runner,
		now:       time.Now,
	}
}

// TransferToBasket debits the wallet and credits the basket in one atomic
// unit. Audit, notifications and events run after commit and never affect
// the result.
func (s *transferService) TransferToBasket(ctx context.Context, userID, basketID string, amount money.Money) (result *TransferResult, err error) {
	ctx, span := tracer.Start(ctx, "TransferToBasket")
	span.SetAttributes(attribute.String("basket.id", basketID), attribute.String("amount", amount.String()))
	defer func() {
		metrics.Transfers.WithLabelValues(outcome(err)).Inc()
		endSpan(span, err)
	}()

	if !amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if _, err := s.store.GetBasket(ctx, userID, basketID); err != nil {
		return nil, err
	}
	wallet, err := s.store.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	err = s.store.RunAtomic(ctx, func(tx *ledger.Tx) error {
		w, err := tx.LockWallet(wallet.ID)
		if err != nil {
			return err
		}
		b, err := tx.LockBasket(userID, basketID)
		if err != nil {
			return err
		}
		if b.Status != models.BasketStatusActive {
			return apperrors.WithMessage(apperrors.ErrInvalidState, fmt.Sprintf("Basket is %s and cannot receive funds", b.Status))
		}
		if w.Balance.LessThan(amount) {
			return apperrors.ErrInsufficientFunds
		}

		now := s.now()
		balanceBefore := w.Balance
		w.Balance = w.Balance.Sub(amount)

		previous := b.CurrentAmount
		b.CurrentAmount = b.CurrentAmount.Add(amount)
		crossed := CrossedMilestones(previous, b.CurrentAmount, b.GoalAmount, b.HighestMilestone)
		if n := len(crossed); n > 0 {
			b.HighestMilestone = crossed[n-1]
		}
		goalCompleted := false
		if b.GoalReached() {
			b.Status = models.BasketStatusCompleted
			b.CompletedAt = &now
			b.HighestMilestone = goalThreshold
			goalCompleted = true
		}

		txn := &models.Transaction{
			UserID:        userID,
			WalletID:      w.ID,
			BasketID:      &b.ID,
			Type:          models.TransactionTypeTransferToBasket,
			Amount:        amount,
			Fee:           money.Zero,
			NetAmount:     amount,
			Status:        models.TransactionStatusCompleted,
			BalanceBefore: balanceBefore,
			BalanceAfter:  w.Balance,
			Description:   fmt.Sprintf("Transfer to %s", b.Name),
			CompletedAt:   &now,
		}

		if err := tx.SaveWallet(w); err != nil {
			return err
		}
		if err := tx.SaveBasket(b); err != nil {
			return err
		}
		if err := tx.CreateTransaction(txn); err != nil {
			return err
		}

		milestones, _ := announcements(crossed)
		result = &TransferResult{
			Wallet:        w,
			Basket:        b,
			Transaction:   txn,
			GoalCompleted: goalCompleted,
			Milestones:    milestones,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransfer(ctx, userID, amount, result)
	return result, nil
}

func (s *transferService) afterTransfer(ctx context.Context, userID string, amount money.Money, result *TransferResult) {
	basket, txn := result.Basket, result.Transaction

	s.hooks.Go(ctx, "audit.transfer_to_basket", func(ctx context.Context) error {
		s.audit.Record(ctx, AuditEntry{
			ActorID:      userID,
			Action:       "transfer_to_basket",
			Category:     models.AuditCategoryFinancial,
			Severity:     models.AuditSeverityInfo,
			Description:  fmt.Sprintf("Transferred %s to %s", amount.Format(), basket.Name),
			ResourceType: "basket",
			ResourceID:   basket.ID,
			Metadata: map[string]any{
				"amount":             amount.String(),
				"transaction_id":     txn.ID,
				"new_balance":        result.Wallet.Balance.String(),
				"new_basket_amount":  basket.CurrentAmount.String(),
				"goal_completed":     result.GoalCompleted,
				"milestones_reached": result.Milestones,
			},
		})
		return nil
	})

	s.hooks.Go(ctx, "notify.transfer", func(ctx context.Context) error {
		return s.notifier.Notify(ctx, transactionNotification(userID, txn.Type, amount))
	})

	if result.GoalCompleted {
		s.hooks.Go(ctx, "notify.goal_completed", func(ctx context.Context) error {
			metrics.Milestones.WithLabelValues(strconv.Itoa(goalThreshold)).Inc()
			return s.notifier.Notify(ctx, goalCompletedNotification(basket))
		})
	}
	for _, m := range result.Milestones {
		s.hooks.Go(ctx, "notify.milestone", func(ctx context.Context) error {
			metrics.Milestones.WithLabelValues(strconv.Itoa(m)).Inc()
			return s.notifier.Notify(ctx, milestoneNotification(basket, m))
		})
	}

	s.hooks.Go(ctx, "publish.transfer", func(ctx context.Context) error {
		return s.publisher.Publish(ctx, events.New(events.TypeTransferCompleted, userID, map[string]any{
			"transaction_id": txn.ID,
			"basket_id":      basket.ID,
			"amount":         amount.String(),
			"goal_completed": result.GoalCompleted,
		}))
	})
}
