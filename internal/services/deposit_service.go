package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "chowvest/internal/errors"
	"chowvest/internal/events"
	"chowvest/internal/hooks"
	"chowvest/internal/ledger"
	"chowvest/internal/logger"
	"chowvest/internal/metrics"
	"chowvest/internal/models"
	"chowvest/internal/money"
	"chowvest/internal/payment"

	"go.opentelemetry.io/otel/attribute"
)

const defaultGatewayTimeout = 30 * time.Second

// DepositOptions configures the deposit flow.
type DepositOptions struct {
	CallbackURL    string
	GatewayTimeout time.Duration
}

// depositService bridges the payment gateway and the wallet ledger.
type depositService struct {
	store        *ledger.Store
	gateway      payment.Gateway
	audit        AuditServicer
	notifier     NotificationServicer
	publisher    events.Publisher
	hooks        hooks.Runner
	callbackURL  string
	timeout      time.Duration
	now          func() time.Time
	newReference func(userID string, now time.Time) string
}

// NewDepositService creates a new DepositServicer.
func NewDepositService(
	store *ledger.Store,
	gateway payment.Gateway,
	audit AuditServicer,
	notifier NotificationServicer,
	publisher events.Publisher,
	runner hooks.Runner,
	opts DepositOptions,
) DepositServicer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = defaultGatewayTimeout
	}
	return &depositService{
		store:        store,
		gateway:      gateway,
		audit:        audit,
		notifier:     notifier,
		publisher:    publisher,
		hooks:        runner,
		callbackURL:  opts.CallbackURL,
		timeout:      opts.GatewayTimeout,
		now:          time.Now,
		newReference: newDepositReference,
	}
}

// InitiateDeposit records a PENDING deposit and opens a checkout for it. No
// money moves until ConfirmDeposit. If the gateway cannot open the checkout
// the pending row is removed again.
func (s *depositService) InitiateDeposit(ctx context.Context, in InitiateDepositInput) (result *DepositInitiation, err error) {
	ctx, span := tracer.Start(ctx, "InitiateDeposit")
	span.SetAttributes(attribute.String("amount", in.Amount.String()), attribute.String("payment.method", string(in.Method)))
	defer func() {
		metrics.Deposits.WithLabelValues("initiate", outcome(err)).Inc()
		endSpan(span, err)
	}()

	if !in.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}
	if !in.Method.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "payment method must be CARD or BANK_TRANSFER")
	}

	wallet, err := s.store.GetOrCreateWallet(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	reference := s.newReference(in.UserID, s.now())
	method := in.Method
	var txn *models.Transaction
	err = s.store.RunAtomic(ctx, func(tx *ledger.Tx) error {
		w, err := tx.LockWallet(wallet.ID)
		if err != nil {
			return err
		}
		txn = &models.Transaction{
			UserID:            in.UserID,
			WalletID:          w.ID,
			Type:              models.TransactionTypeDeposit,
			Amount:            in.Amount,
			Fee:               money.Zero,
			NetAmount:         in.Amount,
			Status:            models.TransactionStatusPending,
			BalanceBefore:     w.Balance,
			BalanceAfter:      w.Balance,
			Description:       "Wallet deposit via " + strings.ToLower(strings.ReplaceAll(string(method), "_", " ")),
			ExternalReference: &reference,
			PaymentMethod:     &method,
		}
		if err := tx.CreateTransaction(txn); err != nil {
			return err
		}
		w.PendingDeposits = w.PendingDeposits.Add(in.Amount)
		return tx.SaveWallet(w)
	})
	if err != nil {
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	checkout, gwErr := s.gateway.InitializePayment(gctx, payment.InitializeRequest{
		PayerEmail:  in.Email,
		AmountMinor: in.Amount.MinorUnits(),
		Reference:   reference,
		CallbackURL: s.callbackURL,
		Metadata: map[string]any{
			"user_id":        in.UserID,
			"transaction_id": txn.ID,
			"payment_method": string(method),
		},
		Channels: method.Channels(),
	})
	if gwErr != nil {
		logger.Get().Warnw("Payment initialization failed, removing pending deposit",
			"error", gwErr, "reference", reference, "user_id", in.UserID)
		s.compensate(context.WithoutCancel(ctx), txn)
		return nil, apperrors.Wrap(apperrors.ErrExternalServiceError, gwErr)
	}

	s.hooks.Go(ctx, "audit.deposit_initiated", func(ctx context.Context) error {
		s.audit.Record(ctx, AuditEntry{
			ActorID:      in.UserID,
			Action:       "deposit_initiated",
			Category:     models.AuditCategoryFinancial,
			Severity:     models.AuditSeverityInfo,
			Description:  fmt.Sprintf("Initiated deposit of %s", in.Amount.Format()),
			ResourceType: "transaction",
			ResourceID:   txn.ID,
			Metadata: map[string]any{
				"amount":         in.Amount.String(),
				"reference":      reference,
				"payment_method": string(method),
			},
		})
		return nil
	})
	s.hooks.Go(ctx, "publish.deposit_initiated", func(ctx context.Context) error {
		return s.publisher.Publish(ctx, events.New(events.TypeDepositInitiated, in.UserID, map[string]any{
			"transaction_id": txn.ID,
			"reference":      reference,
			"amount":         in.Amount.String(),
		}))
	})

	return &DepositInitiation{
		AuthorizationURL: checkout.AuthorizationURL,
		Reference:        reference,
		Transaction:      txn,
	}, nil
}

// compensate removes a pending deposit whose checkout never opened and
// releases its amount from pendingDeposits.
func (s *depositService) compensate(ctx context.Context, txn *models.Transaction) {
	err := s.store.RunAtomic(ctx, func(tx *ledger.Tx) error {
		if err := tx.DeletePendingTransaction(txn.ID); err != nil {
			return err
		}
		w, err := tx.LockWallet(txn.WalletID)
		if err != nil {
			return err
		}
		w.PendingDeposits = money.Max(w.PendingDeposits.Sub(txn.Amount), money.Zero)
		return tx.SaveWallet(w)
	})
	if err != nil {
		logger.Get().Errorw("Failed to remove pending deposit after gateway failure",
			"error", err, "transaction_id", txn.ID, "reference", txn.Reference())
	}
}

// ConfirmDeposit verifies reference with the gateway and credits the wallet
// exactly once. Calling it again for a completed deposit returns the stored
// record without touching the ledger.
func (s *depositService) ConfirmDeposit(ctx context.Context, reference string) (result *DepositConfirmation, err error) {
	ctx, span := tracer.Start(ctx, "ConfirmDeposit")
	span.SetAttributes(attribute.String("payment.reference", reference))
	defer func() {
		metrics.Deposits.WithLabelValues("confirm", outcome(err)).Inc()
		endSpan(span, err)
	}()

	txn, err := s.store.FindTransactionByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if txn.Type != models.TransactionTypeDeposit {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidState, "Reference does not belong to a deposit")
	}
	if txn.Status == models.TransactionStatusCompleted {
		wallet, err := s.store.GetWallet(ctx, txn.UserID)
		if err != nil {
			return nil, err
		}
		return &DepositConfirmation{Transaction: txn, Wallet: wallet, AlreadyProcessed: true}, nil
	}

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	verification, err := s.gateway.VerifyPayment(gctx, reference)
	if err != nil {
		if payment.IsTimeout(err) {
			return nil, apperrors.Wrap(
				apperrors.WithMessage(apperrors.ErrPaymentNotConfirmed, "Payment verification timed out, please try again"), err)
		}
		return nil, apperrors.Wrap(apperrors.ErrExternalServiceError, err)
	}
	if !verification.Succeeded {
		// The same checkout can still be paid later, so the deposit stays
		// PENDING and is verified again on the next call.
		logger.Get().Infow("Deposit not confirmed by processor",
			"reference", reference, "status", verification.Status, "attempt_failed", verification.Failed())
		return nil, apperrors.WithMessage(apperrors.ErrPaymentNotConfirmed,
			fmt.Sprintf("Payment has not been confirmed (status: %s)", verification.Status))
	}

	gross := txn.Amount
	if verification.AmountMinor > 0 {
		gross = money.FromMinorUnits(verification.AmountMinor)
	}
	fee := money.FromMinorUnits(verification.FeeMinor)
	net := gross.Sub(fee)
	if !net.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrExternalServiceError, "Processor reported an invalid amount")
	}
	if !gross.Equal(txn.Amount) {
		logger.Get().Warnw("Processor amount differs from requested deposit",
			"reference", reference, "requested", txn.Amount.String(), "paid", gross.String())
	}

	err = s.store.RunAtomic(ctx, func(tx *ledger.Tx) error {
		t, err := tx.LockTransactionByReference(reference)
		if err != nil {
			return err
		}
		w, err := tx.LockWallet(t.WalletID)
		if err != nil {
			return err
		}
		if t.Status == models.TransactionStatusCompleted {
			result = &DepositConfirmation{Transaction: t, Wallet: w, AlreadyProcessed: true}
			return nil
		}

		now := s.now()
		pending := t.Amount
		t.BalanceBefore = w.Balance
		w.Balance = w.Balance.Add(net)
		w.TotalDeposits = w.TotalDeposits.Add(gross)
		w.PendingDeposits = money.Max(w.PendingDeposits.Sub(pending), money.Zero)

		t.Amount = gross
		t.Fee = fee
		t.NetAmount = net
		t.Status = models.TransactionStatusCompleted
		t.BalanceAfter = w.Balance
		t.CompletedAt = &now
		t.ProcessorResponse = string(verification.Raw)

		if err := tx.SaveWallet(w); err != nil {
			return err
		}
		if err := tx.SaveTransaction(t); err != nil {
			return err
		}
		result = &DepositConfirmation{Transaction: t, Wallet: w}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyProcessed {
		s.afterConfirm(ctx, result)
	}
	return result, nil
}

func (s *depositService) afterConfirm(ctx context.Context, c *DepositConfirmation) {
	txn, wallet := c.Transaction, c.Wallet

	s.hooks.Go(ctx, "audit.deposit_completed", func(ctx context.Context) error {
		s.audit.Record(ctx, AuditEntry{
			ActorID:      txn.UserID,
			Action:       "deposit_completed",
			Category:     models.AuditCategoryFinancial,
			Severity:     models.AuditSeverityInfo,
			Description:  fmt.Sprintf("Deposit of %s completed successfully", txn.Amount.Format()),
			ResourceType: "transaction",
			ResourceID:   txn.ID,
			Metadata: map[string]any{
				"amount":      txn.Amount.String(),
				"fee":         txn.Fee.String(),
				"net_amount":  txn.NetAmount.String(),
				"reference":   txn.Reference(),
				"new_balance": wallet.Balance.String(),
			},
		})
		return nil
	})
	s.hooks.Go(ctx, "notify.deposit", func(ctx context.Context) error {
		return s.notifier.Notify(ctx, transactionNotification(txn.UserID, txn.Type, txn.NetAmount))
	})
	s.hooks.Go(ctx, "publish.deposit_completed", func(ctx context.Context) error {
		return s.publisher.Publish(ctx, events.New(events.TypeDepositCompleted, txn.UserID, map[string]any{
			"transaction_id": txn.ID,
			"reference":      txn.Reference(),
			"amount":         txn.Amount.String(),
			"net_amount":     txn.NetAmount.String(),
		}))
	})
}
