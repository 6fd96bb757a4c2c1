package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "chowvest/internal/errors"
	"chowvest/internal/events"
	"chowvest/internal/hooks"
	"chowvest/internal/ledger"
	"chowvest/internal/models"
	"chowvest/internal/money"
	"chowvest/internal/pagination"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxBasketNameLen        = 100
	maxBasketDescriptionLen = 500
	maxBasketCategoryLen    = 50
)

// basketService manages savings baskets outside of funding.
type basketService struct {
	store     *ledger.Store
	audit     AuditServicer
	notifier  NotificationServicer
	publisher events.Publisher
	hooks     hooks.Runner
	now       func() time.Time
}

// NewBasketService creates a new BasketServicer.
func NewBasketService(store *ledger.Store, audit AuditServicer, notifier NotificationServicer, publisher events.Publisher, runner hooks.Runner) BasketServicer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &basketService{
		store:     store,
		audit:     audit,
		notifier:  notifier,
		publisher: publisher,
		hooks:     runner,
		now:       time.Now,
	}
}

// CreateBasket validates and stores a new ACTIVE basket.
func (s *basketService) CreateBasket(ctx context.Context, userID string, in CreateBasketInput) (*models.Basket, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if utf8.RuneCountInString(name) > maxBasketNameLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("name must be at most %d characters", maxBasketNameLen))
	}
	if utf8.RuneCountInString(in.Description) > maxBasketDescriptionLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("description must be at most %d characters", maxBasketDescriptionLen))
	}
	if utf8.RuneCountInString(in.Category) > maxBasketCategoryLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("category must be at most %d characters", maxBasketCategoryLen))
	}
	if !in.GoalAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "goal amount must be greater than zero")
	}

	now := s.now()
	if in.TargetDate != nil && !in.TargetDate.After(now) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target date must be in the future")
	}

	basket := &models.Basket{
		UserID:        userID,
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Category:      strings.TrimSpace(in.Category),
		GoalAmount:    in.GoalAmount,
		CurrentAmount: money.Zero,
		Status:        models.BasketStatusActive,
		TargetDate:    in.TargetDate,
	}

	if in.AutoSaveEnabled {
		if in.AutoSaveAmount == nil || in.AutoSaveFrequency == nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "auto-save amount and frequency are required when auto-save is enabled")
		}
		if !in.AutoSaveAmount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "auto-save amount must be greater than zero")
		}
		if in.AutoSaveAmount.GreaterThan(in.GoalAmount) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "auto-save amount cannot exceed the goal amount")
		}
		if !in.AutoSaveFrequency.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "auto-save frequency must be DAILY, WEEKLY or MONTHLY")
		}
		next := in.AutoSaveFrequency.Next(now)
		basket.AutoSaveEnabled = true
		basket.AutoSaveAmount = in.AutoSaveAmount
		basket.AutoSaveFrequency = in.AutoSaveFrequency
		basket.NextAutoSaveAt = &next
	}

	if err := s.store.CreateBasket(ctx, basket); err != nil {
		return nil, err
	}

	s.hooks.Go(ctx, "audit.basket_created", func(ctx context.Context) error {
		s.audit.Record(ctx, AuditEntry{
			ActorID:      userID,
			Action:       "basket_created",
			Category:     models.AuditCategoryFinancial,
			Severity:     models.AuditSeverityInfo,
			Description:  fmt.Sprintf("Created basket %s with a goal of %s", basket.Name, basket.GoalAmount.Format()),
			ResourceType: "basket",
			ResourceID:   basket.ID,
			Metadata: map[string]any{
				"goal_amount":       basket.GoalAmount.String(),
				"auto_save_enabled": basket.AutoSaveEnabled,
			},
		})
		return nil
	})
	return basket, nil
}

// GetUserBaskets retrieves a page of the user's baskets with their wallet balance.
func (s *basketService) GetUserBaskets(ctx context.Context, userID string, page pagination.PageRequest, filter ledger.BasketFilter) (*BasketList, error) {
	page.Defaults()

	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown basket status")
	}

	baskets, total, err := s.store.ListBaskets(ctx, userID, filter, page)
	if err != nil {
		return nil, err
	}
	wallet, err := s.store.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BasketList{
		PageResponse:  pagination.NewPageResponse(baskets, page.Page, page.PageSize, total),
		WalletBalance: wallet.Balance,
	}, nil
}

// GetBasketByID retrieves a basket owned by the user.
func (s *basketService) GetBasketByID(ctx context.Context, userID, basketID string) (*models.Basket, error) {
	return s.store.GetBasket(ctx, userID, basketID)
}

// SetBasketStatus toggles a basket between ACTIVE and PAUSED. Every other
// transition has its own operation.
func (s *basketService) SetBasketStatus(ctx context.Context, userID, basketID string, status models.BasketStatus) (*models.Basket, error) {
	if status != models.BasketStatusActive && status != models.BasketStatusPaused {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be ACTIVE or PAUSED")
	}

	var basket *models.Basket
	err := s.store.RunAtomic(ctx, func(tx *ledger.Tx) error {
		b, err := tx.LockBasket(userID, basketID)
		if err != nil {
			return err
		}
		if b.Status == status {
			basket = b
			return nil
		}
		if b.Status != models.BasketStatusActive && b.Status != models.BasketStatusPaused {
			return apperrors.WithMessage(apperrors.ErrInvalidState, fmt.Sprintf("A %s basket cannot be paused or resumed", strings.ToLower(string(b.Status))))
		}
		b.Status = status
		if err := tx.SaveBasket(b); err != nil {
			return err
		}
		basket = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return basket, nil
}

// CancelBasket soft-deletes an empty basket. A basket holding funds cannot
// be cancelled; its transactions stay in the ledger either way.
func (s *basketService) CancelBasket(ctx context.Context, userID, basketID string) (basket *models.Basket, err error) {
	ctx, span := tracer.Start(ctx, "CancelBasket")
	span.SetAttributes(attribute.String("basket.id", basketID))
	defer func() { endSpan(span, err) }()

	err = s.store.RunAtomic(ctx, func(tx *ledger.Tx) error {
		b, err := tx.LockBasket(userID, basketID)
		if err != nil {
			return err
		}
		if b.Status == models.BasketStatusCancelled {
			return apperrors.WithMessage(apperrors.ErrInvalidState, "Basket is already cancelled")
		}
		if !b.CurrentAmount.IsZero() {
			return apperrors.WithMessage(apperrors.ErrInvalidState,
				fmt.Sprintf("Basket still holds %s and cannot be cancelled", b.CurrentAmount.Format()))
		}
		now := s.now()
		b.Status = models.BasketStatusCancelled
		b.CancelledAt = &now
		if err := tx.SaveBasket(b); err != nil {
			return err
		}
		basket = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hooks.Go(ctx, "audit.basket_cancelled", func(ctx context.Context) error {
		s.audit.Record(ctx, AuditEntry{
			ActorID:      userID,
			Action:       "basket_cancelled",
			Category:     models.AuditCategoryFinancial,
			Severity:     models.AuditSeverityWarning,
			Description:  fmt.Sprintf("Cancelled basket %s", basket.Name),
			ResourceType: "basket",
			ResourceID:   basket.ID,
			Metadata:     map[string]any{"goal_amount": basket.GoalAmount.String()},
		})
		return nil
	})
	s.hooks.Go(ctx, "publish.basket_cancelled", func(ctx context.Context) error {
		return s.publisher.Publish(ctx, events.New(events.TypeBasketCancelled, userID, map[string]any{
			"basket_id": basket.ID,
		}))
	})
	return basket, nil
}

// RequestDelivery asks for a completed basket's food to be delivered. Each
// basket can be delivered once.
func (s *basketService) RequestDelivery(ctx context.Context, userID, basketID string) (*models.Basket, error) {
	var basket *models.Basket
	err := s.store.RunAtomic(ctx, func(tx *ledger.Tx) error {
		b, err := tx.LockBasket(userID, basketID)
		if err != nil {
			return err
		}
		if b.Status != models.BasketStatusCompleted {
			return apperrors.WithMessage(apperrors.ErrInvalidState, "Only completed baskets can be delivered")
		}
		if b.DeliveryRequestedAt != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidState, "Delivery has already been requested for this basket")
		}
		now := s.now()
		b.DeliveryRequestedAt = &now
		if err := tx.SaveBasket(b); err != nil {
			return err
		}
		basket = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hooks.Go(ctx, "audit.delivery_requested", func(ctx context.Context) error {
		s.audit.Record(ctx, AuditEntry{
			ActorID:      userID,
			Action:       "delivery_requested",
			Category:     models.AuditCategoryFinancial,
			Severity:     models.AuditSeverityInfo,
			Description:  fmt.Sprintf("Requested delivery of basket %s", basket.Name),
			ResourceType: "basket",
			ResourceID:   basket.ID,
			Metadata:     map[string]any{"amount": basket.CurrentAmount.String()},
		})
		return nil
	})
	s.hooks.Go(ctx, "notify.delivery_requested", func(ctx context.Context) error {
		return s.notifier.Notify(ctx, deliveryRequestedNotification(basket))
	})
	s.hooks.Go(ctx, "publish.delivery_requested", func(ctx context.Context) error {
		return s.publisher.Publish(ctx, events.New(events.TypeDeliveryRequested, userID, map[string]any{
			"basket_id": basket.ID,
			"amount":    basket.CurrentAmount.String(),
		}))
	})
	return basket, nil
}
