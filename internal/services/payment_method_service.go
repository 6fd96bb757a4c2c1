package services

import (
	"context"
	"errors"
	"strings"

	apperrors "chowvest/internal/errors"
	"chowvest/internal/models"

	"gorm.io/gorm"
)

type paymentMethodService struct {
	db    *gorm.DB
	audit AuditServicer
}

// NewPaymentMethodService creates a new PaymentMethodServicer.
func NewPaymentMethodService(db *gorm.DB, audit AuditServicer) PaymentMethodServicer {
	return &paymentMethodService{db: db, audit: audit}
}

// ListPaymentMethods returns the user's active methods, primary first, then
// most recently used.
func (s *paymentMethodService) ListPaymentMethods(ctx context.Context, userID string) ([]models.SavedPaymentMethod, error) {
	methods := []models.SavedPaymentMethod{}
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("is_primary DESC").
		Order("last_used_at IS NULL, last_used_at DESC").
		Order("created_at DESC").
		Find(&methods).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return methods, nil
}

// AddPaymentMethod stores a new method. Making it primary demotes the
// user's current primary in the same transaction.
func (s *paymentMethodService) AddPaymentMethod(ctx context.Context, userID string, in AddPaymentMethodInput) (*models.SavedPaymentMethod, error) {
	if !in.Type.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unsupported payment method type")
	}
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Type and provider are required")
	}

	method := &models.SavedPaymentMethod{
		UserID:            userID,
		Type:              in.Type,
		Provider:          provider,
		AuthorizationCode: in.AuthorizationCode,
		Signature:         in.Signature,
		CardBrand:         in.CardBrand,
		CardLast4:         in.CardLast4,
		CardExpMonth:      in.CardExpMonth,
		CardExpYear:       in.CardExpYear,
		CardBin:           in.CardBin,
		CardBank:          in.CardBank,
		CardCountry:       in.CardCountry,
		BankName:          in.BankName,
		AccountNumber:     in.AccountNumber,
		IsPrimary:         in.IsPrimary,
		IsActive:          true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.IsPrimary {
			if err := tx.Model(&models.SavedPaymentMethod{}).
				Where("user_id = ? AND is_primary = ?", userID, true).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(method).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidState, "Another primary payment method was set at the same time, please retry")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      userID,
		Action:       "payment_method_added",
		Category:     models.AuditCategorySecurity,
		Description:  "Saved a " + string(method.Type) + " payment method",
		ResourceType: "payment_method",
		ResourceID:   method.ID,
		Metadata:     map[string]any{"provider": method.Provider, "primary": method.IsPrimary},
	})
	return method, nil
}

// RemovePaymentMethod deactivates methodID. Unknown, foreign and already
// removed methods all report NOT_FOUND.
func (s *paymentMethodService) RemovePaymentMethod(ctx context.Context, userID, methodID string) error {
	res := s.db.WithContext(ctx).Model(&models.SavedPaymentMethod{}).
		Where("id = ? AND user_id = ? AND is_active = ?", methodID, userID, true).
		Updates(map[string]any{"is_active": false, "is_primary": false})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrPaymentMethodNotFound
	}

	s.audit.Record(ctx, AuditEntry{
		ActorID:      userID,
		Action:       "payment_method_removed",
		Category:     models.AuditCategorySecurity,
		Description:  "Removed a saved payment method",
		ResourceType: "payment_method",
		ResourceID:   methodID,
	})
	return nil
}
