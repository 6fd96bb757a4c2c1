package services

import (
	"context"
	"encoding/json"
	"time"

	apperrors "chowvest/internal/errors"
	"chowvest/internal/events"
	"chowvest/internal/logger"
	"chowvest/internal/models"
	"chowvest/internal/pagination"

	"gorm.io/gorm"
)

// notificationService stores in-app notifications and announces them on the
// event stream for push delivery.
type notificationService struct {
	db        *gorm.DB
	publisher events.Publisher
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB, publisher events.Publisher) NotificationServicer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &notificationService{db: db, publisher: publisher}
}

// Notify persists a notification. A failed publish is logged; the stored row
// is what the user sees.
func (s *notificationService) Notify(ctx context.Context, in NotificationInput) error {
	n := &models.Notification{
		UserID:  in.UserID,
		Type:    in.Type,
		Title:   in.Title,
		Message: in.Message,
		Link:    in.Link,
	}
	if in.Metadata != nil {
		data, err := json.Marshal(in.Metadata)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		n.Metadata = string(data)
	}

	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	event := events.New(events.TypeNotificationCreated, n.UserID, n)
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Get().Warnw("failed to publish notification event", "error", err, "notification_id", n.ID)
	}
	return nil
}

// GetUserNotifications returns one page of notifications, newest first.
func (s *notificationService) GetUserNotifications(ctx context.Context, userID string, page pagination.PageRequest, unreadOnly bool) (*NotificationList, error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("read = ?", false)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var notifications []models.Notification
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var unread int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &NotificationList{
		PageResponse: pagination.NewPageResponse(notifications, page.Page, page.PageSize, totalItems),
		UnreadCount:  unread,
	}, nil
}

// MarkAsRead flags the given notifications, or all of the user's unread ones,
// as read and returns how many changed.
func (s *notificationService) MarkAsRead(ctx context.Context, userID string, ids []string, all bool) (int64, error) {
	if !all && len(ids) == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "notification_ids or all is required")
	}

	q := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ? AND read = ?", userID, false)
	if !all {
		q = q.Where("id IN ?", ids)
	}

	now := time.Now()
	res := q.Updates(map[string]any{"read": true, "read_at": now})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}
