package models

import "time"

// NotificationType identifies what a notification is about.
type NotificationType string

const (
	NotificationTypeTransaction     NotificationType = "transaction"
	NotificationTypeBasketMilestone NotificationType = "basket_milestone"
	NotificationTypeGoalCompleted   NotificationType = "goal_completed"
	NotificationTypeDelivery        NotificationType = "delivery"
	NotificationTypeSecurityAlert   NotificationType = "security_alert"
)

// Notification is an in-app message for a user.
type Notification struct {
	Base
	UserID   string           `gorm:"type:uuid;not null;index" json:"user_id"`
	Type     NotificationType `gorm:"size:30;not null" json:"type"`
	Title    string           `gorm:"size:150;not null" json:"title"`
	Message  string           `gorm:"size:500;not null" json:"message"`
	Link     string           `gorm:"size:255" json:"link,omitempty"`
	Read     bool             `gorm:"not null;default:false;index" json:"read"`
	ReadAt   *time.Time       `json:"read_at,omitempty"`
	Metadata string           `gorm:"type:text" json:"metadata,omitempty"`
}
