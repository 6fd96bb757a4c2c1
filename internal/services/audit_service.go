package services

import (
	"context"
	"encoding/json"

	"chowvest/internal/logger"
	"chowvest/internal/models"

	"gorm.io/gorm"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Record writes an audit entry. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	var metadata string
	if entry.Metadata != nil {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit metadata", "error", err, "action", entry.Action)
			metadata = "{}"
		} else {
			metadata = string(data)
		}
	}
	if entry.Severity == "" {
		entry.Severity = models.AuditSeverityInfo
	}

	meta := requestMetaFrom(ctx)
	row := &models.AuditLog{
		UserID:       entry.ActorID,
		Action:       entry.Action,
		Category:     entry.Category,
		Severity:     entry.Severity,
		Description:  entry.Description,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		Metadata:     metadata,
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", entry.ActorID,
			"action", entry.Action,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
		)
	}
}
