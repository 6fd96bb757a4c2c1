package models

// AuditCategory groups audit entries for reporting.
type AuditCategory string

const (
	AuditCategoryAuth      AuditCategory = "auth"
	AuditCategoryFinancial AuditCategory = "financial"
	AuditCategoryProfile   AuditCategory = "profile"
	AuditCategorySecurity  AuditCategory = "security"
)

// AuditSeverity ranks how urgently an entry should be reviewed.
type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "info"
	AuditSeverityWarning  AuditSeverity = "warning"
	AuditSeverityCritical AuditSeverity = "critical"
)

// AuditLog records sensitive user operations for security and compliance.
type AuditLog struct {
	Base
	UserID       string        `gorm:"type:uuid;not null;index" json:"user_id"`
	Action       string        `gorm:"size:64;not null;index" json:"action"`
	Category     AuditCategory `gorm:"size:20;not null" json:"category"`
	Severity     AuditSeverity `gorm:"size:20;not null" json:"severity"`
	Description  string        `gorm:"size:500" json:"description"`
	ResourceType string        `gorm:"size:50" json:"resource_type"`
	ResourceID   string        `gorm:"size:64" json:"resource_id"`
	IPAddress    string        `gorm:"size:64" json:"ip_address"`
	UserAgent    string        `gorm:"size:255" json:"user_agent"`
	Metadata     string        `gorm:"type:text" json:"metadata,omitempty"`
}
