package domain

import "time"

type AuditAction string

const (
	ActionCreate AuditAction = "create"
	ActionUpdate AuditAction = "update"
	ActionDelete AuditAction = "delete"
)

// AuditLog records every successful mutation. The API is unauthenticated,
// so entries identify the request, not a user.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey"`
	OccurredAt time.Time `gorm:"column:occurred_at;not null;index"`

	Action       AuditAction `gorm:"column:action;type:varchar(20);not null;index"`
	ResourceType string      `gorm:"column:resource_type;type:varchar(50);not null;index"`
	ResourceID   uint        `gorm:"column:resource_id;index"`

	RequestID string `gorm:"column:request_id;type:varchar(50);index"`
	ClientIP  string `gorm:"column:client_ip;type:varchar(45)"` // Supports IPv6
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
