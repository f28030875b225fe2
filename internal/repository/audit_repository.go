package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/carebase/carebase/internal/domain"
)

// AuditLogRepository persists audit entries written by the async audit
// worker.
type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Save(ctx context.Context, entry *domain.AuditLog) error {
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("inserting audit log: %w", err)
	}
	return nil
}
