package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/model"
)

// AuditLogRepository 操作审计日志访问接口（AuditTrail 端口，追加写）
type AuditLogRepository interface {
	Append(ctx context.Context, entry *model.AuditLog) error
}

type auditLogRepo struct {
	db *gorm.DB
}

// NewAuditLogRepo 创建 AuditLogRepository 实例
func NewAuditLogRepo(db *gorm.DB) AuditLogRepository {
	return &auditLogRepo{db: db}
}

func (r *auditLogRepo) Append(ctx context.Context, entry *model.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
