package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/model"
)

// ReminderLogRepository 提醒幂等标记访问接口
// (scheduled_audit_id, due_date) 上的唯一约束保证并发扫描下标记至多写入一次
type ReminderLogRepository interface {
	// TryInsert 尝试写入标记；返回 true 表示本次为首次写入
	TryInsert(ctx context.Context, scheduledAuditID string, dueDate time.Time) (bool, error)
}

type reminderLogRepo struct {
	db *gorm.DB
}

// NewReminderLogRepo 创建 ReminderLogRepository 实例
func NewReminderLogRepo(db *gorm.DB) ReminderLogRepository {
	return &reminderLogRepo{db: db}
}

func (r *reminderLogRepo) TryInsert(ctx context.Context, scheduledAuditID string, dueDate time.Time) (bool, error) {
	entry := model.ReminderLog{
		ScheduledAuditID: scheduledAuditID,
		DueDate:          dueDate,
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
