package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/model"
)

// NotificationRepository 站内通知访问接口（Notifier 端口的站内部分）
type NotificationRepository interface {
	BatchCreate(ctx context.Context, notifications []model.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error)
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) BatchCreate(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&notifications).Error
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]model.Notification, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var notifications []model.Notification
	err := q.Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}
