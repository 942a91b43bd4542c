package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/model"
	pkgerrors "github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/pkg/errors"
)

// ScheduledAuditListFilter 盘点定义列表过滤条件
// VisibleTo 非 nil 时仅返回该用户创建或被指派为盘点员的定义（服务层对非特权用户设置）
type ScheduledAuditListFilter struct {
	Status    string
	AuditType string
	VisibleTo *string
	Page      int
	PageSize  int
}

// ScheduledAuditRepository 盘点定义数据访问接口
type ScheduledAuditRepository interface {
	Create(ctx context.Context, audit *model.ScheduledAudit) error
	GetByID(ctx context.Context, id string) (*model.ScheduledAudit, error)
	List(ctx context.Context, filter ScheduledAuditListFilter) ([]model.ScheduledAudit, int64, error)
	Update(ctx context.Context, audit *model.ScheduledAudit) error
	Delete(ctx context.Context, id string, deletedBy string) error
	ListDue(ctx context.Context, today time.Time) ([]model.ScheduledAudit, error)
	ListReminderCandidates(ctx context.Context) ([]model.ScheduledAudit, error)
}

type scheduledAuditRepo struct {
	db *gorm.DB
}

// NewScheduledAuditRepo 创建 ScheduledAuditRepository 实例
func NewScheduledAuditRepo(db *gorm.DB) ScheduledAuditRepository {
	return &scheduledAuditRepo{db: db}
}

func (r *scheduledAuditRepo) Create(ctx context.Context, audit *model.ScheduledAudit) error {
	return r.db.WithContext(ctx).Create(audit).Error
}

func (r *scheduledAuditRepo) GetByID(ctx context.Context, id string) (*model.ScheduledAudit, error) {
	var audit model.ScheduledAudit
	err := r.db.WithContext(ctx).
		Where("scheduled_audit_id = ?", id).
		First(&audit).Error
	if err != nil {
		return nil, err
	}
	return &audit, nil
}

func (r *scheduledAuditRepo) List(ctx context.Context, filter ScheduledAuditListFilter) ([]model.ScheduledAudit, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ScheduledAudit{})

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.AuditType != "" {
		q = q.Where("audit_type = ?", filter.AuditType)
	}
	if filter.VisibleTo != nil {
		q = q.Where("created_by = ? OR ? = ANY(auditor_ids)", *filter.VisibleTo, *filter.VisibleTo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var audits []model.ScheduledAudit
	err := q.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&audits).Error
	return audits, total, err
}

// Update 以读取时的 updated_at 做乐观锁条件：并发修改导致零行命中时
// 返回 ErrOptimisticLock，调用方提示刷新后重试
func (r *scheduledAuditRepo) Update(ctx context.Context, audit *model.ScheduledAudit) error {
	seen := audit.UpdatedAt
	res := r.db.WithContext(ctx).
		Model(&model.ScheduledAudit{}).
		Where("scheduled_audit_id = ? AND updated_at = ?", audit.ScheduledAuditID, seen).
		Select("*").
		Omit("scheduled_audit_id", "created_at", "created_by").
		Updates(audit)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *scheduledAuditRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduledAudit{}).
		Where("scheduled_audit_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

// ListDue 返回 next_run_date 已到期的 active 定义（触发扫描使用）
// end_date 已过的定义不再触发（排期时也会清空，这里兜底历史行）
func (r *scheduledAuditRepo) ListDue(ctx context.Context, today time.Time) ([]model.ScheduledAudit, error) {
	var audits []model.ScheduledAudit
	err := r.db.WithContext(ctx).
		Where("status = ?", model.AuditStatusActive).
		Where("next_run_date IS NOT NULL AND next_run_date <= ?", today).
		Where("end_date IS NULL OR next_run_date <= end_date").
		Order("next_run_date ASC").
		Find(&audits).Error
	return audits, err
}

// ListReminderCandidates 返回开启提醒且有下次运行日期的 active 定义
func (r *scheduledAuditRepo) ListReminderCandidates(ctx context.Context) ([]model.ScheduledAudit, error) {
	var audits []model.ScheduledAudit
	err := r.db.WithContext(ctx).
		Where("status = ?", model.AuditStatusActive).
		Where("reminder_enabled = ?", true).
		Where("next_run_date IS NOT NULL").
		Find(&audits).Error
	return audits, err
}
