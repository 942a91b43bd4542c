package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/model"
)

// AuditRunListFilter 盘点运行列表过滤条件
type AuditRunListFilter struct {
	Status   string
	Page     int
	PageSize int
}

// AuditRunRepository 盘点运行数据访问接口
type AuditRunRepository interface {
	Create(ctx context.Context, run *model.AuditRun) error
	GetByID(ctx context.Context, id string) (*model.AuditRun, error)
	ListByAudit(ctx context.Context, scheduledAuditID string, filter AuditRunListFilter) ([]model.AuditRun, int64, error)
	Update(ctx context.Context, run *model.AuditRun) error
	CountOpen(ctx context.Context, scheduledAuditID string) (int64, error)
}

type auditRunRepo struct {
	db *gorm.DB
}

// NewAuditRunRepo 创建 AuditRunRepository 实例
func NewAuditRunRepo(db *gorm.DB) AuditRunRepository {
	return &auditRunRepo{db: db}
}

func (r *auditRunRepo) Create(ctx context.Context, run *model.AuditRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *auditRunRepo) GetByID(ctx context.Context, id string) (*model.AuditRun, error) {
	var run model.AuditRun
	err := r.db.WithContext(ctx).
		Where("audit_run_id = ?", id).
		First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *auditRunRepo) ListByAudit(ctx context.Context, scheduledAuditID string, filter AuditRunListFilter) ([]model.AuditRun, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditRun{}).
		Where("scheduled_audit_id = ?", scheduledAuditID)

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
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

	var runs []model.AuditRun
	err := q.Order("run_date DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&runs).Error
	return runs, total, err
}

func (r *auditRunRepo) Update(ctx context.Context, run *model.AuditRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

// CountOpen 统计某定义下处于 pending/in_progress 的运行数
func (r *auditRunRepo) CountOpen(ctx context.Context, scheduledAuditID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.AuditRun{}).
		Where("scheduled_audit_id = ?", scheduledAuditID).
		Where("status IN ?", []string{model.RunStatusPending, model.RunStatusInProgress}).
		Count(&n).Error
	return n, err
}
