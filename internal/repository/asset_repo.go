package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/model"
)

// AssetFilter 资产查询条件（由 ScopeResolver 构造）
// ExcludeStatuses 必须包含 disposed，ScopeResolver 对所有分支强制附加
type AssetFilter struct {
	Department      *string
	Location        *string
	Category        *string
	Condition       *string
	ExcludeStatuses []string
}

// AuditStamp 盘点回写字段
type AuditStamp struct {
	LastAuditDate time.Time
	LastAuditedBy string
	Condition     *string
}

// AssetRepository 资产目录访问接口（AssetDirectory 端口）
type AssetRepository interface {
	QueryIDs(ctx context.Context, filter AssetFilter) ([]string, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Asset, error)
	UpdateAuditStamp(ctx context.Context, assetID string, stamp AuditStamp) error
}

type assetRepo struct {
	db *gorm.DB
}

// NewAssetRepo 创建 AssetRepository 实例
func NewAssetRepo(db *gorm.DB) AssetRepository {
	return &assetRepo{db: db}
}

// QueryIDs 按过滤条件返回资产 ID 集合（触发时的快照来源）
func (r *assetRepo) QueryIDs(ctx context.Context, filter AssetFilter) ([]string, error) {
	q := r.db.WithContext(ctx).Model(&model.Asset{})

	if filter.Department != nil {
		q = q.Where("department = ?", *filter.Department)
	}
	if filter.Location != nil {
		q = q.Where("location = ?", *filter.Location)
	}
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.Condition != nil {
		q = q.Where("condition = ?", *filter.Condition)
	}
	if len(filter.ExcludeStatuses) > 0 {
		q = q.Where("status NOT IN ?", filter.ExcludeStatuses)
	}

	var ids []string
	err := q.Order("asset_tag ASC").Pluck("asset_id", &ids).Error
	return ids, err
}

func (r *assetRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Asset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var assets []model.Asset
	err := r.db.WithContext(ctx).
		Where("asset_id IN ?", ids).
		Order("asset_tag ASC").
		Find(&assets).Error
	return assets, err
}

// UpdateAuditStamp 将最新盘点时间/盘点人/状况回写到资产记录
func (r *assetRepo) UpdateAuditStamp(ctx context.Context, assetID string, stamp AuditStamp) error {
	updates := map[string]interface{}{
		"last_audit_date": stamp.LastAuditDate,
		"last_audited_by": stamp.LastAuditedBy,
	}
	if stamp.Condition != nil {
		updates["condition"] = *stamp.Condition
	}
	return r.db.WithContext(ctx).
		Model(&model.Asset{}).
		Where("asset_id = ?", assetID).
		Updates(updates).Error
}
