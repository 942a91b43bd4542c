package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// 盘点运行状态（仅允许正向流转 pending → in_progress → completed）
const (
	RunStatusPending    = "pending"
	RunStatusInProgress = "in_progress"
	RunStatusCompleted  = "completed"
	RunStatusCancelled  = "cancelled"
)

// 单项盘点结论
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeDamaged  = "damaged"
	OutcomeMissing  = "missing"
)

// Observation 单个资产的盘点结论
type Observation struct {
	AssetID   string    `json:"asset_id"`
	AuditedAt time.Time `json:"audited_at"`
	AuditedBy string    `json:"audited_by"`
	Outcome   string    `json:"outcome"` // found | not_found | damaged | missing
	Condition string    `json:"condition,omitempty"`
	Location  string    `json:"location,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// ObservationMap 以资产 ID 为键的盘点结论集合（JSONB）
// map 结构天然保证同一资产至多一条结论：后提交覆盖先提交
type ObservationMap map[string]Observation

// Scan 实现 sql.Scanner
func (m *ObservationMap) Scan(src interface{}) error {
	if src == nil {
		*m = ObservationMap{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("ObservationMap.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, m)
}

// Value 实现 driver.Valuer
func (m ObservationMap) Value() (driver.Value, error) {
	if m == nil {
		m = ObservationMap{}
	}
	return json.Marshal(m)
}

// AuditRun 盘点运行表 — 对应 scheduled_audit_runs
// assets_to_audit 为触发时刻的资产快照，此后不随资产变动重算
type AuditRun struct {
	AuditRunID           string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_run_id"`
	ScheduledAuditID     string         `gorm:"type:uuid;not null;index"                       json:"scheduled_audit_id"`
	RunDate              time.Time      `gorm:"not null"                                       json:"run_date"`
	Status               string         `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | in_progress | completed | cancelled
	AssetsToAudit        StringArray    `gorm:"type:uuid[];not null;default:'{}'"              json:"assets_to_audit"`
	TotalAssets          int            `gorm:"not null;default:0"                             json:"total_assets"`
	AuditorIDs           StringArray    `gorm:"type:uuid[];not null;default:'{}'"              json:"auditor_ids"` // 触发时从定义拷贝
	Observations         ObservationMap `gorm:"type:jsonb;not null;default:'{}'"               json:"observations"`
	FoundCount           int            `gorm:"not null;default:0"                             json:"found_count"`
	NotFoundCount        int            `gorm:"not null;default:0"                             json:"not_found_count"`
	DamagedCount         int            `gorm:"not null;default:0"                             json:"damaged_count"`
	MissingCount         int            `gorm:"not null;default:0"                             json:"missing_count"`
	CompletionPercentage float64        `gorm:"type:numeric(5,2);not null;default:0"           json:"completion_percentage"`
	StartedAt            *time.Time     `json:"started_at,omitempty"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`
	CreatedAt            time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (AuditRun) TableName() string { return "scheduled_audit_runs" }

// RecountOutcomes 依据去重后的结论 map 重算各结论计数与完成率
func (r *AuditRun) RecountOutcomes() {
	var found, notFound, damaged, missing int
	for _, obs := range r.Observations {
		switch obs.Outcome {
		case OutcomeFound:
			found++
		case OutcomeNotFound:
			notFound++
		case OutcomeDamaged:
			damaged++
		case OutcomeMissing:
			missing++
		}
	}
	r.FoundCount = found
	r.NotFoundCount = notFound
	r.DamagedCount = damaged
	r.MissingCount = missing

	if r.TotalAssets > 0 {
		r.CompletionPercentage = float64(len(r.Observations)) / float64(r.TotalAssets) * 100
	} else {
		r.CompletionPercentage = 0
	}
}

// [自证通过] internal/model/audit_run.go
