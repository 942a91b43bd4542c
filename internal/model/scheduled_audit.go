package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── 枚举 ──

// RecurrenceType 重复周期
type RecurrenceType string

const (
	RecurrenceOnce      RecurrenceType = "once"
	RecurrenceDaily     RecurrenceType = "daily"
	RecurrenceWeekly    RecurrenceType = "weekly"
	RecurrenceMonthly   RecurrenceType = "monthly"
	RecurrenceQuarterly RecurrenceType = "quarterly"
	RecurrenceYearly    RecurrenceType = "yearly"
)

// ScopeType 盘点范围类型
type ScopeType string

const (
	ScopeAll          ScopeType = "all"
	ScopeDepartment   ScopeType = "department"
	ScopeLocation     ScopeType = "location"
	ScopeCategory     ScopeType = "category"
	ScopeCustomFilter ScopeType = "custom_filter"
)

// 盘点定义状态
const (
	AuditStatusActive   = "active"
	AuditStatusPaused   = "paused"
	AuditStatusArchived = "archived"
)

// ── JSONB 辅助类型 ──

// JSONStringSlice 对应 JSONB 字符串数组（检查项清单）
type JSONStringSlice []string

// Scan 实现 sql.Scanner
func (s *JSONStringSlice) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("JSONStringSlice.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, s)
}

// Value 实现 driver.Valuer
func (s JSONStringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// CustomScopeFilter custom_filter 范围的结构化过滤条件（JSONB）
// 仅支持白名单字段的精确匹配，资产处置状态的排除由 ScopeResolver 强制附加
type CustomScopeFilter struct {
	Department *string `json:"department,omitempty"`
	Location   *string `json:"location,omitempty"`
	Category   *string `json:"category,omitempty"`
	Condition  *string `json:"condition,omitempty"`
}

// Scan 实现 sql.Scanner
func (f *CustomScopeFilter) Scan(src interface{}) error {
	if src == nil {
		*f = CustomScopeFilter{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("CustomScopeFilter.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, f)
}

// Value 实现 driver.Valuer
func (f CustomScopeFilter) Value() (driver.Value, error) {
	return json.Marshal(f)
}

// ── 盘点定义 ──

// ReminderSettings 提醒设置（嵌入 scheduled_audits 表）
type ReminderSettings struct {
	Enabled    bool `gorm:"column:reminder_enabled;not null;default:false"     json:"enabled"`
	DaysBefore int  `gorm:"column:reminder_days_before;not null;default:1"     json:"days_before"`
	SendEmail  bool `gorm:"column:reminder_send_email;not null;default:true"   json:"send_email"`
	SendInApp  bool `gorm:"column:reminder_send_in_app;not null;default:true"  json:"send_in_app"`
}

// ScheduledAudit 定期盘点定义表 — 对应 scheduled_audits
type ScheduledAudit struct {
	ScheduledAuditID string             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"scheduled_audit_id"`
	Name             string             `gorm:"type:varchar(200);not null"                     json:"name"`
	Description      string             `gorm:"type:text"                                      json:"description,omitempty"`
	AuditType        string             `gorm:"type:varchar(50);not null;default:'full'"       json:"audit_type"` // full | spot_check | compliance
	RecurrenceType   RecurrenceType     `gorm:"type:varchar(20);not null"                      json:"recurrence_type"`
	StartDate        time.Time          `gorm:"type:date;not null"                             json:"start_date"`
	EndDate          *time.Time         `gorm:"type:date"                                      json:"end_date,omitempty"`
	NextRunDate      *time.Time         `gorm:"type:date"                                      json:"next_run_date,omitempty"`
	LastRunDate      *time.Time         `gorm:"type:date"                                      json:"last_run_date,omitempty"`
	TotalRuns        int                `gorm:"not null;default:0"                             json:"total_runs"`
	ScopeType        ScopeType          `gorm:"type:varchar(20);not null"                      json:"scope_type"`
	ScopeValue       *string            `gorm:"type:varchar(100)"                              json:"scope_value,omitempty"` // department/location/category 的精确匹配值
	ScopeFilter      *CustomScopeFilter `gorm:"type:jsonb"                                     json:"scope_filter,omitempty"`
	AuditorIDs       StringArray        `gorm:"type:uuid[];not null;default:'{}'"              json:"auditor_ids"`
	AutoAssign       bool               `gorm:"not null;default:false"                         json:"auto_assign"`
	Reminder         ReminderSettings   `gorm:"embedded"                                       json:"reminder_settings"`
	Checklist        JSONStringSlice    `gorm:"type:jsonb"                                     json:"checklist,omitempty"`
	RecipientIDs     StringArray        `gorm:"type:uuid[];not null;default:'{}'"              json:"recipient_ids"`
	Status           string             `gorm:"type:varchar(20);not null;default:'active'"     json:"status"` // active | paused | archived
	SoftDeleteModel
}

// TableName 指定表名
func (ScheduledAudit) TableName() string { return "scheduled_audits" }

// ReminderLog 提醒幂等标记表 — 对应 reminder_logs
// (scheduled_audit_id, due_date) 唯一约束保证同一到期日只发送一次提醒
type ReminderLog struct {
	ReminderLogID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"   json:"reminder_log_id"`
	ScheduledAuditID string    `gorm:"type:uuid;not null;uniqueIndex:uq_reminder_per_due" json:"scheduled_audit_id"`
	DueDate          time.Time `gorm:"type:date;not null;uniqueIndex:uq_reminder_per_due" json:"due_date"`
	SentAt           time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"               json:"sent_at"`
}

// TableName 指定表名
func (ReminderLog) TableName() string { return "reminder_logs" }

// [自证通过] internal/model/scheduled_audit.go
