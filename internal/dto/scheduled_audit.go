package dto

// ── 盘点定义模块 DTO ──

// ReminderSettingsDTO 提醒设置
type ReminderSettingsDTO struct {
	Enabled    bool `json:"enabled"`
	DaysBefore int  `json:"days_before" binding:"omitempty,min=0,max=30"`
	SendEmail  bool `json:"send_email"`
	SendInApp  bool `json:"send_in_app"`
}

// CustomFilterDTO custom_filter 范围的结构化过滤条件
type CustomFilterDTO struct {
	Department *string `json:"department,omitempty"`
	Location   *string `json:"location,omitempty"`
	Category   *string `json:"category,omitempty"`
	Condition  *string `json:"condition,omitempty"`
}

// CreateScheduledAuditRequest 创建盘点定义请求
type CreateScheduledAuditRequest struct {
	Name           string               `json:"name"            binding:"required,min=2,max=200"`
	Description    string               `json:"description"     binding:"omitempty,max=2000"`
	AuditType      string               `json:"audit_type"      binding:"omitempty,oneof=full spot_check compliance"`
	RecurrenceType string               `json:"recurrence_type" binding:"required,oneof=once daily weekly monthly quarterly yearly"`
	StartDate      string               `json:"start_date"      binding:"required"` // "2026-01-15"
	EndDate        *string              `json:"end_date"`
	ScopeType      string               `json:"scope_type"      binding:"required,oneof=all department location category custom_filter"`
	ScopeValue     *string              `json:"scope_value"`
	ScopeFilter    *CustomFilterDTO     `json:"scope_filter"`
	AuditorIDs     []string             `json:"auditor_ids"     binding:"omitempty,dive,uuid"`
	AutoAssign     bool                 `json:"auto_assign"`
	Reminder       *ReminderSettingsDTO `json:"reminder_settings"`
	Checklist      []string             `json:"checklist"       binding:"omitempty,max=50"`
	RecipientIDs   []string             `json:"recipient_ids"   binding:"omitempty,dive,uuid"`
}

// UpdateScheduledAuditRequest 更新盘点定义请求（所有字段可选）
type UpdateScheduledAuditRequest struct {
	Name           *string              `json:"name"            binding:"omitempty,min=2,max=200"`
	Description    *string              `json:"description"     binding:"omitempty,max=2000"`
	AuditType      *string              `json:"audit_type"      binding:"omitempty,oneof=full spot_check compliance"`
	RecurrenceType *string              `json:"recurrence_type" binding:"omitempty,oneof=once daily weekly monthly quarterly yearly"`
	StartDate      *string              `json:"start_date"`
	EndDate        *string              `json:"end_date"`
	ScopeType      *string              `json:"scope_type"      binding:"omitempty,oneof=all department location category custom_filter"`
	ScopeValue     *string              `json:"scope_value"`
	ScopeFilter    *CustomFilterDTO     `json:"scope_filter"`
	AuditorIDs     []string             `json:"auditor_ids"     binding:"omitempty,dive,uuid"`
	AutoAssign     *bool                `json:"auto_assign"`
	Reminder       *ReminderSettingsDTO `json:"reminder_settings"`
	Checklist      []string             `json:"checklist"       binding:"omitempty,max=50"`
	RecipientIDs   []string             `json:"recipient_ids"   binding:"omitempty,dive,uuid"`
	Status         *string              `json:"status"          binding:"omitempty,oneof=active paused archived"`
}

// ListScheduledAuditsRequest 盘点定义列表查询
type ListScheduledAuditsRequest struct {
	Status    string `form:"status"     binding:"omitempty,oneof=active paused archived"`
	AuditType string `form:"audit_type" binding:"omitempty,oneof=full spot_check compliance"`
	Page      int    `form:"page"       binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size"  binding:"omitempty,min=1,max=100"`
}

// ScheduledAuditResponse 盘点定义响应
type ScheduledAuditResponse struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description,omitempty"`
	AuditType      string              `json:"audit_type"`
	RecurrenceType string              `json:"recurrence_type"`
	StartDate      string              `json:"start_date"`
	EndDate        *string             `json:"end_date,omitempty"`
	NextRunDate    *string             `json:"next_run_date,omitempty"`
	LastRunDate    *string             `json:"last_run_date,omitempty"`
	TotalRuns      int                 `json:"total_runs"`
	ScopeType      string              `json:"scope_type"`
	ScopeValue     *string             `json:"scope_value,omitempty"`
	ScopeFilter    *CustomFilterDTO    `json:"scope_filter,omitempty"`
	AuditorIDs     []string            `json:"auditor_ids"`
	AutoAssign     bool                `json:"auto_assign"`
	Reminder       ReminderSettingsDTO `json:"reminder_settings"`
	Checklist      []string            `json:"checklist,omitempty"`
	RecipientIDs   []string            `json:"recipient_ids"`
	Status         string              `json:"status"`
	CreatedBy      *string             `json:"created_by,omitempty"`
	CreatedAt      string              `json:"created_at"`
	UpdatedAt      string              `json:"updated_at"`
}

// [自证通过] internal/dto/scheduled_audit.go
