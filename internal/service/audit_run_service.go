package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/dto"
	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/model"
	"github.com/kevallathiya-74/Online-Dead-Stock-Register-sub001/internal/repository"
)

// ── 盘点运行模块业务错误 ──

var (
	ErrAuditRunNotFound        = errors.New("盘点运行不存在")
	ErrScheduledAuditNotActive = errors.New("盘点定义非 active 状态，不可触发")
	ErrRunStillOpen            = errors.New("该定义存在未完成的盘点运行，不可重复触发")
	ErrAuditorNotAssigned      = errors.New("当前用户不是该盘点运行的指派盘点员")
	ErrAssetNotInScope         = errors.New("资产不在本次盘点范围内")
	ErrRunAlreadyCompleted     = errors.New("盘点运行已完成，不再接受提交")
	ErrRunCancelled            = errors.New("盘点运行已取消，不再接受提交")
)

// AuditRunService 盘点运行业务接口
type AuditRunService interface {
	// TriggerRun 由定时驱动或特权用户触发一次盘点运行
	TriggerRun(ctx context.Context, scheduledAuditID string) (*dto.AuditRunResponse, error)
	// RecordProgress 盘点员提交单个资产的盘点结论
	RecordProgress(ctx context.Context, runID, auditorID string, req *dto.RecordProgressRequest) (*dto.ProgressResponse, error)
	// GetRun 查询单个盘点运行
	GetRun(ctx context.Context, runID string) (*dto.AuditRunResponse, error)
	// ListRuns 查询某定义下的盘点运行（分页）
	ListRuns(ctx context.Context, scheduledAuditID string, req *dto.ListRunsRequest) ([]dto.AuditRunResponse, int64, error)
}

// runLocker 以运行 ID 为粒度的互斥锁集合
// 同一运行的并发提交串行化，不同运行完全并行；锁只保护内存状态与行写入，
// 不覆盖对外部端口的 I/O
type runLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRunLocker() *runLocker {
	return &runLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *runLocker) forRun(runID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.locks[runID]; ok {
		return m
	}
	m := &sync.Mutex{}
	l.locks[runID] = m
	return m
}

// release 运行完成后回收锁，避免 map 无界增长
func (l *runLocker) release(runID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, runID)
}

type auditRunService struct {
	repo   *repository.Repository
	clock  Clock
	locker *runLocker
	logger *zap.Logger
}

// NewAuditRunService 创建 AuditRunService 实例
func NewAuditRunService(repo *repository.Repository, clock Clock, logger *zap.Logger) AuditRunService {
	return &auditRunService{
		repo:   repo,
		clock:  clock,
		locker: newRunLocker(),
		logger: logger,
	}
}

// ════════════════════════════════════════════════════════════
// TriggerRun — 触发盘点运行
// ════════════════════════════════════════════════════════════
//
// 1. 解析范围为固定的资产 ID 快照 S（此后资产变动不影响本次运行）
// 2. 创建 AuditRun{assets_to_audit=S, total_assets=|S|, status=pending}
// 3. 定义 bookkeeping：total_runs+1、last_run_date=今天、重算 next_run_date
// 4. 通知盘点员与抄送人（尽力而为，失败不回滚）

func (s *auditRunService) TriggerRun(ctx context.Context, scheduledAuditID string) (*dto.AuditRunResponse, error) {
	audit, err := s.repo.ScheduledAudit.GetByID(ctx, scheduledAuditID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduledAuditNotFound
		}
		s.logger.Error("查询盘点定义失败", zap.String("id", scheduledAuditID), zap.Error(err))
		return nil, err
	}

	if audit.Status != model.AuditStatusActive {
		return nil, ErrScheduledAuditNotActive
	}

	// 同一定义同时只允许一个未完成运行
	open, err := s.repo.AuditRun.CountOpen(ctx, scheduledAuditID)
	if err != nil {
		s.logger.Error("统计未完成运行失败", zap.Error(err))
		return nil, err
	}
	if open > 0 {
		return nil, ErrRunStillOpen
	}

	// 解析范围快照
	filter, err := BuildAssetFilter(audit.ScopeType, audit.ScopeValue, audit.ScopeFilter)
	if err != nil {
		return nil, err
	}
	assetIDs, err := s.repo.Asset.QueryIDs(ctx, filter)
	if err != nil {
		s.logger.Error("解析盘点范围失败", zap.Error(err))
		return nil, err
	}

	now := s.clock.Now()
	today := Today(now)

	run := &model.AuditRun{
		ScheduledAuditID: audit.ScheduledAuditID,
		RunDate:          now,
		Status:           model.RunStatusPending,
		AssetsToAudit:    model.StringArray(assetIDs),
		TotalAssets:      len(assetIDs),
		AuditorIDs:       audit.AuditorIDs,
		Observations:     model.ObservationMap{},
	}

	// 定义 bookkeeping
	audit.TotalRuns++
	audit.LastRunDate = &today
	if audit.RecurrenceType == model.RecurrenceOnce {
		audit.NextRunDate = nil
	} else {
		next, err := ComputeNextRun(audit.StartDate, audit.RecurrenceType, audit.LastRunDate)
		if err != nil {
			return nil, err
		}
		// 超出 end_date 的排期视为计划结束
		audit.NextRunDate = ClampToEndDate(next, audit.EndDate)
	}

	// 运行创建与定义 bookkeeping 同事务提交：要么全部生效，要么调用方在任何变更前看到错误
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.AuditRun.Create(ctx, run); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("创建盘点运行失败", zap.Error(err))
		return nil, err
	}
	if err := txRepo.ScheduledAudit.Update(ctx, audit); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("更新盘点定义排期失败", zap.Error(err))
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	// ── 以下为尽力而为的副作用，失败不影响已提交的领域状态 ──

	s.notifyRunCreated(ctx, audit, run)
	s.appendTrail(ctx, nil, "trigger_run", run.AuditRunID, model.JSONMap{
		"scheduled_audit_id": audit.ScheduledAuditID,
		"total_assets":       run.TotalAssets,
	})

	return toAuditRunResponse(run), nil
}

// ════════════════════════════════════════════════════════════
// RecordProgress — 提交盘点结论
// ════════════════════════════════════════════════════════════
//
// 同一运行的提交串行化（per-run 临界区），临界区内只做内存更新与行写入；
// 资产目录回写与审计日志在临界区外尽力而为

func (s *auditRunService) RecordProgress(ctx context.Context, runID, auditorID string, req *dto.RecordProgressRequest) (*dto.ProgressResponse, error) {
	lock := s.locker.forRun(runID)
	lock.Lock()

	run, err := s.repo.AuditRun.GetByID(ctx, runID)
	if err != nil {
		lock.Unlock()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuditRunNotFound
		}
		s.logger.Error("查询盘点运行失败", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}

	// 状态与权限校验；任何失败都发生在任何变更之前
	switch run.Status {
	case model.RunStatusCompleted:
		lock.Unlock()
		return nil, ErrRunAlreadyCompleted
	case model.RunStatusCancelled:
		lock.Unlock()
		return nil, ErrRunCancelled
	}
	if !run.AuditorIDs.Contains(auditorID) {
		lock.Unlock()
		return nil, ErrAuditorNotAssigned
	}
	if !run.AssetsToAudit.Contains(req.AssetID) {
		lock.Unlock()
		return nil, ErrAssetNotInScope
	}

	now := s.clock.Now()

	// 以资产 ID 为键 upsert：同一资产的后续提交覆盖而非累加
	if run.Observations == nil {
		run.Observations = model.ObservationMap{}
	}
	run.Observations[req.AssetID] = model.Observation{
		AssetID:   req.AssetID,
		AuditedAt: now,
		AuditedBy: auditorID,
		Outcome:   req.Outcome,
		Condition: req.Condition,
		Location:  req.Location,
		Notes:     req.Notes,
	}
	run.RecountOutcomes()

	// 状态机只允许正向流转
	if run.Status == model.RunStatusPending {
		run.Status = model.RunStatusInProgress
		run.StartedAt = &now
	}
	completed := len(run.Observations) == run.TotalAssets
	if completed {
		run.Status = model.RunStatusCompleted
		run.CompletedAt = &now
	}

	if err := s.repo.AuditRun.Update(ctx, run); err != nil {
		lock.Unlock()
		s.logger.Error("更新盘点运行失败", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}

	lock.Unlock()
	if completed {
		s.locker.release(runID)
	}

	// ── 临界区外的尽力而为副作用 ──

	var condition *string
	if req.Condition != "" {
		condition = &req.Condition
	}
	if err := s.repo.Asset.UpdateAuditStamp(ctx, req.AssetID, repository.AuditStamp{
		LastAuditDate: now,
		LastAuditedBy: auditorID,
		Condition:     condition,
	}); err != nil {
		s.logger.Warn("回写资产盘点戳失败",
			zap.String("asset_id", req.AssetID),
			zap.Error(err),
		)
	}

	s.appendTrail(ctx, &auditorID, "record_progress", runID, model.JSONMap{
		"asset_id": req.AssetID,
		"outcome":  req.Outcome,
	})

	return &dto.ProgressResponse{
		CompletionPercentage: run.CompletionPercentage,
		IsComplete:           completed,
	}, nil
}

// ────────────────────── GetRun ──────────────────────

func (s *auditRunService) GetRun(ctx context.Context, runID string) (*dto.AuditRunResponse, error) {
	run, err := s.repo.AuditRun.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuditRunNotFound
		}
		s.logger.Error("查询盘点运行失败", zap.String("run_id", runID), zap.Error(err))
		return nil, err
	}
	return toAuditRunResponse(run), nil
}

// ────────────────────── ListRuns ──────────────────────

func (s *auditRunService) ListRuns(ctx context.Context, scheduledAuditID string, req *dto.ListRunsRequest) ([]dto.AuditRunResponse, int64, error) {
	runs, total, err := s.repo.AuditRun.ListByAudit(ctx, scheduledAuditID, repository.AuditRunListFilter{
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		s.logger.Error("列出盘点运行失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.AuditRunResponse, 0, len(runs))
	for i := range runs {
		result = append(result, *toAuditRunResponse(&runs[i]))
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

// notifyRunCreated 向盘点员与抄送人写入站内通知（尽力而为）
func (s *auditRunService) notifyRunCreated(ctx context.Context, audit *model.ScheduledAudit, run *model.AuditRun) {
	userIDs := unionIDs(audit.AuditorIDs, audit.RecipientIDs)
	if len(userIDs) == 0 {
		return
	}

	relatedType := "audit_run"
	notifications := make([]model.Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		runID := run.AuditRunID
		notifications = append(notifications, model.Notification{
			UserID:      uid,
			Type:        "audit_assigned",
			Title:       "盘点任务已创建: " + audit.Name,
			Content:     fmt.Sprintf("本次盘点共涉及 %d 项资产，请及时处理。", run.TotalAssets),
			RelatedType: &relatedType,
			RelatedID:   &runID,
		})
	}

	if err := s.repo.Notification.BatchCreate(ctx, notifications); err != nil {
		s.logger.Warn("写入盘点通知失败",
			zap.String("scheduled_audit_id", audit.ScheduledAuditID),
			zap.Error(err),
		)
	}
}

func (s *auditRunService) appendTrail(ctx context.Context, actorID *string, action, entityID string, details model.JSONMap) {
	entry := &model.AuditLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: "audit_run",
		EntityID:   &entityID,
		Details:    details,
	}
	if err := s.repo.AuditLog.Append(ctx, entry); err != nil {
		s.logger.Warn("写入审计日志失败", zap.String("action", action), zap.Error(err))
	}
}

// unionIDs 合并两组用户 ID 并去重
func unionIDs(a, b model.StringArray) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	result := make([]string, 0, len(a)+len(b))
	for _, id := range a {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}
	return result
}

func toAuditRunResponse(run *model.AuditRun) *dto.AuditRunResponse {
	observations := make([]dto.ObservationResponse, 0, len(run.Observations))
	for _, obs := range run.Observations {
		observations = append(observations, dto.ObservationResponse{
			AssetID:   obs.AssetID,
			AuditedAt: obs.AuditedAt.Format("2006-01-02T15:04:05Z"),
			AuditedBy: obs.AuditedBy,
			Outcome:   obs.Outcome,
			Condition: obs.Condition,
			Location:  obs.Location,
			Notes:     obs.Notes,
		})
	}

	return &dto.AuditRunResponse{
		ID:                   run.AuditRunID,
		ScheduledAuditID:     run.ScheduledAuditID,
		RunDate:              run.RunDate.Format("2006-01-02T15:04:05Z"),
		Status:               run.Status,
		AssetsToAudit:        run.AssetsToAudit,
		TotalAssets:          run.TotalAssets,
		AuditorIDs:           run.AuditorIDs,
		Observations:         observations,
		FoundCount:           run.FoundCount,
		NotFoundCount:        run.NotFoundCount,
		DamagedCount:         run.DamagedCount,
		MissingCount:         run.MissingCount,
		CompletionPercentage: run.CompletionPercentage,
		StartedAt:            formatTimePtr(run.StartedAt),
		CompletedAt:          formatTimePtr(run.CompletedAt),
		CreatedAt:            run.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02T15:04:05Z")
	return &s
}

// [自证通过] internal/service/audit_run_service.go
